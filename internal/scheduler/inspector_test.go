package scheduler

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/ppiankov/ssl-checker/internal/probe"
	"github.com/ppiankov/ssl-checker/internal/result"
)

func TestConnectOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want result.Category
	}{
		{"timeout", &probe.ConnectError{Kind: probe.ErrTimeout}, result.CategoryTimeout},
		{"handshake", &probe.ConnectError{Kind: probe.ErrHandshakeFailed}, result.CategoryHandshakeFailed},
		{"refused", &probe.ConnectError{Kind: probe.ErrRefused}, result.CategoryUnreachable},
		{"dns", &probe.ConnectError{Kind: probe.ErrDNSFailure}, result.CategoryUnreachable},
		{"unreachable", &probe.ConnectError{Kind: probe.ErrUnreachable}, result.CategoryUnreachable},
		{"unclassified", errors.New("boom"), result.CategoryUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := connectOutcome(tt.err)
			if o.Category != tt.want {
				t.Errorf("category = %q, want %q", o.Category, tt.want)
			}
			if o.Cause == "" {
				t.Error("expected a cause on a transport outcome")
			}
		})
	}
}

func TestInspect_DialFailure(t *testing.T) {
	dial := func(_ context.Context, _, _ string) (net.Conn, error) {
		return nil, &net.DNSError{Err: "no such host", Name: "gone.example.com"}
	}

	insp := NewInspector(0, WithDialer(dial))
	o := insp.Inspect(context.Background(), result.Target{Host: "gone.example.com", Port: 443, Timeout: time.Second})

	if o.Category != result.CategoryUnreachable {
		t.Errorf("category = %q, want unreachable", o.Category)
	}
}

func TestInspect_EndToEnd(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "inspect.test"},
		DNSNames:     []string{"inspect.test"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(90 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert := tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12})
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close() //nolint:errcheck // test listener

	go func() {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			return
		}
		conn.(*tls.Conn).Handshake() //nolint:errcheck // client side asserts
		conn.Close()                 //nolint:errcheck // test peer
	}()

	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	target := result.Target{Host: "127.0.0.1", Port: port, ExpectedName: "inspect.test", Timeout: 2 * time.Second}

	insp := NewInspector(30 * 24 * time.Hour)
	o := insp.Inspect(context.Background(), target)

	if o.Category != result.CategoryOk {
		t.Fatalf("category = %q (reason=%q cause=%q), want ok", o.Category, o.Reason, o.Cause)
	}
	if !o.SelfSigned {
		t.Error("expected SelfSigned on a self-signed server certificate")
	}
	if o.DaysUntilExpiry < 89 || o.DaysUntilExpiry > 90 {
		t.Errorf("daysUntilExpiry = %d, want ~90", o.DaysUntilExpiry)
	}
	if len(o.Chain) != 1 {
		t.Errorf("chain length = %d, want 1", len(o.Chain))
	}
}
