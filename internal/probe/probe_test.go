package probe

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
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/ppiankov/ssl-checker/internal/result"
)

func testTarget(host string, port uint16) result.Target {
	return result.Target{Host: host, Port: port, Timeout: 2 * time.Second}
}

func connectKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	var ce *ConnectError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConnectError, got %v", err)
	}
	return ce.Kind
}

func TestConnect_DNSFailure(t *testing.T) {
	dial := func(_ context.Context, _, _ string) (net.Conn, error) {
		return nil, &net.DNSError{Err: "no such host", Name: "nxdomain.example.com", IsNotFound: true}
	}

	_, err := ConnectWithDialer(context.Background(), testTarget("nxdomain.example.com", 443), dial)
	if kind := connectKind(t, err); kind != ErrDNSFailure {
		t.Errorf("kind = %q, want %q", kind, ErrDNSFailure)
	}
}

func TestConnect_Refused(t *testing.T) {
	dial := func(_ context.Context, _, _ string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	}

	_, err := ConnectWithDialer(context.Background(), testTarget("localhost", 1), dial)
	if kind := connectKind(t, err); kind != ErrRefused {
		t.Errorf("kind = %q, want %q", kind, ErrRefused)
	}
}

func TestConnect_DialTimeout(t *testing.T) {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	target := result.Target{Host: "slow.example.com", Port: 443, Timeout: 50 * time.Millisecond}
	_, err := ConnectWithDialer(context.Background(), target, dial)
	if kind := connectKind(t, err); kind != ErrTimeout {
		t.Errorf("kind = %q, want %q", kind, ErrTimeout)
	}
}

func TestConnect_UnreachableCatchAll(t *testing.T) {
	dial := func(_ context.Context, _, _ string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.EHOSTUNREACH)}
	}

	_, err := ConnectWithDialer(context.Background(), testTarget("unroutable.example.com", 443), dial)
	if kind := connectKind(t, err); kind != ErrUnreachable {
		t.Errorf("kind = %q, want %q", kind, ErrUnreachable)
	}
}

func TestConnect_HandshakeFailed(t *testing.T) {
	dial := func(_ context.Context, _, _ string) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			// Swallow the client hello, then hang up mid-handshake.
			buf := make([]byte, 4096)
			server.Read(buf) //nolint:errcheck // drain before close
			server.Close()   //nolint:errcheck // test peer
		}()
		return client, nil
	}

	_, err := ConnectWithDialer(context.Background(), testTarget("broken.example.com", 443), dial)
	if kind := connectKind(t, err); kind != ErrHandshakeFailed {
		t.Errorf("kind = %q, want %q", kind, ErrHandshakeFailed)
	}
}

func TestConnect_DialsHostPort(t *testing.T) {
	var gotAddr string
	dial := func(_ context.Context, network, addr string) (net.Conn, error) {
		if network != "tcp" {
			t.Errorf("network = %q, want tcp", network)
		}
		gotAddr = addr
		return nil, &net.DNSError{Err: "stop here", Name: addr}
	}

	_, _ = ConnectWithDialer(context.Background(), testTarget("example.com", 8443), dial)
	if gotAddr != "example.com:8443" {
		t.Errorf("dialed %q, want example.com:8443", gotAddr)
	}
}

// selfSignedServerCert builds a TLS server certificate for loopback tests.
func selfSignedServerCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "probe.test"},
		DNSNames:     []string{"probe.test"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func TestConnect_CapturesPresentedChain(t *testing.T) {
	cert := selfSignedServerCert(t)
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
	target := result.Target{Host: "127.0.0.1", Port: port, ExpectedName: "probe.test", Timeout: 2 * time.Second}

	raw, err := Connect(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(raw))
	}

	parsed, err := x509.ParseCertificate(raw[0])
	if err != nil {
		t.Fatalf("captured DER does not parse: %v", err)
	}
	if parsed.Subject.CommonName != "probe.test" {
		t.Errorf("subject CN = %q, want probe.test", parsed.Subject.CommonName)
	}
}

// Connect must capture an expired certificate instead of failing the handshake.
func TestConnect_CapturesExpiredChain(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "expired.test"},
		DNSNames:     []string{"expired.test"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-48 * time.Hour),
		NotAfter:     time.Now().Add(-24 * time.Hour),
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
	target := result.Target{Host: "127.0.0.1", Port: port, Timeout: 2 * time.Second}

	raw, err := Connect(context.Background(), target)
	if err != nil {
		t.Fatalf("expired certificate should still be captured, got error: %v", err)
	}
	if len(raw) != 1 {
		t.Errorf("expected 1 certificate, got %d", len(raw))
	}
}
