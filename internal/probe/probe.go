// Package probe opens TLS connections and captures the certificate chains
// servers present, without trusting them.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/ppiankov/ssl-checker/internal/chain"
	"github.com/ppiankov/ssl-checker/internal/result"
)

// DefaultTimeout bounds a single connect+handshake when the target sets none.
const DefaultTimeout = 5 * time.Second

// DialContextFunc is the signature used to establish TCP connections.
// Injecting it lets tests and proxies replace the transport.
type DialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ErrorKind discriminates connection failures.
type ErrorKind string

const (
	ErrTimeout         ErrorKind = "timeout"
	ErrRefused         ErrorKind = "refused"
	ErrDNSFailure      ErrorKind = "dns-failure"
	ErrHandshakeFailed ErrorKind = "handshake-failed"
	ErrUnreachable     ErrorKind = "unreachable" // dial faults that are neither refused nor DNS
)

// ConnectError wraps a transport fault with its classification.
type ConnectError struct {
	Kind ErrorKind
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Connect dials the target and performs a TLS handshake, returning the raw
// chain the server presented, leaf first. Certificate verification is
// disabled at the transport so that expired, mismatched or self-signed chains
// are captured for inspection instead of rejected. One socket per call, no
// retries; retry policy belongs to the caller.
func Connect(ctx context.Context, t result.Target) (chain.RawChain, error) {
	return ConnectWithDialer(ctx, t, (&net.Dialer{}).DialContext)
}

// ConnectWithDialer is Connect with the TCP dial function supplied by the caller.
func ConnectWithDialer(ctx context.Context, t result.Target, dialFn DialContextFunc) (chain.RawChain, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rawConn, err := dialFn(ctx, "tcp", t.Addr())
	if err != nil {
		return nil, classifyDialError(err)
	}

	serverName := t.ExpectedName
	if serverName == "" {
		serverName = t.Host
	}

	tlsConn := tls.Client(rawConn, &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: true, //nolint:gosec // inspection mode; trust is evaluated by the validator
	})

	if hsErr := tlsConn.HandshakeContext(ctx); hsErr != nil {
		rawConn.Close() //nolint:errcheck // best-effort cleanup on handshake failure
		return nil, classifyHandshakeError(hsErr)
	}

	state := tlsConn.ConnectionState()
	tlsConn.Close() //nolint:errcheck // read-only probe, close error is unactionable

	if len(state.PeerCertificates) == 0 {
		return nil, &ConnectError{Kind: ErrHandshakeFailed, Err: errors.New("no peer certificates presented")}
	}

	raw := make(chain.RawChain, 0, len(state.PeerCertificates))
	for _, c := range state.PeerCertificates {
		raw = append(raw, c.Raw)
	}
	return raw, nil
}

func classifyDialError(err error) *ConnectError {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ConnectError{Kind: ErrDNSFailure, Err: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &ConnectError{Kind: ErrRefused, Err: err}
	}
	if isTimeout(err) {
		return &ConnectError{Kind: ErrTimeout, Err: err}
	}
	return &ConnectError{Kind: ErrUnreachable, Err: err}
}

func classifyHandshakeError(err error) *ConnectError {
	if isTimeout(err) {
		return &ConnectError{Kind: ErrTimeout, Err: err}
	}
	return &ConnectError{Kind: ErrHandshakeFailed, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
