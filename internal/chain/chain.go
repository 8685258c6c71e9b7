// Package chain decodes raw TLS certificate chains into structured records.
package chain

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"time"
)

// RawChain is the DER-encoded chain as presented by a server, leaf first.
// Owned by the connector until handed to Parse; never mutated here.
type RawChain [][]byte

// Certificate is the parsed, read-only view of one chain entry.
type Certificate struct {
	Subject         string    `json:"subject"`
	Issuer          string    `json:"issuer"`
	NotBefore       time.Time `json:"notBefore"`
	NotAfter        time.Time `json:"notAfter"`
	SubjectAltNames []string  `json:"subjectAltNames,omitempty"`
	SelfSigned      bool      `json:"selfSigned"`
	Fingerprint     string    `json:"fingerprint"` // SHA-256 over the DER encoding

	x *x509.Certificate
}

// X509 returns the underlying certificate for signature and date checks.
func (c *Certificate) X509() *x509.Certificate { return c.x }

// ParsedChain is an ordered chain, leaf first, in the same order the raw
// chain arrived. ValidSignatures is true when every adjacent pair links
// issuer-to-subject and each signature verifies against the next key.
type ParsedChain struct {
	Certs           []Certificate `json:"certs"`
	ValidSignatures bool          `json:"validSignatures"`
}

// Leaf returns the first certificate or nil for an empty chain.
func (p *ParsedChain) Leaf() *Certificate {
	if len(p.Certs) == 0 {
		return nil
	}
	return &p.Certs[0]
}

// ParseErrorKind discriminates parse failures.
type ParseErrorKind string

const (
	ParseEmpty     ParseErrorKind = "empty"
	ParseMalformed ParseErrorKind = "malformed"
)

// ParseError reports why a raw chain could not be decoded.
type ParseError struct {
	Kind  ParseErrorKind
	Index int // position of the offending entry, valid for malformed
	Err   error
}

func (e *ParseError) Error() string {
	if e.Kind == ParseEmpty {
		return "chain contains no certificates"
	}
	return fmt.Sprintf("malformed certificate at position %d: %v", e.Index, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes each DER entry into a Certificate record, preserving order.
// No reordering or deduplication happens here.
func Parse(raw RawChain) (*ParsedChain, error) {
	if len(raw) == 0 {
		return nil, &ParseError{Kind: ParseEmpty}
	}

	certs := make([]Certificate, 0, len(raw))
	xs := make([]*x509.Certificate, 0, len(raw))
	for i, der := range raw {
		xc, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, &ParseError{Kind: ParseMalformed, Index: i, Err: err}
		}
		certs = append(certs, fromX509(xc))
		xs = append(xs, xc)
	}

	return &ParsedChain{Certs: certs, ValidSignatures: checkLinkage(xs)}, nil
}

func fromX509(x *x509.Certificate) Certificate {
	sum := sha256.Sum256(x.Raw)
	return Certificate{
		Subject:         x.Subject.String(),
		Issuer:          x.Issuer.String(),
		NotBefore:       x.NotBefore,
		NotAfter:        x.NotAfter,
		SubjectAltNames: altNames(x),
		SelfSigned:      isSelfSigned(x),
		Fingerprint:     hex.EncodeToString(sum[:]),
		x:               x,
	}
}

// altNames collects DNS, IP and URI subject alternative names as strings.
func altNames(x *x509.Certificate) []string {
	names := make([]string, 0, len(x.DNSNames)+len(x.IPAddresses)+len(x.URIs))
	names = append(names, x.DNSNames...)
	for _, ip := range x.IPAddresses {
		names = append(names, ip.String())
	}
	for _, u := range x.URIs {
		names = append(names, u.String())
	}
	return names
}

// isSelfSigned requires the raw issuer to equal the raw subject byte for byte
// and the signature to verify against the certificate's own public key.
func isSelfSigned(c *x509.Certificate) bool {
	if !bytes.Equal(c.RawSubject, c.RawIssuer) {
		return false
	}
	return c.CheckSignature(c.SignatureAlgorithm, c.RawTBSCertificate, c.Signature) == nil
}

// checkLinkage verifies issuer/subject adjacency and signatures along the
// chain. A single self-issued certificate must carry a valid self-signature;
// a single certificate with an absent issuer is vacuously linked.
func checkLinkage(xs []*x509.Certificate) bool {
	if len(xs) == 1 {
		c := xs[0]
		if bytes.Equal(c.RawSubject, c.RawIssuer) {
			return isSelfSigned(c)
		}
		return true
	}
	for i := 0; i < len(xs)-1; i++ {
		if !bytes.Equal(xs[i].RawIssuer, xs[i+1].RawSubject) {
			return false
		}
		if err := xs[i].CheckSignatureFrom(xs[i+1]); err != nil {
			return false
		}
	}
	return true
}

// ParsePEMBundle decodes all CERTIFICATE PEM blocks from data into a raw
// chain, for chains supplied as files instead of over a handshake.
func ParsePEMBundle(data []byte) (RawChain, error) {
	var raw RawChain
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		raw = append(raw, block.Bytes)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no PEM certificate blocks found")
	}
	return raw, nil
}
