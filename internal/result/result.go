// Package result defines the targets, outcomes and reports shared across the checker.
package result

import (
	"net"
	"strconv"
	"time"

	"github.com/ppiankov/ssl-checker/internal/chain"
)

// Category classifies the outcome of inspecting one target.
type Category string

const (
	CategoryOk               Category = "ok"
	CategoryExpiringSoon     Category = "expiring-soon"
	CategoryExpired          Category = "expired"
	CategoryHostnameMismatch Category = "hostname-mismatch"
	CategoryChainInvalid     Category = "chain-invalid"
	CategoryUnreachable      Category = "unreachable"
	CategoryHandshakeFailed  Category = "handshake-failed"
	CategoryTimeout          Category = "timeout"
)

// Target is one endpoint to check. Immutable once built; lifetime is one run.
type Target struct {
	Host         string        `json:"host"`
	Port         uint16        `json:"port"`
	ExpectedName string        `json:"expectedName,omitempty"` // empty = skip hostname check
	Timeout      time.Duration `json:"timeout,omitempty"`      // zero = scheduler default
}

// Addr returns the host:port dial address.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// Outcome is the single result produced for a target. Exactly one of the
// failure-describing fields is meaningful per category: Reason for
// chain-invalid, Cause for transport faults.
type Outcome struct {
	Category        Category            `json:"category"`
	DaysUntilExpiry int                 `json:"daysUntilExpiry"` // negative once expired
	Subject         string              `json:"subject,omitempty"`
	Issuer          string              `json:"issuer,omitempty"`
	NotAfter        time.Time           `json:"notAfter,omitzero"`
	SelfSigned      bool                `json:"selfSigned,omitempty"`
	Chain           []chain.Certificate `json:"chain,omitempty"`
	Reason          string              `json:"reason,omitempty"`
	Cause           string              `json:"cause,omitempty"`
}

// TransportFault reports whether the outcome is a connection-level failure
// rather than a statement about the certificate itself.
func (o Outcome) TransportFault() bool {
	switch o.Category {
	case CategoryUnreachable, CategoryHandshakeFailed, CategoryTimeout:
		return true
	default:
		return false
	}
}

// PolicyFault reports whether the outcome is a certificate policy or content
// failure (the chain was obtained but did not pass).
func (o Outcome) PolicyFault() bool {
	switch o.Category {
	case CategoryExpired, CategoryHostnameMismatch, CategoryChainInvalid:
		return true
	default:
		return false
	}
}

// TargetOutcome pairs a target with its outcome.
type TargetOutcome struct {
	Target  Target  `json:"target"`
	Outcome Outcome `json:"outcome"`
}

// Report is the ordered result set of one run. Results order equals target
// submission order, never completion order.
type Report struct {
	At      time.Time        `json:"at"`
	Results []TargetOutcome  `json:"results"`
	Summary map[Category]int `json:"summary"`
}
