// Package validate applies expiry and identity policy to parsed chains.
package validate

import (
	"strings"
	"time"

	"github.com/ppiankov/ssl-checker/internal/chain"
	"github.com/ppiankov/ssl-checker/internal/result"
)

// DefaultHorizon is the expiry warning horizon applied when the caller
// configures none.
const DefaultHorizon = 30 * 24 * time.Hour

const day = 24 * time.Hour

// Validate evaluates a parsed chain against policy. The first matching
// condition wins, most severe first: structural chain faults, then expiry,
// then hostname, then the warning horizon. A sole self-signed certificate
// with a valid self-signature is judged on dates alone; self-signed-ness is
// surfaced as an attribute, not a failure.
func Validate(pc *chain.ParsedChain, target result.Target, now time.Time, horizon time.Duration) result.Outcome {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	if pc == nil || len(pc.Certs) == 0 {
		return result.Outcome{Category: result.CategoryChainInvalid, Reason: "empty chain"}
	}
	if !pc.ValidSignatures {
		return chainInvalid(pc, "broken chain of trust")
	}
	for i := range pc.Certs {
		if pc.Certs[i].NotAfter.Before(pc.Certs[i].NotBefore) {
			return chainInvalid(pc, "certificate validity window is inverted")
		}
	}

	leaf := pc.Leaf()
	days := daysUntil(now, leaf.NotAfter)

	if now.After(leaf.NotAfter) {
		return outcome(result.CategoryExpired, pc, days)
	}
	if target.ExpectedName != "" && !MatchesName(leaf.SubjectAltNames, target.ExpectedName) {
		return outcome(result.CategoryHostnameMismatch, pc, days)
	}
	if leaf.NotAfter.Sub(now) <= horizon {
		return outcome(result.CategoryExpiringSoon, pc, days)
	}
	return outcome(result.CategoryOk, pc, days)
}

// daysUntil counts whole days from now to the deadline, negative once past.
func daysUntil(now, deadline time.Time) int {
	return int(deadline.Sub(now) / day)
}

func outcome(cat result.Category, pc *chain.ParsedChain, days int) result.Outcome {
	leaf := pc.Leaf()
	return result.Outcome{
		Category:        cat,
		DaysUntilExpiry: days,
		Subject:         leaf.Subject,
		Issuer:          leaf.Issuer,
		NotAfter:        leaf.NotAfter,
		SelfSigned:      leaf.SelfSigned,
		Chain:           pc.Certs,
	}
}

func chainInvalid(pc *chain.ParsedChain, reason string) result.Outcome {
	o := result.Outcome{Category: result.CategoryChainInvalid, Reason: reason}
	if leaf := pc.Leaf(); leaf != nil {
		o.Subject = leaf.Subject
		o.Issuer = leaf.Issuer
		o.NotAfter = leaf.NotAfter
		o.SelfSigned = leaf.SelfSigned
		o.Chain = pc.Certs
	}
	return o
}

// MatchesName reports whether name is covered by any of the subject
// alternative names, exactly or by wildcard. A leading "*." label matches
// exactly one subdomain label: *.example.com covers api.example.com but not
// api.west.example.com and not example.com. Comparison is case-insensitive.
func MatchesName(sans []string, name string) bool {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	for _, san := range sans {
		san = strings.ToLower(strings.TrimSuffix(san, "."))
		if san == name {
			return true
		}
		if strings.HasPrefix(san, "*.") && matchWildcard(san, name) {
			return true
		}
	}
	return false
}

// matchWildcard matches name against a *.suffix pattern. The wildcard stands
// in for a single non-empty label and never crosses a dot boundary.
func matchWildcard(pattern, name string) bool {
	suffix := pattern[2:]
	if suffix == "" {
		return false
	}
	idx := strings.Index(name, ".")
	if idx <= 0 {
		return false
	}
	return name[idx+1:] == suffix
}
