package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/ssl-checker/internal/result"
)

// State glyphs, one per days-remaining tier plus a pass/fail mark per target.
const (
	glyphOK    = "\U0001F7E2" // green circle
	glyphWarn  = "\U0001F7E1" // yellow circle
	glyphError = "\U0001F534" // red circle
	glyphPass  = "✅"     // check mark
	glyphFail  = "❌"     // cross mark
)

// PlainText renders a report as aligned terminal output, one line per target
// plus a summary. errorDays draws the line between the yellow and red tiers
// for certificates that are still valid.
func PlainText(rep result.Report, errorDays int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ssl_checker report — %s\n\n", rep.At.UTC().Format("2006-01-02 15:04:05 UTC"))

	for i := range rep.Results {
		r := &rep.Results[i]
		fmt.Fprintf(&b, "%s %s %-18s %s%s\n",
			stateGlyph(r.Outcome, errorDays),
			passGlyph(r.Outcome),
			r.Outcome.Category,
			r.Target.Addr(),
			detail(&r.Outcome),
		)
	}

	fmt.Fprintf(&b, "\n%s\n", summaryLine(rep))
	return b.String()
}

func stateGlyph(o result.Outcome, errorDays int) string {
	switch o.Category {
	case result.CategoryOk, result.CategoryExpiringSoon:
		if o.DaysUntilExpiry <= errorDays {
			return glyphError
		}
		if o.Category == result.CategoryExpiringSoon {
			return glyphWarn
		}
		return glyphOK
	default:
		return glyphError
	}
}

func passGlyph(o result.Outcome) string {
	switch o.Category {
	case result.CategoryOk, result.CategoryExpiringSoon:
		return glyphPass
	default:
		return glyphFail
	}
}

func detail(o *result.Outcome) string {
	switch {
	case o.Cause != "":
		return fmt.Sprintf("  %s", o.Cause)
	case o.Reason != "":
		return fmt.Sprintf("  %s", o.Reason)
	case o.Category == result.CategoryExpired:
		return fmt.Sprintf("  issuer=%q expired %dd ago", o.Issuer, -o.DaysUntilExpiry)
	case o.Category == result.CategoryHostnameMismatch:
		return fmt.Sprintf("  subject=%q does not cover expected name", o.Subject)
	case o.NotAfter.IsZero():
		return ""
	default:
		return fmt.Sprintf("  issuer=%q %dd remaining", o.Issuer, o.DaysUntilExpiry)
	}
}

func summaryLine(rep result.Report) string {
	// Stable order for the categories that appear.
	order := []result.Category{
		result.CategoryOk,
		result.CategoryExpiringSoon,
		result.CategoryExpired,
		result.CategoryHostnameMismatch,
		result.CategoryChainInvalid,
		result.CategoryUnreachable,
		result.CategoryHandshakeFailed,
		result.CategoryTimeout,
	}
	parts := make([]string, 0, len(order))
	for _, cat := range order {
		if n := rep.Summary[cat]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", cat, n))
		}
	}
	if len(parts) == 0 {
		return "no targets checked"
	}
	return fmt.Sprintf("%d target(s): %s", len(rep.Results), strings.Join(parts, " "))
}

// ExpiresIn renders a human relative expiry for a leaf, used by notifications.
func ExpiresIn(notAfter time.Time, now time.Time) string {
	if notAfter.IsZero() {
		return ""
	}
	d := notAfter.Sub(now)
	if d < 0 {
		return "EXPIRED"
	}
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
