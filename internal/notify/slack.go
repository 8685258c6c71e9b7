// Package notify delivers check reports to a Slack incoming webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/ssl-checker/internal/report"
	"github.com/ppiankov/ssl-checker/internal/result"
)

const httpTimeout = 10 * time.Second

// Notifier posts run reports to a Slack incoming webhook.
type Notifier struct {
	client     *http.Client
	webhookURL string
}

// New creates a Notifier. Returns nil when no webhook is configured, so the
// caller can gate on a nil check.
func New(webhookURL string) *Notifier {
	if webhookURL == "" {
		return nil
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// payload is the Slack incoming-webhook body.
type payload struct {
	Text string `json:"text"`
}

// Send posts a text rendering of the report. Delivery is fire-and-forget:
// failures are logged, never returned, so a broken webhook cannot fail a run.
func (n *Notifier) Send(rep result.Report) {
	var b strings.Builder
	fmt.Fprintf(&b, "SSL checker report — %s (UTC)\n\n", rep.At.UTC().Format("2006-01-02 15:04:05"))

	for i := range rep.Results {
		r := &rep.Results[i]
		fmt.Fprintf(&b, "%s: %s", r.Target.Addr(), r.Outcome.Category)
		switch {
		case r.Outcome.Cause != "":
			fmt.Fprintf(&b, " (%s)", r.Outcome.Cause)
		case r.Outcome.Reason != "":
			fmt.Fprintf(&b, " (%s)", r.Outcome.Reason)
		case !r.Outcome.NotAfter.IsZero():
			fmt.Fprintf(&b, " (expires %s)", report.ExpiresIn(r.Outcome.NotAfter, rep.At))
		}
		b.WriteString("\n")
	}

	body, err := json.Marshal(payload{Text: b.String()})
	if err != nil {
		slog.Warn("notification: marshal error", "err", err)
		return
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(body)) //nolint:noctx // fire-and-forget notification
	if err != nil {
		slog.Warn("notification: webhook delivery failed", "err", err)
		return
	}
	defer resp.Body.Close() //nolint:errcheck // read-only close
	if resp.StatusCode >= 300 {
		slog.Warn("notification: webhook returned non-2xx", "status", resp.StatusCode)
		return
	}
	slog.Info("notification sent", "targets", len(rep.Results))
}

// HasProblems reports whether any target landed outside ok. Serve mode uses
// it to avoid posting a webhook for every healthy cycle.
func HasProblems(rep result.Report) bool {
	for cat, n := range rep.Summary {
		if cat != result.CategoryOk && n > 0 {
			return true
		}
	}
	return false
}
