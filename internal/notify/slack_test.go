package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/ssl-checker/internal/result"
)

func mkReport(cats ...result.Category) result.Report {
	rep := result.Report{
		At:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Summary: map[result.Category]int{},
	}
	for i, c := range cats {
		rep.Results = append(rep.Results, result.TargetOutcome{
			Target:  result.Target{Host: "host" + string(rune('a'+i)) + ".test", Port: 443},
			Outcome: result.Outcome{Category: c},
		})
		rep.Summary[c]++
	}
	return rep
}

func TestNew_EmptyURLReturnsNil(t *testing.T) {
	if n := New(""); n != nil {
		t.Error("expected nil notifier for empty webhook URL")
	}
}

func TestSend(t *testing.T) {
	var body payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("body is not valid JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rep := mkReport(result.CategoryOk, result.CategoryExpired)
	rep.Results[1].Outcome.Reason = "broken chain of trust"

	n := New(srv.URL)
	n.Send(rep)

	if !strings.Contains(body.Text, "SSL checker report") {
		t.Errorf("missing header in %q", body.Text)
	}
	if !strings.Contains(body.Text, "hosta.test:443: ok") {
		t.Errorf("missing ok line in %q", body.Text)
	}
	if !strings.Contains(body.Text, "hostb.test:443: expired (broken chain of trust)") {
		t.Errorf("missing failure line in %q", body.Text)
	}
}

func TestSend_ExpiryRendered(t *testing.T) {
	var body payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rep := mkReport(result.CategoryExpiringSoon)
	rep.Results[0].Outcome.NotAfter = rep.At.Add(12*24*time.Hour + time.Hour)

	New(srv.URL).Send(rep)

	if !strings.Contains(body.Text, "expires 12d") {
		t.Errorf("missing expiry in %q", body.Text)
	}
}

func TestSend_DeliveryFailureDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // refuse connections

	New(srv.URL).Send(mkReport(result.CategoryOk))
}

func TestHasProblems(t *testing.T) {
	tests := []struct {
		name string
		rep  result.Report
		want bool
	}{
		{"all ok", mkReport(result.CategoryOk, result.CategoryOk), false},
		{"empty", mkReport(), false},
		{"expiring", mkReport(result.CategoryOk, result.CategoryExpiringSoon), true},
		{"transport", mkReport(result.CategoryUnreachable), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasProblems(tt.rep); got != tt.want {
				t.Errorf("HasProblems = %v, want %v", got, tt.want)
			}
		})
	}
}
