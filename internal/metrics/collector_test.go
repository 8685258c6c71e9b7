package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/ssl-checker/internal/result"
)

func mkReport(at time.Time) result.Report {
	targets := []result.Target{
		{Host: "ok.test", Port: 443},
		{Host: "down.test", Port: 8443},
	}
	outcomes := []result.Outcome{
		{Category: result.CategoryOk, DaysUntilExpiry: 90, NotAfter: at.Add(90 * 24 * time.Hour)},
		{Category: result.CategoryUnreachable, Cause: "refused"},
	}

	rep := result.Report{At: at, Summary: map[result.Category]int{}}
	for i := range targets {
		rep.Results = append(rep.Results, result.TargetOutcome{Target: targets[i], Outcome: outcomes[i]})
		rep.Summary[outcomes[i].Category]++
	}
	return rep
}

func TestCollector_Update(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Update(mkReport(at), 1500*time.Millisecond)

	if got := testutil.ToFloat64(c.checkSuccess.WithLabelValues("ok.test:443")); got != 1 {
		t.Errorf("check_success{ok.test:443} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.checkSuccess.WithLabelValues("down.test:8443")); got != 0 {
		t.Errorf("check_success{down.test:8443} = %v, want 0", got)
	}

	wantNotAfter := float64(at.Add(90 * 24 * time.Hour).Unix())
	if got := testutil.ToFloat64(c.certNotAfter.WithLabelValues("ok.test:443", "ok")); got != wantNotAfter {
		t.Errorf("cert_not_after = %v, want %v", got, wantNotAfter)
	}

	wantExpiresIn := (90 * 24 * time.Hour).Seconds()
	if got := testutil.ToFloat64(c.certExpiresIn.WithLabelValues("ok.test:443", "ok")); got != wantExpiresIn {
		t.Errorf("cert_expires_in = %v, want %v", got, wantExpiresIn)
	}

	if got := testutil.ToFloat64(c.outcomesTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("outcomes_total{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.outcomesTotal.WithLabelValues("unreachable")); got != 1 {
		t.Errorf("outcomes_total{unreachable} = %v, want 1", got)
	}

	if got := testutil.ToFloat64(c.checkDuration); got != 1.5 {
		t.Errorf("check_duration = %v, want 1.5", got)
	}
}

func TestCollector_UpdateResetsStaleSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Update(mkReport(at), time.Second)

	// Second run drops down.test; its series must disappear.
	rep := result.Report{
		At: at.Add(time.Hour),
		Results: []result.TargetOutcome{{
			Target:  result.Target{Host: "ok.test", Port: 443},
			Outcome: result.Outcome{Category: result.CategoryOk, DaysUntilExpiry: 89, NotAfter: at.Add(89 * 24 * time.Hour)},
		}},
		Summary: map[result.Category]int{result.CategoryOk: 1},
	}
	c.Update(rep, time.Second)

	if got := testutil.CollectAndCount(c.checkSuccess); got != 1 {
		t.Errorf("check_success series = %d, want 1 after reset", got)
	}
	if got := testutil.CollectAndCount(c.outcomesTotal); got != 1 {
		t.Errorf("outcomes_total series = %d, want 1 after reset", got)
	}
}

func TestNewCollector_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.Update(mkReport(time.Now()), time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	want := map[string]bool{
		"ssl_checker_cert_not_after_timestamp": false,
		"ssl_checker_cert_expires_in_seconds":  false,
		"ssl_checker_check_success":            false,
		"ssl_checker_outcomes_total":           false,
		"ssl_checker_check_duration_seconds":   false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}
