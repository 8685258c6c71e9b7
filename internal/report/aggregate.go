// Package report assembles and renders check run reports.
package report

import (
	"time"

	"github.com/ppiankov/ssl-checker/internal/result"
)

// Aggregate reduces ordered per-target outcomes into a report with summary
// counts. Pure: no I/O, no failure path. outcomes[i] must belong to
// targets[i]; the pairing order is preserved.
func Aggregate(targets []result.Target, outcomes []result.Outcome, at time.Time) result.Report {
	rep := result.Report{
		At:      at,
		Results: make([]result.TargetOutcome, 0, len(targets)),
		Summary: make(map[result.Category]int),
	}
	for i := range targets {
		rep.Results = append(rep.Results, result.TargetOutcome{
			Target:  targets[i],
			Outcome: outcomes[i],
		})
		rep.Summary[outcomes[i].Category]++
	}
	return rep
}
