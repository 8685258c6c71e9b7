// Package metrics provides Prometheus instrumentation for ssl_checker.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/ssl-checker/internal/result"
)

// Collector translates a report into Prometheus gauge values.
type Collector struct {
	certNotAfter  *prometheus.GaugeVec
	certExpiresIn *prometheus.GaugeVec
	checkSuccess  *prometheus.GaugeVec
	outcomesTotal *prometheus.GaugeVec
	checkDuration prometheus.Gauge
	mu            sync.Mutex
}

// NewCollector creates and registers metrics on the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		certNotAfter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ssl_checker",
			Name:      "cert_not_after_timestamp",
			Help:      "Unix timestamp of the leaf certificate notAfter.",
		}, []string{"target", "category"}),

		certExpiresIn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ssl_checker",
			Name:      "cert_expires_in_seconds",
			Help:      "Seconds until the leaf certificate expires (negative if expired).",
		}, []string{"target", "category"}),

		checkSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ssl_checker",
			Name:      "check_success",
			Help:      "Whether a certificate chain was obtained from the target (1=yes, 0=no).",
		}, []string{"target"}),

		outcomesTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ssl_checker",
			Name:      "outcomes_total",
			Help:      "Number of targets per outcome category in the last run.",
		}, []string{"category"}),

		checkDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ssl_checker",
			Name:      "check_duration_seconds",
			Help:      "Duration of the last check run in seconds.",
		}),
	}

	reg.MustRegister(c.certNotAfter)
	reg.MustRegister(c.certExpiresIn)
	reg.MustRegister(c.checkSuccess)
	reg.MustRegister(c.outcomesTotal)
	reg.MustRegister(c.checkDuration)

	return c
}

// Update replaces all metric values from the given report.
func (c *Collector) Update(rep result.Report, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.certNotAfter.Reset()
	c.certExpiresIn.Reset()
	c.checkSuccess.Reset()
	c.outcomesTotal.Reset()

	c.checkDuration.Set(duration.Seconds())

	for i := range rep.Results {
		r := &rep.Results[i]
		addr := r.Target.Addr()

		if r.Outcome.TransportFault() {
			c.checkSuccess.With(prometheus.Labels{"target": addr}).Set(0)
		} else {
			c.checkSuccess.With(prometheus.Labels{"target": addr}).Set(1)
		}

		if !r.Outcome.NotAfter.IsZero() {
			labels := prometheus.Labels{
				"target":   addr,
				"category": string(r.Outcome.Category),
			}
			c.certNotAfter.With(labels).Set(float64(r.Outcome.NotAfter.Unix()))
			c.certExpiresIn.With(labels).Set(r.Outcome.NotAfter.Sub(rep.At).Seconds())
		}
	}

	for cat, count := range rep.Summary {
		c.outcomesTotal.With(prometheus.Labels{"category": string(cat)}).Set(float64(count))
	}
}
