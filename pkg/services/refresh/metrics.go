package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

type Metrics struct {
	refreshes     *prometheus.CounterVec
	duration      prometheus.Histogram
	sourceFetches *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	batchProjects *prometheus.CounterVec
}

// NewMetrics creates the refresh metrics and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posture_refresh_total",
			Help: "Project refreshes by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "posture_refresh_duration_seconds",
			Help:    "Duration of a single project refresh.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posture_source_fetch_total",
			Help: "Control source fetches by source and result.",
		}, []string{"source", "result"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posture_normalize_skipped_total",
			Help: "Raw records skipped during normalization.",
		}, []string{"source"}),
		batchProjects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posture_batch_projects_total",
			Help: "Projects processed by organization refreshes by result.",
		}, []string{"result"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.refreshes, m.duration, m.sourceFetches, m.skipped, m.batchProjects} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func result(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
