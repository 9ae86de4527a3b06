package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the client request metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ehr_client_requests_total",
				Help: "Total number of requests sent to the EHR backend",
			},
			[]string{"method", "resource", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ehr_client_request_duration_seconds",
				Help:    "Duration of requests sent to the EHR backend in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "resource"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.requestDuration)
	}
	return m
}

// observe records one request. code is 0 for transport failures.
func (m *Metrics) observe(method string, resource string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, resource, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, resource).Observe(elapsed.Seconds())
}

func (m *Metrics) RequestsTotal() *prometheus.CounterVec {
	return m.requestsTotal
}
