// metrics - Prometheus-метрики логина.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/volley-platform/web/internal/authclient"
)

const namespace = "volley"

type Login struct {
	total    *prometheus.CounterVec
	duration prometheus.Histogram
}

var _ authclient.Observer = (*Login)(nil)

// NewLogin создаёт метрики и регистрирует их в reg (nil - prometheus.DefaultRegisterer).
func NewLogin(reg prometheus.Registerer) (*Login, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Login{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_total",
			Help:      "Login attempts against the auth backend, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "login_duration_seconds",
			Help:      "Duration of login exchanges with the auth backend.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.total, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// Нулевые серии, чтобы дашборды видели все исходы сразу.
	for _, o := range []authclient.Outcome{
		authclient.OutcomeOK,
		authclient.OutcomeHTTPStatus,
		authclient.OutcomeTransport,
		authclient.OutcomeMalformed,
		authclient.OutcomeStore,
	} {
		m.total.WithLabelValues(string(o))
	}

	return m, nil
}

func (m *Login) ObserveLogin(outcome authclient.Outcome, dur time.Duration) {
	m.total.WithLabelValues(string(outcome)).Inc()
	m.duration.Observe(dur.Seconds())
}
