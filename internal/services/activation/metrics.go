package activation

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/license-activator/internal/models"
)

// Metrics - счётчики сверок.
type Metrics struct {
	attemptsTotal      *prometheus.CounterVec
	tokensGrantedTotal *prometheus.CounterVec
}

// NewMetrics создаёт счётчики и регистрирует их в reg.
// При reg == nil счётчики не регистрируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "license_activator",
				Subsystem: "activation",
				Name:      "attempts_total",
				Help:      "Total reconciliation attempts by outcome kind",
			},
			[]string{"kind"},
		),
		tokensGrantedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "license_activator",
				Name:      "tokens_granted_total",
				Help:      "Total tokens granted by plan category",
			},
			[]string{"category"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.attemptsTotal, m.tokensGrantedTotal)
	}
	return m
}

// RecordAttempt учитывает попытку сверки. Успех учитывается с видом "ok".
func (m *Metrics) RecordAttempt(o Outcome) {
	kind := string(o.Kind)
	if o.OK {
		kind = "ok"
	}
	m.attemptsTotal.WithLabelValues(kind).Inc()
}

// RecordTokens учитывает начисленные токены.
func (m *Metrics) RecordTokens(category models.PlanCategory, delta int64) {
	if delta <= 0 {
		return
	}
	m.tokensGrantedTotal.WithLabelValues(string(category)).Add(float64(delta))
}
