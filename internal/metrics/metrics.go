package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Billing holds the billing-facing counters exposed on /metrics.
type Billing struct {
	DocumentsCreated *prometheus.CounterVec
	Recomputations   *prometheus.CounterVec
	ConfigWarnings   prometheus.Counter
}

func NewBilling() *Billing {
	return &Billing{
		DocumentsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facturio",
			Name:      "documents_created_total",
			Help:      "Documents created, by document type.",
		}, []string{"document_type"}),
		Recomputations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facturio",
			Name:      "totals_recomputations_total",
			Help:      "Full totals recomputations, by document type.",
		}, []string{"document_type"}),
		ConfigWarnings: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "facturio",
			Name:      "tax_config_warnings_total",
			Help:      "Tax configuration gaps hit during computations.",
		}),
	}
}

// Module wires the billing metrics registered on the default registry.
var Module = fx.Module("metrics",
	fx.Provide(NewBilling),
)
