package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics counts wallet mutation outcomes and settlement recovery work.
type LedgerMetrics struct {
	versionConflicts  *prometheus.CounterVec
	settlementRetries prometheus.Counter
	compensations     prometheus.Counter
	autoCancels       prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_version_conflicts_total",
		Help: "Wallet mutations rejected by the optimistic version check.",
	}, []string{"kind"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_retries_total",
		Help: "Seller credit retries performed by the reconciliation sweep.",
	})
	comps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_compensations_total",
		Help: "Settlement compensations recorded after a failed seller credit.",
	})
	cancels := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_auto_cancels_total",
		Help: "Orders cancelled by the confirmation deadline sweep.",
	})
	reg.MustRegister(conflicts, retries, comps, cancels)
	return &LedgerMetrics{
		versionConflicts:  conflicts,
		settlementRetries: retries,
		compensations:     comps,
		autoCancels:       cancels,
	}
}

// IncVersionConflict records a rejected conditional wallet update.
func (m *LedgerMetrics) IncVersionConflict(kind string) {
	if m == nil || m.versionConflicts == nil {
		return
	}
	m.versionConflicts.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncSettlementRetry records one reconciliation attempt at crediting a seller.
func (m *LedgerMetrics) IncSettlementRetry() {
	if m == nil || m.settlementRetries == nil {
		return
	}
	m.settlementRetries.Inc()
}

// IncCompensation records a newly persisted settlement compensation.
func (m *LedgerMetrics) IncCompensation() {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.Inc()
}

// IncAutoCancel records an order cancelled for missing its confirmation deadline.
func (m *LedgerMetrics) IncAutoCancel() {
	if m == nil || m.autoCancels == nil {
		return
	}
	m.autoCancels.Inc()
}
