package metrics

import "github.com/prometheus/client_golang/prometheus"

// InventoryMetrics records counters for stock mutations and the alert engine.
type InventoryMetrics struct {
	adjustments       *prometheus.CounterVec
	reservations      *prometheus.CounterVec
	insufficientStock prometheus.Counter
	conflictRetries   prometheus.Counter
	alerts            *prometheus.CounterVec
	alertsSuppressed  prometheus.Counter
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Stock adjustments applied, by transaction type.",
	}, []string{"type"})
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_reservations_total",
		Help: "Reservation state transitions.",
	}, []string{"outcome"})
	insufficientStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_reservations_insufficient_total",
		Help: "Reservation attempts rejected for insufficient available stock.",
	})
	conflictRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_conflict_retries_total",
		Help: "Transient row conflicts retried inside mutation transactions.",
	})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_alerts_total",
		Help: "Low stock alerts raised, by alert type.",
	}, []string{"type"})
	alertsSuppressed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_alerts_suppressed_total",
		Help: "Alert evaluations suppressed by the cooldown window.",
	})
	reg.MustRegister(adjustments, reservations, insufficientStock, conflictRetries, alerts, alertsSuppressed)
	return &InventoryMetrics{
		adjustments:       adjustments,
		reservations:      reservations,
		insufficientStock: insufficientStock,
		conflictRetries:   conflictRetries,
		alerts:            alerts,
		alertsSuppressed:  alertsSuppressed,
	}
}

// IncAdjustment increments the adjustment counter for the transaction type.
func (m *InventoryMetrics) IncAdjustment(txType string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(normalizeLabel(txType)).Inc()
}

// IncReservation increments the reservation counter for the given outcome.
func (m *InventoryMetrics) IncReservation(outcome string) {
	if m == nil || m.reservations == nil {
		return
	}
	m.reservations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncInsufficientStock counts a rejected reservation attempt.
func (m *InventoryMetrics) IncInsufficientStock() {
	if m == nil || m.insufficientStock == nil {
		return
	}
	m.insufficientStock.Inc()
}

// IncConflictRetry counts a retried transient row conflict.
func (m *InventoryMetrics) IncConflictRetry() {
	if m == nil || m.conflictRetries == nil {
		return
	}
	m.conflictRetries.Inc()
}

// IncAlert increments the alert counter for the alert type.
func (m *InventoryMetrics) IncAlert(alertType string) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(normalizeLabel(alertType)).Inc()
}

// IncAlertSuppressed counts an evaluation silenced by the cooldown.
func (m *InventoryMetrics) IncAlertSuppressed() {
	if m == nil || m.alertsSuppressed == nil {
		return
	}
	m.alertsSuppressed.Inc()
}
