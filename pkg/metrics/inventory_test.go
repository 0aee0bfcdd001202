package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInventoryMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewInventoryMetrics(reg)

	metrics.IncAdjustment("sale")
	metrics.IncAdjustment("sale")
	metrics.IncReservation("committed")
	metrics.IncInsufficientStock()
	metrics.IncConflictRetry()
	metrics.IncAlert("low_stock")
	metrics.IncAlertSuppressed()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stock_adjustments_total", "type", "sale"); err != nil {
		t.Fatalf("fetch adjustments: %v", err)
	} else if got != 2 {
		t.Fatalf("expected adjustments=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_reservations_total", "outcome", "committed"); err != nil {
		t.Fatalf("fetch reservations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected reservations=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_alerts_total", "type", "low_stock"); err != nil {
		t.Fatalf("fetch alerts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected alerts=1, got %f", got)
	}
}

func TestInventoryMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewInventoryMetrics(nil)
	metrics.IncAdjustment("sale")
	metrics.IncReservation("released")
	metrics.IncInsufficientStock()
	metrics.IncConflictRetry()
	metrics.IncAlert("critical")
	metrics.IncAlertSuppressed()
}
