package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/internal/inventory"
	"github.com/agrimarket/inventory-engine/pkg/config"
	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	apperrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
)

// Service recomputes projected stock curves from historical sale velocity.
// It runs out-of-band and only reads the transaction history; it never
// touches live ledger rows.
type Service interface {
	GenerateForProduct(ctx context.Context, productID uuid.UUID, now time.Time) (int, error)
	GenerateAll(ctx context.Context, now time.Time) (int, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time) ([]models.InventoryForecast, error)
}

// Deps collects the estimator's collaborators.
type Deps struct {
	Tx        inventory.TxRunner
	Repo      Repository
	Inventory inventory.Repository
	Logger    *logger.Logger
	Config    config.ForecastConfig
}

type service struct {
	tx     inventory.TxRunner
	repo   Repository
	ledger inventory.Repository
	logg   *logger.Logger
	cfg    config.ForecastConfig
}

// NewService wires the forecast estimator.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "tx runner required")
	}
	if deps.Repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "forecast repository required")
	}
	if deps.Inventory == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "inventory repository required")
	}
	if deps.Config.WindowDays <= 0 {
		deps.Config.WindowDays = 30
	}
	if deps.Config.HorizonDays <= 0 {
		deps.Config.HorizonDays = 14
	}
	return &service{
		tx:     deps.Tx,
		repo:   deps.Repo,
		ledger: deps.Inventory,
		logg:   deps.Logger,
		cfg:    deps.Config,
	}, nil
}

// GenerateForProduct recomputes the product's projection for the configured
// horizon, superseding prior rows for those dates. Products with no sales in
// the trailing window produce no rows at all. Returns the row count written.
func (s *service) GenerateForProduct(ctx context.Context, productID uuid.UUID, now time.Time) (int, error) {
	if productID == uuid.Nil {
		return 0, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	entry, err := s.ledger.FindByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, apperrors.New(apperrors.CodeNotFound, "ledger entry not found")
	}

	since := now.AddDate(0, 0, -s.cfg.WindowDays)
	sales, err := s.ledger.ListSales(ctx, productID, since)
	if err != nil {
		return 0, err
	}
	daily := bucketDailySales(sales, since, s.cfg.WindowDays)

	curve := projectSales(entry.ForecastMethod, daily, s.cfg.HorizonDays)
	if curve == nil {
		// No sales history: write nothing rather than a garbage curve.
		return 0, nil
	}
	confidence := confidenceScore(daily)

	today := now.Truncate(24 * time.Hour)
	rows := make([]models.InventoryForecast, 0, s.cfg.HorizonDays)
	remaining := float64(entry.Available())
	for day := 0; day < s.cfg.HorizonDays; day++ {
		remaining -= curve[day]
		if remaining < 0 {
			remaining = 0
		}
		rows = append(rows, models.InventoryForecast{
			ID:             uuid.New(),
			ProductID:      productID,
			ForecastDate:   today.AddDate(0, 0, day+1),
			ProjectedStock: decimal.NewFromFloat(remaining).Round(4),
			ProjectedSales: decimal.NewFromFloat(curve[day]).Round(4),
			Method:         entry.ForecastMethod,
			Confidence:     decimal.NewFromFloat(confidence).Round(2),
			WindowDays:     s.cfg.WindowDays,
			GeneratedAt:    now,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Replace(ctx, productID, today, rows)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// GenerateAll walks every ledger entry. Per-product failures are collected
// rather than aborting so one product cannot starve the rest of the run.
func (s *service) GenerateAll(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.ledger.ListProductIDs(ctx)
	if err != nil {
		return 0, err
	}
	written := 0
	var errs []error
	for _, id := range ids {
		n, err := s.GenerateForProduct(ctx, id, now)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(s.logg.WithProductID(ctx, id.String()), "forecast generation failed", err)
			}
			errs = append(errs, fmt.Errorf("product %s: %w", id, err))
			continue
		}
		written += n
	}
	return written, multierr.Combine(errs...)
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time) ([]models.InventoryForecast, error) {
	if productID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	return s.repo.ListByProduct(ctx, productID, from, to)
}

// bucketDailySales folds sale records into per-day sold quantities over the
// window. Sale quantities are stored negative; buckets hold positive units.
func bucketDailySales(sales []models.StockTransaction, since time.Time, windowDays int) []float64 {
	daily := make([]float64, windowDays)
	for _, record := range sales {
		day := int(record.CreatedAt.Sub(since).Hours() / 24)
		if day < 0 || day >= windowDays {
			continue
		}
		daily[day] += float64(-record.Quantity)
	}
	return daily
}

// projectSales returns per-day projected sales for the horizon, or nil when
// the window holds no sales at all.
func projectSales(method enums.ForecastMethod, daily []float64, horizonDays int) []float64 {
	total := 0.0
	for _, v := range daily {
		total += v
	}
	if total == 0 {
		return nil
	}

	curve := make([]float64, horizonDays)
	switch method {
	case enums.ForecastMethodTrend:
		slope, intercept := linearFit(daily)
		n := len(daily)
		for day := 0; day < horizonDays; day++ {
			projected := intercept + slope*float64(n+day)
			if projected < 0 {
				projected = 0
			}
			curve[day] = projected
		}
	case enums.ForecastMethodSeasonal:
		weekday := weekdayAverages(daily)
		for day := 0; day < horizonDays; day++ {
			curve[day] = weekday[(len(daily)+day)%7]
		}
	default: // moving average
		mean := total / float64(len(daily))
		for day := 0; day < horizonDays; day++ {
			curve[day] = mean
		}
	}
	return curve
}

// linearFit computes least-squares slope and intercept over the day index.
func linearFit(daily []float64) (slope, intercept float64) {
	n := float64(len(daily))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range daily {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// weekdayAverages folds the window into a 7-slot day-of-window-week profile.
func weekdayAverages(daily []float64) [7]float64 {
	var sums, counts [7]float64
	for i, v := range daily {
		slot := i % 7
		sums[slot] += v
		counts[slot]++
	}
	var avgs [7]float64
	for slot := range sums {
		if counts[slot] > 0 {
			avgs[slot] = sums[slot] / counts[slot]
		}
	}
	return avgs
}

// confidenceScore rates the input window from 0 to 100. Sparse windows cap
// the score regardless of how stable the observed velocity looks.
func confidenceScore(daily []float64) float64 {
	n := len(daily)
	if n == 0 {
		return 0
	}
	activeDays := 0
	total := 0.0
	for _, v := range daily {
		if v > 0 {
			activeDays++
		}
		total += v
	}
	if activeDays == 0 {
		return 0
	}

	mean := total / float64(n)
	variance := 0.0
	for _, v := range daily {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)

	// Coefficient of variation penalizes erratic velocity.
	stability := 1.0
	if mean > 0 {
		cv := math.Sqrt(variance) / mean
		stability = 1 / (1 + cv)
	}
	coverage := float64(activeDays) / float64(n)

	score := 100 * coverage * stability
	// Fewer than seven observed sale days caps the score hard.
	if activeDays < 7 {
		limit := float64(activeDays) * 10
		if score > limit {
			score = limit
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}
