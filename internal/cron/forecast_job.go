package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/agrimarket/inventory-engine/pkg/logger"
)

type forecastGenerator interface {
	GenerateAll(ctx context.Context, now time.Time) (int, error)
}

// ForecastJobParams configure the nightly projection run.
type ForecastJobParams struct {
	Logger   *logger.Logger
	Forecast forecastGenerator
}

// NewForecastJob builds the cron job that recomputes stock projections.
func NewForecastJob(params ForecastJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Forecast == nil {
		return nil, fmt.Errorf("forecast service required")
	}
	return &forecastJob{
		logg:     params.Logger,
		forecast: params.Forecast,
		now:      time.Now,
	}, nil
}

type forecastJob struct {
	logg     *logger.Logger
	forecast forecastGenerator
	now      func() time.Time
}

func (j *forecastJob) Name() string { return "forecast-refresh" }

func (j *forecastJob) Run(ctx context.Context) error {
	written, err := j.forecast.GenerateAll(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("generate forecasts: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_written", written)
	j.logg.Info(logCtx, "forecast refresh complete")
	return nil
}
