package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/agrimarket/inventory-engine/pkg/logger"
)

const defaultExpiryBatchSize = 200

type reservationExpirer interface {
	ExpireStale(ctx context.Context, now time.Time, batchSize int) (int, error)
}

// ReservationTTLJobParams configure the stale reservation sweep.
type ReservationTTLJobParams struct {
	Logger       *logger.Logger
	Reservations reservationExpirer
	BatchSize    int
}

// NewReservationTTLJob builds the cron job that expires lapsed holds and
// returns their quantity to the available pool.
func NewReservationTTLJob(params ReservationTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("reservation service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultExpiryBatchSize
	}
	return &reservationTTLJob{
		logg:         params.Logger,
		reservations: params.Reservations,
		batchSize:    batchSize,
		now:          time.Now,
	}, nil
}

type reservationTTLJob struct {
	logg         *logger.Logger
	reservations reservationExpirer
	batchSize    int
	now          func() time.Time
}

func (j *reservationTTLJob) Name() string { return "reservation-ttl" }

func (j *reservationTTLJob) Run(ctx context.Context) error {
	total := 0
	// Drain in batches until a sweep comes back empty.
	for {
		expired, err := j.reservations.ExpireStale(ctx, j.now().UTC(), j.batchSize)
		if err != nil {
			return fmt.Errorf("expire stale reservations: %w", err)
		}
		total += expired
		if expired < j.batchSize {
			break
		}
	}
	logCtx := j.logg.WithField(ctx, "reservations_expired", total)
	j.logg.Info(logCtx, "reservation ttl sweep complete")
	return nil
}
