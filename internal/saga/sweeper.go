package saga

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// Sweeper periodically scans for saga instances whose step deadline has
// passed and hands each one to the orchestrator's timeout path. It is the
// safety net for lost replies and crashed participants.
type Sweeper struct {
	orch     *Orchestrator
	uow      ports.UnitOfWork
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// NewSweeper creates a Sweeper. A non-positive interval defaults to 5s and a
// non-positive batch to 64.
func NewSweeper(orch *Orchestrator, uow ports.UnitOfWork, logger *slog.Logger, interval time.Duration, batch int) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batch <= 0 {
		batch = 64
	}
	return &Sweeper{orch: orch, uow: uow, logger: logger, interval: interval, batch: batch}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.ErrorContext(ctx, "saga sweep failed",
					slog.String("operation", "Sweeper.Run"),
					slog.Any("error", err),
				)
			}
		}
	}
}

// Sweep runs one pass: list expired instances, then process each in its own
// transaction so one poisoned instance cannot block the rest.
func (s *Sweeper) Sweep(ctx context.Context) error {
	var expired []uuid.UUID
	err := s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		expired, err = r.Sagas().ListExpired(ctx, time.Now(), s.batch)
		return err
	})
	if err != nil {
		return err
	}

	for _, id := range expired {
		if err := s.orch.HandleTimeout(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "saga timeout handling failed",
				slog.String("operation", "Sweeper.Sweep"),
				slog.String("saga_id", id.String()),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
