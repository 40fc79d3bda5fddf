package messaging

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen11/wemeet/internal/platform/telemetry"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// RelayConfig tunes the outbox drain loop.
type RelayConfig struct {
	// PollInterval is the idle wait between drain passes.
	PollInterval time.Duration

	// BatchSize caps rows claimed per pass.
	BatchSize int

	// Lease is how long a claimed row stays invisible before a crashed or
	// failed delivery becomes eligible again.
	Lease time.Duration

	// MaxAttempts stops redelivering a row after this many claims; zero
	// means unlimited. Exhausted rows stay pending for inspection but are
	// logged loudly.
	MaxAttempts int
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 64
	}
	if c.Lease <= 0 {
		c.Lease = 30 * time.Second
	}
	return c
}

// Relay drains the transactional outbox into the broker: claim a batch under
// lease, publish each message, finalize the successes. Order is insertion
// order, which preserves per-aggregate event order and per-saga command
// order.
type Relay struct {
	store   ports.OutboxRelayStore
	pub     ports.Publisher
	logger  *slog.Logger
	metrics *telemetry.Metrics
	cfg     RelayConfig
}

// NewRelay creates a Relay. Metrics may be nil.
func NewRelay(store ports.OutboxRelayStore, pub ports.Publisher, logger *slog.Logger, metrics *telemetry.Metrics, cfg RelayConfig) *Relay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Relay{
		store:   store,
		pub:     pub,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg.withDefaults(),
	}
}

// Run drains until the context is cancelled. A drained batch of full size
// triggers an immediate next pass; otherwise the loop sleeps PollInterval.
func (r *Relay) Run(ctx context.Context) {
	for {
		n, err := r.Drain(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox drain failed",
				slog.String("operation", "Relay.Run"),
				slog.Any("error", err),
			)
		}
		if n == r.cfg.BatchSize {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

// Drain runs one pass and reports how many rows it claimed.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	msgs, err := r.store.ClaimPending(ctx, time.Now(), r.cfg.Lease, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	var delivered []int64
	failed := make(map[string]bool)
	for _, m := range msgs {
		// A later row must not overtake an earlier failed one on the same
		// channel; the whole channel waits for the lease to expire.
		if failed[m.Envelope.Channel] {
			continue
		}
		if r.cfg.MaxAttempts > 0 && m.Attempts > r.cfg.MaxAttempts {
			r.logger.ErrorContext(ctx, "outbox message exhausted its attempts",
				slog.String("operation", "Relay.Drain"),
				slog.Int64("seq", m.Seq),
				slog.String("channel", m.Envelope.Channel),
				slog.Int("attempts", m.Attempts),
			)
			continue
		}
		if m.Attempts > 1 && r.metrics != nil {
			r.metrics.OutboxRetriesTotal.Add(ctx, 1,
				metric.WithAttributes(telemetry.AttrChannel.String(m.Envelope.Channel)))
		}

		if err := r.pub.Publish(ctx, m.Envelope); err != nil {
			// Row stays leased; it comes back after the lease expires.
			failed[m.Envelope.Channel] = true
			continue
		}
		delivered = append(delivered, m.Seq)
		if r.metrics != nil {
			r.metrics.OutboxDeliveredTotal.Add(ctx, 1,
				metric.WithAttributes(telemetry.AttrChannel.String(m.Envelope.Channel)))
		}
	}

	if err := r.store.MarkDelivered(ctx, delivered); err != nil {
		return len(msgs), err
	}
	return len(msgs), nil
}
