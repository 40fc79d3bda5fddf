package messaging

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
)

// ReplyHandler consumes correlated saga replies. Implemented by
// saga.Orchestrator.
type ReplyHandler interface {
	HandleReply(ctx context.Context, reply *saga.Reply) error
}

// DispatcherConfig tunes the reply worker pool.
type DispatcherConfig struct {
	// Workers is the fixed worker count replies are hashed onto.
	Workers int

	// QueueDepth bounds each worker's backlog.
	QueueDepth int

	// MaxAttempts bounds retries of a failing HandleReply call before the
	// reply is dropped; the saga's step deadline then recovers it.
	MaxAttempts int

	// MinBackoff and MaxBackoff bound the exponential retry delay.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 64
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.MinBackoff <= 0 {
		c.MinBackoff = 50 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 2 * time.Second
	}
	return c
}

// Dispatcher hashes each reply's saga id onto a fixed worker, so replies for
// one saga instance are processed in arrival order while distinct instances
// proceed concurrently.
//
// Handle acknowledges a reply once it is queued; a reply lost to a crash
// before processing is recovered by the saga's step deadline, which
// redelivers or compensates.
type Dispatcher struct {
	handler ReplyHandler
	logger  *slog.Logger
	cfg     DispatcherConfig
	queues  []chan *saga.Reply
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(handler ReplyHandler, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg = cfg.withDefaults()
	queues := make([]chan *saga.Reply, cfg.Workers)
	for i := range queues {
		queues[i] = make(chan *saga.Reply, cfg.QueueDepth)
	}
	return &Dispatcher{
		handler: handler,
		logger:  logger,
		cfg:     cfg,
		queues:  queues,
	}
}

// Handle implements ports.MessageHandler for the reply channel.
func (d *Dispatcher) Handle(ctx context.Context, env ports.Envelope) error {
	reply, err := saga.DecodeReply(env)
	if err != nil {
		d.logger.ErrorContext(ctx, "dropping undecodable reply",
			slog.String("operation", "Dispatcher.Handle"),
			slog.String("envelope_id", env.ID.String()),
			slog.Any("error", err),
		)
		return nil
	}

	h := fnv.New32a()
	h.Write(reply.SagaID[:])
	queue := d.queues[h.Sum32()%uint32(d.cfg.Workers)]

	select {
	case queue <- reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the workers and blocks until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, queue := range d.queues {
		wg.Add(1)
		go func(queue <-chan *saga.Reply) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case reply := <-queue:
					d.process(ctx, reply)
				}
			}
		}(queue)
	}
	wg.Wait()
}

// process retries transient HandleReply failures with exponential backoff.
// Business-level duplicate handling lives in the orchestrator; errors here
// are infrastructure only.
func (d *Dispatcher) process(ctx context.Context, reply *saga.Reply) {
	backoff := d.cfg.MinBackoff
	for attempt := 1; ; attempt++ {
		err := d.handler.HandleReply(ctx, reply)
		if err == nil {
			return
		}
		if attempt >= d.cfg.MaxAttempts || ctx.Err() != nil {
			d.logger.ErrorContext(ctx, "giving up on reply, deadline will recover the saga",
				slog.String("operation", "Dispatcher.process"),
				slog.String("saga_id", reply.SagaID.String()),
				slog.String("reply_type", reply.Type),
				slog.Int("attempts", attempt),
				slog.Any("error", err),
			)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > d.cfg.MaxBackoff {
			backoff = d.cfg.MaxBackoff
		}
	}
}
