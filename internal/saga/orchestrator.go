package saga

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/platform/telemetry"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// Orchestrator sequences saga commands, correlates replies back to saga
// instances, advances accumulator state and decides when to compensate.
//
// Create runs inside the caller's transaction; HandleReply and HandleTimeout
// open their own unit of work. Callers must serialize replies per saga
// instance (the messaging dispatcher does); distinct instances may be
// handled concurrently.
type Orchestrator struct {
	uow     ports.UnitOfWork
	defs    map[string]Definition
	logger  *slog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewOrchestrator creates an Orchestrator. Definitions are registered with
// Register before any traffic flows. Metrics may be nil.
func NewOrchestrator(uow ports.UnitOfWork, logger *slog.Logger, metrics *telemetry.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		uow:     uow,
		defs:    make(map[string]Definition),
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Register adds saga definitions to the registry. Not safe to call after
// message handling has started.
func (o *Orchestrator) Register(defs ...Definition) {
	for _, def := range defs {
		o.defs[def.Type()] = def
	}
}

// Create starts a saga instance inside the caller's transaction: the
// instance row and the first outbound command commit atomically with
// whatever aggregate mutation triggered the saga. A definition with no
// remote steps completes before Create returns.
func (o *Orchestrator) Create(ctx context.Context, r ports.Repos, sagaType string, state any) (uuid.UUID, error) {
	def, ok := o.defs[sagaType]
	if !ok {
		return uuid.Nil, fmt.Errorf("saga type %q is not registered", sagaType)
	}

	now := o.now()
	inst := &ports.SagaInstance{
		ID:        uuid.New(),
		Type:      sagaType,
		Status:    ports.SagaActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.advance(ctx, r, def, inst, state, true); err != nil {
		return uuid.Nil, err
	}
	if err := o.persistState(inst, state); err != nil {
		return uuid.Nil, err
	}
	if err := r.Sagas().Insert(ctx, inst); err != nil {
		return uuid.Nil, err
	}

	if o.metrics != nil {
		o.metrics.SagaStartedTotal.Add(ctx, 1, metric.WithAttributes(telemetry.AttrSagaType.String(sagaType)))
	}
	o.logger.InfoContext(ctx, "saga started",
		slog.String("operation", "Orchestrator.Create"),
		slog.String("saga_type", sagaType),
		slog.String("saga_id", inst.ID.String()),
		slog.String("status", inst.Status),
	)
	return inst.ID, nil
}

// HandleReply correlates a reply to its saga instance and advances or
// compensates it. Duplicate replies (wrong step, wrong direction, or a
// terminal instance) are dropped without effect.
func (o *Orchestrator) HandleReply(ctx context.Context, reply *Reply) error {
	return o.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		inst, err := r.Sagas().Get(ctx, reply.SagaID)
		if errors.Is(err, domain.ErrNotFound) {
			o.logger.DebugContext(ctx, "reply for unknown saga dropped",
				slog.String("saga_id", reply.SagaID.String()),
				slog.String("reply_type", reply.Type),
			)
			return nil
		}
		if err != nil {
			return err
		}

		def, ok := o.defs[inst.Type]
		if !ok {
			return fmt.Errorf("saga type %q is not registered", inst.Type)
		}
		state, err := o.loadState(def, inst)
		if err != nil {
			return err
		}

		switch inst.Status {
		case ports.SagaActive:
			if reply.Compensating || reply.Step != inst.Step {
				return nil
			}
			if reply.Outcome == OutcomeFailure {
				o.logger.WarnContext(ctx, "saga step failed, compensating",
					slog.String("saga_type", inst.Type),
					slog.String("saga_id", inst.ID.String()),
					slog.String("step", def.Steps()[inst.Step].Name),
					slog.String("reason", reply.Reason),
				)
				if err := o.compensate(ctx, r, def, inst, state); err != nil {
					return err
				}
			} else {
				step := def.Steps()[inst.Step]
				if step.OnReply != nil {
					if err := step.OnReply(state, *reply); err != nil {
						return err
					}
				}
				inst.Step++
				if err := o.advance(ctx, r, def, inst, state, false); err != nil {
					return err
				}
			}

		case ports.SagaCompensating:
			if !reply.Compensating || reply.Step != inst.CompStep {
				return nil
			}
			if reply.Outcome == OutcomeFailure {
				// Left armed; the timeout sweep re-sends the compensation.
				o.logger.WarnContext(ctx, "compensation step failed, will retry",
					slog.String("saga_type", inst.Type),
					slog.String("saga_id", inst.ID.String()),
					slog.String("step", def.Steps()[inst.CompStep].Name),
					slog.String("reason", reply.Reason),
				)
				return nil
			}
			inst.CompStep--
			if err := o.compensateNext(ctx, r, def, inst, state); err != nil {
				return err
			}

		default:
			// Terminal instance: late duplicate.
			return nil
		}

		if err := o.persistState(inst, state); err != nil {
			return err
		}
		return r.Sagas().Update(ctx, inst)
	})
}

// HandleTimeout processes an instance whose step deadline expired: an active
// instance is treated as having received a failure reply; a compensating one
// gets its current compensation command re-sent.
func (o *Orchestrator) HandleTimeout(ctx context.Context, id uuid.UUID) error {
	return o.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		inst, err := r.Sagas().Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if inst.Deadline == nil || o.now().Before(*inst.Deadline) {
			return nil
		}

		def, ok := o.defs[inst.Type]
		if !ok {
			return fmt.Errorf("saga type %q is not registered", inst.Type)
		}
		state, err := o.loadState(def, inst)
		if err != nil {
			return err
		}

		switch inst.Status {
		case ports.SagaActive:
			o.logger.WarnContext(ctx, "saga step timed out, compensating",
				slog.String("saga_type", inst.Type),
				slog.String("saga_id", inst.ID.String()),
				slog.String("step", def.Steps()[inst.Step].Name),
			)
			if err := o.compensate(ctx, r, def, inst, state); err != nil {
				return err
			}
		case ports.SagaCompensating:
			if err := o.sendCompensation(ctx, r, def, inst, state); err != nil {
				return err
			}
		default:
			return nil
		}

		if err := o.persistState(inst, state); err != nil {
			return err
		}
		return r.Sagas().Update(ctx, inst)
	})
}

// advance runs steps from the instance's cursor: local steps execute inline,
// placeholder steps fall through, and the first remote step sends its
// command and returns, leaving exactly one outstanding command. Reaching the
// end of the table completes the saga.
//
// creating marks the initial advance inside Create's transaction. A business
// failure there propagates to the caller instead of compensating: nothing
// has committed yet, so rolling back the whole transaction is the correct
// undo.
func (o *Orchestrator) advance(ctx context.Context, r ports.Repos, def Definition, inst *ports.SagaInstance, state any, creating bool) error {
	steps := def.Steps()
	for inst.Step < len(steps) {
		step := steps[inst.Step]

		if step.Command != nil {
			return o.sendCommand(ctx, r, def, inst, state, step)
		}

		if step.Local != nil {
			if err := step.Local(ctx, r, state); err != nil {
				if creating || !IsBusinessFailure(err) {
					return err
				}
				o.logger.WarnContext(ctx, "saga local step failed, compensating",
					slog.String("saga_type", inst.Type),
					slog.String("saga_id", inst.ID.String()),
					slog.String("step", step.Name),
					slog.Any("error", err),
				)
				return o.compensate(ctx, r, def, inst, state)
			}
		}

		inst.Step++
	}

	inst.Status = ports.SagaCompleted
	inst.Deadline = nil
	if o.metrics != nil {
		o.metrics.SagaCompletedTotal.Add(ctx, 1, metric.WithAttributes(telemetry.AttrSagaType.String(inst.Type)))
	}
	o.logger.InfoContext(ctx, "saga completed",
		slog.String("operation", "Orchestrator.advance"),
		slog.String("saga_type", inst.Type),
		slog.String("saga_id", inst.ID.String()),
	)
	return nil
}

// compensate flips an active instance into compensation mode, unwinding the
// completed steps in reverse order. The step the instance was on never
// completed, so unwinding starts below it.
func (o *Orchestrator) compensate(ctx context.Context, r ports.Repos, def Definition, inst *ports.SagaInstance, state any) error {
	inst.Status = ports.SagaCompensating
	inst.CompStep = inst.Step - 1
	inst.Deadline = nil
	return o.compensateNext(ctx, r, def, inst, state)
}

// compensateNext unwinds from the compensation cursor: local compensations
// run inline, the first command compensation sends and returns. Running out
// of steps finishes the compensation.
func (o *Orchestrator) compensateNext(ctx context.Context, r ports.Repos, def Definition, inst *ports.SagaInstance, state any) error {
	steps := def.Steps()
	for inst.CompStep >= 0 {
		step := steps[inst.CompStep]

		if step.Compensation != nil {
			return o.sendCompensation(ctx, r, def, inst, state)
		}

		if step.CompensationLocal != nil {
			if err := step.CompensationLocal(ctx, r, state); err != nil {
				if !IsBusinessFailure(err) {
					return err
				}
				// The aggregate already moved past the state this
				// compensation targets; there is nothing left to undo.
				o.logger.WarnContext(ctx, "local compensation skipped",
					slog.String("saga_type", inst.Type),
					slog.String("saga_id", inst.ID.String()),
					slog.String("step", step.Name),
					slog.Any("error", err),
				)
			}
		}

		inst.CompStep--
	}

	inst.Status = ports.SagaCompensated
	inst.Deadline = nil
	if o.metrics != nil {
		o.metrics.SagaCompensatedTotal.Add(ctx, 1, metric.WithAttributes(telemetry.AttrSagaType.String(inst.Type)))
	}
	o.logger.InfoContext(ctx, "saga compensated",
		slog.String("operation", "Orchestrator.compensateNext"),
		slog.String("saga_type", inst.Type),
		slog.String("saga_id", inst.ID.String()),
	)
	return nil
}

// sendCommand enqueues the current step's command and arms the step deadline.
func (o *Orchestrator) sendCommand(ctx context.Context, r ports.Repos, def Definition, inst *ports.SagaInstance, state any, step Step) error {
	spec, err := step.Command(state)
	if err != nil {
		return err
	}
	cmd, err := NewCommand(spec, inst.ID, inst.Step, false)
	if err != nil {
		return err
	}
	return o.enqueueCommand(ctx, r, def, inst, cmd)
}

// sendCompensation enqueues the compensation command for the compensation
// cursor. Used both for first sends and for timeout-driven re-sends, which
// produce byte-identical commands.
func (o *Orchestrator) sendCompensation(ctx context.Context, r ports.Repos, def Definition, inst *ports.SagaInstance, state any) error {
	step := def.Steps()[inst.CompStep]
	spec, err := step.Compensation(state)
	if err != nil {
		return err
	}
	cmd, err := NewCommand(spec, inst.ID, inst.CompStep, true)
	if err != nil {
		return err
	}
	return o.enqueueCommand(ctx, r, def, inst, cmd)
}

func (o *Orchestrator) enqueueCommand(ctx context.Context, r ports.Repos, def Definition, inst *ports.SagaInstance, cmd *Command) error {
	env, err := cmd.Envelope()
	if err != nil {
		return err
	}
	if err := r.Outbox().Enqueue(ctx, env); err != nil {
		return err
	}
	deadline := o.now().Add(def.StepTimeout())
	inst.Deadline = &deadline
	if o.metrics != nil {
		o.metrics.SagaCommandsTotal.Add(ctx, 1, metric.WithAttributes(telemetry.AttrSagaType.String(inst.Type)))
	}
	return nil
}

func (o *Orchestrator) loadState(def Definition, inst *ports.SagaInstance) (any, error) {
	state := def.NewState()
	if len(inst.Data) > 0 {
		if err := json.Unmarshal(inst.Data, state); err != nil {
			return nil, stateErr(inst.Type, err)
		}
	}
	return state, nil
}

func (o *Orchestrator) persistState(inst *ports.SagaInstance, state any) error {
	data, err := json.Marshal(state)
	if err != nil {
		return stateErr(inst.Type, err)
	}
	inst.Data = data
	inst.UpdatedAt = o.now()
	return nil
}

// IsBusinessFailure separates business rejections (illegal transition,
// missing aggregate, duplicate relation) that must surface as saga failures
// from infrastructure errors that roll back the transaction and get retried
// by redelivery. Participants use the same classification when deciding
// between a failure reply and a redelivery.
func IsBusinessFailure(err error) bool {
	return errors.Is(err, domain.ErrTransition) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrValidation)
}
