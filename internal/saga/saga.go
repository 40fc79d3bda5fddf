// Package saga implements the orchestration engine for multi-service
// workflows: saga definitions as ordered step tables, per-instance
// accumulator states, command/reply correlation, compensation and timeouts.
//
// A saga instance advances strictly sequentially with at most one
// outstanding command; every advance commits atomically with the outbox
// append that carries the next command.
package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// Step is one row of a saga definition. A remote step sets Command (and
// usually OnReply); a local step sets Local. Compensation entries reverse
// the step when a later one fails; a step without either Command or Local is
// a placeholder for work already done in the triggering transaction, kept in
// the table so its compensation participates in reverse-order unwinding.
type Step struct {
	Name string

	// Command builds the outbound command spec for this step. Must be pure
	// over the accumulator state.
	Command func(state any) (CommandSpec, error)

	// OnReply harvests data from the step's success reply into the
	// accumulator before the saga advances.
	OnReply func(state any, reply Reply) error

	// Local performs the step's local transition inside the advancing
	// transaction. Only consulted when Command is nil.
	Local func(ctx context.Context, r ports.Repos, state any) error

	// Compensation builds the command that reverses this step.
	Compensation func(state any) (CommandSpec, error)

	// CompensationLocal reverses this step with a local transition. Only
	// consulted when Compensation is nil.
	CompensationLocal func(ctx context.Context, r ports.Repos, state any) error
}

// Definition describes one saga type: its ordered steps, a fresh accumulator
// for unmarshaling instance data, and the per-type step timeout.
type Definition interface {
	// Type is the saga type name stored on instances.
	Type() string

	// NewState returns a pointer to a zero accumulator of the saga's state
	// type, for unmarshaling persisted instance data.
	NewState() any

	// Steps returns the ordered step table.
	Steps() []Step

	// StepTimeout bounds how long the orchestrator waits for any single
	// step's reply before treating it as failed and compensating.
	StepTimeout() time.Duration
}

// UpdateProject loads a project, applies a transition returning events, and
// persists the aggregate plus its events in the current transaction. Shared
// by local saga steps and by the project participant.
func UpdateProject(ctx context.Context, r ports.Repos, id int64, fn func(p *project.Project) ([]domain.Event, error)) error {
	p, err := r.Projects().FindByID(ctx, id)
	if err != nil {
		return err
	}
	events, err := fn(p)
	if err != nil {
		return err
	}
	if err := r.Projects().Save(ctx, p); err != nil {
		return err
	}
	return ports.EnqueueEvents(ctx, r.Outbox(), events)
}

// stateErr annotates unmarshal/assert failures with the saga type; these are
// programming errors, not business failures.
func stateErr(sagaType string, err error) error {
	return fmt.Errorf("saga %s state: %w", sagaType, err)
}
