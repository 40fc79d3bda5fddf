// Package domain contains shared domain primitives: sentinel errors, the
// field-level ValidationError, the TransitionError returned by aggregate
// state machines, and the Event interface emitted by aggregate transitions.
//
// Aggregate entities live in subpackages (project, team, board), each owning
// its own state machine and transition table.
package domain
