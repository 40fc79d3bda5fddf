package saga

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// Destination channels for saga participants. The reply channel is the
// orchestrator's own inbound channel; every command carries it so
// participants know where to answer.
const (
	ChannelProjectService = "project-service"
	ChannelTeamService    = "team-service"
	ChannelBoardService   = "board-service"
	ChannelWeClassService = "weclass-service"
	ReplyChannel          = "project-service-reply"
)

// Outcome is the success/failure indicator of a reply.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Command is an immutable point-to-point request to a participant. The
// correlation id ties it to exactly one saga instance and step; construction
// is deterministic so retransmission produces byte-identical messages.
type Command struct {
	Type          string          `json:"commandType"`
	Destination   string          `json:"destinationChannel"`
	ReplyChannel  string          `json:"replyChannel"`
	SagaID        uuid.UUID       `json:"sagaId"`
	Step          int             `json:"step"`
	Compensating  bool            `json:"compensating,omitempty"`
	CorrelationID uuid.UUID       `json:"correlationId"`
	Payload       json.RawMessage `json:"payload"`
}

// Reply is the correlated answer to a command. Payload is set on success;
// Reason on failure.
type Reply struct {
	Type          string          `json:"replyType"`
	SagaID        uuid.UUID       `json:"sagaId"`
	Step          int             `json:"step"`
	Compensating  bool            `json:"compensating,omitempty"`
	CorrelationID uuid.UUID       `json:"correlationId"`
	Outcome       Outcome         `json:"outcome"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

// CommandSpec is what a saga state produces for a step: the command type,
// its destination and its payload. The engine stamps identity onto it.
// Building a spec must be a pure function of the accumulator.
type CommandSpec struct {
	Type        string
	Destination string
	Payload     any
}

// CorrelationID derives the deterministic identity of a command from the
// saga instance, step and direction. Duplicate sends of the same step carry
// the same id, which is what participant-side deduplication keys on.
func CorrelationID(sagaID uuid.UUID, step int, compensating bool) uuid.UUID {
	name := fmt.Sprintf("%s:%d:%t", sagaID, step, compensating)
	return uuid.NewSHA1(sagaID, []byte(name))
}

// NewCommand builds the command for a step from its spec. The payload is
// marshaled once here; identical specs yield identical commands.
func NewCommand(spec CommandSpec, sagaID uuid.UUID, step int, compensating bool) (*Command, error) {
	payload, err := json.Marshal(spec.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", spec.Type, err)
	}
	return &Command{
		Type:          spec.Type,
		Destination:   spec.Destination,
		ReplyChannel:  ReplyChannel,
		SagaID:        sagaID,
		Step:          step,
		Compensating:  compensating,
		CorrelationID: CorrelationID(sagaID, step, compensating),
		Payload:       payload,
	}, nil
}

// Envelope wraps the command for the transport. The envelope id reuses the
// correlation id so redelivery is recognizable at the transport layer too.
func (c *Command) Envelope() (ports.Envelope, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return ports.Envelope{}, fmt.Errorf("marshaling command %s: %w", c.Type, err)
	}
	return ports.Envelope{
		ID:      c.CorrelationID,
		Channel: c.Destination,
		Kind:    ports.KindCommand,
		Payload: payload,
	}, nil
}

// DecodeCommand decodes a command envelope.
func DecodeCommand(env ports.Envelope) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(env.Payload, &cmd); err != nil {
		return nil, fmt.Errorf("decoding command envelope %s: %w", env.ID, err)
	}
	return &cmd, nil
}

// NewSuccessReply builds a success reply for the given command, carrying the
// typed payload back to the orchestrator.
func NewSuccessReply(cmd *Command, replyType string, payload any) (*Reply, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s payload: %w", replyType, err)
		}
		raw = data
	}
	return &Reply{
		Type:          replyType,
		SagaID:        cmd.SagaID,
		Step:          cmd.Step,
		Compensating:  cmd.Compensating,
		CorrelationID: cmd.CorrelationID,
		Outcome:       OutcomeSuccess,
		Payload:       raw,
	}, nil
}

// NewFailureReply builds a failure reply for the given command.
func NewFailureReply(cmd *Command, replyType, reason string) *Reply {
	return &Reply{
		Type:          replyType,
		SagaID:        cmd.SagaID,
		Step:          cmd.Step,
		Compensating:  cmd.Compensating,
		CorrelationID: cmd.CorrelationID,
		Outcome:       OutcomeFailure,
		Reason:        reason,
	}
}

// Envelope wraps the reply for the command's reply channel.
func (r *Reply) Envelope(replyChannel string) (ports.Envelope, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return ports.Envelope{}, fmt.Errorf("marshaling reply %s: %w", r.Type, err)
	}
	return ports.Envelope{
		ID:      uuid.New(),
		Channel: replyChannel,
		Kind:    ports.KindReply,
		Payload: payload,
	}, nil
}

// DecodeReply decodes a reply envelope.
func DecodeReply(env ports.Envelope) (*Reply, error) {
	var reply Reply
	if err := json.Unmarshal(env.Payload, &reply); err != nil {
		return nil, fmt.Errorf("decoding reply envelope %s: %w", env.ID, err)
	}
	return &reply, nil
}
