package project

// AggregateType is the aggregate name used in event and outbox records.
const AggregateType = "project"

// baseEvent carries the fields shared by all project events.
type baseEvent struct {
	ID int64 `json:"projectId"`
}

func (e baseEvent) AggregateType() string { return AggregateType }
func (e baseEvent) AggregateID() int64    { return e.ID }

// Created is emitted when a project is created in POST_PENDING.
type Created struct {
	baseEvent
}

func (Created) EventType() string { return "ProjectCreated" }

// Cancelled is emitted when a pending project reaches CANCELLED.
type Cancelled struct {
	baseEvent
	Members []string `json:"members"`
}

func (Cancelled) EventType() string { return "ProjectCancelled" }

// Rejected is emitted when a closed project is rejected.
type Rejected struct {
	baseEvent
	Members []string `json:"members"`
}

func (Rejected) EventType() string { return "ProjectRejected" }

// Started is emitted when a closed project starts.
type Started struct {
	baseEvent
	Members []string `json:"members"`
}

func (Started) EventType() string { return "ProjectStarted" }

func newCreated(id int64) Created {
	return Created{baseEvent{ID: id}}
}

func newCancelled(id int64, members []string) Cancelled {
	return Cancelled{baseEvent{ID: id}, members}
}

func newRejected(id int64, members []string) Rejected {
	return Rejected{baseEvent{ID: id}, members}
}

func newStarted(id int64, members []string) Started {
	return Started{baseEvent{ID: id}, members}
}
