// Package board holds value types describing the board that accompanies a
// project posting. The board aggregate itself is owned by the remote board
// service; this package models only the data exchanged with it and the
// snapshot embedded into a Project at registration time.
package board

import (
	"strings"

	"github.com/jsamuelsen11/wemeet/internal/domain"
)

// Category classifies a board posting.
type Category string

const (
	CategoryRecruit Category = "recruit"
	CategoryNotice  Category = "notice"
	CategoryFree    Category = "free"
)

// IsValid returns true if the category is one of the defined constants.
func (c Category) IsValid() bool {
	switch c {
	case CategoryRecruit, CategoryNotice, CategoryFree:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// Detail carries the full board content sent to the board service when a
// project posting is created.
type Detail struct {
	Writer   string   `json:"writer"`
	Subject  string   `json:"subject"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
	Images   []string `json:"images,omitempty"`
}

// Validate checks business rules for a board detail.
// Returns a *domain.ValidationError with per-field details, or nil.
func (d *Detail) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(d.Writer) == "" {
		fields["writer"] = "is required"
	}
	if strings.TrimSpace(d.Subject) == "" {
		fields["subject"] = "is required"
	}
	if strings.TrimSpace(d.Content) == "" {
		fields["content"] = "is required"
	}
	if !d.Category.IsValid() {
		fields["category"] = "must be one of recruit, notice, free"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Snapshot is the subset of board data copied onto a Project when the board
// is registered. It is a point-in-time copy, not a live reference to the
// remote board aggregate.
type Snapshot struct {
	Writer   string   `json:"writer"`
	Subject  string   `json:"subject"`
	Category Category `json:"category"`
}

// SnapshotOf copies the embeddable fields of a Detail.
func SnapshotOf(d Detail) Snapshot {
	return Snapshot{Writer: d.Writer, Subject: d.Subject, Category: d.Category}
}
