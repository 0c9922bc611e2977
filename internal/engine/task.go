package engine

import "strings"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// FilterMode selects which tasks a view shows before search is applied.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterPending   FilterMode = "pending"
	FilterCompleted FilterMode = "completed"
	FilterHigh      FilterMode = "high"
)

// Task is the sole persisted entity. DueDate and CreatedAt are kept as
// strings (calendar date and RFC3339) so lists compare and round-trip
// through JSON without drift.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Status      Status   `json:"status"`
	CreatedAt   string   `json:"createdAt"`
}

// Input carries the caller-supplied fields for Create. Description and
// Priority may be left empty; Create fills the defaults.
type Input struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     string
}

// Patch carries replacement values for Update. Nil fields are left alone.
type Patch struct {
	Title       *string
	Description *string
	Priority    *Priority
	DueDate     *string
	Status      *Status
}

func ParseFilter(v string) FilterMode {
	switch FilterMode(strings.ToLower(strings.TrimSpace(v))) {
	case FilterPending:
		return FilterPending
	case FilterCompleted:
		return FilterCompleted
	case FilterHigh:
		return FilterHigh
	default:
		return FilterAll
	}
}
