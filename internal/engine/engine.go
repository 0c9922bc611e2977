// Package engine holds the task state core: a pure view derivation
// (filter + search) and pure list mutators. Callers own the slice; every
// operation returns a fresh list and never touches its input.
package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Derive filters tasks by mode, then narrows by the search term. The term
// is trimmed and lower-cased; a task matches when the lower-cased title,
// description, or priority contains it as a substring. A blank term means
// no search. Input order is preserved.
func Derive(tasks []Task, filter FilterMode, term string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if matchesFilter(t, filter) {
			out = append(out, t)
		}
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return out
	}

	matched := out[:0:0]
	for _, t := range out {
		if matchesSearch(t, needle) {
			matched = append(matched, t)
		}
	}
	return matched
}

// Create builds a task from input and prepends it. The id is a v7 UUID, so
// ids created later never sort before earlier ones. Missing priority
// defaults to medium. Create never fails; title validation is the
// caller's policy.
func Create(tasks []Task, input Input) []Task {
	task := Task{
		ID:          newID(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}

	out := make([]Task, 0, len(tasks)+1)
	out = append(out, task)
	return append(out, tasks...)
}

// Update replaces the patched fields of the task with the given id. ID and
// CreatedAt are never replaced. An unknown id returns the list unchanged;
// that is how a mutation racing a deletion stays harmless.
func Update(tasks []Task, id string, patch Patch) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if patch.Title != nil {
			out[i].Title = *patch.Title
		}
		if patch.Description != nil {
			out[i].Description = *patch.Description
		}
		if patch.Priority != nil {
			out[i].Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			out[i].DueDate = *patch.DueDate
		}
		if patch.Status != nil {
			out[i].Status = *patch.Status
		}
		break
	}
	return out
}

// Remove excludes the task with the given id. Unknown ids are a no-op.
func Remove(tasks []Task, id string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == id {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Toggle flips the status of the task with the given id between pending
// and completed. Unknown ids are a no-op.
func Toggle(tasks []Task, id string) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if out[i].Status == StatusCompleted {
			out[i].Status = StatusPending
		} else {
			out[i].Status = StatusCompleted
		}
		break
	}
	return out
}

func matchesFilter(t Task, filter FilterMode) bool {
	switch filter {
	case FilterPending:
		return t.Status == StatusPending
	case FilterCompleted:
		return t.Status == StatusCompleted
	case FilterHigh:
		return t.Priority == PriorityHigh
	default:
		return true
	}
}

func matchesSearch(t Task, needle string) bool {
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) ||
		strings.Contains(strings.ToLower(string(t.Priority)), needle)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
