package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"taskdeck/internal/engine"
)

const tasksKey = "tasks"

// TaskStore persists the task list as a JSON array under the "tasks" key
// of a KV. It is the single writer: every surface mutates through
// Mutate, which applies the operation to the freshly loaded list under
// one lock, so no surface can clobber another's write with a stale copy.
type TaskStore struct {
	mu sync.Mutex
	kv KV
}

func NewTaskStore(kv KV) *TaskStore {
	return &TaskStore{kv: kv}
}

// Load returns the persisted task list. A missing or undecodable payload
// yields an empty list; corrupted storage must never take the app down.
func (s *TaskStore) Load() []engine.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *TaskStore) Save(tasks []engine.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(tasks)
}

// Mutate applies op to the current persisted list and writes the result
// through, returning the new authoritative list. The load, the
// operation, and the save happen under one lock.
func (s *TaskStore) Mutate(op func([]engine.Task) []engine.Task) ([]engine.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := op(s.load())
	if err := s.save(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskStore) load() []engine.Task {
	raw, ok := s.kv.Get(tasksKey)
	if !ok {
		return nil
	}
	var tasks []engine.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil
	}
	return tasks
}

func (s *TaskStore) save(tasks []engine.Task) error {
	if tasks == nil {
		tasks = []engine.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return s.kv.Set(tasksKey, string(data))
}
