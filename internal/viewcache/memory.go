package viewcache

import (
	"context"
	"sync"

	"trialwatch.app/engine/internal/model"
)

type memoryKey struct {
	partition Partition
	taskID    int64
}

// Memory is an in-process Cache. Returned slices are copies.
type Memory struct {
	mu      sync.Mutex
	entries map[memoryKey][]model.TaskComment
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[memoryKey][]model.TaskComment)}
}

func (m *Memory) Get(_ context.Context, p Partition, taskID int64) ([]model.TaskComment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	comments, ok := m.entries[memoryKey{p, taskID}]
	if !ok {
		return nil, false, nil
	}
	return clone(comments), true, nil
}

func (m *Memory) MergeInto(_ context.Context, p Partition, taskID int64, comments []model.TaskComment) ([]model.TaskComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{p, taskID}
	merged := Merge(m.entries[key], comments)
	m.entries[key] = merged
	return clone(merged), nil
}

func (m *Memory) Append(_ context.Context, p Partition, taskID int64, comment model.TaskComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{p, taskID}
	existing, ok := m.entries[key]
	if !ok {
		return nil
	}
	m.entries[key] = Merge(existing, []model.TaskComment{comment})
	return nil
}

func (m *Memory) Invalidate(_ context.Context, taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range Partitions {
		delete(m.entries, memoryKey{p, taskID})
	}
	return nil
}

func clone(comments []model.TaskComment) []model.TaskComment {
	out := make([]model.TaskComment, len(comments))
	copy(out, comments)
	return out
}
