package worker_test

import (
	"context"
	"sync"

	"trialwatch.app/engine/internal/service"
)

type mockRepairer struct {
	mu       sync.Mutex
	repairFn func(ctx context.Context, role string) (*service.RepairResult, error)
	roles    []string
}

func (m *mockRepairer) Repair(ctx context.Context, role string) (*service.RepairResult, error) {
	m.mu.Lock()
	m.roles = append(m.roles, role)
	fn := m.repairFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, role)
	}
	return &service.RepairResult{Role: role}, nil
}

func (m *mockRepairer) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.roles...)
}
