package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/service"
	"trialwatch.app/engine/internal/worker"
)

var _ = Describe("RepairSweeper", func() {
	var (
		ctx      context.Context
		repairer *mockRepairer
	)

	BeforeEach(func() {
		ctx = context.Background()
		repairer = &mockRepairer{}
	})

	It("sweeps every role and totals the created notifications", func() {
		repairer.repairFn = func(_ context.Context, role string) (*service.RepairResult, error) {
			if role == "Medical Monitor" {
				return nil, errors.New("directory unavailable")
			}
			return &service.RepairResult{Role: role, Created: 2}, nil
		}
		s := worker.NewRepairSweeper(repairer, worker.SweeperConfig{Roles: []string{"EDC Data Manager", "Medical Monitor", "CRA"}})

		created := s.SweepOnce(ctx)

		Expect(created).To(Equal(4))
		Expect(repairer.calls()).To(Equal([]string{"EDC Data Manager", "Medical Monitor", "CRA"}))
	})

	It("sweeps on start and on every tick until stopped", func() {
		s := worker.NewRepairSweeper(repairer, worker.SweeperConfig{Roles: []string{"CRA"}, Interval: 5 * time.Millisecond})

		go s.Run(ctx)
		Eventually(func() int { return len(repairer.calls()) }).Should(BeNumerically(">=", 3))
		s.Stop()

		n := len(repairer.calls())
		Consistently(func() int { return len(repairer.calls()) }, 20*time.Millisecond).Should(Equal(n))
	})
})
