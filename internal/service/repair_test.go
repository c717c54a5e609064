package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

var _ = Describe("RepairService", func() {
	var (
		ctx           context.Context
		tasks         *fakeTaskStore
		notifications *fakeNotificationStore
		dir           *fakeDirectory
		svc           service.RepairService
	)

	BeforeEach(func() {
		ctx = context.Background()
		tasks = newFakeTaskStore()
		notifications = newFakeNotificationStore()
		dir = newFakeDirectory()
		svc = service.NewRepairService(tasks, notifications, dir)
	})

	It("creates notifications for members added after dispatch", func() {
		dir.set(dataManager, "u1")
		task := newAssignedTask(dataManager)
		tasks.put(*task)
		_, err := service.NewDispatcherService(notifications, dir).Dispatch(ctx, task)
		Expect(err).NotTo(HaveOccurred())

		dir.set(dataManager, "u1", "u2")
		result, err := svc.Repair(ctx, dataManager)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.TasksScanned).To(Equal(1))
		Expect(result.Created).To(Equal(1))
		users := []string{}
		for _, n := range notifications.forTask(task.ID) {
			users = append(users, n.UserID)
		}
		Expect(users).To(ConsistOf("u1", "u2"))
	})

	It("creates nothing on a second run", func() {
		dir.set(dataManager, "u1", "u2")
		tasks.put(*newAssignedTask(dataManager))
		tasks.put(*newAssignedTask(dataManager))

		first, err := svc.Repair(ctx, dataManager)
		Expect(err).NotTo(HaveOccurred())
		second, err := svc.Repair(ctx, dataManager)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.Created).To(Equal(4))
		Expect(second.Created).To(BeZero())
		Expect(notifications.count()).To(Equal(4))
	})

	It("ignores closed tasks and other roles", func() {
		dir.set(dataManager, "u1")
		closed := newAssignedTask(dataManager)
		closed.Status = model.TaskStatusClosed
		tasks.put(*closed)
		tasks.put(*newAssignedTask("Medical Monitor"))

		result, err := svc.Repair(ctx, dataManager)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.TasksScanned).To(BeZero())
		Expect(notifications.count()).To(BeZero())
	})

	It("reports failures and keeps sweeping", func() {
		dir.set(dataManager, "u1", "u2")
		tasks.put(*newAssignedTask(dataManager))
		inner := newFakeNotificationStore()
		notifications.createIfAbsentFn = func(ctx context.Context, n *model.Notification) (bool, error) {
			if n.UserID == "u1" {
				return false, errors.New("timeout")
			}
			return inner.CreateIfAbsent(ctx, n)
		}

		result, err := svc.Repair(ctx, dataManager)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created).To(Equal(1))
		Expect(result.Errors).To(HaveLen(1))
	})

	It("fails when the role cannot be resolved", func() {
		dir.errs[dataManager] = errors.New("directory unavailable")

		_, err := svc.Repair(ctx, dataManager)

		Expect(err).To(MatchError(ContainSubstring("directory unavailable")))
	})

	It("requires a role", func() {
		_, err := svc.Repair(ctx, "  ")
		Expect(err).To(MatchError(service.ErrInvalidInput))
	})
})
