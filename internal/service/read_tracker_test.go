package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

var _ = Describe("ReadTrackerService", func() {
	var (
		ctx           context.Context
		notifications *fakeNotificationStore
		tx            *mockTxRunner
		svc           service.ReadTrackerService
		task          *model.Task
	)

	BeforeEach(func() {
		ctx = context.Background()
		notifications = newFakeNotificationStore()
		tx = txOver(&mockStoreProvider{notifications: notifications})
		svc = service.NewReadTrackerService(notifications, tx)

		dir := newFakeDirectory()
		dir.set(dataManager, "u1", "u2")
		task = newAssignedTask(dataManager)
		_, err := service.NewDispatcherService(notifications, dir).Dispatch(ctx, task)
		Expect(err).NotTo(HaveOccurred())
	})

	notificationFor := func(userID string) model.Notification {
		for _, n := range notifications.forTask(task.ID) {
			if n.UserID == userID {
				return n
			}
		}
		Fail("no notification for " + userID)
		return model.Notification{}
	}

	It("marks the user's notification read and records a read status", func() {
		n := notificationFor("u1")

		result, err := svc.MarkRead(ctx, "u1", []int64{n.ID})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Updated).To(HaveLen(1))
		Expect(result.Updated[0].Read).To(BeTrue())
		Expect(result.Updated[0].ReadAt).NotTo(BeNil())
		Expect(result.NotFound).To(BeEmpty())
		Expect(notifications.readStatus[n.ID]).To(HaveKey("u1"))
		Expect(tx.calls).To(Equal(1))
	})

	It("is a no-op when repeated", func() {
		n := notificationFor("u1")
		first, err := svc.MarkRead(ctx, "u1", []int64{n.ID})
		Expect(err).NotTo(HaveOccurred())

		second, err := svc.MarkRead(ctx, "u1", []int64{n.ID, n.ID})

		Expect(err).NotTo(HaveOccurred())
		Expect(second.Updated).To(HaveLen(1))
		Expect(second.Updated[0].ReadAt).To(Equal(first.Updated[0].ReadAt))
		Expect(notifications.readStatus[n.ID]).To(HaveLen(1))
	})

	It("does not touch other users' notifications", func() {
		other := notificationFor("u2")

		result, err := svc.MarkRead(ctx, "u1", []int64{other.ID})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Updated).To(BeEmpty())
		Expect(result.NotFound).To(Equal([]int64{other.ID}))
		Expect(notificationFor("u2").Read).To(BeFalse())
	})

	It("lists unread notifications only when asked", func() {
		n := notificationFor("u1")
		_, err := svc.MarkRead(ctx, "u1", []int64{n.ID})
		Expect(err).NotTo(HaveOccurred())

		all, err := svc.List(ctx, "u1", false, 0)
		Expect(err).NotTo(HaveOccurred())
		unread, err := svc.List(ctx, "u1", true, 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(all).To(HaveLen(1))
		Expect(unread).To(BeEmpty())
	})

	It("propagates transaction failures", func() {
		tx.withTxFn = func(context.Context, func(service.StoreProvider) error) error {
			return errors.New("serialization failure")
		}

		_, err := svc.MarkRead(ctx, "u1", []int64{notificationFor("u1").ID})

		Expect(err).To(MatchError("serialization failure"))
	})

	It("validates its input", func() {
		_, err := svc.MarkRead(ctx, "", []int64{1})
		Expect(err).To(MatchError(service.ErrMissingUser))

		_, err = svc.MarkRead(ctx, "u1", []int64{0})
		Expect(err).To(MatchError(service.ErrInvalidInput))

		_, err = svc.List(ctx, " ", false, 10)
		Expect(err).To(MatchError(service.ErrMissingUser))
	})
})
