package taskview_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/taskview"
	"trialwatch.app/engine/internal/viewcache"
)

var policy = taskview.Policy{
	MaxAttempts: 3,
	Backoff:     500 * time.Millisecond,
	SettleDelay: 300 * time.Millisecond,
	Timeout:     time.Second,
}

var _ = Describe("Transition", func() {
	step := func(s taskview.Snapshot, ev taskview.Event) (taskview.Snapshot, []taskview.Effect) {
		return taskview.Transition(s, ev)
	}

	Context("opened from a notification", func() {
		var s taskview.Snapshot

		BeforeEach(func() {
			s = taskview.NewSnapshot(7, 70, policy)
		})

		It("marks read first and reads the notification partition", func() {
			next, effects := step(s, taskview.Opened{})

			Expect(next.State).To(Equal(taskview.StateMarkingRead))
			Expect(next.Partition).To(Equal(viewcache.PartitionNotification))
			Expect(effects).To(Equal([]taskview.Effect{
				taskview.MarkRead{Attempt: 1},
				taskview.Settle{Delay: 300 * time.Millisecond},
			}))
		})

		It("fetches immediately once mark-read succeeds", func() {
			s, _ = step(s, taskview.Opened{})
			next, effects := step(s, taskview.MarkReadSucceeded{Attempt: 1})

			Expect(next.State).To(Equal(taskview.StateFetchingComments))
			Expect(next.MarkReadDone).To(BeTrue())
			Expect(effects).To(Equal([]taskview.Effect{taskview.Fetch{Attempt: 1}}))
		})

		It("retries a failed mark-read in the background and fetches once settled", func() {
			s, _ = step(s, taskview.Opened{})
			next, effects := step(s, taskview.MarkReadFailed{Attempt: 1, Err: errors.New("timeout")})

			Expect(next.State).To(Equal(taskview.StateMarkingRead))
			Expect(effects).To(Equal([]taskview.Effect{taskview.MarkRead{Attempt: 2, Delay: 500 * time.Millisecond}}))

			next, effects = step(next, taskview.SettleElapsed{})
			Expect(next.State).To(Equal(taskview.StateFetchingComments))
			Expect(next.MarkReadAttempt).To(Equal(2))
			Expect(effects).To(Equal([]taskview.Effect{taskview.Fetch{Attempt: 1}}))
		})

		It("fetches once settled while mark-read is still unanswered", func() {
			s, _ = step(s, taskview.Opened{})
			next, effects := step(s, taskview.SettleElapsed{})

			Expect(next.State).To(Equal(taskview.StateFetchingComments))
			Expect(next.MarkReadDone).To(BeFalse())
			Expect(effects).To(Equal([]taskview.Effect{taskview.Fetch{Attempt: 1}}))

			next, effects = step(next, taskview.MarkReadSucceeded{Attempt: 1})
			Expect(next.State).To(Equal(taskview.StateFetchingComments))
			Expect(next.MarkReadDone).To(BeTrue())
			Expect(effects).To(BeEmpty())
		})

		It("ignores the settle timer after mark-read succeeded", func() {
			s, _ = step(s, taskview.Opened{})
			s, _ = step(s, taskview.MarkReadSucceeded{Attempt: 1})
			next, effects := step(s, taskview.SettleElapsed{})

			Expect(next.State).To(Equal(taskview.StateFetchingComments))
			Expect(next.Attempt).To(Equal(1))
			Expect(effects).To(BeEmpty())
		})

		It("stops retrying mark-read at the bound", func() {
			s, _ = step(s, taskview.Opened{})
			s, _ = step(s, taskview.MarkReadFailed{Attempt: 1})
			s, _ = step(s, taskview.MarkReadFailed{Attempt: 2})
			next, effects := step(s, taskview.MarkReadFailed{Attempt: 3})

			Expect(next.MarkReadAttempt).To(Equal(3))
			Expect(next.MarkReadDone).To(BeFalse())
			Expect(effects).To(BeEmpty())
		})

		It("records a late background mark-read without changing state", func() {
			s, _ = step(s, taskview.Opened{})
			s, _ = step(s, taskview.MarkReadFailed{Attempt: 1})
			s, _ = step(s, taskview.SettleElapsed{})
			s, _ = step(s, taskview.FetchSucceeded{Attempt: 1})
			next, effects := step(s, taskview.MarkReadSucceeded{Attempt: 2})

			Expect(next.State).To(Equal(taskview.StateReady))
			Expect(next.MarkReadDone).To(BeTrue())
			Expect(effects).To(BeEmpty())
		})

		It("ignores outcomes of superseded mark-read attempts", func() {
			s, _ = step(s, taskview.Opened{})
			s, _ = step(s, taskview.MarkReadFailed{Attempt: 1})
			next, effects := step(s, taskview.MarkReadSucceeded{Attempt: 1})

			Expect(next.MarkReadDone).To(BeFalse())
			Expect(effects).To(BeEmpty())
		})
	})

	Context("opened directly", func() {
		var s taskview.Snapshot

		BeforeEach(func() {
			s = taskview.NewSnapshot(7, 0, policy)
			s, _ = step(s, taskview.Opened{})
		})

		It("fetches from the standard partition straight away", func() {
			Expect(s.State).To(Equal(taskview.StateFetchingComments))
			Expect(s.Partition).To(Equal(viewcache.PartitionStandard))
			Expect(s.Attempt).To(Equal(1))
		})

		It("becomes ready with the fetched thread", func() {
			comments := []model.TaskComment{{ID: 1, TaskID: 7, Comment: "a"}}
			next, effects := step(s, taskview.FetchSucceeded{Attempt: 1, Comments: comments})

			Expect(next.State).To(Equal(taskview.StateReady))
			Expect(next.Comments).To(Equal(comments))
			Expect(effects).To(Equal([]taskview.Effect{taskview.Render{}}))
		})

		It("retries with linear backoff and invalidation, then fails", func() {
			var effects []taskview.Effect

			s, effects = step(s, taskview.FetchFailed{Attempt: 1, Err: errors.New("502")})
			Expect(s.State).To(Equal(taskview.StateRetrying))
			Expect(effects).To(Equal([]taskview.Effect{taskview.Fetch{Attempt: 2, Delay: 500 * time.Millisecond, Invalidate: true}}))

			s, effects = step(s, taskview.FetchFailed{Attempt: 2, Err: errors.New("502")})
			Expect(effects).To(Equal([]taskview.Effect{taskview.Fetch{Attempt: 3, Delay: time.Second, Invalidate: true}}))

			s, effects = step(s, taskview.FetchFailed{Attempt: 3, Err: errors.New("503")})
			Expect(s.State).To(Equal(taskview.StateFailed))
			Expect(s.LastError).To(Equal("503"))
			Expect(effects).To(Equal([]taskview.Effect{taskview.Render{}}))
		})

		It("restarts from the first attempt on a user retry", func() {
			for attempt := 1; attempt <= 3; attempt++ {
				s, _ = step(s, taskview.FetchFailed{Attempt: attempt})
			}

			next, effects := step(s, taskview.RetryRequested{})

			Expect(next.State).To(Equal(taskview.StateFetchingComments))
			Expect(next.Attempt).To(Equal(1))
			Expect(effects).To(ContainElement(taskview.Fetch{Attempt: 1, Invalidate: true}))
		})

		It("ignores a retry request unless failed", func() {
			next, effects := step(s, taskview.RetryRequested{})

			Expect(next).To(Equal(s))
			Expect(effects).To(BeEmpty())
		})

		It("ignores stale fetch outcomes", func() {
			s, _ = step(s, taskview.FetchFailed{Attempt: 1})
			next, effects := step(s, taskview.FetchSucceeded{Attempt: 1})

			Expect(next.State).To(Equal(taskview.StateRetrying))
			Expect(effects).To(BeEmpty())
		})
	})

	Context("ready", func() {
		var s taskview.Snapshot
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		BeforeEach(func() {
			s = taskview.NewSnapshot(7, 0, policy)
			s, _ = step(s, taskview.Opened{})
			s, _ = step(s, taskview.FetchSucceeded{Attempt: 1, Comments: []model.TaskComment{{ID: 1, CreatedAt: at}}})
		})

		It("appends a posted comment without refetching", func() {
			next, effects := step(s, taskview.CommentPosted{Comment: model.TaskComment{ID: 2, CreatedAt: at.Add(time.Minute)}})

			Expect(next.Comments).To(HaveLen(2))
			Expect(next.Comments[1].ID).To(Equal(int64(2)))
			Expect(effects).To(Equal([]taskview.Effect{taskview.Render{}}))
		})
	})

	Context("closed", func() {
		It("keeps retrying in-flight fetches but renders nothing", func() {
			s := taskview.NewSnapshot(7, 0, policy)
			s, _ = taskview.Transition(s, taskview.Opened{})
			s, _ = taskview.Transition(s, taskview.ViewClosed{})

			s, effects := taskview.Transition(s, taskview.FetchFailed{Attempt: 1})
			Expect(effects).To(Equal([]taskview.Effect{taskview.Fetch{Attempt: 2, Delay: 500 * time.Millisecond, Invalidate: true}}))

			s, effects = taskview.Transition(s, taskview.FetchSucceeded{Attempt: 2})
			Expect(s.State).To(Equal(taskview.StateReady))
			Expect(effects).To(BeEmpty())
		})
	})

	It("fills in a default policy", func() {
		s := taskview.NewSnapshot(7, 0, taskview.Policy{})
		Expect(s.Policy).To(Equal(taskview.DefaultPolicy()))
	})
})
