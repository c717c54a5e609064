package taskview_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/taskview"
	"trialwatch.app/engine/internal/viewcache"
)

// fakeBackend serves a fixed thread and fails calls per its counters.
type fakeBackend struct {
	mu sync.Mutex

	comments      []model.TaskComment
	markReadFails int
	fetchFails    int

	markReadCalls int
	fetchCalls    int
	busters       []string
	partitions    []viewcache.Partition
	markedRead    []int64

	markReadFn func(ctx context.Context) error
	fetchFn    func(ctx context.Context) error
	fetchedAt  []time.Time
}

func (b *fakeBackend) MarkRead(ctx context.Context, ids []int64) error {
	b.mu.Lock()
	b.markReadCalls++
	fn := b.markReadFn
	b.mu.Unlock()
	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.markReadFails > 0 {
		b.markReadFails--
		return errors.New("mark read timed out")
	}
	b.markedRead = append(b.markedRead, ids...)
	return nil
}

func (b *fakeBackend) FetchComments(ctx context.Context, _ int64, partition viewcache.Partition, buster string) ([]model.TaskComment, error) {
	b.mu.Lock()
	b.fetchCalls++
	b.fetchedAt = append(b.fetchedAt, time.Now())
	b.busters = append(b.busters, buster)
	b.partitions = append(b.partitions, partition)
	fn := b.fetchFn
	fail := b.fetchFails > 0
	if fail {
		b.fetchFails--
	}
	out := append([]model.TaskComment(nil), b.comments...)
	b.mu.Unlock()

	if fn != nil {
		if err := fn(ctx); err != nil {
			return nil, err
		}
	}
	if fail {
		return nil, errors.New("502 bad gateway")
	}
	return out, nil
}

func (b *fakeBackend) PostComment(_ context.Context, taskID int64, text string) (*model.TaskComment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := model.TaskComment{
		ID:        int64(100 + len(b.comments)),
		TaskID:    taskID,
		Comment:   text,
		CreatedBy: "u1",
		CreatedAt: base.Add(time.Duration(len(b.comments)+1) * time.Minute),
	}
	b.comments = append(b.comments, c)
	return &c, nil
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func thread(n int) []model.TaskComment {
	out := make([]model.TaskComment, n)
	for i := range out {
		out[i] = model.TaskComment{
			ID:        int64(i + 1),
			TaskID:    7,
			Comment:   "comment " + strconv.Itoa(i+1),
			CreatedBy: "u2",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

var fastPolicy = taskview.Policy{
	MaxAttempts: 3,
	Backoff:     time.Millisecond,
	SettleDelay: time.Millisecond,
	Timeout:     time.Second,
}

var _ = Describe("Session", func() {
	var (
		ctx     context.Context
		backend *fakeBackend
		cache   *viewcache.Memory
		updates []taskview.Snapshot
		mu      sync.Mutex
	)

	record := func(s taskview.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, s)
	}

	partition := func(p viewcache.Partition) []model.TaskComment {
		got, ok, err := cache.Get(ctx, p, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		return got
	}

	BeforeEach(func() {
		ctx = context.Background()
		backend = &fakeBackend{comments: thread(2)}
		cache = viewcache.NewMemory()
		updates = nil
	})

	It("reaches ready when mark-read fails once then succeeds", func() {
		backend.markReadFails = 1

		s := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, NotificationID: 70, Policy: fastPolicy, OnUpdate: record})
		s.Wait()

		snap := s.Snapshot()
		Expect(snap.State).To(Equal(taskview.StateReady))
		Expect(snap.MarkReadDone).To(BeTrue())
		Expect(snap.Comments).To(Equal(thread(2)))
		Expect(backend.markReadCalls).To(Equal(2))
		Expect(backend.markedRead).To(Equal([]int64{70}))
		Expect(backend.partitions).To(ConsistOf(viewcache.PartitionNotification))

		Expect(partition(viewcache.PartitionStandard)).To(Equal(thread(2)))
		Expect(partition(viewcache.PartitionNotification)).To(Equal(partition(viewcache.PartitionStandard)))
	})

	It("loads the thread after the settle delay while mark-read hangs", func() {
		release := make(chan struct{})
		backend.markReadFn = func(ctx context.Context) error {
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		p := fastPolicy
		p.SettleDelay = 20 * time.Millisecond
		p.Timeout = 2 * time.Second

		opened := time.Now()
		s := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, NotificationID: 70, Policy: p})

		Eventually(func() taskview.State { return s.Snapshot().State }, time.Second, 5*time.Millisecond).
			Should(Equal(taskview.StateReady))
		backend.mu.Lock()
		Expect(backend.fetchedAt).To(HaveLen(1))
		Expect(backend.fetchedAt[0].Sub(opened)).To(BeNumerically("<", 500*time.Millisecond))
		backend.mu.Unlock()
		Expect(s.Snapshot().MarkReadDone).To(BeFalse())

		close(release)
		s.Wait()

		Expect(s.Snapshot().MarkReadDone).To(BeTrue())
		Expect(backend.markedRead).To(Equal([]int64{70}))
		Expect(backend.fetchCalls).To(Equal(1))
	})

	It("uses a fresh cache buster on every fetch", func() {
		backend.fetchFails = 2

		s := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, Policy: fastPolicy})
		s.Wait()

		Expect(s.Snapshot().State).To(Equal(taskview.StateReady))
		Expect(backend.fetchCalls).To(Equal(3))
		Expect(backend.busters).To(HaveLen(3))
		Expect(backend.busters[0]).NotTo(Equal(backend.busters[1]))
		Expect(backend.busters[1]).NotTo(Equal(backend.busters[2]))
	})

	It("fails after the bound and recovers on retry", func() {
		backend.fetchFails = 3

		s := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, Policy: fastPolicy, OnUpdate: record})
		s.Wait()
		Expect(s.Snapshot().State).To(Equal(taskview.StateFailed))
		Expect(s.Snapshot().LastError).To(ContainSubstring("502"))

		s.Retry()
		s.Wait()

		Expect(s.Snapshot().State).To(Equal(taskview.StateReady))
		Expect(backend.fetchCalls).To(Equal(4))
		mu.Lock()
		defer mu.Unlock()
		Expect(updates[len(updates)-1].State).To(Equal(taskview.StateReady))
	})

	It("drops stale cache entries before retrying", func() {
		_, err := cache.MergeInto(ctx, viewcache.PartitionStandard, 7, []model.TaskComment{{ID: 99, TaskID: 7, CreatedAt: base}})
		Expect(err).NotTo(HaveOccurred())
		backend.fetchFails = 1

		s := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, Policy: fastPolicy})
		s.Wait()

		Expect(partition(viewcache.PartitionStandard)).To(Equal(thread(2)))
	})

	It("shows a comment posted from a notification view on a later standard view", func() {
		first := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, NotificationID: 70, Policy: fastPolicy})
		first.Wait()

		posted, err := first.PostComment(ctx, "checked source document")
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Snapshot().Comments).To(HaveLen(3))
		Expect(partition(viewcache.PartitionStandard)).To(ContainElement(*posted))
		Expect(partition(viewcache.PartitionNotification)).To(ContainElement(*posted))
		first.Close()

		second := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, Policy: fastPolicy})
		second.Wait()

		Expect(second.Snapshot().Comments).To(ContainElement(*posted))
	})

	It("refuses to post before the thread is loaded", func() {
		block := make(chan struct{})
		backend.fetchFn = func(context.Context) error {
			<-block
			return nil
		}

		s := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, Policy: fastPolicy})
		_, err := s.PostComment(ctx, "too early")
		close(block)
		s.Wait()

		Expect(err).To(MatchError(taskview.ErrNotReady))
	})

	It("lets in-flight work populate the cache after close without rendering", func() {
		block := make(chan struct{})
		backend.fetchFn = func(context.Context) error {
			<-block
			return nil
		}

		s := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, Policy: fastPolicy, OnUpdate: record})
		s.Close()
		close(block)
		s.Wait()

		Expect(partition(viewcache.PartitionStandard)).To(Equal(thread(2)))
		Expect(partition(viewcache.PartitionNotification)).To(Equal(thread(2)))
		mu.Lock()
		defer mu.Unlock()
		Expect(updates).To(BeEmpty())
	})

	It("bounds each fetch with the per-attempt timeout", func() {
		backend.fetchFn = func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		p := fastPolicy
		p.Timeout = 5 * time.Millisecond

		s := taskview.Open(ctx, backend, cache, taskview.Options{TaskID: 7, Policy: p})
		s.Wait()

		Expect(s.Snapshot().State).To(Equal(taskview.StateFailed))
		Expect(backend.fetchCalls).To(Equal(3))
	})
})
