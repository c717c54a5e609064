package taskview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/viewcache"
)

var ErrNotReady = errors.New("task view is not ready")

// Backend is the server API a session talks to.
type Backend interface {
	MarkRead(ctx context.Context, notificationIDs []int64) error
	// FetchComments loads the thread. buster is sent as the cache-busting
	// token so the server bypasses its own cache.
	FetchComments(ctx context.Context, taskID int64, partition viewcache.Partition, buster string) ([]model.TaskComment, error)
	PostComment(ctx context.Context, taskID int64, comment string) (*model.TaskComment, error)
}

type Options struct {
	TaskID int64
	// NotificationID is set when the view was opened from a notification.
	NotificationID int64
	Policy         Policy
	// OnUpdate receives every rendered snapshot. It must not block.
	OnUpdate func(Snapshot)
}

// Session drives one open task view. Effects run on their own goroutines and
// feed their outcome back through Transition.
type Session struct {
	backend  Backend
	cache    viewcache.Cache
	onUpdate func(Snapshot)
	newToken func() string

	// base outlives Close so in-flight work can still populate the caches.
	base context.Context

	mu   sync.Mutex
	snap Snapshot
	wg   sync.WaitGroup
}

// Open starts a session for the task and returns immediately.
func Open(ctx context.Context, backend Backend, cache viewcache.Cache, opts Options) *Session {
	s := newSession(ctx, backend, cache, opts)
	s.dispatch(Opened{})
	return s
}

func newSession(ctx context.Context, backend Backend, cache viewcache.Cache, opts Options) *Session {
	taskID := opts.TaskID
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TaskID:    &taskID,
		Component: "trialwatch.taskview",
	})
	return &Session{
		backend:  backend,
		cache:    cache,
		onUpdate: opts.OnUpdate,
		newToken: uuid.NewString,
		base:     context.WithoutCancel(ctx),
		snap:     NewSnapshot(opts.TaskID, opts.NotificationID, opts.Policy),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySnapshot(s.snap)
}

// Retry restarts the fetch after the session failed.
func (s *Session) Retry() {
	s.dispatch(RetryRequested{})
}

// Close stops delivering updates. Work already started runs to completion.
func (s *Session) Close() {
	s.dispatch(ViewClosed{})
}

// Wait blocks until no effect is running.
func (s *Session) Wait() {
	s.wg.Wait()
}

// PostComment posts to the server and, once accepted, appends the comment to
// both cache partitions and the local thread.
func (s *Session) PostComment(ctx context.Context, text string) (*model.TaskComment, error) {
	snap := s.Snapshot()
	if snap.State != StateReady {
		return nil, ErrNotReady
	}

	callCtx, cancel := context.WithTimeout(ctx, snap.Policy.Timeout)
	defer cancel()
	comment, err := s.backend.PostComment(callCtx, snap.TaskID, text)
	if err != nil {
		return nil, fmt.Errorf("posting comment: %w", err)
	}

	if err := viewcache.AppendAll(ctx, s.cache, snap.TaskID, *comment); err != nil {
		slog.WarnContext(s.base, "failed to append posted comment to cache", "error", err)
	}
	s.dispatch(CommentPosted{Comment: *comment})
	return comment, nil
}

func (s *Session) dispatch(ev Event) {
	s.mu.Lock()
	next, effects := Transition(s.snap, ev)
	s.snap = next
	snap := copySnapshot(next)
	s.mu.Unlock()

	for _, effect := range effects {
		s.run(snap, effect)
	}
}

func (s *Session) run(snap Snapshot, effect Effect) {
	switch e := effect.(type) {
	case Render:
		if s.onUpdate != nil {
			s.onUpdate(snap)
		}
	case MarkRead:
		s.goAfter(e.Delay, func() { s.markRead(snap, e) })
	case Fetch:
		s.goAfter(e.Delay, func() { s.fetch(snap, e) })
	case Settle:
		s.goAfter(e.Delay, func() { s.dispatch(SettleElapsed{}) })
	}
}

func (s *Session) goAfter(delay time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-s.base.Done():
				return
			}
		}
		fn()
	}()
}

func (s *Session) markRead(snap Snapshot, e MarkRead) {
	ctx, cancel := context.WithTimeout(s.base, snap.Policy.Timeout)
	defer cancel()

	if err := s.backend.MarkRead(ctx, []int64{snap.NotificationID}); err != nil {
		slog.WarnContext(ctx, "mark read failed",
			"notification_id", snap.NotificationID,
			"attempt", e.Attempt,
			"error", err)
		s.dispatch(MarkReadFailed{Attempt: e.Attempt, Err: err})
		return
	}
	s.dispatch(MarkReadSucceeded{Attempt: e.Attempt})
}

func (s *Session) fetch(snap Snapshot, e Fetch) {
	ctx := s.base
	if e.Invalidate {
		if err := s.cache.Invalidate(ctx, snap.TaskID); err != nil {
			slog.WarnContext(ctx, "failed to invalidate comment cache", "error", err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, snap.Policy.Timeout)
	comments, err := s.backend.FetchComments(callCtx, snap.TaskID, snap.Partition, s.newToken())
	cancel()
	if err != nil {
		slog.WarnContext(ctx, "comment fetch failed", "attempt", e.Attempt, "partition", snap.Partition, "error", err)
		s.dispatch(FetchFailed{Attempt: e.Attempt, Err: err})
		return
	}

	view := comments
	for _, p := range viewcache.Partitions {
		merged, err := s.cache.MergeInto(ctx, p, snap.TaskID, comments)
		if err != nil {
			slog.WarnContext(ctx, "failed to merge comments into cache", "partition", p, "error", err)
			continue
		}
		if p == snap.Partition {
			view = merged
		}
	}
	slog.DebugContext(ctx, "comments fetched", "attempt", e.Attempt, "count", len(view))
	s.dispatch(FetchSucceeded{Attempt: e.Attempt, Comments: view})
}

func copySnapshot(s Snapshot) Snapshot {
	if s.Comments != nil {
		s.Comments = append([]model.TaskComment(nil), s.Comments...)
	}
	return s
}
