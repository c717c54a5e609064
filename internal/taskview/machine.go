// Package taskview reconciles a client's view of a task thread with the
// server. Transition is a pure state machine; Session runs its effects.
package taskview

import (
	"time"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/viewcache"
)

type State string

const (
	StateInit             State = "init"
	StateMarkingRead      State = "marking_read"
	StateFetchingComments State = "fetching_comments"
	StateRetrying         State = "retrying"
	StateReady            State = "ready"
	StateFailed           State = "failed"
)

// Policy bounds the retries a session makes.
type Policy struct {
	// MaxAttempts bounds both the comment fetch and the background mark-read.
	MaxAttempts int
	// Backoff is the linear retry step: attempt n waits (n-1) × Backoff.
	Backoff time.Duration
	// SettleDelay bounds how long the first fetch waits for an unconfirmed
	// mark-read.
	SettleDelay time.Duration
	// Timeout bounds each network call.
	Timeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
		SettleDelay: 300 * time.Millisecond,
		Timeout:     5 * time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p == (Policy{}) {
		return d
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	if p.SettleDelay < 0 {
		p.SettleDelay = 0
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	return p
}

func (p Policy) backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return time.Duration(attempt-1) * p.Backoff
}

// Snapshot is the complete state of one task view.
type Snapshot struct {
	State          State
	TaskID         int64
	NotificationID int64
	Partition      viewcache.Partition
	Policy         Policy

	// Attempt is the current comment fetch attempt, starting at 1.
	Attempt         int
	MarkReadAttempt int
	MarkReadDone    bool
	Comments        []model.TaskComment
	LastError       string
	// Closed views keep settling in-flight work but are not rendered.
	Closed bool
}

// NewSnapshot builds the initial state. A non-zero notificationID means the
// view was opened from that notification.
func NewSnapshot(taskID, notificationID int64, policy Policy) Snapshot {
	partition := viewcache.PartitionStandard
	if notificationID != 0 {
		partition = viewcache.PartitionNotification
	}
	return Snapshot{
		State:          StateInit,
		TaskID:         taskID,
		NotificationID: notificationID,
		Partition:      partition,
		Policy:         policy.withDefaults(),
	}
}

func (s Snapshot) FromNotification() bool {
	return s.NotificationID != 0
}

type Event interface{ isEvent() }

type (
	Opened            struct{}
	MarkReadSucceeded struct{ Attempt int }
	MarkReadFailed    struct {
		Attempt int
		Err     error
	}
	FetchSucceeded struct {
		Attempt  int
		Comments []model.TaskComment
	}
	FetchFailed struct {
		Attempt int
		Err     error
	}
	// SettleElapsed fires once the settle delay after opening has passed.
	SettleElapsed  struct{}
	RetryRequested struct{}
	CommentPosted  struct{ Comment model.TaskComment }
	ViewClosed     struct{}
)

func (Opened) isEvent()            {}
func (MarkReadSucceeded) isEvent() {}
func (MarkReadFailed) isEvent()    {}
func (FetchSucceeded) isEvent()    {}
func (FetchFailed) isEvent()       {}
func (SettleElapsed) isEvent()     {}
func (RetryRequested) isEvent()    {}
func (CommentPosted) isEvent()     {}
func (ViewClosed) isEvent()        {}

type Effect interface{ isEffect() }

type (
	// MarkRead marks the notification read after Delay.
	MarkRead struct {
		Attempt int
		Delay   time.Duration
	}
	// Fetch loads the thread with a fresh cache buster after Delay. Invalidate
	// drops both cache partitions first.
	Fetch struct {
		Attempt    int
		Delay      time.Duration
		Invalidate bool
	}
	// Settle reports SettleElapsed after Delay.
	Settle struct {
		Delay time.Duration
	}
	// Render delivers the snapshot to the view.
	Render struct{}
)

func (MarkRead) isEffect() {}
func (Fetch) isEffect()    {}
func (Settle) isEffect()   {}
func (Render) isEffect()   {}

// Transition applies ev to s. It never blocks and never performs I/O.
func Transition(s Snapshot, ev Event) (Snapshot, []Effect) {
	var effects []Effect

	switch e := ev.(type) {
	case Opened:
		if s.State != StateInit {
			return s, nil
		}
		if s.FromNotification() {
			s.State = StateMarkingRead
			s.MarkReadAttempt = 1
			effects = append(effects, MarkRead{Attempt: 1}, Settle{Delay: s.Policy.SettleDelay})
		} else {
			s.State = StateFetchingComments
			s.Attempt = 1
			effects = append(effects, Fetch{Attempt: 1})
		}

	case MarkReadSucceeded:
		if e.Attempt != s.MarkReadAttempt || s.MarkReadDone {
			return s, nil
		}
		s.MarkReadDone = true
		if s.State == StateMarkingRead {
			s.State = StateFetchingComments
			s.Attempt = 1
			effects = append(effects, Fetch{Attempt: 1})
		}

	case MarkReadFailed:
		if e.Attempt != s.MarkReadAttempt || s.MarkReadDone {
			return s, nil
		}
		// The pending Settle moves a view still marking read on to the fetch.
		if s.MarkReadAttempt < s.Policy.MaxAttempts {
			s.MarkReadAttempt++
			effects = append(effects, MarkRead{
				Attempt: s.MarkReadAttempt,
				Delay:   s.Policy.backoff(s.MarkReadAttempt),
			})
		}

	case SettleElapsed:
		if s.State != StateMarkingRead {
			return s, nil
		}
		// Mark-read is still unconfirmed; it keeps running in the background.
		s.State = StateFetchingComments
		s.Attempt = 1
		effects = append(effects, Fetch{Attempt: 1})

	case FetchSucceeded:
		if !s.fetching() || e.Attempt != s.Attempt {
			return s, nil
		}
		s.State = StateReady
		s.Comments = e.Comments
		s.LastError = ""
		effects = append(effects, Render{})

	case FetchFailed:
		if !s.fetching() || e.Attempt != s.Attempt {
			return s, nil
		}
		if e.Err != nil {
			s.LastError = e.Err.Error()
		}
		if s.Attempt >= s.Policy.MaxAttempts {
			s.State = StateFailed
			effects = append(effects, Render{})
			break
		}
		s.State = StateRetrying
		s.Attempt++
		effects = append(effects, Fetch{
			Attempt:    s.Attempt,
			Delay:      s.Policy.backoff(s.Attempt),
			Invalidate: true,
		})

	case RetryRequested:
		if s.State != StateFailed || s.Closed {
			return s, nil
		}
		s.State = StateFetchingComments
		s.Attempt = 1
		s.LastError = ""
		effects = append(effects, Fetch{Attempt: 1, Invalidate: true}, Render{})

	case CommentPosted:
		if s.State != StateReady {
			return s, nil
		}
		s.Comments = viewcache.Merge(s.Comments, []model.TaskComment{e.Comment})
		effects = append(effects, Render{})

	case ViewClosed:
		s.Closed = true
	}

	if s.Closed {
		effects = withoutRender(effects)
	}
	return s, effects
}

func (s Snapshot) fetching() bool {
	return s.State == StateFetchingComments || s.State == StateRetrying
}

func withoutRender(effects []Effect) []Effect {
	out := effects[:0]
	for _, e := range effects {
		if _, ok := e.(Render); ok {
			continue
		}
		out = append(out, e)
	}
	return out
}
