package driver

import (
	"context"
	"time"

	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/internal/syncerr"
)

// MaxRetries bounds the number of rounds the driver gives a log's state to
// settle, per spec.md §4.7.
const MaxRetries = 3

// PermanentFailure records one change log that could not be resolved.
type PermanentFailure struct {
	Log    model.ChangeLog
	Reason string
}

// Processor implements the per-kind resolver steps and the post-advance /
// post-complete hooks that stage records into that kind's own batch.
// Implemented twice (org, user) — the outer driver loop below is shared,
// per Design Notes §9's "expose as an interface ... implement twice".
type Processor interface {
	HandleInitial(ctx context.Context, log model.ChangeLog) (Transition, *syncerr.SyncError)
	HandleStep1(ctx context.Context, s State) (Transition, *syncerr.SyncError)
	// HandleStep2 is a no-op passthrough for the user variant (3 states,
	// one fewer intermediate than org's 4), keeping the shared loop uniform.
	HandleStep2(ctx context.Context, s State) (Transition, *syncerr.SyncError)
	HandleMapping(ctx context.Context, s State) (Transition, *syncerr.SyncError)

	// PostAdvance is invoked immediately after a state advances, so partial
	// progress contributes to the batch even if a later step fails.
	PostAdvance(next State, now time.Time)
	// PostComplete is invoked once a log's chain fully resolves.
	PostComplete(log model.ChangeLog, final interface{}, now time.Time)
}

// Driver runs the bounded-retry state machine over a batch of change logs.
type Driver struct {
	proc Processor
	now  func() time.Time
}

// New builds a Driver over proc. now defaults to time.Now; tests may
// override it for deterministic stamping assertions.
func New(proc Processor, now func() time.Time) *Driver {
	if now == nil {
		now = time.Now
	}
	return &Driver{proc: proc, now: now}
}

// Run advances every log through proc's resolver chain, retrying
// transient failures up to MaxRetries rounds, per spec.md §4.7's
// algorithm. It returns the logs that never settled within the budget and
// the ones that failed permanently; successfully resolved data has
// already been staged into the processor's own batch via the hooks.
func (d *Driver) Run(ctx context.Context, logs []model.ChangeLog) (unresolved []model.ChangeLog, permanent []PermanentFailure) {
	states := make([]State, len(logs))
	for i, l := range logs {
		states[i] = State{Kind: StateInitial, Log: l}
	}

	var retry []State

	for round := 0; round < MaxRetries && len(states) > 0; round++ {
		retry = retry[:0]

		for _, s := range states {
			cur := s
			for {
				var t Transition
				var serr *syncerr.SyncError

				switch cur.Kind {
				case StateInitial:
					t, serr = d.proc.HandleInitial(ctx, cur.Log)
				case StateGotStep1:
					t, serr = d.proc.HandleStep1(ctx, cur)
				case StateGotStep2:
					t, serr = d.proc.HandleStep2(ctx, cur)
				case StateGotMapping:
					t, serr = d.proc.HandleMapping(ctx, cur)
				}

				if serr != nil {
					if serr.Kind == syncerr.Transient {
						retry = append(retry, cur)
					} else {
						permanent = append(permanent, PermanentFailure{Log: cur.Log, Reason: serr.Error()})
					}
					break
				}

				if t.Kind == TransitionCompleted {
					d.proc.PostComplete(cur.Log, t.Final, d.now())
					break
				}

				// Advanced: stage partial progress, then keep driving
				// this log forward in the same inner loop.
				d.proc.PostAdvance(t.Next, d.now())
				cur = t.Next
			}
		}

		states = append([]State(nil), retry...)
	}

	unresolved = make([]model.ChangeLog, 0, len(states))
	for _, s := range states {
		unresolved = append(unresolved, s.Log)
	}
	return unresolved, permanent
}
