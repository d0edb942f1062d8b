package driver

import (
	"context"
	"sync"
	"time"

	"github.com/gsoultan/binlogsync/internal/batch"
	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/internal/resolve"
	"github.com/gsoultan/binlogsync/internal/syncerr"
)

// UserProcessor implements Processor for the three-step user resolution
// chain: Initial → GotStep1(User) → GotStep2(mapping,hrCode) → GotMapping
// (passthrough) → Completed(MssUser). Grounded on user_processor.rs's
// handle_*_state functions; the user chain has one fewer real resolver
// step than org's, so HandleStep2 here is a no-op passthrough that keeps
// the shared four-case driver loop uniform across both variants.
type UserProcessor struct {
	resolver *resolve.UserResolver

	mu    sync.Mutex
	batch batch.UserBatch
}

// NewUserProcessor builds a UserProcessor over resolver.
func NewUserProcessor(resolver *resolve.UserResolver) *UserProcessor {
	return &UserProcessor{resolver: resolver}
}

// Batch returns the accumulated user batch. Call after Driver.Run completes.
func (p *UserProcessor) Batch() batch.UserBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batch
}

func (p *UserProcessor) HandleInitial(ctx context.Context, log model.ChangeLog) (Transition, *syncerr.SyncError) {
	user, serr := p.resolver.LoadUser(ctx, log.CID)
	if serr != nil {
		return Transition{}, serr
	}
	return Advanced(State{Kind: StateGotStep1, Log: log, I1: *user}), nil
}

// HandleStep1 performs the mapping translate — the user variant's only
// remaining resolver step before the MSS candidate query — and tags the
// result GotStep2 rather than jumping straight to GotMapping.
func (p *UserProcessor) HandleStep1(ctx context.Context, s State) (Transition, *syncerr.SyncError) {
	mapping, hrCode, serr := p.resolver.TranslateMssUser(ctx, s.Log.CID)
	if serr != nil {
		return Transition{}, serr
	}
	return Advanced(State{Kind: StateGotStep2, Log: s.Log, I1: s.I1, Mapping: mapping, Key: hrCode}), nil
}

// HandleStep2 is the no-op passthrough: the user variant has nothing to
// resolve at this stage, so it simply re-tags the same payload as
// GotMapping for the shared loop's next case.
func (p *UserProcessor) HandleStep2(ctx context.Context, s State) (Transition, *syncerr.SyncError) {
	return Advanced(State{Kind: StateGotMapping, Log: s.Log, I1: s.I1, I2: s.I2, Mapping: s.Mapping, Key: s.Key}), nil
}

func (p *UserProcessor) HandleMapping(ctx context.Context, s State) (Transition, *syncerr.SyncError) {
	best, serr := p.resolver.QueryAndSelectMssUser(ctx, s.Key)
	if serr != nil {
		return Transition{}, serr
	}
	return Completed(best), nil
}

func (p *UserProcessor) PostAdvance(next State, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	needInsert := next.Log.NeedsInsert()

	switch next.Kind {
	case StateGotStep1:
		user := next.I1.(model.User)
		p.batch.UserIDsToDelete = append(p.batch.UserIDsToDelete, user.ID)
		if user.Ext != nil && user.Ext.AuthorizeInfo != nil && user.Ext.AuthorizeInfo.JobNumber != "" {
			p.batch.JobNumbersToDelete = append(p.batch.JobNumbersToDelete, user.Ext.AuthorizeInfo.JobNumber)
		}
		if needInsert {
			user.Sanitize()
			user.Stamp(now)
			p.batch.Users = append(p.batch.Users, user)
		}
	case StateGotStep2:
		mapping := next.Mapping.(model.MssUserMapping)
		if needInsert {
			p.batch.UserMappings = append(p.batch.UserMappings, mapping)
		}
	case StateGotMapping:
		// Passthrough stage: no new record to stage, but the hrCode key
		// is now settled so the final MSS user row can be deleted by it.
		if next.Key != "" {
			p.batch.HrCodesToDelete = append(p.batch.HrCodesToDelete, next.Key)
		}
	}
}

func (p *UserProcessor) PostComplete(log model.ChangeLog, final interface{}, now time.Time) {
	if !log.NeedsInsert() {
		return
	}
	best := final.(model.MssUser)
	best.Stamp(now)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.batch.MssUsers = append(p.batch.MssUsers, best)
}
