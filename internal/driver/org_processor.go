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

// OrgProcessor implements Processor for the four-step org resolution
// chain: Initial → GotStep1(Org) → GotStep2(OrgTree) → GotMapping(mapping,
// mssCode) → Completed([]MssOrg). Grounded on org_processor.rs's
// handle_*_state functions and advance_states' inline hook bodies.
type OrgProcessor struct {
	resolver *resolve.OrgResolver

	mu    sync.Mutex
	batch batch.OrgBatch
}

// NewOrgProcessor builds an OrgProcessor over resolver.
func NewOrgProcessor(resolver *resolve.OrgResolver) *OrgProcessor {
	return &OrgProcessor{resolver: resolver}
}

// Batch returns the accumulated org batch. Call after Driver.Run completes.
func (p *OrgProcessor) Batch() batch.OrgBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batch
}

func (p *OrgProcessor) HandleInitial(ctx context.Context, log model.ChangeLog) (Transition, *syncerr.SyncError) {
	org, serr := p.resolver.LoadOrg(ctx, log.CID)
	if serr != nil {
		return Transition{}, serr
	}
	return Advanced(State{Kind: StateGotStep1, Log: log, I1: *org}), nil
}

func (p *OrgProcessor) HandleStep1(ctx context.Context, s State) (Transition, *syncerr.SyncError) {
	tree, serr := p.resolver.LoadOrgTree(ctx, s.Log.CID)
	if serr != nil {
		return Transition{}, serr
	}
	return Advanced(State{Kind: StateGotStep2, Log: s.Log, I1: s.I1, I2: *tree}), nil
}

func (p *OrgProcessor) HandleStep2(ctx context.Context, s State) (Transition, *syncerr.SyncError) {
	mapping, mssCode, serr := p.resolver.TranslateMssOrg(ctx, s.Log.CID)
	if serr != nil {
		return Transition{}, serr
	}
	return Advanced(State{Kind: StateGotMapping, Log: s.Log, I1: s.I1, I2: s.I2, Mapping: mapping, Key: mssCode}), nil
}

func (p *OrgProcessor) HandleMapping(ctx context.Context, s State) (Transition, *syncerr.SyncError) {
	orgs, serr := p.resolver.QueryMssOrg(ctx, s.Key)
	if serr != nil {
		return Transition{}, serr
	}
	return Completed(orgs), nil
}

func (p *OrgProcessor) PostAdvance(next State, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	needInsert := next.Log.NeedsInsert()

	switch next.Kind {
	case StateGotStep1:
		org := next.I1.(model.Org)
		p.batch.OrgIDsToDelete = append(p.batch.OrgIDsToDelete, org.ID)
		if needInsert {
			org.Stamp(now)
			p.batch.Orgs = append(p.batch.Orgs, org)
		}
	case StateGotStep2:
		tree := next.I2.(model.OrgTree)
		p.batch.OrgTreeIDsToDelete = append(p.batch.OrgTreeIDsToDelete, tree.ID)
		if needInsert {
			p.batch.OrgTrees = append(p.batch.OrgTrees, tree)
		}
	case StateGotMapping:
		mapping := next.Mapping.(model.MssOrgMapping)
		if mapping.Code != "" {
			p.batch.MappingCodesToDelete = append(p.batch.MappingCodesToDelete, mapping.Code)
		}
		p.batch.MssOrgCodesToDelete = append(p.batch.MssOrgCodesToDelete, next.Key)
		if needInsert {
			p.batch.OrgMappings = append(p.batch.OrgMappings, mapping)
		}
	}
}

func (p *OrgProcessor) PostComplete(log model.ChangeLog, final interface{}, now time.Time) {
	if !log.NeedsInsert() {
		return
	}
	orgs := final.([]model.MssOrg)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range orgs {
		o.Stamp(now)
		p.batch.MssOrgs = append(p.batch.MssOrgs, o)
	}
}
