// Package resolve implements the per-kind multi-step entity resolution
// chains (C6): four steps for organizations, three for users. Grounded
// step-for-step on org_processor.rs/user_processor.rs's transform_to_*
// helpers.
package resolve

import (
	"context"
	"fmt"

	"github.com/gsoultan/binlogsync/internal/gateway"
	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/internal/syncerr"
)

// OrgResolver performs the four-step organization resolution chain.
type OrgResolver struct {
	client *gateway.Client
}

// NewOrgResolver builds an OrgResolver over client.
func NewOrgResolver(client *gateway.Client) *OrgResolver {
	return &OrgResolver{client: client}
}

// LoadOrg is step (a): orgLoadById(cid). A nil org with no error is
// reclassified Permanent by the caller ("no matching record").
func (r *OrgResolver) LoadOrg(ctx context.Context, cid string) (*model.Org, *syncerr.SyncError) {
	if cid == "" {
		return nil, syncerr.AsPermanent(fmt.Errorf("cid is missing"))
	}
	org, serr := r.client.OrgLoadByID(ctx, cid)
	if serr != nil {
		return nil, serr
	}
	if org == nil {
		return nil, syncerr.AsPermanent(fmt.Errorf("no matching TelecomOrg for cid %s", cid))
	}
	return org, nil
}

// LoadOrgTree is step (b): orgTreeLoadById(cid).
func (r *OrgResolver) LoadOrgTree(ctx context.Context, cid string) (*model.OrgTree, *syncerr.SyncError) {
	if cid == "" {
		return nil, syncerr.AsPermanent(fmt.Errorf("cid is missing"))
	}
	tree, serr := r.client.OrgTreeLoadByID(ctx, cid)
	if serr != nil {
		return nil, serr
	}
	if tree == nil {
		return nil, syncerr.AsPermanent(fmt.Errorf("unable to produce OrgTree for cid %s", cid))
	}
	return tree, nil
}

// TranslateMssOrg is step (c): mssOrgTranslate(cid) → (mapping, mssCode),
// where a missing mssCode is Permanent.
func (r *OrgResolver) TranslateMssOrg(ctx context.Context, cid string) (model.MssOrgMapping, string, *syncerr.SyncError) {
	if cid == "" {
		return model.MssOrgMapping{}, "", syncerr.AsPermanent(fmt.Errorf("cid is missing"))
	}
	mapping, serr := r.client.MssOrgTranslate(ctx, cid)
	if serr != nil {
		return model.MssOrgMapping{}, "", serr
	}
	if mapping == nil {
		return model.MssOrgMapping{}, "", syncerr.AsPermanent(fmt.Errorf("MSS organization not found for cid %s", cid))
	}
	if mapping.MssCode == "" {
		return model.MssOrgMapping{}, "", syncerr.AsPermanent(fmt.Errorf("MSS code is missing for mapping"))
	}
	return *mapping, mapping.MssCode, nil
}

// QueryMssOrg is step (d): mssOrgQuery(mssCode) — an empty result is
// Permanent.
func (r *OrgResolver) QueryMssOrg(ctx context.Context, mssCode string) ([]model.MssOrg, *syncerr.SyncError) {
	orgs, serr := r.client.MssOrgQuery(ctx, mssCode)
	if serr != nil {
		return nil, serr
	}
	if len(orgs) == 0 {
		return nil, syncerr.AsPermanent(fmt.Errorf("no MSS organizations for mssCode %s", mssCode))
	}
	return orgs, nil
}
