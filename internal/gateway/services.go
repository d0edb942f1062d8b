package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/internal/syncerr"
)

// Named services invoked on the gateway, per spec.md §6.
const (
	serviceOrgLoadByID       = "org_loadbyid"
	serviceOrgTreeLoadByID   = "org_tree_loadbyid"
	serviceMssOrgTranslate   = "mss_organization_translate"
	serviceMssOrgQuery       = "mss_organization_query"
	serviceUserLoadByID      = "user_loadbyid"
	serviceMssUserTranslate  = "mss_user_translate"
	serviceMssUserQuery      = "mss_user_queryorder"
	serviceBinlogFind        = "binlog_find"
)

// decodePayload unmarshals body.payload (the ServiceReply's Raw bytes) into
// out. A Permanent error is returned on malformed payloads, matching the
// "malformed payload" classification in spec.md §4.1.
func decodePayload(reply *ServiceReply, out interface{}) *syncerr.SyncError {
	payload := Payload(reply)
	if !payload.Exists() {
		return syncerr.AsPermanent(fmt.Errorf("gateway reply missing body.payload"))
	}
	if err := json.Unmarshal([]byte(payload.Raw), out); err != nil {
		return syncerr.AsPermanent(fmt.Errorf("decode gateway payload: %w", err))
	}
	return nil
}

// OrgLoadByID resolves an organization by correlation id. A nil, nil
// result means "not found" (caller decides whether that's Permanent).
func (c *Client) OrgLoadByID(ctx context.Context, cid string) (*model.Org, *syncerr.SyncError) {
	reply, serr := c.InvokeService(ctx, serviceOrgLoadByID, []interface{}{cid})
	if serr != nil {
		return nil, serr
	}
	var org model.Org
	if derr := decodePayload(reply, &org); derr != nil {
		return nil, derr
	}
	if org.ID == "" {
		return nil, nil
	}
	return &org, nil
}

// OrgTreeLoadByID resolves the hierarchy node for an organization.
func (c *Client) OrgTreeLoadByID(ctx context.Context, cid string) (*model.OrgTree, *syncerr.SyncError) {
	reply, serr := c.InvokeService(ctx, serviceOrgTreeLoadByID, []interface{}{cid})
	if serr != nil {
		return nil, serr
	}
	var tree model.OrgTree
	if derr := decodePayload(reply, &tree); derr != nil {
		return nil, derr
	}
	if tree.ID == "" {
		return nil, nil
	}
	return &tree, nil
}

// MssOrgTranslate resolves the internal/external code mapping for an org.
func (c *Client) MssOrgTranslate(ctx context.Context, cid string) (*model.MssOrgMapping, *syncerr.SyncError) {
	reply, serr := c.InvokeService(ctx, serviceMssOrgTranslate, []interface{}{cid})
	if serr != nil {
		return nil, serr
	}
	var mapping model.MssOrgMapping
	if derr := decodePayload(reply, &mapping); derr != nil {
		return nil, derr
	}
	if mapping.Code == "" && mapping.MssCode == "" {
		return nil, nil
	}
	return &mapping, nil
}

// MssOrgQuery fetches the external MSS representations for an org mssCode.
func (c *Client) MssOrgQuery(ctx context.Context, mssCode string) ([]model.MssOrg, *syncerr.SyncError) {
	reply, serr := c.InvokeService(ctx, serviceMssOrgQuery, []interface{}{mssCode})
	if serr != nil {
		return nil, serr
	}
	var orgs []model.MssOrg
	if derr := decodePayload(reply, &orgs); derr != nil {
		return nil, derr
	}
	return orgs, nil
}

// UserLoadByID resolves a user by correlation id.
func (c *Client) UserLoadByID(ctx context.Context, cid string) (*model.User, *syncerr.SyncError) {
	reply, serr := c.InvokeService(ctx, serviceUserLoadByID, []interface{}{cid})
	if serr != nil {
		return nil, serr
	}
	var user model.User
	if derr := decodePayload(reply, &user); derr != nil {
		return nil, derr
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// MssUserTranslate resolves the internal/external identity mapping for a user.
func (c *Client) MssUserTranslate(ctx context.Context, cid string) (*model.MssUserMapping, *syncerr.SyncError) {
	reply, serr := c.InvokeService(ctx, serviceMssUserTranslate, []interface{}{cid})
	if serr != nil {
		return nil, serr
	}
	var mapping model.MssUserMapping
	if derr := decodePayload(reply, &mapping); derr != nil {
		return nil, derr
	}
	if mapping.UID == "" && mapping.HrCode == "" {
		return nil, nil
	}
	return &mapping, nil
}

// MssUserQuery fetches the external MSS user candidates for a user hrCode.
func (c *Client) MssUserQuery(ctx context.Context, hrCode string) ([]model.MssUser, *syncerr.SyncError) {
	reply, serr := c.InvokeService(ctx, serviceMssUserQuery, []interface{}{hrCode})
	if serr != nil {
		return nil, serr
	}
	var users []model.MssUser
	if derr := decodePayload(reply, &users); derr != nil {
		return nil, derr
	}
	return users, nil
}

// BinlogFind pulls one page of change logs for kind in [startMs, endMs].
func (c *Client) BinlogFind(ctx context.Context, kind model.DataType, startMs, endMs int64, page model.Page) (*model.ResultSet, *syncerr.SyncError) {
	reply, serr := c.InvokeService(ctx, serviceBinlogFind, []interface{}{string(kind), startMs, endMs, page})
	if serr != nil {
		return nil, serr
	}
	var rs model.ResultSet
	if derr := decodePayload(reply, &rs); derr != nil {
		return nil, derr
	}
	return &rs, nil
}
