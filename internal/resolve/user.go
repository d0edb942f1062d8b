package resolve

import (
	"context"
	"fmt"

	"github.com/gsoultan/binlogsync/internal/gateway"
	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/internal/syncerr"
)

// UserResolver performs the three-step user resolution chain.
type UserResolver struct {
	client *gateway.Client
}

// NewUserResolver builds a UserResolver over client.
func NewUserResolver(client *gateway.Client) *UserResolver {
	return &UserResolver{client: client}
}

// LoadUser is step (a): userLoadById(cid).
func (r *UserResolver) LoadUser(ctx context.Context, cid string) (*model.User, *syncerr.SyncError) {
	if cid == "" {
		return nil, syncerr.AsPermanent(fmt.Errorf("cid is missing"))
	}
	user, serr := r.client.UserLoadByID(ctx, cid)
	if serr != nil {
		return nil, serr
	}
	if user == nil {
		return nil, syncerr.AsPermanent(fmt.Errorf("no matching TelecomUser for cid %s", cid))
	}
	return user, nil
}

// TranslateMssUser is step (b): mssUserTranslate(cid) → (mapping, hrCode),
// where a missing hrCode is Permanent.
func (r *UserResolver) TranslateMssUser(ctx context.Context, cid string) (model.MssUserMapping, string, *syncerr.SyncError) {
	if cid == "" {
		return model.MssUserMapping{}, "", syncerr.AsPermanent(fmt.Errorf("cid is missing"))
	}
	mapping, serr := r.client.MssUserTranslate(ctx, cid)
	if serr != nil {
		return model.MssUserMapping{}, "", serr
	}
	if mapping == nil {
		return model.MssUserMapping{}, "", syncerr.AsPermanent(fmt.Errorf("MSS user mapping not found for cid %s", cid))
	}
	if mapping.HrCode == "" {
		return model.MssUserMapping{}, "", syncerr.AsPermanent(fmt.Errorf("hrCode is missing for mapping"))
	}
	return *mapping, mapping.HrCode, nil
}

// QueryAndSelectMssUser is step (c): mssUserQuery(hrCode), then selects the
// single best candidate via model.SelectBestMssUser.
func (r *UserResolver) QueryAndSelectMssUser(ctx context.Context, hrCode string) (model.MssUser, *syncerr.SyncError) {
	candidates, serr := r.client.MssUserQuery(ctx, hrCode)
	if serr != nil {
		return model.MssUser{}, serr
	}
	best, ok := model.SelectBestMssUser(candidates)
	if !ok {
		return model.MssUser{}, syncerr.AsPermanent(fmt.Errorf("no MSS users for hrCode %s", hrCode))
	}
	return best, nil
}
