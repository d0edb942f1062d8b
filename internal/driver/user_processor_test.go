package driver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gsoultan/binlogsync/internal/gateway"
	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/internal/resolve"
)

func newTestUserProcessor(t *testing.T, payloads map[string]interface{}) (*UserProcessor, func()) {
	t.Helper()
	gw := &fakeGateway{payloads: payloads}
	srv := httptest.NewServer(gw.handler(t))
	client := gateway.NewClient(gateway.Config{BaseURL: srv.URL})
	proc := NewUserProcessor(resolve.NewUserResolver(client))
	return proc, srv.Close
}

func TestUserProcessorFullChain(t *testing.T) {
	now := time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC)

	proc, closeSrv := newTestUserProcessor(t, map[string]interface{}{
		"user_loadbyid":       map[string]interface{}{"id": "user-1", "name": "Ada Lovelace", "loginname": "ada"},
		"mss_user_translate":  map[string]interface{}{"uid": "user-1", "mssUid": "HR-100"},
		"mss_user_queryorder": []map[string]interface{}{{"id": "mss-user-1", "hrCode": "HR-100", "userStatus": 0}},
	})
	defer closeSrv()

	d := New(proc, func() time.Time { return now })
	log := model.ChangeLog{CID: "user-1", Type: model.OpUpsert}

	unresolved, permanent := d.Run(context.Background(), []model.ChangeLog{log})
	if len(unresolved) != 0 || len(permanent) != 0 {
		t.Fatalf("Run() unresolved=%v permanent=%v, want both empty", unresolved, permanent)
	}

	b := proc.Batch()
	if len(b.Users) != 1 || b.Users[0].ID != "user-1" {
		t.Errorf("Users = %+v, want one user-1", b.Users)
	}
	if b.Users[0].HitDate != now.Format("2006-01-02") {
		t.Errorf("User.HitDate = %q, want date-only stamp", b.Users[0].HitDate)
	}
	if len(b.UserMappings) != 1 || b.UserMappings[0].HrCode != "HR-100" {
		t.Errorf("UserMappings = %+v, want one mapping to HR-100", b.UserMappings)
	}
	if len(b.MssUsers) != 1 || b.MssUsers[0].HrCode != "HR-100" {
		t.Errorf("MssUsers = %+v, want one HR-100", b.MssUsers)
	}
	if b.MssUsers[0].HitDate != now.Format("2006-01-02 15:04:05") {
		t.Errorf("MssUser.HitDate = %q, want full-datetime stamp", b.MssUsers[0].HitDate)
	}

	if len(b.UserIDsToDelete) != 1 || b.UserIDsToDelete[0] != "user-1" {
		t.Errorf("UserIDsToDelete = %v, want [user-1]", b.UserIDsToDelete)
	}
	if len(b.HrCodesToDelete) != 1 || b.HrCodesToDelete[0] != "HR-100" {
		t.Errorf("HrCodesToDelete = %v, want [HR-100]", b.HrCodesToDelete)
	}
}

func TestUserProcessorSelectsBestCandidateByStatus(t *testing.T) {
	now := time.Now()

	proc, closeSrv := newTestUserProcessor(t, map[string]interface{}{
		"user_loadbyid":      map[string]interface{}{"id": "user-2", "name": "Grace Hopper"},
		"mss_user_translate": map[string]interface{}{"uid": "user-2", "mssUid": "HR-200"},
		"mss_user_queryorder": []map[string]interface{}{
			{"id": "cand-active", "hrCode": "HR-200", "userStatus": 0},
			{"id": "cand-inactive", "hrCode": "HR-200", "userStatus": 9},
		},
	})
	defer closeSrv()

	d := New(proc, func() time.Time { return now })
	log := model.ChangeLog{CID: "user-2", Type: model.OpUpsert}

	_, permanent := d.Run(context.Background(), []model.ChangeLog{log})
	if len(permanent) != 0 {
		t.Fatalf("permanent = %v, want empty", permanent)
	}

	b := proc.Batch()
	if len(b.MssUsers) != 1 || b.MssUsers[0].ID != "cand-active" {
		t.Errorf("MssUsers = %+v, want cand-active selected (lowest userStatus)", b.MssUsers)
	}
}
