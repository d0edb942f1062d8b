package batch

import (
	"testing"

	"github.com/gsoultan/binlogsync/internal/model"
)

func TestOrgBatchMergeIsAppendOnly(t *testing.T) {
	b := &OrgBatch{
		Orgs:           []model.Org{{ID: "o1"}},
		OrgIDsToDelete: []string{"d1"},
	}
	other := &OrgBatch{
		Orgs:           []model.Org{{ID: "o2"}},
		OrgIDsToDelete: []string{"d2"},
	}

	b.Merge(other)

	if len(b.Orgs) != 2 || b.Orgs[0].ID != "o1" || b.Orgs[1].ID != "o2" {
		t.Errorf("OrgBatch.Orgs after merge = %+v, want [o1 o2] in order", b.Orgs)
	}
	if len(b.OrgIDsToDelete) != 2 || b.OrgIDsToDelete[0] != "d1" || b.OrgIDsToDelete[1] != "d2" {
		t.Errorf("OrgBatch.OrgIDsToDelete after merge = %+v, want [d1 d2] in order", b.OrgIDsToDelete)
	}
}

func TestOrgBatchMergeNilIsNoop(t *testing.T) {
	b := &OrgBatch{Orgs: []model.Org{{ID: "o1"}}}
	b.Merge(nil)

	if len(b.Orgs) != 1 || b.Orgs[0].ID != "o1" {
		t.Errorf("OrgBatch.Merge(nil) mutated b.Orgs to %+v", b.Orgs)
	}
}

func TestUserBatchMergeIsAppendOnly(t *testing.T) {
	b := &UserBatch{
		Users:              []model.User{{ID: "u1"}},
		JobNumbersToDelete: []string{"jn1"},
		HrCodesToDelete:    []string{"hc1"},
	}
	other := &UserBatch{
		Users:              []model.User{{ID: "u2"}},
		JobNumbersToDelete: []string{"jn2"},
		HrCodesToDelete:    []string{"hc2"},
	}

	b.Merge(other)

	if len(b.Users) != 2 || b.Users[0].ID != "u1" || b.Users[1].ID != "u2" {
		t.Errorf("UserBatch.Users after merge = %+v, want [u1 u2] in order", b.Users)
	}
	if len(b.JobNumbersToDelete) != 2 {
		t.Errorf("UserBatch.JobNumbersToDelete after merge = %+v, want length 2", b.JobNumbersToDelete)
	}
	if len(b.HrCodesToDelete) != 2 {
		t.Errorf("UserBatch.HrCodesToDelete after merge = %+v, want length 2", b.HrCodesToDelete)
	}
}

func TestUserBatchMergeNilIsNoop(t *testing.T) {
	b := &UserBatch{Users: []model.User{{ID: "u1"}}}
	b.Merge(nil)

	if len(b.Users) != 1 {
		t.Errorf("UserBatch.Merge(nil) mutated b.Users to %+v", b.Users)
	}
}
