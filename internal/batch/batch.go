// Package batch accumulates the insert and delete-key lists that a run's
// state-machine driver produces, across all logs and retry rounds, ready
// for the transactional sink to dedup and commit. Grounded on
// ProcessedOrgData/ProcessedUserData and their append-only merge().
package batch

import "github.com/gsoultan/binlogsync/internal/model"

// OrgBatch is the aggregate produced by processing a run's org change logs.
type OrgBatch struct {
	Orgs        []model.Org
	OrgTrees    []model.OrgTree
	OrgMappings []model.MssOrgMapping
	MssOrgs     []model.MssOrg

	OrgIDsToDelete     []string
	OrgTreeIDsToDelete []string
	MappingCodesToDelete []string
	MssOrgCodesToDelete  []string
}

// Merge appends other's contents onto b. Append-only, so merge stays
// associative and commutative regardless of round order.
func (b *OrgBatch) Merge(other *OrgBatch) {
	if other == nil {
		return
	}
	b.Orgs = append(b.Orgs, other.Orgs...)
	b.OrgTrees = append(b.OrgTrees, other.OrgTrees...)
	b.OrgMappings = append(b.OrgMappings, other.OrgMappings...)
	b.MssOrgs = append(b.MssOrgs, other.MssOrgs...)

	b.OrgIDsToDelete = append(b.OrgIDsToDelete, other.OrgIDsToDelete...)
	b.OrgTreeIDsToDelete = append(b.OrgTreeIDsToDelete, other.OrgTreeIDsToDelete...)
	b.MappingCodesToDelete = append(b.MappingCodesToDelete, other.MappingCodesToDelete...)
	b.MssOrgCodesToDelete = append(b.MssOrgCodesToDelete, other.MssOrgCodesToDelete...)
}

// UserBatch is the aggregate produced by processing a run's user change logs.
type UserBatch struct {
	Users          []model.User
	UserMappings   []model.MssUserMapping
	MssUsers       []model.MssUser

	UserIDsToDelete    []string
	JobNumbersToDelete []string
	HrCodesToDelete    []string
}

// Merge appends other's contents onto b.
func (b *UserBatch) Merge(other *UserBatch) {
	if other == nil {
		return
	}
	b.Users = append(b.Users, other.Users...)
	b.UserMappings = append(b.UserMappings, other.UserMappings...)
	b.MssUsers = append(b.MssUsers, other.MssUsers...)

	b.UserIDsToDelete = append(b.UserIDsToDelete, other.UserIDsToDelete...)
	b.JobNumbersToDelete = append(b.JobNumbersToDelete, other.JobNumbersToDelete...)
	b.HrCodesToDelete = append(b.HrCodesToDelete, other.HrCodesToDelete...)
}

// PermanentFailure records one change log that cannot be resolved and the
// classified reason, kept for logging only — it never contributes to
// either batch.
type PermanentFailure struct {
	LogID  string
	Reason string
}
