package sink

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/gsoultan/binlogsync/internal/batch"
	"github.com/gsoultan/binlogsync/internal/model"
)

// sqlite accepts backtick-quoted identifiers and "?" placeholders, the
// same shape QuoteIdent/batchDelete emit for the "mysql" driver, so it
// stands in for a real MySQL server in these transaction tests.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE d_telecom_org (
			no TEXT, datelastmodified INTEGER, name TEXT, company_type TEXT,
			company_id TEXT, org_type TEXT, weight INTEGER, is_corp INTEGER,
			id TEXT, remark TEXT, abbreviation TEXT, dept_level TEXT,
			dept_type TEXT, legal TEXT, taxpayer_number TEXT, website TEXT,
			d_delete INTEGER, is_delete INTEGER, hitdate TEXT, intime TEXT,
			year TEXT, month TEXT, hitdate1 TEXT)`,
		`CREATE TABLE d_telecom_org_tree (
			parent TEXT, d_level INTEGER, name TEXT, weight INTEGER,
			is_corp INTEGER, id TEXT, leaf INTEGER, ancestors TEXT,
			d_delete INTEGER, is_delete INTEGER)`,
		`CREATE TABLE d_mss_org_mapping (code TEXT, msscode TEXT)`,
		`CREATE TABLE d_mss_org (
			code TEXT, companytype TEXT, hrcode TEXT, sort REAL, type TEXT,
			parentcompanycode TEXT, identity TEXT, name TEXT,
			parentdepartmentcode TEXT, id TEXT, time INTEGER, status INTEGER,
			hitdate1 TEXT, hitdate TEXT, year TEXT, month TEXT)`,
		`CREATE TABLE d_telecom_user (
			id TEXT, name TEXT, loginname TEXT, no TEXT, org TEXT,
			gender INTEGER, certificate_type INTEGER, certificate_code TEXT,
			is_ehr_sync INTEGER, status INTEGER, photo TEXT,
			effective_time_start INTEGER, effective_time_end INTEGER,
			account_type INTEGER, encryptcertificate_code TEXT,
			d_delete INTEGER, is_delete INTEGER, datelastmodified INTEGER,
			hitdate TEXT, intime TEXT, year TEXT, month TEXT, hitdate1 TEXT)`,
		`CREATE TABLE d_mss_user_mapping (
			standardstation TEXT, userid TEXT, certificatecode TEXT,
			organization TEXT, name TEXT, mssuid TEXT)`,
		`CREATE TABLE d_mss_user (
			id TEXT, code TEXT, hrid TEXT, hrcode TEXT, name TEXT,
			englishname TEXT, account TEXT, email TEXT, organizationcode TEXT,
			companycode TEXT, sex INTEGER, identitycard TEXT, birthday INTEGER,
			firstmobile TEXT, userstatus INTEGER, sort REAL, jobnumber TEXT,
			basestation TEXT, station TEXT, stationsystem TEXT,
			stationlevel TEXT, stationgradesystem TEXT, stationgrade TEXT,
			stationsequence TEXT, jobstatus TEXT, jobtype TEXT,
			hrjobtype TEXT, jobcategory TEXT, telephone TEXT,
			standbyaccount TEXT, identity TEXT, time INTEGER, hitdate1 TEXT,
			hitdate TEXT, year TEXT, month TEXT)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create schema: %v\n%s", err, stmt)
		}
	}
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestCommitOrgBatchDeletesThenInserts(t *testing.T) {
	db := openTestDB(t)
	sink := NewMySQLSink(db)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO d_telecom_org (id) VALUES ('stale-1')`); err != nil {
		t.Fatalf("seed stale row: %v", err)
	}

	b := batch.OrgBatch{
		OrgIDsToDelete: []string{"stale-1"},
		Orgs: []model.Org{
			{ID: "org-1", Name: "Engineering", No: "001"},
			{ID: "org-1", Name: "Engineering-dup", No: "001"}, // duplicate id, deduped
		},
		OrgTrees: []model.OrgTree{
			{ID: "org-1", Name: "Engineering"},
		},
		OrgMappings: []model.MssOrgMapping{
			{Code: "org-1", MssCode: "MSS-001"},
		},
		MssOrgs: []model.MssOrg{
			{ID: "mss-org-1", HrCode: "HR-001", Name: "Engineering"},
		},
	}

	if err := sink.CommitOrgBatch(ctx, b); err != nil {
		t.Fatalf("CommitOrgBatch: %v", err)
	}

	if n := countRows(t, db, "d_telecom_org"); n != 1 {
		t.Errorf("d_telecom_org rows = %d, want 1 (stale deleted, dup deduped)", n)
	}
	if n := countRows(t, db, "d_telecom_org_tree"); n != 1 {
		t.Errorf("d_telecom_org_tree rows = %d, want 1", n)
	}
	if n := countRows(t, db, "d_mss_org_mapping"); n != 1 {
		t.Errorf("d_mss_org_mapping rows = %d, want 1", n)
	}
	if n := countRows(t, db, "d_mss_org"); n != 1 {
		t.Errorf("d_mss_org rows = %d, want 1", n)
	}
}

func TestCommitOrgBatchEmptyIsNoop(t *testing.T) {
	db := openTestDB(t)
	sink := NewMySQLSink(db)

	if err := sink.CommitOrgBatch(context.Background(), batch.OrgBatch{}); err != nil {
		t.Fatalf("CommitOrgBatch(empty): %v", err)
	}
}

func TestCommitUserBatchDeletesByHrCodeAndJobNumber(t *testing.T) {
	db := openTestDB(t)
	sink := NewMySQLSink(db)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO d_mss_user (hrcode, jobnumber) VALUES ('stale-hr', 'stale-job')`); err != nil {
		t.Fatalf("seed stale row: %v", err)
	}

	b := batch.UserBatch{
		HrCodesToDelete:    []string{"stale-hr"},
		JobNumbersToDelete: []string{"stale-job"},
		Users: []model.User{
			{ID: "user-1", Name: "Ada"},
		},
		UserMappings: []model.MssUserMapping{
			{UID: "user-1", HrCode: "HR-002"},
		},
		MssUsers: []model.MssUser{
			{ID: "mss-user-1", HrCode: "HR-002", Name: "Ada"},
		},
	}

	if err := sink.CommitUserBatch(ctx, b); err != nil {
		t.Fatalf("CommitUserBatch: %v", err)
	}

	if n := countRows(t, db, "d_mss_user"); n != 1 {
		t.Errorf("d_mss_user rows = %d, want 1 (stale row deleted by either column)", n)
	}
	if n := countRows(t, db, "d_telecom_user"); n != 1 {
		t.Errorf("d_telecom_user rows = %d, want 1", n)
	}
	if n := countRows(t, db, "d_mss_user_mapping"); n != 1 {
		t.Errorf("d_mss_user_mapping rows = %d, want 1", n)
	}
}

func TestPlaceholderRows(t *testing.T) {
	got := placeholderRows(2, 3)
	want := "(?,?,?),(?,?,?)"
	if got != want {
		t.Errorf("placeholderRows(2,3) = %q, want %q", got, want)
	}
}

func TestDedupStrings(t *testing.T) {
	got := dedupStrings([]string{"a", "", "b", "a", "c", ""})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("dedupStrings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupStrings[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDedupMssUsers(t *testing.T) {
	in := []model.MssUser{
		{ID: "a", HrCode: "h1"},
		{ID: "b", HrCode: "h1"},
		{ID: "a", HrCode: "h1"},
	}
	got := dedupMssUsers(in)
	if len(got) != 2 {
		t.Errorf("dedupMssUsers len = %d, want 2", len(got))
	}
}
