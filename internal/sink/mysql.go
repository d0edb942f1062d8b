// Package sink implements the transactional writers (C9) that commit a
// resolved batch to its downstream stores. Grounded on the teacher's
// pkg/sink/mysql.MySQLSink (prepared-statement-cache, per-transaction
// write loop) generalized from a generic column-mapped writer to this
// domain's fixed table/column sets, and on org_processor.rs/
// user_processor.rs's save_processed_data/batch_insert_*/batch_delete.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gsoultan/binlogsync/internal/batch"
	"github.com/gsoultan/binlogsync/internal/model"
	"github.com/gsoultan/binlogsync/pkg/sqlutil"
)

// MySQLSink commits an OrgBatch/UserBatch inside one transaction each:
// batch-delete first (matching save_processed_data's delete-before-insert
// order, so a retried run never collides with its own prior inserts), then
// batch-insert each list deduped by its natural key.
type MySQLSink struct {
	db *sql.DB
}

// NewMySQLSink wraps an already-opened *sql.DB.
func NewMySQLSink(db *sql.DB) *MySQLSink {
	return &MySQLSink{db: db}
}

// CommitOrgBatch writes b's deletes then inserts inside one transaction.
func (s *MySQLSink) CommitOrgBatch(ctx context.Context, b batch.OrgBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin org batch tx: %w", err)
	}
	defer tx.Rollback()

	if err := batchDelete(ctx, tx, "d_telecom_org", "id", b.OrgIDsToDelete); err != nil {
		return err
	}
	if err := batchDelete(ctx, tx, "d_telecom_org_tree", "id", b.OrgTreeIDsToDelete); err != nil {
		return err
	}
	if err := batchDelete(ctx, tx, "d_mss_org_mapping", "code", b.MappingCodesToDelete); err != nil {
		return err
	}
	if err := batchDelete(ctx, tx, "d_mss_org", "hrcode", b.MssOrgCodesToDelete); err != nil {
		return err
	}

	if err := insertOrgs(ctx, tx, dedupOrgs(b.Orgs)); err != nil {
		return err
	}
	if err := insertOrgTrees(ctx, tx, dedupOrgTrees(b.OrgTrees)); err != nil {
		return err
	}
	if err := insertOrgMappings(ctx, tx, dedupOrgMappings(b.OrgMappings)); err != nil {
		return err
	}
	if err := insertMssOrgs(ctx, tx, dedupMssOrgs(b.MssOrgs)); err != nil {
		return err
	}

	return tx.Commit()
}

// CommitUserBatch mirrors CommitOrgBatch for the user family. Note the
// known discrepancy preserved from original_source: job_numbers_to_delete
// is populated from the resolved AuthorizeInfo.JobNumber but d_mss_user is
// deleted by both HRCODE and JOBNUMBER columns in separate passes — kept
// as observed, see DESIGN.md.
func (s *MySQLSink) CommitUserBatch(ctx context.Context, b batch.UserBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin user batch tx: %w", err)
	}
	defer tx.Rollback()

	if err := batchDelete(ctx, tx, "d_telecom_user", "id", b.UserIDsToDelete); err != nil {
		return err
	}
	if err := batchDelete(ctx, tx, "d_mss_user_mapping", "userid", b.UserIDsToDelete); err != nil {
		return err
	}
	if err := batchDelete(ctx, tx, "d_mss_user", "hrcode", b.HrCodesToDelete); err != nil {
		return err
	}
	if err := batchDelete(ctx, tx, "d_mss_user", "jobnumber", b.JobNumbersToDelete); err != nil {
		return err
	}

	if err := insertUsers(ctx, tx, dedupUsers(b.Users)); err != nil {
		return err
	}
	if err := insertUserMappings(ctx, tx, dedupUserMappings(b.UserMappings)); err != nil {
		return err
	}
	if err := insertMssUsers(ctx, tx, dedupMssUsers(b.MssUsers)); err != nil {
		return err
	}

	return tx.Commit()
}

// RefreshOrgShow runs the derived mc_org_show refresh in its own
// transaction, separate from CommitOrgBatch's. It deletes the rows keyed
// by the union of this run's org deletes and inserts, then reinserts the
// freshly-resolved orgs. Grounded on processor.rs's refresh_table hook
// (refresh_mc_user_ztk's org-side counterpart): best-effort, never blocks
// watermark advance, only ever logged on failure by the caller. The
// original's refresh query is a SELECT...JOIN loaded from an external
// .sql file that spec.md leaves out of scope; lacking that query, this
// reinserts the same rows already staged for d_telecom_org, which is the
// closest approximation available to "recompute and insert what the
// affected ids need."
func (s *MySQLSink) RefreshOrgShow(ctx context.Context, b batch.OrgBatch) error {
	orgs := dedupOrgs(b.Orgs)
	affected := dedupStrings(append(append([]string{}, b.OrgIDsToDelete...), orgIDs(orgs)...))
	if len(affected) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mc_org_show refresh tx: %w", err)
	}
	defer tx.Rollback()

	if err := batchDelete(ctx, tx, "mc_org_show", "id", affected); err != nil {
		return err
	}
	if err := insertOrgShow(ctx, tx, orgs); err != nil {
		return err
	}
	return tx.Commit()
}

// RefreshUserZtk is RefreshOrgShow's user-side counterpart, grounded
// directly on refresh_mc_user_ztk.
func (s *MySQLSink) RefreshUserZtk(ctx context.Context, b batch.UserBatch) error {
	users := dedupUsers(b.Users)
	affected := dedupStrings(append(append([]string{}, b.UserIDsToDelete...), userIDs(users)...))
	if len(affected) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mc_user_ztk refresh tx: %w", err)
	}
	defer tx.Rollback()

	if err := batchDelete(ctx, tx, "mc_user_ztk", "id", affected); err != nil {
		return err
	}
	if err := insertUserZtk(ctx, tx, users); err != nil {
		return err
	}
	return tx.Commit()
}

func orgIDs(orgs []model.Org) []string {
	ids := make([]string, 0, len(orgs))
	for _, o := range orgs {
		ids = append(ids, o.ID)
	}
	return ids
}

func userIDs(users []model.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// batchDelete dedups keys and issues one chunked DELETE ... WHERE col IN
// (...), mirroring mysql_client::batch_delete's unique-then-IN shape.
func batchDelete(ctx context.Context, tx *sql.Tx, table, column string, keys []string) error {
	keys = dedupStrings(keys)
	if len(keys) == 0 {
		return nil
	}

	quotedTable, err := sqlutil.QuoteIdent("mysql", table)
	if err != nil {
		return fmt.Errorf("invalid table %s: %w", table, err)
	}
	quotedCol, err := sqlutil.QuoteIdent("mysql", column)
	if err != nil {
		return fmt.Errorf("invalid column %s: %w", column, err)
	}

	const chunkSize = 500
	for start := 0; start < len(keys); start += chunkSize {
		end := start + chunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, k := range chunk {
			placeholders[i] = "?"
			args[i] = k
		}

		query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", quotedTable, quotedCol, strings.Join(placeholders, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("batch delete from %s: %w", table, err)
		}
	}
	return nil
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func dedupOrgs(in []model.Org) []model.Org {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Org, 0, len(in))
	for _, o := range in {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out
}

func dedupOrgTrees(in []model.OrgTree) []model.OrgTree {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.OrgTree, 0, len(in))
	for _, t := range in {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

func dedupOrgMappings(in []model.MssOrgMapping) []model.MssOrgMapping {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.MssOrgMapping, 0, len(in))
	for _, m := range in {
		if _, ok := seen[m.Code]; ok {
			continue
		}
		seen[m.Code] = struct{}{}
		out = append(out, m)
	}
	return out
}

func dedupMssOrgs(in []model.MssOrg) []model.MssOrg {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.MssOrg, 0, len(in))
	for _, o := range in {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out
}

func dedupUsers(in []model.User) []model.User {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.User, 0, len(in))
	for _, u := range in {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}

func dedupUserMappings(in []model.MssUserMapping) []model.MssUserMapping {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.MssUserMapping, 0, len(in))
	for _, m := range in {
		if _, ok := seen[m.UID]; ok {
			continue
		}
		seen[m.UID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func dedupMssUsers(in []model.MssUser) []model.MssUser {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.MssUser, 0, len(in))
	for _, u := range in {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}

const orgCols = `no, datelastmodified, name, company_type, company_id, org_type,
	weight, is_corp, id, remark, abbreviation, dept_level, dept_type,
	legal, taxpayer_number, website, d_delete, is_delete, hitdate,
	intime, year, month, hitdate1`

func orgRowArgs(orgs []model.Org) []interface{} {
	args := make([]interface{}, 0, len(orgs)*23)
	for _, o := range orgs {
		var dateLastModified *int64
		if o.EntityMeta != nil {
			dateLastModified = o.EntityMeta.DateLastModified
		}
		var companyType, companyID, orgType, deptLevel, deptType, legal, taxpayerNumber, website string
		if o.CompanyInfo != nil {
			companyType = o.CompanyInfo.CompanyType
			companyID = o.CompanyInfo.CompanyID
			orgType = o.CompanyInfo.OrgType
			deptLevel = o.CompanyInfo.DeptLevel
			deptType = o.CompanyInfo.DeptType
			legal = o.CompanyInfo.Legal
			taxpayerNumber = o.CompanyInfo.TaxpayerNumber
			website = o.CompanyInfo.Website
		}
		args = append(args,
			o.No, dateLastModified, o.Name, companyType, companyID, orgType,
			o.Weight, o.IsCorp, o.ID, o.Remark, o.Abbreviation, deptLevel, deptType,
			legal, taxpayerNumber, website, o.Delete, o.IsDelete, o.HitDate,
			o.InTime, o.Year, o.Month, o.HitDate1,
		)
	}
	return args
}

func insertOrgs(ctx context.Context, tx *sql.Tx, orgs []model.Org) error {
	if len(orgs) == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO d_telecom_org (%s) VALUES %s", orgCols, placeholderRows(len(orgs), 23))
	if _, err := tx.ExecContext(ctx, query, orgRowArgs(orgs)...); err != nil {
		return fmt.Errorf("batch insert d_telecom_org: %w", err)
	}
	return nil
}

// insertOrgShow mirrors insertOrgs into the derived mc_org_show table,
// assumed to share d_telecom_org's column layout in the absence of the
// original's refresh query.
func insertOrgShow(ctx context.Context, tx *sql.Tx, orgs []model.Org) error {
	if len(orgs) == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO mc_org_show (%s) VALUES %s", orgCols, placeholderRows(len(orgs), 23))
	if _, err := tx.ExecContext(ctx, query, orgRowArgs(orgs)...); err != nil {
		return fmt.Errorf("batch insert mc_org_show: %w", err)
	}
	return nil
}

func insertOrgTrees(ctx context.Context, tx *sql.Tx, trees []model.OrgTree) error {
	if len(trees) == 0 {
		return nil
	}
	const cols = `parent, d_level, name, weight, is_corp, id, leaf, ancestors, d_delete, is_delete`
	query := fmt.Sprintf("INSERT INTO d_telecom_org_tree (%s) VALUES %s", cols, placeholderRows(len(trees), 10))

	args := make([]interface{}, 0, len(trees)*10)
	for _, t := range trees {
		args = append(args, t.Parent, t.Level, t.Name, t.Weight, t.IsCorp, t.ID, t.Leaf, t.GetAncestors(), t.Delete, t.IsDelete)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("batch insert d_telecom_org_tree: %w", err)
	}
	return nil
}

func insertOrgMappings(ctx context.Context, tx *sql.Tx, mappings []model.MssOrgMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO d_mss_org_mapping (code, msscode) VALUES %s", placeholderRows(len(mappings), 2))

	args := make([]interface{}, 0, len(mappings)*2)
	for _, m := range mappings {
		args = append(args, m.Code, m.MssCode)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("batch insert d_mss_org_mapping: %w", err)
	}
	return nil
}

func insertMssOrgs(ctx context.Context, tx *sql.Tx, orgs []model.MssOrg) error {
	if len(orgs) == 0 {
		return nil
	}
	const cols = `code, companytype, hrcode, sort, type, parentcompanycode, identity,
		name, parentdepartmentcode, id, time, status, hitdate1, hitdate, year, month`
	query := fmt.Sprintf("INSERT INTO d_mss_org (%s) VALUES %s", cols, placeholderRows(len(orgs), 16))

	args := make([]interface{}, 0, len(orgs)*16)
	for _, o := range orgs {
		args = append(args, o.Code, o.CompanyType, o.HrCode, o.Sort, o.OrgType, o.ParentCompanyCode,
			o.Identity, o.Name, o.ParentDepartmentCode, o.ID, o.Time, o.Status, o.HitDate1, o.HitDate, o.Year, o.Month)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("batch insert d_mss_org: %w", err)
	}
	return nil
}

const userCols = `id, name, loginname, no, org, gender, certificate_type, certificate_code,
	is_ehr_sync, status, photo, effective_time_start, effective_time_end,
	account_type, encryptcertificate_code, d_delete, is_delete, datelastmodified,
	hitdate, intime, year, month, hitdate1`

func userRowArgs(users []model.User) []interface{} {
	args := make([]interface{}, 0, len(users)*23)
	for _, u := range users {
		var dateLastModified *int64
		if u.EntityMeta != nil {
			dateLastModified = u.EntityMeta.DateLastModified
		}
		args = append(args,
			u.ID, u.Name, u.LoginName, u.No, u.Org, u.Gender, u.CertificateType, u.CertificateCode,
			u.IsEhrSync, u.Status, u.Photo, u.EffectiveTimeStart, u.EffectiveTimeEnd,
			u.AccountType, u.EncryptCertificateCode, u.Delete, u.IsDelete, dateLastModified,
			u.HitDate, u.InTime, u.Year, u.Month, u.HitDate1,
		)
	}
	return args
}

func insertUsers(ctx context.Context, tx *sql.Tx, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO d_telecom_user (%s) VALUES %s", userCols, placeholderRows(len(users), 23))
	if _, err := tx.ExecContext(ctx, query, userRowArgs(users)...); err != nil {
		return fmt.Errorf("batch insert d_telecom_user: %w", err)
	}
	return nil
}

// insertUserZtk mirrors insertUsers into the derived mc_user_ztk table,
// assumed to share d_telecom_user's column layout in the absence of the
// original's refresh query.
func insertUserZtk(ctx context.Context, tx *sql.Tx, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO mc_user_ztk (%s) VALUES %s", userCols, placeholderRows(len(users), 23))
	if _, err := tx.ExecContext(ctx, query, userRowArgs(users)...); err != nil {
		return fmt.Errorf("batch insert mc_user_ztk: %w", err)
	}
	return nil
}

func insertUserMappings(ctx context.Context, tx *sql.Tx, mappings []model.MssUserMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	const cols = `standardstation, userid, certificatecode, organization, name, mssuid`
	query := fmt.Sprintf("INSERT INTO d_mss_user_mapping (%s) VALUES %s", cols, placeholderRows(len(mappings), 6))

	args := make([]interface{}, 0, len(mappings)*6)
	for _, m := range mappings {
		args = append(args, m.StandardStation, m.UID, m.CertificateCode, m.Organization, m.Name, m.HrCode)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("batch insert d_mss_user_mapping: %w", err)
	}
	return nil
}

func insertMssUsers(ctx context.Context, tx *sql.Tx, users []model.MssUser) error {
	if len(users) == 0 {
		return nil
	}
	const cols = `id, code, hrid, hrcode, name, englishname, account, email, organizationcode,
		companycode, sex, identitycard, birthday, firstmobile, userstatus, sort, jobnumber,
		basestation, station, stationsystem, stationlevel, stationgradesystem, stationgrade,
		stationsequence, jobstatus, jobtype, hrjobtype, jobcategory, telephone, standbyaccount,
		identity, time, hitdate1, hitdate, year, month`
	query := fmt.Sprintf("INSERT INTO d_mss_user (%s) VALUES %s", cols, placeholderRows(len(users), 36))

	args := make([]interface{}, 0, len(users)*36)
	for _, u := range users {
		args = append(args,
			u.ID, u.Code, u.HrID, u.HrCode, u.Name, u.EnglishName, u.Account, u.Email, u.OrganizationCode,
			u.CompanyCode, u.Sex, u.IdentityCard, u.Birthday, u.FirstMobile, u.UserStatus, u.Sort, u.JobNumber,
			u.BaseStation, u.Station, u.StationSystem, u.StationLevel, u.StationGradeSystem, u.StationGrade,
			u.StationSequence, u.JobStatus, u.JobType, u.HrJobType, u.JobCategory, u.Telephone, u.StandByAccount,
			u.Identity, u.Time, u.HitDate1, u.HitDate, u.Year, u.Month,
		)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("batch insert d_mss_user: %w", err)
	}
	return nil
}

// placeholderRows builds n comma-separated "(?, ?, ...)" groups of width
// cols, matching sqlx's QueryBuilder.push_values the original Rust side
// used — Go's database/sql has no batch-values helper, so this is built
// by hand once per call.
func placeholderRows(n, cols int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?,", cols), ",") + ")"
	rows := make([]string, n)
	for i := range rows {
		rows[i] = row
	}
	return strings.Join(rows, ",")
}
