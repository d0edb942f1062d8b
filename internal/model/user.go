package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// UserContactInfo is nested contact metadata on User.
type UserContactInfo struct {
	Phone  string `json:"phone,omitempty"`
	Mobile string `json:"mobile,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Sanitize trims whitespace and strips embedded newlines from every field,
// matching TelecomUser::trim()'s ContactInfo handling.
func (c *UserContactInfo) Sanitize() {
	c.Phone = stripNewlines(c.Phone)
	c.Mobile = stripNewlines(c.Mobile)
	c.Email = stripNewlines(c.Email)
}

// ArchivesInfo is nested archival/HR metadata on User.
type ArchivesInfo struct {
	Birthday       *int64 `json:"birthday,omitempty"`
	IsOnlyChild    *bool  `json:"isonlychild,omitempty"`
	IsUnionMembers *bool  `json:"isUnionMembers,omitempty"`
	Major          string `json:"major,omitempty"`
	Folk           string `json:"folk,omitempty"`
	JoinUnionDate  *int64 `json:"joinUnionDate,omitempty"`
	Political      string `json:"political,omitempty"`
	PartyDate      *int64 `json:"partyDate,omitempty"`
	Academy        string `json:"academy,omitempty"`
}

// Sanitize trims the free-text fields, matching ArchivesInfo::trim().
func (a *ArchivesInfo) Sanitize() {
	a.Major = strings.TrimSpace(strings.ReplaceAll(a.Major, "\n", ""))
	a.Folk = strings.TrimSpace(strings.ReplaceAll(a.Folk, "\n", ""))
	a.Academy = strings.TrimSpace(strings.ReplaceAll(a.Academy, "\n", ""))
}

// BaseStation is nested station metadata under Ext.
type BaseStation struct {
	Code        string `json:"code,omitempty"`
	Name        string `json:"name,omitempty"`
	System      string `json:"system,omitempty"`
	Level       string `json:"level,omitempty"`
	GradeSystem string `json:"gradeSystem,omitempty"`
	Grade       string `json:"grade,omitempty"`
	Sequence    string `json:"sequence,omitempty"`
}

// Sanitize trims the station name, matching BaseStation::trim().
func (b *BaseStation) Sanitize() {
	b.Name = strings.TrimSpace(strings.ReplaceAll(b.Name, "\n", ""))
}

// NameCard is nested business-card metadata under Ext.
type NameCard struct {
	Name         string `json:"name,omitempty"`
	Company      string `json:"company,omitempty"`
	CompanyID    string `json:"companyId,omitempty"`
	CompanyPhone string `json:"companyphone,omitempty"`
	Organization string `json:"organization,omitempty"`
	Station      string `json:"station,omitempty"`
	Email        string `json:"email,omitempty"`
	Mobile       string `json:"mobile,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Folk         string `json:"folk,omitempty"`
}

// nbsp is the non-breaking space the original strips from NameCard.Name.
const nbsp = " "

// Sanitize trims and normalizes separators, matching NameCard::trim()
// (including the NBSP strip that is specific to the display name field).
func (n *NameCard) Sanitize() {
	n.Email = strings.TrimSpace(strings.ReplaceAll(n.Email, "\n", ""))
	n.Name = clean(n.Name, true)
	n.Company = clean(strings.ReplaceAll(n.Company, "\n\r", ""), false)
	n.Organization = clean(n.Organization, false)
	n.Station = clean(n.Station, false)
	n.Mobile = clean(n.Mobile, false)
	n.CompanyPhone = clean(n.CompanyPhone, false)
	n.Folk = clean(n.Folk, false)
}

func clean(s string, stripNBSP bool) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "|", "-")
	if stripNBSP {
		s = strings.ReplaceAll(s, nbsp, "")
	}
	return strings.TrimSpace(s)
}

// JobInfo is nested job metadata under Ext.
type JobInfo struct {
	PostName        string `json:"post_name,omitempty"`
	JobStatus       string `json:"jobStatus,omitempty"`
	JobType         string `json:"jobType,omitempty"`
	HrJobType       string `json:"hrJobType,omitempty"`
	JobCategory     string `json:"jobCategory,omitempty"`
	PositiveDate    *int32 `json:"positive_date,omitempty"`
	SpecialJobYears *int32 `json:"special_job_years,omitempty"`
	WorkDate        *int64 `json:"work_date,omitempty"`
	SpecialJob      string `json:"special_job,omitempty"`
	LeaveDate       *int32 `json:"leave_date,omitempty"`
	WorkAge         *int32 `json:"work_age,omitempty"`
	IsCoreStaff     string `json:"is_core_staff,omitempty"`
	EnterUnitDate   *int64 `json:"enterunit_date,omitempty"`
}

// AuthorizeInfo is nested credential/identity metadata under Ext.
type AuthorizeInfo struct {
	ExpirationDate         *int64 `json:"expirationDate,omitempty"`
	MobileVague            string `json:"mobileVague,omitempty"`
	IdentityCardDecryptAble string `json:"identityCardDecryptAble,omitempty"`
	EmailVague             string `json:"emailVague,omitempty"`
	MobileDecryptAble      string `json:"mobileDecryptAble,omitempty"`
	Code                   string `json:"code,omitempty"`
	IdentityCardEncrypt    string `json:"identityCardEncrypt,omitempty"`
	JobNumber              string `json:"jobNumber,omitempty"`
	EmailEncrypt           string `json:"emailEncrypt,omitempty"`
	MobileEncrypt          string `json:"mobileEncrypt,omitempty"`
	Identity               string `json:"identity,omitempty"`
	HrCode                 string `json:"hrCode,omitempty"`
	EmailDecryptAble       string `json:"emailDecryptAble,omitempty"`
	Account                string `json:"account,omitempty"`
	IdentityCardVague      string `json:"identityCardVague,omitempty"`
}

// UserExt groups the extended, non-core attributes of User.
type UserExt struct {
	BaseStation    *BaseStation   `json:"base_station,omitempty"`
	JobInfo        *JobInfo       `json:"job_info,omitempty"`
	NameCard       *NameCard      `json:"name_card,omitempty"`
	Weight         *float32       `json:"weight,omitempty"`
	IsActivated    *bool          `json:"is_activated,omitempty"`
	AuthorizeInfo  *AuthorizeInfo `json:"authorize_info,omitempty"`
	PasswordReset  *bool          `json:"password_reset,omitempty"`
	ActivatedTime  *int64         `json:"activated_time,omitempty"`
}

// Sanitize sanitizes the nested station and name-card fields, matching
// UserExt::trim().
func (e *UserExt) Sanitize() {
	if e.BaseStation != nil {
		e.BaseStation.Sanitize()
	}
	if e.NameCard != nil {
		e.NameCard.Sanitize()
	}
}

// User is the canonical user record resolved from user_loadbyid, staged for
// insert into d_telecom_user.
type User struct {
	ID                    string           `json:"id"`
	EntityMeta            *EntityMetaInfo  `json:"entityMetaInfo,omitempty"`
	IsDelete              *bool            `json:"isDelete,omitempty"`
	Delete                *bool            `json:"delete,omitempty"`
	LoginName             string           `json:"loginname,omitempty"`
	Name                  string           `json:"name,omitempty"`
	Gender                *int32           `json:"gender,omitempty"`
	Photo                 string           `json:"photo,omitempty"`
	No                    string           `json:"no,omitempty"`
	CertificateType       *int32           `json:"certificate_type,omitempty"`
	CertificateCode       string           `json:"certificate_code,omitempty"`
	IsEhrSync             *bool            `json:"is_ehr_sync,omitempty"`
	Org                   string           `json:"org,omitempty"`
	Status                *int32           `json:"status,omitempty"`
	ContactInfo           *UserContactInfo `json:"contact_info,omitempty"`
	EffectiveTimeStart    *int64           `json:"effective_time_start,omitempty"`
	EffectiveTimeEnd      *int64           `json:"effective_time_end,omitempty"`
	ArchivesInfo          *ArchivesInfo    `json:"archives_info,omitempty"`
	IsOutter              *bool            `json:"is_outter,omitempty"`
	UserGroupIDs          []string         `json:"user_group_ids,omitempty"`
	AccountType           *int32           `json:"account_type,omitempty"`
	Ext                   *UserExt         `json:"ext,omitempty"`
	EncryptCertificateCode string          `json:"encryptCertificate_code,omitempty"`

	// Staging fields, set by the post-advance hook before insert.
	HitDate  string     `json:"-"`
	InTime   *time.Time `json:"-"`
	Year     string     `json:"-"`
	Month    string     `json:"-"`
	HitDate1 *time.Time `json:"-"`
}

// Sanitize strips embedded newlines and normalizes separators on Name, Org,
// and the nested Ext/ContactInfo blocks. Supplemented from the distilled
// spec: the original calls this once per resolved record before staging.
func (u *User) Sanitize() {
	u.Name = stripNewlines(u.Name)
	u.Org = stripNewlines(u.Org)
	if u.Ext != nil {
		u.Ext.Sanitize()
	}
	if u.ContactInfo != nil {
		u.ContactInfo.Sanitize()
	}
}

func stripNewlines(s string) string {
	s = strings.ReplaceAll(s, "\n\r", "")
	s = strings.ReplaceAll(s, "/", "-")
	return strings.TrimSpace(s)
}

// Stamp fills the insert-time staging fields from now.
func (u *User) Stamp(now time.Time) {
	u.Year = now.Format("2006")
	u.Month = now.Format("01")
	u.InTime = &now
	u.HitDate1 = &now
	u.HitDate = now.Format("2006-01-02")
}

// MssUserMapping bridges an internal user id to its external HR code.
type MssUserMapping struct {
	UID             string `json:"uid,omitempty"`
	HrCode          string `json:"mssUid,omitempty"`
	Name            string `json:"name,omitempty"`
	CertificateCode string `json:"certificateCode,omitempty"`
	Organization    string `json:"organization,omitempty"`
	StandardStation string `json:"standardStation,omitempty"`
}

// MssUser is one external MSS user representation, one of which is chosen
// per HrCode by the ordering comparator below.
type MssUser struct {
	ID               string   `json:"id,omitempty"`
	Time             *int64   `json:"time,omitempty"`
	Identity         string   `json:"identity,omitempty"`
	Code             string   `json:"code,omitempty"`
	HrID             string   `json:"hrId,omitempty"`
	HrCode           string   `json:"hrCode,omitempty"`
	Account          string   `json:"account,omitempty"`
	Name             string   `json:"name,omitempty"`
	EnglishName      string   `json:"englishName,omitempty"`
	Email            string   `json:"email,omitempty"`
	OrganizationCode string   `json:"organizationCode,omitempty"`
	CompanyCode      string   `json:"companyCode,omitempty"`
	Sex              *int32   `json:"sex,omitempty"`
	IdentityCard     string   `json:"identityCard,omitempty"`
	Birthday         *int64   `json:"birthday,omitempty"`
	FirstMobile      string   `json:"firstMobile,omitempty"`
	UserStatus       *int32   `json:"userStatus,omitempty"`
	Sort             *float32 `json:"sort,omitempty"`
	JobNumber        string   `json:"jobNumber,omitempty"`
	BaseStation      string   `json:"baseStation,omitempty"`
	Station          string   `json:"station,omitempty"`
	StationSystem    string   `json:"stationSystem,omitempty"`
	StationLevel     string   `json:"stationLevel,omitempty"`
	StationGradeSystem string `json:"stationGradeSystem,omitempty"`
	StationGrade     string   `json:"stationGrade,omitempty"`
	StationSequence  string   `json:"stationSequence,omitempty"`
	JobStatus        string   `json:"jobStatus,omitempty"`
	JobType          string   `json:"jobType,omitempty"`
	HrJobType        string   `json:"hrJobType,omitempty"`
	JobCategory      string   `json:"jobCategory,omitempty"`
	Telephone        string   `json:"telephone,omitempty"`
	StandByAccount   string   `json:"standByAccount,omitempty"`

	// Staging fields, set by the post-complete hook before insert.
	HitDate  string     `json:"-"`
	Year     string     `json:"-"`
	Month    string     `json:"-"`
	HitDate1 *time.Time `json:"-"`
}

// Stamp fills the insert-time staging fields, post-complete variant.
func (m *MssUser) Stamp(now time.Time) {
	m.Year = now.Format("2006")
	m.Month = now.Format("01")
	m.HitDate1 = &now
	m.HitDate = now.Format("2006-01-02 15:04:05")
}

// Equal compares two MssUser by HrCode or, failing that, HrID — the same
// identity notion the original's PartialEq/Hash use for dedup-by-natural-key.
func (m MssUser) Equal(other MssUser) bool {
	if m.HrCode != "" && other.HrCode != "" {
		return m.HrCode == other.HrCode
	}
	if m.HrID != "" && other.HrID != "" {
		return m.HrID == other.HrID
	}
	return false
}

func parseIntOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func intOf(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}

func int64Of(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// SelectBestMssUser sorts candidates by (UserStatus asc, JobType asc,
// HrJobType asc, Time desc) and returns the first — the comparator and
// selection rule from spec.md §4.6/§8 scenario 4, implemented as a stable
// sort so equivalent candidates keep feed order on tie.
func SelectBestMssUser(candidates []MssUser) (MssUser, bool) {
	if len(candidates) == 0 {
		return MssUser{}, false
	}
	sorted := make([]MssUser, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if intOf(a.UserStatus) != intOf(b.UserStatus) {
			return intOf(a.UserStatus) < intOf(b.UserStatus)
		}
		aJob, bJob := parseIntOrZero(a.JobType), parseIntOrZero(b.JobType)
		if aJob != bJob {
			return aJob < bJob
		}
		aHrJob, bHrJob := parseIntOrZero(a.HrJobType), parseIntOrZero(b.HrJobType)
		if aHrJob != bHrJob {
			return aHrJob < bHrJob
		}
		return int64Of(a.Time) > int64Of(b.Time) // descending
	})

	return sorted[0], true
}
