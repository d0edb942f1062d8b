package model

import "time"

// CompanyInfo is nested company metadata on Org.
type CompanyInfo struct {
	District       string `json:"district,omitempty"`
	CompanyNature  string `json:"companyNature,omitempty"`
	CompanyType    string `json:"companyType,omitempty"`
	CompanyID      string `json:"companyId,omitempty"`
	OrgType        string `json:"orgType,omitempty"`
	DeptLevel      string `json:"deptLevel,omitempty"`
	DeptType       string `json:"deptType,omitempty"`
	Legal          string `json:"legal,omitempty"`
	TaxpayerNumber string `json:"taxpayerNumber,omitempty"`
	Website        string `json:"website,omitempty"`
}

// OrgContactInfo is nested contact metadata on Org.
type OrgContactInfo struct {
	ZipCode string `json:"zipCode,omitempty"`
	Address string `json:"address,omitempty"`
}

// DepartmentInfo is nested department metadata on Org.
type DepartmentInfo struct {
	DeptSeq      string  `json:"deptSeq"`
	OrgType      string  `json:"orgType,omitempty"`
	DeptLevel    string  `json:"deptLevel,omitempty"`
	DeptType     string  `json:"deptType,omitempty"`
	Leader       string  `json:"leader,omitempty"`
	DeptFunction string  `json:"deptFunction,omitempty"`
	IsCancel     *bool   `json:"isCancel,omitempty"`
	IsClose      *bool   `json:"isClose,omitempty"`
	FoundDate    string  `json:"foundDate,omitempty"`
	CancelDate   string  `json:"cancelDate,omitempty"`
	CloseDate    string  `json:"closeDate,omitempty"`
}

// Org is the canonical organization record, resolved from org_loadbyid and
// staged for insert into d_telecom_org. Year/Month/InTime/HitDate/HitDate1
// are insert-time staging fields stamped by the post-advance hook, not part
// of the upstream payload.
type Org struct {
	ID             string          `json:"id"`
	IsDelete       *bool           `json:"isDelete,omitempty"`
	Delete         *bool           `json:"delete,omitempty"`
	IsCorp         *bool           `json:"isCorp,omitempty"`
	Name           string          `json:"name,omitempty"`
	No             string          `json:"no,omitempty"`
	Remark         string          `json:"remark,omitempty"`
	Abbreviation   string          `json:"abbreviation,omitempty"`
	CompanyInfo    *CompanyInfo    `json:"companyInfo,omitempty"`
	ContactInfo    *OrgContactInfo `json:"contactInfo,omitempty"`
	DepartmentInfo *DepartmentInfo `json:"departmentInfo,omitempty"`
	Weight         *int32          `json:"weight,omitempty"`
	Type           *int32          `json:"type,omitempty"`
	FullPathID     string          `json:"fullPathId,omitempty"`
	FullPathName   string          `json:"fullPathName,omitempty"`
	EntityMeta     *EntityMetaInfo `json:"entityMetaInfo,omitempty"`

	// Staging fields, set by the post-advance hook before insert.
	HitDate  string     `json:"-"`
	InTime   *time.Time `json:"-"`
	Year     string     `json:"-"`
	Month    string     `json:"-"`
	HitDate1 *time.Time `json:"-"`
}

// Stamp fills the insert-time staging fields from now, matching the
// post-advance hook contract in spec.md §4.8.
func (o *Org) Stamp(now time.Time) {
	o.Year = now.Format("2006")
	o.Month = now.Format("01")
	o.InTime = &now
	o.HitDate1 = &now
	o.HitDate = now.Format("2006-01-02")
}

// OrgTree is the resolved hierarchy node, keyed by id.
type OrgTree struct {
	Parent       string          `json:"parent,omitempty"`
	Level        *uint8          `json:"level,omitempty"`
	Name         string          `json:"name,omitempty"`
	Weight       *int32          `json:"weight,omitempty"`
	IsCorp       *bool           `json:"isCorp,omitempty"`
	ID           string          `json:"id"`
	Leaf         *bool           `json:"leaf,omitempty"`
	Ancestors    []string        `json:"ancestors,omitempty"`
	FullPathID   string          `json:"fullPathId,omitempty"`
	FullPathName string          `json:"fullPathName,omitempty"`
	Delete       *bool           `json:"delete,omitempty"`
	IsDelete     *bool           `json:"isDelete,omitempty"`
	EntityMeta   *EntityMetaInfo `json:"entityMetaInfo,omitempty"`
}

// GetAncestors flattens the ancestor chain to a comma-delimited path, the
// column value stored in d_telecom_org_tree.ancestors.
func (t OrgTree) GetAncestors() string {
	out := ""
	for i, a := range t.Ancestors {
		if i > 0 {
			out += ","
		}
		out += a
	}
	return out
}

// MssOrgMapping bridges an internal org code to its external MSS code.
type MssOrgMapping struct {
	Code    string `json:"code,omitempty"`
	MssCode string `json:"mssCode,omitempty"`
}

// MssOrg is one external MSS organization representation keyed by HrCode.
type MssOrg struct {
	Code                 string   `json:"code,omitempty"`
	CompanyType          string   `json:"companyType,omitempty"`
	HrCode               string   `json:"hrCode,omitempty"`
	Sort                 *float32 `json:"sort,omitempty"`
	OrgType              string   `json:"type,omitempty"`
	ParentCompanyCode    string   `json:"parentCompanyCode,omitempty"`
	Name                 string   `json:"name,omitempty"`
	ParentDepartmentCode string   `json:"parentDepartmentCode,omitempty"`
	ID                   string   `json:"id,omitempty"`
	Status               *uint8   `json:"status,omitempty"`
	Identity             string   `json:"identity,omitempty"`
	DepartmentType       string   `json:"departmentType,omitempty"`
	Time                 *int64   `json:"time,omitempty"`

	// Staging fields, set by the post-complete hook before insert.
	HitDate  string     `json:"-"`
	Year     string     `json:"-"`
	Month    string     `json:"-"`
	HitDate1 *time.Time `json:"-"`
}

// Stamp fills the insert-time staging fields, post-complete variant: the
// HitDate format here is a full datetime, not the date-only format Org uses.
func (m *MssOrg) Stamp(now time.Time) {
	m.Year = now.Format("2006")
	m.Month = now.Format("01")
	m.HitDate1 = &now
	m.HitDate = now.Format("2006-01-02 15:04:05")
}
