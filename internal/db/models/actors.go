package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActorKind discriminates the four participant roles on a policy.
type ActorKind string

const (
	KindTenant       ActorKind = "TENANT"
	KindLandlord     ActorKind = "LANDLORD"
	KindJointObligor ActorKind = "JOINT_OBLIGOR"
	KindAval         ActorKind = "AVAL"
)

type PersonType string

const (
	PersonIndividual PersonType = "INDIVIDUAL"
	PersonCompany    PersonType = "COMPANY"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

type GuaranteeMethod string

const (
	GuaranteeProperty GuaranteeMethod = "property"
	GuaranteeIncome   GuaranteeMethod = "income"
)

// ActorCommon carries the columns every actor row shares: identity,
// contact data, self-service token auth and completion state.
type ActorCommon struct {
	PersonType PersonType `gorm:"not null;default:'INDIVIDUAL'" json:"person_type"`

	FirstName        string     `json:"first_name"`
	MiddleName       string     `json:"middle_name"`
	PaternalLastName string     `json:"paternal_last_name"`
	MaternalLastName string     `json:"maternal_last_name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Nationality      string     `json:"nationality"` // ISO country, "MX" for Mexican nationals
	CURP             string     `json:"curp"`
	RFC              string     `json:"rfc"`
	BirthDate        *time.Time `json:"birth_date"`

	CompanyName  string `json:"company_name"`
	LegalRepName string `json:"legal_rep_name"`

	Occupation    string  `json:"occupation"`
	EmployerName  string  `json:"employer_name"`
	MonthlyIncome float64 `json:"monthly_income"`

	InformationComplete bool               `gorm:"not null;default:false" json:"information_complete"`
	CompletedAt         *time.Time         `json:"completed_at"`
	CompletedBy         string             `json:"completed_by"`
	VerificationStatus  VerificationStatus `gorm:"not null;default:'PENDING'" json:"verification_status"`

	AccessToken string     `gorm:"index" json:"-"`
	TokenExpiry *time.Time `json:"-"`
}

type Tenant struct {
	ID       string `gorm:"primaryKey" json:"id"`
	PolicyID string `gorm:"uniqueIndex;not null" json:"policy_id"`
	ActorCommon

	Addresses  []Address   `gorm:"polymorphic:Actor;polymorphicValue:TENANT" json:"addresses,omitempty"`
	References []Reference `gorm:"polymorphic:Actor;polymorphicValue:TENANT" json:"references,omitempty"`
	Documents  []Document  `gorm:"polymorphic:Actor;polymorphicValue:TENANT" json:"documents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

type Landlord struct {
	ID        string `gorm:"primaryKey" json:"id"`
	PolicyID  string `gorm:"index;not null" json:"policy_id"`
	IsPrimary bool   `gorm:"not null;default:false" json:"is_primary"`
	ActorCommon

	BankName    string `json:"bank_name"`
	BankAccount string `json:"bank_account"`
	CLABE       string `json:"clabe"`

	Addresses  []Address   `gorm:"polymorphic:Actor;polymorphicValue:LANDLORD" json:"addresses,omitempty"`
	References []Reference `gorm:"polymorphic:Actor;polymorphicValue:LANDLORD" json:"references,omitempty"`
	Documents  []Document  `gorm:"polymorphic:Actor;polymorphicValue:LANDLORD" json:"documents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Landlord) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

type JointObligor struct {
	ID       string `gorm:"primaryKey" json:"id"`
	PolicyID string `gorm:"index;not null" json:"policy_id"`
	ActorCommon

	GuaranteeMethod      GuaranteeMethod `json:"guarantee_method"`
	PropertyDeedNumber   string          `json:"property_deed_number"`
	PropertyRegistryInfo string          `json:"property_registry_info"`
	PropertyAddress      string          `json:"property_address"`

	Addresses  []Address   `gorm:"polymorphic:Actor;polymorphicValue:JOINT_OBLIGOR" json:"addresses,omitempty"`
	References []Reference `gorm:"polymorphic:Actor;polymorphicValue:JOINT_OBLIGOR" json:"references,omitempty"`
	Documents  []Document  `gorm:"polymorphic:Actor;polymorphicValue:JOINT_OBLIGOR" json:"documents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (j *JointObligor) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	return nil
}

type Aval struct {
	ID       string `gorm:"primaryKey" json:"id"`
	PolicyID string `gorm:"index;not null" json:"policy_id"`
	ActorCommon

	PropertyDeedNumber   string `json:"property_deed_number"`
	PropertyRegistryInfo string `json:"property_registry_info"`
	PropertyAddress      string `json:"property_address"`

	Addresses  []Address   `gorm:"polymorphic:Actor;polymorphicValue:AVAL" json:"addresses,omitempty"`
	References []Reference `gorm:"polymorphic:Actor;polymorphicValue:AVAL" json:"references,omitempty"`
	Documents  []Document  `gorm:"polymorphic:Actor;polymorphicValue:AVAL" json:"documents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Aval) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

type Address struct {
	ID        string `gorm:"primaryKey" json:"id"`
	ActorID   string `gorm:"index;not null" json:"actor_id"`
	ActorType string `gorm:"index;not null" json:"actor_type"`

	Street       string `json:"street"`
	ExteriorNum  string `json:"exterior_number"`
	InteriorNum  string `json:"interior_number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `gorm:"default:'MX'" json:"country"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

type ReferenceType string

const (
	ReferencePersonal   ReferenceType = "PERSONAL"
	ReferenceCommercial ReferenceType = "COMMERCIAL"
)

type Reference struct {
	ID        string        `gorm:"primaryKey" json:"id"`
	ActorID   string        `gorm:"index;not null" json:"actor_id"`
	ActorType string        `gorm:"index;not null" json:"actor_type"`
	Type      ReferenceType `gorm:"not null;default:'PERSONAL'" json:"type"`

	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Reference) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
