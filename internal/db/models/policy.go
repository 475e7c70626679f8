package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PolicyStatus string

const (
	StatusDraft                 PolicyStatus = "DRAFT"
	StatusCollectingInfo        PolicyStatus = "COLLECTING_INFO"
	StatusUnderInvestigation    PolicyStatus = "UNDER_INVESTIGATION"
	StatusInvestigationRejected PolicyStatus = "INVESTIGATION_REJECTED"
	StatusPendingApproval       PolicyStatus = "PENDING_APPROVAL"
	StatusApproved              PolicyStatus = "APPROVED"
	StatusContractPending       PolicyStatus = "CONTRACT_PENDING"
	StatusContractSigned        PolicyStatus = "CONTRACT_SIGNED"
	StatusActive                PolicyStatus = "ACTIVE"
	StatusExpired               PolicyStatus = "EXPIRED"
	StatusCancelled             PolicyStatus = "CANCELLED"
)

type GuarantorType string

const (
	GuarantorNone         GuarantorType = "NONE"
	GuarantorJointObligor GuarantorType = "JOINT_OBLIGOR"
	GuarantorAval         GuarantorType = "AVAL"
	GuarantorBoth         GuarantorType = "BOTH"
)

type Policy struct {
	ID             string        `gorm:"primaryKey" json:"id"`
	PolicyNumber   string        `gorm:"uniqueIndex;not null" json:"policy_number"`
	Status         PolicyStatus  `gorm:"not null;default:'DRAFT';index" json:"status"`
	GuarantorType  GuarantorType `gorm:"not null;default:'NONE'" json:"guarantor_type"`
	RentAmount     float64       `gorm:"not null" json:"rent_amount"`
	ContractLength int           `gorm:"not null;default:12" json:"contract_length"` // months
	PremiumAmount  float64       `json:"premium_amount"`
	PropertyAddr   string        `json:"property_address"`
	ManagerEmail   string        `json:"manager_email"`

	ApprovedAt         *time.Time `json:"approved_at"`
	RejectedAt         *time.Time `json:"rejected_at"`
	ContractSignedAt   *time.Time `json:"contract_signed_at"`
	ActivatedAt        *time.Time `json:"activated_at"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	ExpiresAt          *time.Time `json:"expires_at"`
	CancellationReason string     `json:"cancellation_reason"`
	CancellationNotes  string     `json:"cancellation_notes"`

	Tenant        *Tenant          `json:"tenant,omitempty"`
	Landlords     []Landlord       `json:"landlords,omitempty"`
	JointObligors []JointObligor   `json:"joint_obligors,omitempty"`
	Avals         []Aval           `json:"avals,omitempty"`
	Investigation *Investigation   `json:"investigation,omitempty"`
	Contracts     []Contract       `json:"contracts,omitempty"`
	Payments      []Payment        `json:"payments,omitempty"`
	Activities    []PolicyActivity `json:"activities,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Policy) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

type InvestigationVerdict string

const (
	VerdictPending  InvestigationVerdict = "PENDING"
	VerdictApproved InvestigationVerdict = "APPROVED"
	VerdictRejected InvestigationVerdict = "REJECTED"
)

type Investigation struct {
	ID          string               `gorm:"primaryKey" json:"id"`
	PolicyID    string               `gorm:"uniqueIndex;not null" json:"policy_id"`
	Verdict     InvestigationVerdict `gorm:"not null;default:'PENDING'" json:"verdict"`
	Findings    string               `json:"findings"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at"`
	CompletedBy string               `json:"completed_by"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func (i *Investigation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

type ContractStatus string

const (
	ContractDraft   ContractStatus = "DRAFT"
	ContractCurrent ContractStatus = "CURRENT"
	ContractSigned  ContractStatus = "SIGNED"
	ContractVoided  ContractStatus = "VOIDED"
)

type Contract struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	PolicyID  string         `gorm:"index;not null" json:"policy_id"`
	Status    ContractStatus `gorm:"not null;default:'DRAFT'" json:"status"`
	FileKey   string         `json:"file_key"`
	SignedAt  *time.Time     `json:"signed_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (ct *Contract) BeforeCreate(tx *gorm.DB) error {
	if ct.ID == "" {
		ct.ID = uuid.New().String()
	}
	return nil
}
