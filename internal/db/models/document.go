package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentCategory identifies what a stored file is supposed to prove.
// Which categories an actor must supply is decided by the completeness
// rules, not here.
type DocumentCategory string

const (
	DocIdentificationINE      DocumentCategory = "IDENTIFICATION_INE"
	DocIdentificationPassport DocumentCategory = "IDENTIFICATION_PASSPORT"
	DocImmigrationForm        DocumentCategory = "IMMIGRATION_FORM"
	DocProofOfAddress         DocumentCategory = "PROOF_OF_ADDRESS"
	DocProofOfIncome          DocumentCategory = "PROOF_OF_INCOME"
	DocBankStatement          DocumentCategory = "BANK_STATEMENT"
	DocPropertyDeed           DocumentCategory = "PROPERTY_DEED"
	DocPropertyTaxReceipt     DocumentCategory = "PROPERTY_TAX_RECEIPT"
	DocActaConstitutiva       DocumentCategory = "ACTA_CONSTITUTIVA"
	DocPowerOfAttorney        DocumentCategory = "POWER_OF_ATTORNEY"
	DocTaxStatus              DocumentCategory = "TAX_STATUS"
)

type Document struct {
	ID        string           `gorm:"primaryKey" json:"id"`
	ActorID   *string          `gorm:"index" json:"actor_id"` // nil once detached from an archived actor
	ActorType string           `gorm:"index" json:"actor_type"`
	Category  DocumentCategory `gorm:"not null;index" json:"category"`

	FileName    string `json:"file_name"`
	FileKey     string `gorm:"not null" json:"file_key"` // object storage key
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`

	Validation *DocumentValidation `gorm:"foreignKey:DocumentID" json:"validation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
