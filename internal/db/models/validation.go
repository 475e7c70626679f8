package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ValidationStatus string

const (
	ValidationPending  ValidationStatus = "PENDING"
	ValidationApproved ValidationStatus = "APPROVED"
	ValidationRejected ValidationStatus = "REJECTED"
	ValidationInReview ValidationStatus = "IN_REVIEW"
)

// ActorSection is a logical slice of an actor's data that reviewers
// approve or reject independently.
type ActorSection string

const (
	SectionPersonalInfo      ActorSection = "PERSONAL_INFO"
	SectionAddress           ActorSection = "ADDRESS"
	SectionEmployment        ActorSection = "EMPLOYMENT"
	SectionReferences        ActorSection = "REFERENCES"
	SectionBankInfo          ActorSection = "BANK_INFO"
	SectionGuarantee         ActorSection = "GUARANTEE"
	SectionPropertyGuarantee ActorSection = "PROPERTY_GUARANTEE"
)

// ActorSectionValidation records the latest reviewer decision for one
// (actor, section) pair. Upserted on re-review, so at most one row per
// pair exists.
type ActorSectionValidation struct {
	ID        string       `gorm:"primaryKey" json:"id"`
	ActorType ActorKind    `gorm:"uniqueIndex:idx_actor_section;not null" json:"actor_type"`
	ActorID   string       `gorm:"uniqueIndex:idx_actor_section;not null" json:"actor_id"`
	Section   ActorSection `gorm:"uniqueIndex:idx_actor_section;not null" json:"section"`

	Status          ValidationStatus `gorm:"not null;default:'PENDING'" json:"status"`
	ValidatedBy     string           `json:"validated_by"`
	ValidatedAt     *time.Time       `json:"validated_at"`
	RejectionReason string           `json:"rejection_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *ActorSectionValidation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// DocumentValidation is the reviewer decision for a single uploaded
// document, one-to-one with the document row.
type DocumentValidation struct {
	ID         string `gorm:"primaryKey" json:"id"`
	DocumentID string `gorm:"uniqueIndex;not null" json:"document_id"`

	Status          ValidationStatus `gorm:"not null;default:'PENDING'" json:"status"`
	ValidatedBy     string           `json:"validated_by"`
	ValidatedAt     *time.Time       `json:"validated_at"`
	RejectionReason string           `json:"rejection_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *DocumentValidation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
