package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PolicyActivity is the append-only audit log. Rows are written once
// inside the mutating transaction and read many times; nothing updates
// them afterwards.
type PolicyActivity struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	PolicyID    string         `gorm:"index;not null" json:"policy_id"`
	Action      string         `gorm:"not null;index" json:"action"`
	Description string         `json:"description"`
	Details     datatypes.JSON `json:"details"`
	PerformedBy string         `json:"performed_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (a *PolicyActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Activity action names used across the services.
const (
	ActionStatusChanged     = "STATUS_CHANGED"
	ActionActorSubmitted    = "ACTOR_SUBMITTED"
	ActionSectionValidated  = "SECTION_VALIDATED"
	ActionDocumentValidated = "DOCUMENT_VALIDATED"
	ActionActorAutoApproved = "ACTOR_AUTO_APPROVED"
	ActionTenantReplaced    = "TENANT_REPLACED"
	ActionGuarantorsChanged = "GUARANTOR_TYPE_CHANGED"
	ActionPolicyCancelled   = "POLICY_CANCELLED"
	ActionPolicyCreated     = "POLICY_CREATED"
	ActionDocumentUploaded  = "DOCUMENT_UPLOADED"
	ActionTokenRegenerated  = "TOKEN_REGENERATED"
)
