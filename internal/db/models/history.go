package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// History rows are append-only snapshots of a superseded actor. They are
// created inside the replacement transaction and never updated after.

type TenantHistory struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	PolicyID   string         `gorm:"index;not null" json:"policy_id"`
	TenantID   string         `gorm:"index;not null" json:"tenant_id"`
	Snapshot   datatypes.JSON `gorm:"not null" json:"snapshot"`
	Reason     string         `gorm:"not null" json:"reason"`
	ReplacedBy string         `json:"replaced_by"`
	ReplacedAt time.Time      `json:"replaced_at"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (h *TenantHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

type JointObligorHistory struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	PolicyID       string         `gorm:"index;not null" json:"policy_id"`
	JointObligorID string         `gorm:"index;not null" json:"joint_obligor_id"`
	Snapshot       datatypes.JSON `gorm:"not null" json:"snapshot"`
	Reason         string         `gorm:"not null" json:"reason"`
	ReplacedBy     string         `json:"replaced_by"`
	ReplacedAt     time.Time      `json:"replaced_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (h *JointObligorHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

type AvalHistory struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	PolicyID   string         `gorm:"index;not null" json:"policy_id"`
	AvalID     string         `gorm:"index;not null" json:"aval_id"`
	Snapshot   datatypes.JSON `gorm:"not null" json:"snapshot"`
	Reason     string         `gorm:"not null" json:"reason"`
	ReplacedBy string         `json:"replaced_by"`
	ReplacedAt time.Time      `json:"replaced_at"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (h *AvalHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}
