package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

type PaymentType string

const (
	PaymentPremium       PaymentType = "PREMIUM"
	PaymentInvestigation PaymentType = "INVESTIGATION_FEE"
)

type PayerRole string

const (
	PayerTenant   PayerRole = "TENANT"
	PayerLandlord PayerRole = "LANDLORD"
)

// Payment rows come from the payment gateway webhook flow; the workflow
// core only reads status/type as a transition gate and cancels pending
// tenant payments during replacement.
type Payment struct {
	ID       string        `gorm:"primaryKey" json:"id"`
	PolicyID string        `gorm:"index;not null" json:"policy_id"`
	Type     PaymentType   `gorm:"not null" json:"type"`
	Status   PaymentStatus `gorm:"not null;default:'PENDING';index" json:"status"`
	PaidBy   PayerRole     `gorm:"not null;default:'TENANT'" json:"paid_by"`
	Amount   float64       `gorm:"not null" json:"amount"`
	Currency string        `gorm:"not null;default:'MXN'" json:"currency"`

	// Opaque gateway references; nothing here talks to the gateway.
	StripePaymentIntentID string `json:"stripe_payment_intent_id"`
	StripeCustomerID      string `json:"stripe_customer_id"`

	// Set when the paying actor is archived so the receipt keeps a
	// human-readable payer after the live row is reset.
	PayerNameSnapshot string `json:"payer_name_snapshot"`

	PaidAt      *time.Time `json:"paid_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Terminal reports whether the payment can no longer change state.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}
