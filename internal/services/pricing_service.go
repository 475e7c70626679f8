package services

import (
	"math"

	"github.com/netoho/hestia-app-staging-sub000/internal/config"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
)

// PricingService computes the policy premium from rent, term and
// guarantor configuration.
type PricingService struct {
	cfg config.PricingConfig
}

func NewPricingService(cfg config.PricingConfig) *PricingService {
	return &PricingService{cfg: cfg}
}

// Quote returns the premium: base rate over the contract's total rent,
// scaled by the guarantor risk multiplier and floored at the minimum.
func (ps *PricingService) Quote(rentAmount float64, contractMonths int, guarantorType models.GuarantorType) float64 {
	if rentAmount <= 0 || contractMonths <= 0 {
		return 0
	}

	multiplier := ps.cfg.NoGuarantorRate
	switch guarantorType {
	case models.GuarantorJointObligor:
		multiplier = ps.cfg.JointObligorRate
	case models.GuarantorAval:
		multiplier = ps.cfg.AvalRate
	case models.GuarantorBoth:
		// both guarantor classes present reduces risk below either alone
		multiplier = math.Min(ps.cfg.JointObligorRate, ps.cfg.AvalRate) * 0.95
	}

	premium := rentAmount * float64(contractMonths) * ps.cfg.BaseRate * multiplier
	if premium < ps.cfg.MinimumPremium {
		premium = ps.cfg.MinimumPremium
	}
	return math.Round(premium*100) / 100
}
