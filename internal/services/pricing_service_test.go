package services

import (
	"testing"

	"github.com/netoho/hestia-app-staging-sub000/internal/config"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/stretchr/testify/assert"
)

func testPricing() *PricingService {
	return NewPricingService(config.PricingConfig{
		BaseRate:         0.05,
		JointObligorRate: 1.0,
		AvalRate:         1.15,
		NoGuarantorRate:  1.35,
		MinimumPremium:   3000,
	})
}

func TestQuoteByGuarantorType(t *testing.T) {
	ps := testPricing()

	// 15000 * 12 * 0.05 = 9000 at the joint-obligor baseline
	assert.InDelta(t, 9000, ps.Quote(15000, 12, models.GuarantorJointObligor), 0.01)
	assert.InDelta(t, 9000*1.15, ps.Quote(15000, 12, models.GuarantorAval), 0.01)
	assert.InDelta(t, 9000*1.35, ps.Quote(15000, 12, models.GuarantorNone), 0.01)
}

func TestQuoteBothTakesDiscountedMinimum(t *testing.T) {
	ps := testPricing()

	jo := ps.Quote(15000, 12, models.GuarantorJointObligor)
	both := ps.Quote(15000, 12, models.GuarantorBoth)
	assert.InDelta(t, jo*0.95, both, 0.01)
	assert.Less(t, both, jo)
}

func TestQuoteMinimumPremiumFloor(t *testing.T) {
	ps := testPricing()

	// 3000 * 6 * 0.05 = 900, floored to the minimum premium
	assert.InDelta(t, 3000, ps.Quote(3000, 6, models.GuarantorJointObligor), 0.01)
}

func TestQuoteInvalidInputs(t *testing.T) {
	ps := testPricing()
	assert.Zero(t, ps.Quote(0, 12, models.GuarantorNone))
	assert.Zero(t, ps.Quote(15000, 0, models.GuarantorNone))
	assert.Zero(t, ps.Quote(-1, -1, models.GuarantorNone))
}
