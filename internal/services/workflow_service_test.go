package services

import (
	"context"
	"testing"
	"time"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to models.PolicyStatus
		want     bool
	}{
		{models.StatusDraft, models.StatusCollectingInfo, true},
		{models.StatusDraft, models.StatusActive, false},
		{models.StatusCollectingInfo, models.StatusUnderInvestigation, true},
		{models.StatusCollectingInfo, models.StatusApproved, false},
		{models.StatusUnderInvestigation, models.StatusPendingApproval, true},
		{models.StatusUnderInvestigation, models.StatusInvestigationRejected, true},
		{models.StatusInvestigationRejected, models.StatusUnderInvestigation, true},
		{models.StatusPendingApproval, models.StatusApproved, true},
		{models.StatusPendingApproval, models.StatusInvestigationRejected, true},
		{models.StatusApproved, models.StatusContractPending, true},
		{models.StatusContractPending, models.StatusContractSigned, true},
		{models.StatusContractSigned, models.StatusActive, true},
		{models.StatusActive, models.StatusExpired, true},
		{models.StatusActive, models.StatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TransitionAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	all := []models.PolicyStatus{
		models.StatusDraft, models.StatusCollectingInfo, models.StatusUnderInvestigation,
		models.StatusInvestigationRejected, models.StatusPendingApproval, models.StatusApproved,
		models.StatusContractPending, models.StatusContractSigned, models.StatusActive,
		models.StatusExpired, models.StatusCancelled,
	}
	for _, to := range all {
		assert.False(t, TransitionAllowed(models.StatusExpired, to))
		assert.False(t, TransitionAllowed(models.StatusCancelled, to))
	}
}

func TestEveryNonTerminalStatusCanCancel(t *testing.T) {
	for from, targets := range allowedTransitions {
		if from == models.StatusExpired || from == models.StatusCancelled {
			continue
		}
		assert.Contains(t, targets, models.StatusCancelled, "from %s", from)
	}
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusDraft, models.GuarantorNone)

	_, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusActive, "admin", "", "")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidState, KindOf(err))

	var reloaded models.Policy
	require.NoError(t, env.db.First(&reloaded, "id = ?", policy.ID).Error)
	assert.Equal(t, models.StatusDraft, reloaded.Status, "failed transition must not move the policy")
}

func TestTransitionUnknownPolicy(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.workflow.TransitionPolicyStatus(context.Background(), "nope", models.StatusCollectingInfo, "admin", "", "")
	require.Error(t, err)
	assert.Equal(t, ErrNotFound, KindOf(err))
}

func TestInvestigationGateRequiresCompleteActors(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	seedTenant(t, env.db, policy.ID, false)
	seedLandlord(t, env.db, policy.ID, true)

	_, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusUnderInvestigation, "admin", "", "")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidState, KindOf(err))
	assert.Contains(t, err.Error(), "tenant")

	require.NoError(t, env.db.Model(&models.Tenant{}).
		Where("policy_id = ?", policy.ID).
		Update("information_complete", true).Error)

	updated, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusUnderInvestigation, "admin", "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderInvestigation, updated.Status)

	var inv models.Investigation
	require.NoError(t, env.db.First(&inv, "policy_id = ?", policy.ID).Error)
	assert.Equal(t, models.VerdictPending, inv.Verdict)
}

func TestInvestigationGateChecksGuarantors(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorBoth)
	seedTenant(t, env.db, policy.ID, true)
	seedLandlord(t, env.db, policy.ID, true)
	seedJointObligor(t, env.db, policy.ID, true)
	// no aval at all: BOTH requires one

	_, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusUnderInvestigation, "admin", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aval")

	seedAval(t, env.db, policy.ID, true)
	_, err = env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusUnderInvestigation, "admin", "", "")
	require.NoError(t, err)
}

func TestApproveRequiresInvestigationVerdict(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusPendingApproval, models.GuarantorNone)

	// no investigation record at all
	_, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusApproved, "admin", "", "")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidState, KindOf(err))

	inv := models.Investigation{PolicyID: policy.ID, Verdict: models.VerdictPending, StartedAt: time.Now()}
	require.NoError(t, env.db.Create(&inv).Error)

	_, err = env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusApproved, "admin", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PENDING")

	require.NoError(t, env.db.Model(&inv).Update("verdict", models.VerdictApproved).Error)
	updated, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusApproved, "admin", "", "")
	require.NoError(t, err)

	var reloaded models.Policy
	require.NoError(t, env.db.First(&reloaded, "id = ?", policy.ID).Error)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.NotNil(t, reloaded.ApprovedAt)
}

func TestContractSignedRequiresCurrentContract(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusContractPending, models.GuarantorNone)

	_, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusContractSigned, "admin", "", "")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidState, KindOf(err))

	contract := models.Contract{PolicyID: policy.ID, Status: models.ContractCurrent, FileKey: "contracts/x.pdf"}
	require.NoError(t, env.db.Create(&contract).Error)

	_, err = env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusContractSigned, "admin", "", "")
	require.NoError(t, err)

	var reloaded models.Policy
	require.NoError(t, env.db.First(&reloaded, "id = ?", policy.ID).Error)
	assert.NotNil(t, reloaded.ContractSignedAt)
}

func TestActivateRequiresPremiumAndStampsExpiry(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusContractSigned, models.GuarantorNone)

	_, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusActive, "admin", "", "")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidState, KindOf(err))

	payment := models.Payment{
		PolicyID: policy.ID,
		Type:     models.PaymentPremium,
		Status:   models.PaymentCompleted,
		PaidBy:   models.PayerTenant,
		Amount:   9000,
	}
	require.NoError(t, env.db.Create(&payment).Error)

	before := time.Now()
	updated, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusActive, "admin", "", "")
	require.NoError(t, err)
	require.NotNil(t, updated.ExpiresAt)

	wantExpiry := before.AddDate(0, policy.ContractLength, 0)
	assert.WithinDuration(t, wantExpiry, *updated.ExpiresAt, time.Minute)

	var reloaded models.Policy
	require.NoError(t, env.db.First(&reloaded, "id = ?", policy.ID).Error)
	assert.NotNil(t, reloaded.ActivatedAt)
	assert.NotNil(t, reloaded.ExpiresAt)
}

func TestTransitionWritesActivity(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusDraft, models.GuarantorNone)

	_, err := env.workflow.TransitionPolicyStatus(context.Background(), policy.ID, models.StatusCollectingInfo, "ana@example.com", "kickoff", "")
	require.NoError(t, err)

	var activity models.PolicyActivity
	require.NoError(t, env.db.First(&activity, "policy_id = ? AND action = ?", policy.ID, models.ActionStatusChanged).Error)
	assert.Equal(t, "ana@example.com", activity.PerformedBy)
	assert.Contains(t, activity.Description, string(models.StatusCollectingInfo))
}

func TestCancelPolicy(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusUnderInvestigation, models.GuarantorNone)

	_, err := env.workflow.CancelPolicy(context.Background(), policy.ID, "", "", "admin")
	require.Error(t, err)
	assert.Equal(t, ErrValidation, KindOf(err))

	cancelled, err := env.workflow.CancelPolicy(context.Background(), policy.ID, "tenant backed out", "called on 2026-08-30", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, "tenant backed out", cancelled.CancellationReason)

	// cancelling twice is a state error, not a silent no-op
	_, err = env.workflow.CancelPolicy(context.Background(), policy.ID, "again", "", "admin")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidState, KindOf(err))
}

func TestCancelKeepsActorData(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	tenant := seedTenant(t, env.db, policy.ID, true)

	_, err := env.workflow.CancelPolicy(context.Background(), policy.ID, "duplicate entry", "", "admin")
	require.NoError(t, err)

	var reloaded models.Tenant
	require.NoError(t, env.db.First(&reloaded, "id = ?", tenant.ID).Error)
	assert.Equal(t, tenant.Email, reloaded.Email)
	assert.True(t, reloaded.InformationComplete)
}

func TestAutoTransitionSweep(t *testing.T) {
	env := newTestEnv(t)

	ready := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	seedTenant(t, env.db, ready.ID, true)
	seedLandlord(t, env.db, ready.ID, true)

	waiting := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	seedTenant(t, env.db, waiting.ID, false)
	seedLandlord(t, env.db, waiting.ID, true)

	stale := seedPolicy(t, env.db, models.StatusActive, models.GuarantorNone)
	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, env.db.Model(stale).Update("expires_at", past).Error)

	result, err := env.workflow.AutoTransitionPolicies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{ready.ID}, result.Promoted)
	assert.Equal(t, []string{stale.ID}, result.Expired)

	var reloaded models.Policy
	require.NoError(t, env.db.First(&reloaded, "id = ?", waiting.ID).Error)
	assert.Equal(t, models.StatusCollectingInfo, reloaded.Status)

	// the sweep is idempotent
	again, err := env.workflow.AutoTransitionPolicies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Promoted)
	assert.Empty(t, again.Expired)
}
