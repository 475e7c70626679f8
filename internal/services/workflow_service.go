package services

import (
	"context"
	"fmt"
	"time"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedTransitions is the full status graph. EXPIRED and CANCELLED are
// terminal. Nothing anywhere applies a transition outside this table;
// admin force-moves go through a separate audited path in the handler
// layer, not through TransitionPolicyStatus.
var allowedTransitions = map[models.PolicyStatus][]models.PolicyStatus{
	models.StatusDraft:                 {models.StatusCollectingInfo, models.StatusCancelled},
	models.StatusCollectingInfo:        {models.StatusUnderInvestigation, models.StatusCancelled},
	models.StatusUnderInvestigation:    {models.StatusInvestigationRejected, models.StatusPendingApproval, models.StatusCancelled},
	models.StatusInvestigationRejected: {models.StatusUnderInvestigation, models.StatusCancelled},
	models.StatusPendingApproval:       {models.StatusApproved, models.StatusInvestigationRejected, models.StatusCancelled},
	models.StatusApproved:              {models.StatusContractPending, models.StatusCancelled},
	models.StatusContractPending:       {models.StatusContractSigned, models.StatusCancelled},
	models.StatusContractSigned:        {models.StatusActive, models.StatusCancelled},
	models.StatusActive:                {models.StatusExpired, models.StatusCancelled},
	models.StatusExpired:               {},
	models.StatusCancelled:             {},
}

// TransitionAllowed consults the status graph.
func TransitionAllowed(from, to models.PolicyStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// WorkflowService owns the policy status machine: legality checks,
// status-specific preconditions, timestamps and side effects, plus the
// externally triggered auto-transition sweep.
type WorkflowService struct {
	db       *gorm.DB
	logger   *zap.Logger
	metrics  *metrics.MetricsCollector
	notifier Notifier
}

func NewWorkflowService(db *gorm.DB, logger *zap.Logger, mc *metrics.MetricsCollector, notifier Notifier) *WorkflowService {
	return &WorkflowService{
		db:       db,
		logger:   logger.With(zap.String("service", "workflow_service")),
		metrics:  mc,
		notifier: notifier,
	}
}

// TransitionPolicyStatus applies one legal transition: legality check,
// precondition, persist + timestamp, audit row and side effect run as a
// single transaction.
func (ws *WorkflowService) TransitionPolicyStatus(ctx context.Context, policyID string, newStatus models.PolicyStatus, actorName, notes, reason string) (*models.Policy, error) {
	var policy models.Policy
	post := NewPostCommit(ws.logger)

	err := ws.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&policy, "id = ?", policyID).Error; err != nil {
			return notFoundOrDB("policy", policyID, err)
		}
		fromStatus := policy.Status

		if !TransitionAllowed(fromStatus, newStatus) {
			return InvalidStateError("cannot transition policy from %s to %s", fromStatus, newStatus)
		}

		if err := ws.checkPrecondition(tx, &policy, newStatus); err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]any{"status": newStatus}
		switch newStatus {
		case models.StatusApproved:
			updates["approved_at"] = now
		case models.StatusInvestigationRejected:
			updates["rejected_at"] = now
		case models.StatusContractSigned:
			updates["contract_signed_at"] = now
		case models.StatusActive:
			updates["activated_at"] = now
			expires := addMonths(now, policy.ContractLength)
			updates["expires_at"] = expires
			policy.ExpiresAt = &expires
		case models.StatusCancelled:
			updates["cancelled_at"] = now
			updates["cancellation_reason"] = reason
		}

		if err := tx.Model(&policy).Updates(updates).Error; err != nil {
			return WrapDatabase(err)
		}

		details := map[string]any{
			"from": fromStatus,
			"to":   newStatus,
		}
		if reason != "" {
			details["reason"] = reason
		}
		if notes != "" {
			details["notes"] = notes
		}
		desc := fmt.Sprintf("status changed from %s to %s", fromStatus, newStatus)
		if err := logActivity(tx, policy.ID, models.ActionStatusChanged, desc, actorName, details); err != nil {
			return err
		}

		if err := ws.runSideEffects(tx, &policy, newStatus); err != nil {
			return err
		}

		policy.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	ws.metrics.IncrementCounter("policy_transitions", map[string]string{"to": string(newStatus)})

	if policy.ManagerEmail != "" {
		to := policy.ManagerEmail
		post.Add("notify status change", func() error {
			return ws.notifier.Send(context.Background(), TemplateStatusChanged, to, map[string]any{
				"policy_number": policy.PolicyNumber,
				"status":        newStatus,
			})
		})
	}
	post.Run()

	return &policy, nil
}

// checkPrecondition enforces the status-specific entry requirements.
// Errors name the exact unmet requirement.
func (ws *WorkflowService) checkPrecondition(tx *gorm.DB, policy *models.Policy, newStatus models.PolicyStatus) error {
	switch newStatus {
	case models.StatusUnderInvestigation:
		incomplete, err := ws.incompleteActors(tx, policy)
		if err != nil {
			return err
		}
		if len(incomplete) > 0 {
			return InvalidStateError("cannot start investigation: incomplete actors: %v", incomplete)
		}
	case models.StatusApproved:
		var inv models.Investigation
		if err := tx.First(&inv, "policy_id = ?", policy.ID).Error; err != nil {
			return InvalidStateError("cannot approve: no investigation record exists")
		}
		if inv.Verdict != models.VerdictApproved {
			return InvalidStateError("cannot approve: investigation verdict is %s, not APPROVED", inv.Verdict)
		}
	case models.StatusContractSigned:
		var count int64
		if err := tx.Model(&models.Contract{}).
			Where("policy_id = ? AND status = ?", policy.ID, models.ContractCurrent).
			Count(&count).Error; err != nil {
			return WrapDatabase(err)
		}
		if count == 0 {
			return InvalidStateError("cannot mark contract signed: no current contract record exists")
		}
	case models.StatusActive:
		var count int64
		if err := tx.Model(&models.Payment{}).
			Where("policy_id = ? AND type = ? AND status = ?", policy.ID, models.PaymentPremium, models.PaymentCompleted).
			Count(&count).Error; err != nil {
			return WrapDatabase(err)
		}
		if count == 0 {
			return InvalidStateError("cannot activate: no completed premium payment exists")
		}
	}
	return nil
}

// runSideEffects performs in-transaction consequences of entering a
// status. ExpiresAt is stamped with the status update itself.
func (ws *WorkflowService) runSideEffects(tx *gorm.DB, policy *models.Policy, newStatus models.PolicyStatus) error {
	switch newStatus {
	case models.StatusUnderInvestigation:
		var count int64
		if err := tx.Model(&models.Investigation{}).
			Where("policy_id = ?", policy.ID).
			Count(&count).Error; err != nil {
			return WrapDatabase(err)
		}
		if count == 0 {
			inv := models.Investigation{
				PolicyID:  policy.ID,
				Verdict:   models.VerdictPending,
				StartedAt: time.Now(),
			}
			if err := tx.Create(&inv).Error; err != nil {
				return WrapDatabase(err)
			}
		}
	}
	return nil
}

// incompleteActors lists the actors blocking the investigation gate:
// tenant, every landlord, and every guarantor the policy's guarantor
// type requires must have informationComplete set.
func (ws *WorkflowService) incompleteActors(tx *gorm.DB, policy *models.Policy) ([]string, error) {
	var incomplete []string

	var tenant models.Tenant
	err := tx.First(&tenant, "policy_id = ?", policy.ID).Error
	if err != nil || !tenant.InformationComplete {
		incomplete = append(incomplete, "tenant")
	}

	var landlords []models.Landlord
	if err := tx.Find(&landlords, "policy_id = ?", policy.ID).Error; err != nil {
		return nil, WrapDatabase(err)
	}
	if len(landlords) == 0 {
		incomplete = append(incomplete, "landlord")
	}
	for _, l := range landlords {
		if !l.InformationComplete {
			incomplete = append(incomplete, "landlord")
			break
		}
	}

	needsJO := policy.GuarantorType == models.GuarantorJointObligor || policy.GuarantorType == models.GuarantorBoth
	needsAval := policy.GuarantorType == models.GuarantorAval || policy.GuarantorType == models.GuarantorBoth

	if needsJO {
		var obligors []models.JointObligor
		if err := tx.Find(&obligors, "policy_id = ?", policy.ID).Error; err != nil {
			return nil, WrapDatabase(err)
		}
		if len(obligors) == 0 {
			incomplete = append(incomplete, "joint obligor")
		}
		for _, o := range obligors {
			if !o.InformationComplete {
				incomplete = append(incomplete, "joint obligor")
				break
			}
		}
	}
	if needsAval {
		var avals []models.Aval
		if err := tx.Find(&avals, "policy_id = ?", policy.ID).Error; err != nil {
			return nil, WrapDatabase(err)
		}
		if len(avals) == 0 {
			incomplete = append(incomplete, "aval")
		}
		for _, a := range avals {
			if !a.InformationComplete {
				incomplete = append(incomplete, "aval")
				break
			}
		}
	}

	return incomplete, nil
}

// AllActorsComplete is the investigation gate used by submit and the
// sweep.
func (ws *WorkflowService) AllActorsComplete(tx *gorm.DB, policy *models.Policy) (bool, error) {
	incomplete, err := ws.incompleteActors(tx, policy)
	if err != nil {
		return false, err
	}
	return len(incomplete) == 0, nil
}

// CancelPolicy terminates a policy. Cancellation is terminal and does
// not archive actor data.
func (ws *WorkflowService) CancelPolicy(ctx context.Context, policyID, reason, comment, actorName string) (*models.Policy, error) {
	var policy models.Policy
	post := NewPostCommit(ws.logger)

	err := ws.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&policy, "id = ?", policyID).Error; err != nil {
			return notFoundOrDB("policy", policyID, err)
		}
		fromStatus := policy.Status
		if fromStatus == models.StatusCancelled || fromStatus == models.StatusExpired {
			return InvalidStateError("policy is already %s", fromStatus)
		}
		if reason == "" {
			return ValidationError("cancellation reason is required")
		}

		now := time.Now()
		updates := map[string]any{
			"status":              models.StatusCancelled,
			"cancelled_at":        now,
			"cancellation_reason": reason,
			"cancellation_notes":  comment,
		}
		if err := tx.Model(&policy).Updates(updates).Error; err != nil {
			return WrapDatabase(err)
		}

		if err := logActivity(tx, policy.ID, models.ActionPolicyCancelled,
			fmt.Sprintf("policy cancelled: %s", reason), actorName,
			map[string]any{"from": fromStatus, "reason": reason, "comment": comment}); err != nil {
			return err
		}

		policy.Status = models.StatusCancelled
		policy.CancelledAt = &now
		policy.CancellationReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	ws.metrics.IncrementCounter("policy_cancellations", nil)
	if policy.ManagerEmail != "" {
		to := policy.ManagerEmail
		post.Add("notify cancellation", func() error {
			return ws.notifier.Send(context.Background(), TemplatePolicyCancelled, to, map[string]any{
				"policy_number": policy.PolicyNumber,
				"reason":        reason,
			})
		})
	}
	post.Run()

	return &policy, nil
}

// SweepResult reports what one AutoTransitionPolicies run changed.
type SweepResult struct {
	Promoted []string `json:"promoted"` // COLLECTING_INFO -> UNDER_INVESTIGATION
	Expired  []string `json:"expired"`  // ACTIVE -> EXPIRED
}

// AutoTransitionPolicies is the externally scheduled batch: promotes
// collecting policies whose actors are all complete and expires active
// policies past their end date. Idempotent; a rerun finds nothing left
// to move because the legality check rejects repeat transitions.
func (ws *WorkflowService) AutoTransitionPolicies(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}

	var collecting []models.Policy
	if err := ws.db.Find(&collecting, "status = ?", models.StatusCollectingInfo).Error; err != nil {
		return nil, WrapDatabase(err)
	}
	for _, p := range collecting {
		complete, err := ws.AllActorsComplete(ws.db, &p)
		if err != nil {
			ws.logger.Warn("sweep: completeness check failed", zap.String("policy_id", p.ID), zap.Error(err))
			continue
		}
		if !complete {
			continue
		}
		if _, err := ws.TransitionPolicyStatus(ctx, p.ID, models.StatusUnderInvestigation, "system", "auto-transition sweep", ""); err != nil {
			ws.logger.Warn("sweep: promotion failed", zap.String("policy_id", p.ID), zap.Error(err))
			continue
		}
		result.Promoted = append(result.Promoted, p.ID)
	}

	now := time.Now()
	var active []models.Policy
	if err := ws.db.Find(&active, "status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.StatusActive, now).Error; err != nil {
		return nil, WrapDatabase(err)
	}
	for _, p := range active {
		if _, err := ws.TransitionPolicyStatus(ctx, p.ID, models.StatusExpired, "system", "auto-transition sweep", ""); err != nil {
			ws.logger.Warn("sweep: expiration failed", zap.String("policy_id", p.ID), zap.Error(err))
			continue
		}
		result.Expired = append(result.Expired, p.ID)
	}

	ws.logger.Info("auto-transition sweep finished",
		zap.Int("promoted", len(result.Promoted)),
		zap.Int("expired", len(result.Expired)))
	return result, nil
}

// addMonths advances t by n calendar months, normalizing overflow the
// way time.AddDate does.
func addMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}
