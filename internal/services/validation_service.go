package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ValidationService records reviewer decisions per section and per
// document, auto-promotes fully approved actors, and runs the actor
// submission flow.
type ValidationService struct {
	db       *gorm.DB
	logger   *zap.Logger
	metrics  *metrics.MetricsCollector
	workflow *WorkflowService
}

func NewValidationService(db *gorm.DB, logger *zap.Logger, mc *metrics.MetricsCollector, workflow *WorkflowService) *ValidationService {
	return &ValidationService{
		db:       db,
		logger:   logger.With(zap.String("service", "validation_service")),
		metrics:  mc,
		workflow: workflow,
	}
}

// ValidateSection upserts the reviewer decision for one (actor, section)
// pair and re-evaluates auto-approval. REJECTED requires a reason.
func (vs *ValidationService) ValidateSection(ctx context.Context, kind models.ActorKind, actorID string, section models.ActorSection, status models.ValidationStatus, validator, reason string) error {
	desc, err := DescriptorFor(kind)
	if err != nil {
		return err
	}
	known := false
	for _, s := range desc.Sections {
		if s == section {
			known = true
			break
		}
	}
	if !known {
		return ValidationError("section %s does not apply to %s", section, kindLabel(kind))
	}
	if err := validStatus(status); err != nil {
		return err
	}
	if status == models.ValidationRejected && reason == "" {
		return ValidationError("a rejection reason is required")
	}

	return vs.db.Transaction(func(tx *gorm.DB) error {
		actor, err := LoadActor(tx, kind, actorID)
		if err != nil {
			return err
		}

		now := time.Now()
		var existing models.ActorSectionValidation
		err = tx.First(&existing, "actor_type = ? AND actor_id = ? AND section = ?", kind, actorID, section).Error
		switch {
		case err == nil:
			updates := map[string]any{
				"status":           status,
				"validated_by":     validator,
				"validated_at":     now,
				"rejection_reason": reason,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return WrapDatabase(err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := models.ActorSectionValidation{
				ActorType:       kind,
				ActorID:         actorID,
				Section:         section,
				Status:          status,
				ValidatedBy:     validator,
				ValidatedAt:     &now,
				RejectionReason: reason,
			}
			if err := tx.Create(&record).Error; err != nil {
				return WrapDatabase(err)
			}
		default:
			return WrapDatabase(err)
		}

		if err := logActivity(tx, actor.PolicyID, models.ActionSectionValidated,
			fmt.Sprintf("%s section %s marked %s", kindLabel(kind), section, status), validator,
			map[string]any{"actor_kind": kind, "actor_id": actorID, "section": section, "status": status}); err != nil {
			return err
		}

		return vs.checkActorValidationComplete(tx, kind, actorID, actor.PolicyID)
	})
}

// ValidateDocument upserts the reviewer decision for one document and
// re-evaluates auto-approval for the owning actor.
func (vs *ValidationService) ValidateDocument(ctx context.Context, documentID string, status models.ValidationStatus, validator, reason string) error {
	if err := validStatus(status); err != nil {
		return err
	}
	if status == models.ValidationRejected && reason == "" {
		return ValidationError("a rejection reason is required")
	}

	return vs.db.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, "id = ?", documentID).Error; err != nil {
			return notFoundOrDB("document", documentID, err)
		}
		if doc.ActorID == nil {
			return ValidationError("document %s is detached from any actor", documentID)
		}
		kind := models.ActorKind(doc.ActorType)
		actor, err := LoadActor(tx, kind, *doc.ActorID)
		if err != nil {
			return err
		}

		now := time.Now()
		var existing models.DocumentValidation
		err = tx.First(&existing, "document_id = ?", documentID).Error
		switch {
		case err == nil:
			updates := map[string]any{
				"status":           status,
				"validated_by":     validator,
				"validated_at":     now,
				"rejection_reason": reason,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return WrapDatabase(err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := models.DocumentValidation{
				DocumentID:      documentID,
				Status:          status,
				ValidatedBy:     validator,
				ValidatedAt:     &now,
				RejectionReason: reason,
			}
			if err := tx.Create(&record).Error; err != nil {
				return WrapDatabase(err)
			}
		default:
			return WrapDatabase(err)
		}

		if err := logActivity(tx, actor.PolicyID, models.ActionDocumentValidated,
			fmt.Sprintf("document %s (%s) marked %s", doc.FileName, doc.Category, status), validator,
			map[string]any{"document_id": documentID, "category": doc.Category, "status": status}); err != nil {
			return err
		}

		return vs.checkActorValidationComplete(tx, kind, *doc.ActorID, actor.PolicyID)
	})
}

// validStatus rejects reviewer decisions outside the known set.
func validStatus(status models.ValidationStatus) error {
	switch status {
	case models.ValidationPending, models.ValidationApproved, models.ValidationRejected, models.ValidationInReview:
		return nil
	default:
		return ValidationError("unknown validation status %q", status)
	}
}

// checkActorValidationComplete flips verificationStatus to APPROVED once
// every section of the actor's kind AND every owned document is
// individually approved. Approval is sticky: a later re-rejection does
// not de-escalate an already approved actor.
func (vs *ValidationService) checkActorValidationComplete(tx *gorm.DB, kind models.ActorKind, actorID, policyID string) error {
	actor, err := LoadActor(tx, kind, actorID)
	if err != nil {
		return err
	}
	if actor.Common.VerificationStatus == models.VerificationApproved {
		return nil
	}

	desc, err := DescriptorFor(kind)
	if err != nil {
		return err
	}

	var sections []models.ActorSectionValidation
	if err := tx.Find(&sections, "actor_type = ? AND actor_id = ?", kind, actorID).Error; err != nil {
		return WrapDatabase(err)
	}
	approved := make(map[models.ActorSection]bool, len(sections))
	for _, s := range sections {
		if s.Status == models.ValidationApproved {
			approved[s.Section] = true
		}
	}
	for _, s := range desc.Sections {
		if !approved[s] {
			return nil
		}
	}

	for _, d := range actor.Documents {
		if d.Validation == nil || d.Validation.Status != models.ValidationApproved {
			return nil
		}
	}

	if err := updateActorColumns(tx, kind, actorID, map[string]any{
		"verification_status": models.VerificationApproved,
	}); err != nil {
		return err
	}

	vs.metrics.IncrementCounter("actor_auto_approvals", map[string]string{"kind": string(kind)})
	return logActivity(tx, policyID, models.ActionActorAutoApproved,
		fmt.Sprintf("%s automatically approved: all sections and documents approved", kindLabel(kind)),
		"system", map[string]any{"actor_kind": kind, "actor_id": actorID})
}

// SubmitActor finalizes an actor's self-service data entry: completeness
// and required-document checks, then the completion flags, the policy
// gate re-check and the audit row in one transaction.
func (vs *ValidationService) SubmitActor(ctx context.Context, kind models.ActorKind, actorID, submitter string, skipValidation bool) (*CompletenessResult, error) {
	var result CompletenessResult

	err := vs.db.Transaction(func(tx *gorm.DB) error {
		actor, err := LoadActor(tx, kind, actorID)
		if err != nil {
			return err
		}

		result = CheckCompleteness(actor)
		if !result.Valid && !skipValidation {
			return ValidationError("information incomplete: %d fields missing", len(result.MissingFields))
		}

		if missing := MissingDocuments(actor); len(missing) > 0 && !skipValidation {
			return ValidationError("required documents missing: %v", missing)
		}

		now := time.Now()
		if err := updateActorColumns(tx, kind, actorID, map[string]any{
			"information_complete": true,
			"completed_at":         now,
			"completed_by":         submitter,
		}); err != nil {
			return err
		}

		var policy models.Policy
		if err := tx.First(&policy, "id = ?", actor.PolicyID).Error; err != nil {
			return notFoundOrDB("policy", actor.PolicyID, err)
		}

		if err := logActivity(tx, policy.ID, models.ActionActorSubmitted,
			fmt.Sprintf("%s submitted their information", kindLabel(kind)), submitter,
			map[string]any{"actor_kind": kind, "actor_id": actorID}); err != nil {
			return err
		}

		// Promote the policy in the same transaction when this was the
		// last incomplete actor.
		if policy.Status == models.StatusCollectingInfo {
			complete, err := vs.workflow.AllActorsComplete(tx, &policy)
			if err != nil {
				return err
			}
			if complete {
				if err := tx.Model(&policy).Update("status", models.StatusUnderInvestigation).Error; err != nil {
					return WrapDatabase(err)
				}
				if err := vs.workflow.runSideEffects(tx, &policy, models.StatusUnderInvestigation); err != nil {
					return err
				}
				if err := logActivity(tx, policy.ID, models.ActionStatusChanged,
					fmt.Sprintf("status changed from %s to %s", models.StatusCollectingInfo, models.StatusUnderInvestigation),
					"system", map[string]any{
						"from": models.StatusCollectingInfo,
						"to":   models.StatusUnderInvestigation,
					}); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	vs.metrics.IncrementCounter("actor_submissions", map[string]string{"kind": string(kind)})
	return &result, nil
}
