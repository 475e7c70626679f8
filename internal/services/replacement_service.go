package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActorStub seeds a freshly created or reset actor: just enough contact
// data to send an invitation; everything else arrives through the
// self-service flow.
type ActorStub struct {
	PersonType       models.PersonType `json:"person_type"`
	FirstName        string            `json:"first_name"`
	PaternalLastName string            `json:"paternal_last_name"`
	MaternalLastName string            `json:"maternal_last_name"`
	CompanyName      string            `json:"company_name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
}

func (s ActorStub) validate() error {
	if s.Email == "" {
		return ValidationError("actor stub requires an email")
	}
	if s.PersonType == models.PersonCompany {
		if s.CompanyName == "" {
			return ValidationError("company actor stub requires companyName")
		}
	} else if s.FirstName == "" {
		return ValidationError("individual actor stub requires firstName")
	}
	return nil
}

// changeableStatuses are the policy states in which actors may still be
// swapped out; once a contract is in play the roster is frozen.
var changeableStatuses = map[models.PolicyStatus]bool{
	models.StatusDraft:              true,
	models.StatusCollectingInfo:     true,
	models.StatusUnderInvestigation: true,
	models.StatusPendingApproval:    true,
}

// ReplacementService implements the archive-then-reset-then-notify
// operations: tenant replacement and guarantor type change.
type ReplacementService struct {
	db       *gorm.DB
	logger   *zap.Logger
	metrics  *metrics.MetricsCollector
	tokens   *TokenService
	notifier Notifier
}

func NewReplacementService(db *gorm.DB, logger *zap.Logger, mc *metrics.MetricsCollector, tokens *TokenService, notifier Notifier) *ReplacementService {
	return &ReplacementService{
		db:       db,
		logger:   logger.With(zap.String("service", "replacement_service")),
		metrics:  mc,
		tokens:   tokens,
		notifier: notifier,
	}
}

// ReplaceTenant archives the current tenant to history, resets the live
// row (same id, blank data, stub contact info), clears derived state and
// reverts the policy to COLLECTING_INFO. Token regeneration, the audit
// row and notifications run after the transaction commits.
func (rs *ReplacementService) ReplaceTenant(ctx context.Context, policyID, reason string, newTenant ActorStub, replaceGuarantors bool, actorName string) error {
	if reason == "" {
		return ValidationError("replacement reason is required")
	}
	if err := newTenant.validate(); err != nil {
		return err
	}

	var policy models.Policy
	var tenantID, oldTenantName string
	post := NewPostCommit(rs.logger)

	err := rs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&policy, "id = ?", policyID).Error; err != nil {
			return notFoundOrDB("policy", policyID, err)
		}
		if !changeableStatuses[policy.Status] {
			return InvalidStateError("tenant cannot be replaced while policy is %s", policy.Status)
		}

		var tenant models.Tenant
		if err := preloadActor(tx).First(&tenant, "policy_id = ?", policyID).Error; err != nil {
			return notFoundOrDB("tenant for policy", policyID, err)
		}
		tenantID = tenant.ID
		oldTenantName = displayNameOf(tenant.ActorCommon)

		snapshot, err := snapshotJSON(tenant)
		if err != nil {
			return err
		}
		history := models.TenantHistory{
			PolicyID:   policyID,
			TenantID:   tenant.ID,
			Snapshot:   snapshot,
			Reason:     reason,
			ReplacedBy: actorName,
			ReplacedAt: time.Now(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return WrapDatabase(err)
		}

		if err := rs.clearActorSatellites(tx, models.KindTenant, tenant.ID); err != nil {
			return err
		}

		if err := rs.resetActorRow(tx, models.KindTenant, tenant.ID, newTenant); err != nil {
			return err
		}

		if replaceGuarantors {
			if err := rs.archiveAndResetGuarantors(tx, &policy, reason, actorName); err != nil {
				return err
			}
		}

		if err := tx.Where("policy_id = ?", policyID).Delete(&models.Investigation{}).Error; err != nil {
			return WrapDatabase(err)
		}

		if err := rs.settleTenantPayments(tx, policyID, oldTenantName); err != nil {
			return err
		}

		if policy.Status != models.StatusDraft && policy.Status != models.StatusCollectingInfo {
			if err := tx.Model(&policy).Update("status", models.StatusCollectingInfo).Error; err != nil {
				return WrapDatabase(err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	rs.metrics.IncrementCounter("tenant_replacements", nil)

	post.Add("regenerate tenant token", func() error {
		_, err := rs.tokens.Regenerate(models.KindTenant, tenantID)
		return err
	})
	post.Add("log replacement activity", func() error {
		return logActivity(rs.db, policyID, models.ActionTenantReplaced,
			fmt.Sprintf("tenant replaced: %s", reason), actorName,
			map[string]any{
				"tenant_id":          tenantID,
				"previous_tenant":    oldTenantName,
				"reason":             reason,
				"replace_guarantors": replaceGuarantors,
			})
	})
	if policy.ManagerEmail != "" {
		post.Add("notify policy manager", func() error {
			return rs.notifier.Send(context.Background(), TemplateTenantReplaced, policy.ManagerEmail, map[string]any{
				"policy_number": policy.PolicyNumber,
				"reason":        reason,
			})
		})
	}
	post.Add("invite new tenant", func() error {
		return rs.notifier.Send(context.Background(), TemplateActorInvitation, newTenant.Email, map[string]any{
			"policy_number": policy.PolicyNumber,
			"actor_kind":    models.KindTenant,
		})
	})
	post.Run()

	rs.logger.Info("tenant replaced",
		zap.String("policy_id", policyID),
		zap.String("tenant_id", tenantID),
		zap.String("reason", reason))
	return nil
}

// ChangeGuarantorType archives and removes every existing guarantor,
// creates fresh rows from the provided stubs and updates the policy's
// guarantor type. Invitations and tokens go out after commit.
func (rs *ReplacementService) ChangeGuarantorType(ctx context.Context, policyID, reason string, newType models.GuarantorType, newJointObligors, newAvals []ActorStub, actorName string) error {
	if reason == "" {
		return ValidationError("change reason is required")
	}
	switch newType {
	case models.GuarantorNone, models.GuarantorJointObligor, models.GuarantorAval, models.GuarantorBoth:
	default:
		return ValidationError("unknown guarantor type %q", newType)
	}

	needsJO := newType == models.GuarantorJointObligor || newType == models.GuarantorBoth
	needsAval := newType == models.GuarantorAval || newType == models.GuarantorBoth
	if needsJO && len(newJointObligors) == 0 {
		return ValidationError("guarantor type %s requires at least one joint obligor", newType)
	}
	if needsAval && len(newAvals) == 0 {
		return ValidationError("guarantor type %s requires at least one aval", newType)
	}
	for _, s := range newJointObligors {
		if err := s.validate(); err != nil {
			return err
		}
	}
	for _, s := range newAvals {
		if err := s.validate(); err != nil {
			return err
		}
	}

	var policy models.Policy
	var createdJO []models.JointObligor
	var createdAvals []models.Aval
	post := NewPostCommit(rs.logger)

	err := rs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&policy, "id = ?", policyID).Error; err != nil {
			return notFoundOrDB("policy", policyID, err)
		}
		if !changeableStatuses[policy.Status] {
			return InvalidStateError("guarantor type cannot change while policy is %s", policy.Status)
		}
		fromType := policy.GuarantorType
		if fromType == newType {
			return ValidationError("policy already has guarantor type %s", newType)
		}

		if err := rs.archiveAndDeleteGuarantors(tx, &policy, reason, actorName); err != nil {
			return err
		}

		if needsJO {
			for _, stub := range newJointObligors {
				jo := models.JointObligor{PolicyID: policyID, ActorCommon: stubCommon(stub)}
				if err := tx.Create(&jo).Error; err != nil {
					return WrapDatabase(err)
				}
				createdJO = append(createdJO, jo)
			}
		}
		if needsAval {
			for _, stub := range newAvals {
				av := models.Aval{PolicyID: policyID, ActorCommon: stubCommon(stub)}
				if err := tx.Create(&av).Error; err != nil {
					return WrapDatabase(err)
				}
				createdAvals = append(createdAvals, av)
			}
		}

		if err := tx.Model(&policy).Update("guarantor_type", newType).Error; err != nil {
			return WrapDatabase(err)
		}

		if err := tx.Where("policy_id = ?", policyID).Delete(&models.Investigation{}).Error; err != nil {
			return WrapDatabase(err)
		}

		if policy.Status != models.StatusDraft && policy.Status != models.StatusCollectingInfo {
			if err := tx.Model(&policy).Update("status", models.StatusCollectingInfo).Error; err != nil {
				return WrapDatabase(err)
			}
		}

		return logActivity(tx, policyID, models.ActionGuarantorsChanged,
			fmt.Sprintf("guarantor type changed from %s to %s", fromType, newType), actorName,
			map[string]any{
				"from":   fromType,
				"to":     newType,
				"reason": reason,
			})
	})
	if err != nil {
		return err
	}

	rs.metrics.IncrementCounter("guarantor_type_changes", nil)

	if policy.ManagerEmail != "" {
		post.Add("notify policy manager", func() error {
			return rs.notifier.Send(context.Background(), TemplateGuarantorsChanged, policy.ManagerEmail, map[string]any{
				"policy_number":  policy.PolicyNumber,
				"guarantor_type": newType,
				"reason":         reason,
			})
		})
	}

	for _, jo := range createdJO {
		id, email := jo.ID, jo.Email
		post.Add("token+invite joint obligor", func() error {
			if _, err := rs.tokens.Regenerate(models.KindJointObligor, id); err != nil {
				return err
			}
			return rs.notifier.Send(context.Background(), TemplateActorInvitation, email, map[string]any{
				"policy_number": policy.PolicyNumber,
				"actor_kind":    models.KindJointObligor,
			})
		})
	}
	for _, av := range createdAvals {
		id, email := av.ID, av.Email
		post.Add("token+invite aval", func() error {
			if _, err := rs.tokens.Regenerate(models.KindAval, id); err != nil {
				return err
			}
			return rs.notifier.Send(context.Background(), TemplateActorInvitation, email, map[string]any{
				"policy_number": policy.PolicyNumber,
				"actor_kind":    models.KindAval,
			})
		})
	}
	post.Run()

	rs.logger.Info("guarantor type changed",
		zap.String("policy_id", policyID),
		zap.String("new_type", string(newType)))
	return nil
}

// clearActorSatellites detaches documents (keeping the stored objects)
// and deletes references, addresses and per-section validations.
func (rs *ReplacementService) clearActorSatellites(tx *gorm.DB, kind models.ActorKind, actorID string) error {
	if err := tx.Model(&models.Document{}).
		Where("actor_id = ? AND actor_type = ?", actorID, string(kind)).
		Update("actor_id", nil).Error; err != nil {
		return WrapDatabase(err)
	}
	if err := tx.Where("actor_id = ? AND actor_type = ?", actorID, string(kind)).
		Delete(&models.Reference{}).Error; err != nil {
		return WrapDatabase(err)
	}
	if err := tx.Where("actor_id = ? AND actor_type = ?", actorID, string(kind)).
		Delete(&models.Address{}).Error; err != nil {
		return WrapDatabase(err)
	}
	if err := tx.Where("actor_id = ? AND actor_type = ?", actorID, kind).
		Delete(&models.ActorSectionValidation{}).Error; err != nil {
		return WrapDatabase(err)
	}
	return nil
}

// resetActorRow blanks every mutable column on the live row, keeping the
// id stable, and seeds the stub's contact fields.
func (rs *ReplacementService) resetActorRow(tx *gorm.DB, kind models.ActorKind, actorID string, stub ActorStub) error {
	values := map[string]any{
		"person_type":          defaultPersonType(stub.PersonType),
		"first_name":           stub.FirstName,
		"middle_name":          "",
		"paternal_last_name":   stub.PaternalLastName,
		"maternal_last_name":   stub.MaternalLastName,
		"email":                stub.Email,
		"phone":                stub.Phone,
		"nationality":          "",
		"curp":                 "",
		"rfc":                  "",
		"birth_date":           nil,
		"company_name":         stub.CompanyName,
		"legal_rep_name":       "",
		"occupation":           "",
		"employer_name":        "",
		"monthly_income":       0,
		"information_complete": false,
		"completed_at":         nil,
		"completed_by":         "",
		"verification_status":  models.VerificationPending,
		"access_token":         "",
		"token_expiry":         nil,
	}
	switch kind {
	case models.KindLandlord:
		values["bank_name"] = ""
		values["bank_account"] = ""
		values["clabe"] = ""
	case models.KindJointObligor:
		values["guarantee_method"] = ""
		values["property_deed_number"] = ""
		values["property_registry_info"] = ""
		values["property_address"] = ""
	case models.KindAval:
		values["property_deed_number"] = ""
		values["property_registry_info"] = ""
		values["property_address"] = ""
	}
	return updateActorColumns(tx, kind, actorID, values)
}

// archiveAndResetGuarantors is the replaceGuarantors cascade of tenant
// replacement: same archive+reset treatment, rows stay.
func (rs *ReplacementService) archiveAndResetGuarantors(tx *gorm.DB, policy *models.Policy, reason, actorName string) error {
	var obligors []models.JointObligor
	if err := preloadActor(tx).Find(&obligors, "policy_id = ?", policy.ID).Error; err != nil {
		return WrapDatabase(err)
	}
	for _, jo := range obligors {
		snapshot, err := snapshotJSON(jo)
		if err != nil {
			return err
		}
		h := models.JointObligorHistory{
			PolicyID: policy.ID, JointObligorID: jo.ID, Snapshot: snapshot,
			Reason: reason, ReplacedBy: actorName, ReplacedAt: time.Now(),
		}
		if err := tx.Create(&h).Error; err != nil {
			return WrapDatabase(err)
		}
		if err := rs.clearActorSatellites(tx, models.KindJointObligor, jo.ID); err != nil {
			return err
		}
		if err := rs.resetActorRow(tx, models.KindJointObligor, jo.ID, ActorStub{Email: jo.Email, FirstName: jo.FirstName, PaternalLastName: jo.PaternalLastName, Phone: jo.Phone}); err != nil {
			return err
		}
	}

	var avals []models.Aval
	if err := preloadActor(tx).Find(&avals, "policy_id = ?", policy.ID).Error; err != nil {
		return WrapDatabase(err)
	}
	for _, av := range avals {
		snapshot, err := snapshotJSON(av)
		if err != nil {
			return err
		}
		h := models.AvalHistory{
			PolicyID: policy.ID, AvalID: av.ID, Snapshot: snapshot,
			Reason: reason, ReplacedBy: actorName, ReplacedAt: time.Now(),
		}
		if err := tx.Create(&h).Error; err != nil {
			return WrapDatabase(err)
		}
		if err := rs.clearActorSatellites(tx, models.KindAval, av.ID); err != nil {
			return err
		}
		if err := rs.resetActorRow(tx, models.KindAval, av.ID, ActorStub{Email: av.Email, FirstName: av.FirstName, PaternalLastName: av.PaternalLastName, Phone: av.Phone}); err != nil {
			return err
		}
	}
	return nil
}

// archiveAndDeleteGuarantors is the guarantor-type-change path: archive
// every guarantor, then remove the live rows entirely.
func (rs *ReplacementService) archiveAndDeleteGuarantors(tx *gorm.DB, policy *models.Policy, reason, actorName string) error {
	var obligors []models.JointObligor
	if err := preloadActor(tx).Find(&obligors, "policy_id = ?", policy.ID).Error; err != nil {
		return WrapDatabase(err)
	}
	for _, jo := range obligors {
		snapshot, err := snapshotJSON(jo)
		if err != nil {
			return err
		}
		h := models.JointObligorHistory{
			PolicyID: policy.ID, JointObligorID: jo.ID, Snapshot: snapshot,
			Reason: reason, ReplacedBy: actorName, ReplacedAt: time.Now(),
		}
		if err := tx.Create(&h).Error; err != nil {
			return WrapDatabase(err)
		}
		if err := rs.clearActorSatellites(tx, models.KindJointObligor, jo.ID); err != nil {
			return err
		}
		if err := tx.Delete(&models.JointObligor{}, "id = ?", jo.ID).Error; err != nil {
			return WrapDatabase(err)
		}
	}

	var avals []models.Aval
	if err := preloadActor(tx).Find(&avals, "policy_id = ?", policy.ID).Error; err != nil {
		return WrapDatabase(err)
	}
	for _, av := range avals {
		snapshot, err := snapshotJSON(av)
		if err != nil {
			return err
		}
		h := models.AvalHistory{
			PolicyID: policy.ID, AvalID: av.ID, Snapshot: snapshot,
			Reason: reason, ReplacedBy: actorName, ReplacedAt: time.Now(),
		}
		if err := tx.Create(&h).Error; err != nil {
			return WrapDatabase(err)
		}
		if err := rs.clearActorSatellites(tx, models.KindAval, av.ID); err != nil {
			return err
		}
		if err := tx.Delete(&models.Aval{}, "id = ?", av.ID).Error; err != nil {
			return WrapDatabase(err)
		}
	}
	return nil
}

// settleTenantPayments stamps completed tenant payments with a payer
// snapshot and cancels any still-pending tenant payment.
func (rs *ReplacementService) settleTenantPayments(tx *gorm.DB, policyID, payerName string) error {
	if err := tx.Model(&models.Payment{}).
		Where("policy_id = ? AND paid_by = ? AND status = ?", policyID, models.PayerTenant, models.PaymentCompleted).
		Update("payer_name_snapshot", payerName).Error; err != nil {
		return WrapDatabase(err)
	}

	now := time.Now()
	if err := tx.Model(&models.Payment{}).
		Where("policy_id = ? AND paid_by = ? AND status IN ?", policyID, models.PayerTenant,
			[]models.PaymentStatus{models.PaymentPending, models.PaymentProcessing}).
		Updates(map[string]any{
			"status":       models.PaymentCancelled,
			"cancelled_at": now,
		}).Error; err != nil {
		return WrapDatabase(err)
	}
	return nil
}

func snapshotJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, WrapDatabase(err)
	}
	return datatypes.JSON(raw), nil
}

func stubCommon(stub ActorStub) models.ActorCommon {
	return models.ActorCommon{
		PersonType:       defaultPersonType(stub.PersonType),
		FirstName:        stub.FirstName,
		PaternalLastName: stub.PaternalLastName,
		MaternalLastName: stub.MaternalLastName,
		CompanyName:      stub.CompanyName,
		Email:            stub.Email,
		Phone:            stub.Phone,
	}
}

func defaultPersonType(pt models.PersonType) models.PersonType {
	if pt == "" {
		return models.PersonIndividual
	}
	return pt
}

func displayNameOf(c models.ActorCommon) string {
	if c.PersonType == models.PersonCompany {
		return c.CompanyName
	}
	name := c.FirstName
	if c.PaternalLastName != "" {
		name += " " + c.PaternalLastName
	}
	if c.MaternalLastName != "" {
		name += " " + c.MaternalLastName
	}
	return name
}
