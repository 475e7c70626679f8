package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PolicyService handles policy CRUD and the actor self-service data
// entry that precedes submission.
type PolicyService struct {
	db       *gorm.DB
	logger   *zap.Logger
	metrics  *metrics.MetricsCollector
	pricing  *PricingService
	tokens   *TokenService
	notifier Notifier
}

func NewPolicyService(db *gorm.DB, logger *zap.Logger, mc *metrics.MetricsCollector, pricing *PricingService, tokens *TokenService, notifier Notifier) *PolicyService {
	return &PolicyService{
		db:       db,
		logger:   logger.With(zap.String("service", "policy_service")),
		metrics:  mc,
		pricing:  pricing,
		tokens:   tokens,
		notifier: notifier,
	}
}

// CreatePolicyInput is the admin-facing creation payload. Tenant and
// landlord stubs seed the actor rows; invitations go out post-commit.
type CreatePolicyInput struct {
	RentAmount     float64              `json:"rent_amount" binding:"required"`
	ContractLength int                  `json:"contract_length"`
	GuarantorType  models.GuarantorType `json:"guarantor_type"`
	PropertyAddr   string               `json:"property_address"`
	ManagerEmail   string               `json:"manager_email"`
	Tenant         *ActorStub           `json:"tenant"`
	Landlord       *ActorStub           `json:"landlord"`
}

// CreatePolicy creates a DRAFT policy, prices it, seeds the tenant and
// primary landlord rows with access tokens and logs the creation.
func (ps *PolicyService) CreatePolicy(ctx context.Context, in CreatePolicyInput, actorName string) (*models.Policy, error) {
	if in.RentAmount <= 0 {
		return nil, ValidationError("rentAmount must be positive")
	}
	if in.ContractLength <= 0 {
		in.ContractLength = 12
	}
	if in.GuarantorType == "" {
		in.GuarantorType = models.GuarantorNone
	}
	if in.Tenant != nil {
		if err := in.Tenant.validate(); err != nil {
			return nil, err
		}
	}
	if in.Landlord != nil {
		if err := in.Landlord.validate(); err != nil {
			return nil, err
		}
	}

	policy := models.Policy{
		PolicyNumber:   newPolicyNumber(),
		Status:         models.StatusDraft,
		GuarantorType:  in.GuarantorType,
		RentAmount:     in.RentAmount,
		ContractLength: in.ContractLength,
		PremiumAmount:  ps.pricing.Quote(in.RentAmount, in.ContractLength, in.GuarantorType),
		PropertyAddr:   in.PropertyAddr,
		ManagerEmail:   in.ManagerEmail,
	}

	post := NewPostCommit(ps.logger)
	var invitations []models.ActorKind
	var inviteEmails []string

	err := ps.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&policy).Error; err != nil {
			return WrapDatabase(err)
		}

		if in.Tenant != nil {
			tenant := models.Tenant{PolicyID: policy.ID, ActorCommon: stubCommon(*in.Tenant)}
			if err := tx.Create(&tenant).Error; err != nil {
				return WrapDatabase(err)
			}
			if _, err := ps.tokens.Assign(tx, models.KindTenant, tenant.ID); err != nil {
				return err
			}
			invitations = append(invitations, models.KindTenant)
			inviteEmails = append(inviteEmails, in.Tenant.Email)
		}

		if in.Landlord != nil {
			landlord := models.Landlord{PolicyID: policy.ID, IsPrimary: true, ActorCommon: stubCommon(*in.Landlord)}
			if err := tx.Create(&landlord).Error; err != nil {
				return WrapDatabase(err)
			}
			if _, err := ps.tokens.Assign(tx, models.KindLandlord, landlord.ID); err != nil {
				return err
			}
			invitations = append(invitations, models.KindLandlord)
			inviteEmails = append(inviteEmails, in.Landlord.Email)
		}

		return logActivity(tx, policy.ID, models.ActionPolicyCreated,
			fmt.Sprintf("policy %s created", policy.PolicyNumber), actorName,
			map[string]any{
				"rent_amount":    in.RentAmount,
				"guarantor_type": in.GuarantorType,
				"premium":        policy.PremiumAmount,
			})
	})
	if err != nil {
		return nil, err
	}

	ps.metrics.IncrementCounter("policies_created", nil)
	for i := range invitations {
		kind, email := invitations[i], inviteEmails[i]
		post.Add("send invitation", func() error {
			return ps.notifier.Send(context.Background(), TemplateActorInvitation, email, map[string]any{
				"policy_number": policy.PolicyNumber,
				"actor_kind":    kind,
			})
		})
	}
	post.Run()

	ps.logger.Info("policy created",
		zap.String("policy_id", policy.ID),
		zap.String("policy_number", policy.PolicyNumber))
	return &policy, nil
}

// GetPolicy loads a policy with every relation the review UI shows.
func (ps *PolicyService) GetPolicy(ctx context.Context, policyID string) (*models.Policy, error) {
	var policy models.Policy
	err := ps.db.
		Preload("Tenant").Preload("Tenant.Addresses").Preload("Tenant.References").
		Preload("Tenant.Documents").Preload("Tenant.Documents.Validation").
		Preload("Landlords").Preload("Landlords.Addresses").Preload("Landlords.Documents").
		Preload("JointObligors").Preload("JointObligors.Addresses").Preload("JointObligors.Documents").
		Preload("Avals").Preload("Avals.Addresses").Preload("Avals.References").Preload("Avals.Documents").
		Preload("Investigation").
		Preload("Contracts").
		Preload("Payments").
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(50)
		}).
		First(&policy, "id = ?", policyID).Error
	if err != nil {
		return nil, notFoundOrDB("policy", policyID, err)
	}
	return &policy, nil
}

// ListPolicies returns policies newest-first, optionally filtered by
// status.
func (ps *PolicyService) ListPolicies(ctx context.Context, status models.PolicyStatus, limit, offset int) ([]models.Policy, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := ps.db.Model(&models.Policy{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, WrapDatabase(err)
	}

	var policies []models.Policy
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&policies).Error; err != nil {
		return nil, 0, WrapDatabase(err)
	}
	return policies, total, nil
}

// SaveActorInput is the self-service partial update payload. Nil
// pointers leave columns untouched so actors can save progressively.
type SaveActorInput struct {
	PersonType *models.PersonType `json:"person_type"`

	FirstName        *string    `json:"first_name"`
	MiddleName       *string    `json:"middle_name"`
	PaternalLastName *string    `json:"paternal_last_name"`
	MaternalLastName *string    `json:"maternal_last_name"`
	Email            *string    `json:"email"`
	Phone            *string    `json:"phone"`
	Nationality      *string    `json:"nationality"`
	CURP             *string    `json:"curp"`
	RFC              *string    `json:"rfc"`
	BirthDate        *time.Time `json:"birth_date"`

	CompanyName  *string `json:"company_name"`
	LegalRepName *string `json:"legal_rep_name"`

	Occupation    *string  `json:"occupation"`
	EmployerName  *string  `json:"employer_name"`
	MonthlyIncome *float64 `json:"monthly_income"`

	BankName    *string `json:"bank_name"`
	BankAccount *string `json:"bank_account"`
	CLABE       *string `json:"clabe"`

	GuaranteeMethod      *models.GuaranteeMethod `json:"guarantee_method"`
	PropertyDeedNumber   *string                 `json:"property_deed_number"`
	PropertyRegistryInfo *string                 `json:"property_registry_info"`
	PropertyAddress      *string                 `json:"property_address"`

	Addresses  []models.Address   `json:"addresses"`
	References []models.Reference `json:"references"`
}

// SaveActor applies a partial update to the actor's own record, replacing
// addresses and references wholesale when provided.
func (ps *PolicyService) SaveActor(ctx context.Context, actor *Actor, in SaveActorInput) error {
	values := map[string]any{}
	setStr := func(col string, v *string) {
		if v != nil {
			values[col] = *v
		}
	}
	setStr("first_name", in.FirstName)
	setStr("middle_name", in.MiddleName)
	setStr("paternal_last_name", in.PaternalLastName)
	setStr("maternal_last_name", in.MaternalLastName)
	setStr("email", in.Email)
	setStr("phone", in.Phone)
	setStr("nationality", in.Nationality)
	setStr("curp", in.CURP)
	setStr("rfc", in.RFC)
	setStr("company_name", in.CompanyName)
	setStr("legal_rep_name", in.LegalRepName)
	setStr("occupation", in.Occupation)
	setStr("employer_name", in.EmployerName)
	if in.PersonType != nil {
		values["person_type"] = *in.PersonType
	}
	if in.BirthDate != nil {
		values["birth_date"] = *in.BirthDate
	}
	if in.MonthlyIncome != nil {
		values["monthly_income"] = *in.MonthlyIncome
	}

	switch actor.Kind {
	case models.KindLandlord:
		setStr("bank_name", in.BankName)
		setStr("bank_account", in.BankAccount)
		setStr("clabe", in.CLABE)
	case models.KindJointObligor:
		if in.GuaranteeMethod != nil {
			values["guarantee_method"] = *in.GuaranteeMethod
		}
		setStr("property_deed_number", in.PropertyDeedNumber)
		setStr("property_registry_info", in.PropertyRegistryInfo)
		setStr("property_address", in.PropertyAddress)
	case models.KindAval:
		setStr("property_deed_number", in.PropertyDeedNumber)
		setStr("property_registry_info", in.PropertyRegistryInfo)
		setStr("property_address", in.PropertyAddress)
	}

	return ps.db.Transaction(func(tx *gorm.DB) error {
		if len(values) > 0 {
			if err := updateActorColumns(tx, actor.Kind, actor.ID, values); err != nil {
				return err
			}
		}

		if in.Addresses != nil {
			if err := tx.Where("actor_id = ? AND actor_type = ?", actor.ID, string(actor.Kind)).
				Delete(&models.Address{}).Error; err != nil {
				return WrapDatabase(err)
			}
			for i := range in.Addresses {
				in.Addresses[i].ID = ""
				in.Addresses[i].ActorID = actor.ID
				in.Addresses[i].ActorType = string(actor.Kind)
				if err := tx.Create(&in.Addresses[i]).Error; err != nil {
					return WrapDatabase(err)
				}
			}
		}

		if in.References != nil {
			if err := tx.Where("actor_id = ? AND actor_type = ?", actor.ID, string(actor.Kind)).
				Delete(&models.Reference{}).Error; err != nil {
				return WrapDatabase(err)
			}
			for i := range in.References {
				in.References[i].ID = ""
				in.References[i].ActorID = actor.ID
				in.References[i].ActorType = string(actor.Kind)
				if err := tx.Create(&in.References[i]).Error; err != nil {
					return WrapDatabase(err)
				}
			}
		}

		return nil
	})
}

// AttachDocument records an uploaded file against the actor.
func (ps *PolicyService) AttachDocument(ctx context.Context, actor *Actor, category models.DocumentCategory, fileName, fileKey, contentType string, size int64) (*models.Document, error) {
	if category == "" {
		return nil, ValidationError("document category is required")
	}
	actorID := actor.ID
	doc := models.Document{
		ActorID:     &actorID,
		ActorType:   string(actor.Kind),
		Category:    category,
		FileName:    fileName,
		FileKey:     fileKey,
		ContentType: contentType,
		SizeBytes:   size,
	}
	err := ps.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return WrapDatabase(err)
		}
		return logActivity(tx, actor.PolicyID, models.ActionDocumentUploaded,
			fmt.Sprintf("%s uploaded %s", kindLabel(actor.Kind), category), actor.DisplayName(),
			map[string]any{"document_id": doc.ID, "category": category})
	})
	if err != nil {
		return nil, err
	}
	ps.metrics.IncrementCounter("documents_uploaded", nil)
	return &doc, nil
}

// RegenerateActorToken reissues an actor's access link and re-sends the
// invitation, for when the original email was lost or the link leaked.
func (ps *PolicyService) RegenerateActorToken(ctx context.Context, kind models.ActorKind, actorID, actorName string) error {
	actor, err := LoadActor(ps.db, kind, actorID)
	if err != nil {
		return err
	}

	post := NewPostCommit(ps.logger)
	err = ps.db.Transaction(func(tx *gorm.DB) error {
		if _, err := ps.tokens.Assign(tx, kind, actorID); err != nil {
			return err
		}
		return logActivity(tx, actor.PolicyID, models.ActionTokenRegenerated,
			fmt.Sprintf("access token regenerated for %s", kindLabel(kind)), actorName,
			map[string]any{"actor_kind": kind, "actor_id": actorID})
	})
	if err != nil {
		return err
	}

	if actor.Common.Email != "" {
		email := actor.Common.Email
		post.Add("resend invitation", func() error {
			return ps.notifier.Send(context.Background(), TemplateActorInvitation, email, map[string]any{
				"actor_kind": kind,
			})
		})
	}
	post.Run()
	return nil
}

// newPolicyNumber builds a human-quotable policy number.
func newPolicyNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("POL-%s-%s", time.Now().Format("200601"), suffix)
}
