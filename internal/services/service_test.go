package services

import (
	"testing"
	"time"

	"github.com/netoho/hestia-app-staging-sub000/internal/config"
	"github.com/netoho/hestia-app-staging-sub000/internal/db"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/pkg/metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database))
	return database
}

type testEnv struct {
	db          *gorm.DB
	tokens      *TokenService
	pricing     *PricingService
	workflow    *WorkflowService
	validation  *ValidationService
	policies    *PolicyService
	replacement *ReplacementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := newTestDB(t)
	logger := zap.NewNop()
	mc := metrics.NewMetricsCollector()
	notifier := NewLogNotifier(logger)
	tokens := NewTokenService(database, logger, time.Hour)
	pricing := NewPricingService(config.PricingConfig{
		BaseRate:         0.05,
		JointObligorRate: 1.0,
		AvalRate:         1.15,
		NoGuarantorRate:  1.35,
		MinimumPremium:   3000,
	})
	workflow := NewWorkflowService(database, logger, mc, notifier)

	return &testEnv{
		db:          database,
		tokens:      tokens,
		pricing:     pricing,
		workflow:    workflow,
		validation:  NewValidationService(database, logger, mc, workflow),
		policies:    NewPolicyService(database, logger, mc, pricing, tokens, notifier),
		replacement: NewReplacementService(database, logger, mc, tokens, notifier),
	}
}

func seedPolicy(t *testing.T, database *gorm.DB, status models.PolicyStatus, gt models.GuarantorType) *models.Policy {
	t.Helper()
	policy := models.Policy{
		PolicyNumber:   newPolicyNumber(),
		Status:         status,
		GuarantorType:  gt,
		RentAmount:     15000,
		ContractLength: 12,
		ManagerEmail:   "manager@example.com",
	}
	require.NoError(t, database.Create(&policy).Error)
	return &policy
}

func completeCommon(name string) models.ActorCommon {
	birth := time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)
	return models.ActorCommon{
		PersonType:          models.PersonIndividual,
		FirstName:           name,
		PaternalLastName:    "Garcia",
		Email:               name + "@example.com",
		Phone:               "+525512345678",
		Nationality:         "MX",
		CURP:                "GAGA900314HDFRRL09",
		RFC:                 "GAGA900314AB1",
		BirthDate:           &birth,
		Occupation:          "engineer",
		EmployerName:        "Acme SA",
		MonthlyIncome:       45000,
		InformationComplete: true,
	}
}

func seedTenant(t *testing.T, database *gorm.DB, policyID string, complete bool) *models.Tenant {
	t.Helper()
	tenant := models.Tenant{PolicyID: policyID, ActorCommon: completeCommon("tenant")}
	tenant.InformationComplete = complete
	require.NoError(t, database.Create(&tenant).Error)
	return &tenant
}

func seedLandlord(t *testing.T, database *gorm.DB, policyID string, complete bool) *models.Landlord {
	t.Helper()
	landlord := models.Landlord{
		PolicyID:    policyID,
		IsPrimary:   true,
		ActorCommon: completeCommon("landlord"),
		BankName:    "BBVA",
		BankAccount: "012345678901",
		CLABE:       "012180001234567895",
	}
	landlord.InformationComplete = complete
	require.NoError(t, database.Create(&landlord).Error)
	return &landlord
}

func seedJointObligor(t *testing.T, database *gorm.DB, policyID string, complete bool) *models.JointObligor {
	t.Helper()
	jo := models.JointObligor{
		PolicyID:        policyID,
		ActorCommon:     completeCommon("obligor"),
		GuaranteeMethod: models.GuaranteeIncome,
	}
	jo.InformationComplete = complete
	require.NoError(t, database.Create(&jo).Error)
	return &jo
}

func seedAval(t *testing.T, database *gorm.DB, policyID string, complete bool) *models.Aval {
	t.Helper()
	aval := models.Aval{
		PolicyID:             policyID,
		ActorCommon:          completeCommon("aval"),
		PropertyDeedNumber:   "12345",
		PropertyRegistryInfo: "folio 777",
		PropertyAddress:      "Calle Falsa 123",
	}
	aval.InformationComplete = complete
	require.NoError(t, database.Create(&aval).Error)
	return &aval
}

func seedAddress(t *testing.T, database *gorm.DB, actorID string, kind models.ActorKind) *models.Address {
	t.Helper()
	addr := models.Address{
		ActorID:   actorID,
		ActorType: string(kind),
		Street:    "Av. Reforma",
		City:      "CDMX",
		State:     "CDMX",
		ZipCode:   "06600",
	}
	require.NoError(t, database.Create(&addr).Error)
	return &addr
}

func seedDocument(t *testing.T, database *gorm.DB, actorID string, kind models.ActorKind, cat models.DocumentCategory) *models.Document {
	t.Helper()
	doc := models.Document{
		ActorID:   &actorID,
		ActorType: string(kind),
		Category:  cat,
		FileName:  "scan.pdf",
		FileKey:   "test/" + actorID + "/" + string(cat),
	}
	require.NoError(t, database.Create(&doc).Error)
	return &doc
}
