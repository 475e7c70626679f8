package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePolicy(t *testing.T) {
	env := newTestEnv(t)

	tenantStub := ActorStub{FirstName: "Laura", PaternalLastName: "Rios", Email: "laura@example.com"}
	landlordStub := ActorStub{FirstName: "Oscar", PaternalLastName: "Vega", Email: "oscar@example.com"}

	policy, err := env.policies.CreatePolicy(context.Background(), CreatePolicyInput{
		RentAmount:    15000,
		GuarantorType: models.GuarantorJointObligor,
		PropertyAddr:  "Av. Insurgentes 100",
		ManagerEmail:  "manager@example.com",
		Tenant:        &tenantStub,
		Landlord:      &landlordStub,
	}, "admin")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^POL-\d{6}-[0-9A-F]{8}$`), policy.PolicyNumber)
	assert.Equal(t, models.StatusDraft, policy.Status)
	assert.Equal(t, 12, policy.ContractLength, "contract length defaults to a year")
	assert.InDelta(t, 9000, policy.PremiumAmount, 0.01)

	var tenant models.Tenant
	require.NoError(t, env.db.First(&tenant, "policy_id = ?", policy.ID).Error)
	assert.Equal(t, "laura@example.com", tenant.Email)
	assert.NotEmpty(t, tenant.AccessToken, "the invitation token is assigned at creation")

	var landlord models.Landlord
	require.NoError(t, env.db.First(&landlord, "policy_id = ?", policy.ID).Error)
	assert.True(t, landlord.IsPrimary)
	assert.NotEmpty(t, landlord.AccessToken)

	var activity models.PolicyActivity
	require.NoError(t, env.db.First(&activity, "policy_id = ? AND action = ?", policy.ID, models.ActionPolicyCreated).Error)
	assert.Equal(t, "admin", activity.PerformedBy)
}

func TestCreatePolicyRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.policies.CreatePolicy(context.Background(), CreatePolicyInput{RentAmount: 0}, "admin")
	require.Error(t, err)
	assert.Equal(t, ErrValidation, KindOf(err))

	badStub := ActorStub{FirstName: "NoEmail"}
	_, err = env.policies.CreatePolicy(context.Background(), CreatePolicyInput{
		RentAmount: 10000,
		Tenant:     &badStub,
	}, "admin")
	require.Error(t, err)
	assert.Equal(t, ErrValidation, KindOf(err))
}

func TestGetPolicyLoadsRelations(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	tenant := seedTenant(t, env.db, policy.ID, false)
	seedLandlord(t, env.db, policy.ID, false)
	seedDocument(t, env.db, tenant.ID, models.KindTenant, models.DocIdentificationINE)

	loaded, err := env.policies.GetPolicy(context.Background(), policy.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Tenant)
	assert.Equal(t, tenant.ID, loaded.Tenant.ID)
	assert.Len(t, loaded.Tenant.Documents, 1)
	assert.Len(t, loaded.Landlords, 1)

	_, err = env.policies.GetPolicy(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, ErrNotFound, KindOf(err))
}

func TestListPoliciesFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	seedPolicy(t, env.db, models.StatusDraft, models.GuarantorNone)
	seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)

	all, total, err := env.policies.ListPolicies(context.Background(), "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.EqualValues(t, 3, total)

	collecting, total, err := env.policies.ListPolicies(context.Background(), models.StatusCollectingInfo, 10, 0)
	require.NoError(t, err)
	assert.Len(t, collecting, 2)
	assert.EqualValues(t, 2, total)

	page, total, err := env.policies.ListPolicies(context.Background(), "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.EqualValues(t, 3, total)
}

func TestSaveActorPartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	tenant := seedTenant(t, env.db, policy.ID, false)

	actor, err := LoadActor(env.db, models.KindTenant, tenant.ID)
	require.NoError(t, err)

	occupation := "architect"
	income := 61000.0
	require.NoError(t, env.policies.SaveActor(context.Background(), actor, SaveActorInput{
		Occupation:    &occupation,
		MonthlyIncome: &income,
	}))

	var reloaded models.Tenant
	require.NoError(t, env.db.First(&reloaded, "id = ?", tenant.ID).Error)
	assert.Equal(t, "architect", reloaded.Occupation)
	assert.InDelta(t, 61000, reloaded.MonthlyIncome, 0.01)
	assert.Equal(t, tenant.Email, reloaded.Email, "untouched fields survive a partial save")
}

func TestSaveActorReplacesAddresses(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	tenant := seedTenant(t, env.db, policy.ID, false)
	seedAddress(t, env.db, tenant.ID, models.KindTenant)
	seedAddress(t, env.db, tenant.ID, models.KindTenant)

	actor, err := LoadActor(env.db, models.KindTenant, tenant.ID)
	require.NoError(t, err)

	require.NoError(t, env.policies.SaveActor(context.Background(), actor, SaveActorInput{
		Addresses: []models.Address{{Street: "Nueva 1", City: "Guadalajara", State: "JAL", ZipCode: "44100"}},
	}))

	var addresses []models.Address
	require.NoError(t, env.db.Find(&addresses, "actor_id = ?", tenant.ID).Error)
	require.Len(t, addresses, 1, "provided addresses replace the old set wholesale")
	assert.Equal(t, "Nueva 1", addresses[0].Street)
}

func TestSaveActorKindSpecificColumns(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorJointObligor)
	jo := seedJointObligor(t, env.db, policy.ID, false)

	actor, err := LoadActor(env.db, models.KindJointObligor, jo.ID)
	require.NoError(t, err)

	method := models.GuaranteeProperty
	deed := "777"
	require.NoError(t, env.policies.SaveActor(context.Background(), actor, SaveActorInput{
		GuaranteeMethod:    &method,
		PropertyDeedNumber: &deed,
	}))

	var reloaded models.JointObligor
	require.NoError(t, env.db.First(&reloaded, "id = ?", jo.ID).Error)
	assert.Equal(t, models.GuaranteeProperty, reloaded.GuaranteeMethod)
	assert.Equal(t, "777", reloaded.PropertyDeedNumber)
}

func TestRegenerateActorToken(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	tenant := seedTenant(t, env.db, policy.ID, false)

	oldToken, err := env.tokens.Assign(env.db, models.KindTenant, tenant.ID)
	require.NoError(t, err)

	require.NoError(t, env.policies.RegenerateActorToken(context.Background(), models.KindTenant, tenant.ID, "admin"))

	var reloaded models.Tenant
	require.NoError(t, env.db.First(&reloaded, "id = ?", tenant.ID).Error)
	assert.NotEmpty(t, reloaded.AccessToken)
	assert.NotEqual(t, oldToken, reloaded.AccessToken)

	var activity models.PolicyActivity
	require.NoError(t, env.db.First(&activity, "policy_id = ? AND action = ?", policy.ID, models.ActionTokenRegenerated).Error)
	assert.Equal(t, "admin", activity.PerformedBy)
}

func TestAttachDocument(t *testing.T) {
	env := newTestEnv(t)
	policy := seedPolicy(t, env.db, models.StatusCollectingInfo, models.GuarantorNone)
	tenant := seedTenant(t, env.db, policy.ID, false)

	actor, err := LoadActor(env.db, models.KindTenant, tenant.ID)
	require.NoError(t, err)

	_, err = env.policies.AttachDocument(context.Background(), actor, "", "x.pdf", "k", "application/pdf", 10)
	require.Error(t, err)
	assert.Equal(t, ErrValidation, KindOf(err))

	doc, err := env.policies.AttachDocument(context.Background(), actor,
		models.DocIdentificationINE, "ine.pdf", "docs/ine.pdf", "application/pdf", 2048)
	require.NoError(t, err)
	require.NotNil(t, doc.ActorID)
	assert.Equal(t, tenant.ID, *doc.ActorID)
	assert.Equal(t, string(models.KindTenant), doc.ActorType)

	var activity models.PolicyActivity
	require.NoError(t, env.db.First(&activity, "policy_id = ? AND action = ?", policy.ID, models.ActionDocumentUploaded).Error)
	assert.Contains(t, activity.Description, string(models.DocIdentificationINE))
}
