package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netoho/hestia-app-staging-sub000/internal/config"
	"github.com/netoho/hestia-app-staging-sub000/internal/db"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/internal/services"
	"github.com/netoho/hestia-app-staging-sub000/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type apiFixture struct {
	router *Router
	db     *gorm.DB
	admin  *models.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(database))

	logger := zap.NewNop()
	mc := metrics.NewMetricsCollector()
	notifier := services.NewLogNotifier(logger)
	tokens := services.NewTokenService(database, logger, time.Hour)
	pricing := services.NewPricingService(config.PricingConfig{
		BaseRate: 0.05, JointObligorRate: 1.0, AvalRate: 1.15, NoGuarantorRate: 1.35, MinimumPremium: 3000,
	})
	auth := services.NewAuthService(database, logger, "test-secret", time.Hour)
	workflow := services.NewWorkflowService(database, logger, mc, notifier)
	validation := services.NewValidationService(database, logger, mc, workflow)
	policies := services.NewPolicyService(database, logger, mc, pricing, tokens, notifier)
	replacement := services.NewReplacementService(database, logger, mc, tokens, notifier)

	hash, err := services.HashPassword("admin-pass")
	require.NoError(t, err)
	admin := models.User{Email: "admin@example.com", PasswordHash: hash, Role: models.RoleAdmin, ActiveStatus: true}
	require.NoError(t, database.Create(&admin).Error)

	// object storage is nil: these tests never touch the document routes
	router := NewRouter(logger, mc, auth, policies, workflow, validation, replacement, pricing, tokens, nil)
	router.SetupRoutes()

	return &apiFixture{router: router, db: database, admin: &admin}
}

func (f *apiFixture) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.GetEngine().ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "admin-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"up"`)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/policies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/policies", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "nope",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAndFetchPolicy(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/policies", token, gin.H{
		"rent_amount":    15000,
		"guarantor_type": models.GuarantorJointObligor,
		"tenant":         gin.H{"first_name": "Laura", "email": "laura@example.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Policy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.StatusDraft, created.Status)

	rec = f.do(t, http.MethodGet, "/api/policies/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched models.Policy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.PolicyNumber, fetched.PolicyNumber)
	require.NotNil(t, fetched.Tenant)
	assert.Equal(t, "laura@example.com", fetched.Tenant.Email)
}

func TestTransitionEndpointMapsStateErrors(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/policies", token, gin.H{"rent_amount": 12000})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Policy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// illegal jump: DRAFT -> ACTIVE is a conflict, not a server error
	rec = f.do(t, http.MethodPost, "/api/policies/"+created.ID+"/transition", token, gin.H{
		"status": models.StatusActive,
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/policies/"+created.ID+"/transition", token, gin.H{
		"status": models.StatusCollectingInfo,
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestActorSelfServiceFlow(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/policies", token, gin.H{
		"rent_amount": 18000,
		"tenant":      gin.H{"first_name": "Hugo", "email": "hugo@example.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Policy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	var tenant models.Tenant
	require.NoError(t, f.db.First(&tenant, "policy_id = ?", created.ID).Error)
	require.NotEmpty(t, tenant.AccessToken)

	rec = f.do(t, http.MethodGet, "/api/actor/"+tenant.AccessToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"missing_documents"`)

	rec = f.do(t, http.MethodPut, "/api/actor/"+tenant.AccessToken, "", gin.H{
		"occupation": "chef",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reloaded models.Tenant
	require.NoError(t, f.db.First(&reloaded, "id = ?", tenant.ID).Error)
	assert.Equal(t, "chef", reloaded.Occupation)

	// submitting while incomplete is rejected with the validation status
	rec = f.do(t, http.MethodPost, "/api/actor/"+tenant.AccessToken+"/submit", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/actor/bogus-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQuoteEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/policies", token, gin.H{
		"rent_amount":    15000,
		"guarantor_type": models.GuarantorAval,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Policy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.do(t, http.MethodGet, "/api/policies/"+created.ID+"/quote", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote struct {
		Premium float64 `json:"premium"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.InDelta(t, 15000*12*0.05*1.15, quote.Premium, 0.01)
}
