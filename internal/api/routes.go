package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netoho/hestia-app-staging-sub000/internal/api/handlers"
	"github.com/netoho/hestia-app-staging-sub000/internal/api/middleware"
	"github.com/netoho/hestia-app-staging-sub000/internal/services"
	"github.com/netoho/hestia-app-staging-sub000/pkg/metrics"
	"go.uber.org/zap"
)

type Router struct {
	engine            *gin.Engine
	logger            *zap.Logger
	metrics           *metrics.MetricsCollector
	authHandler       *handlers.AuthHandler
	policyHandler     *handlers.PolicyHandler
	actorHandler      *handlers.ActorHandler
	validationHandler *handlers.ValidationHandler
	authMiddleware    *middleware.AuthMiddleware
	reqMiddleware     *middleware.RequestMiddleware
}

func NewRouter(
	logger *zap.Logger,
	mc *metrics.MetricsCollector,
	auth *services.AuthService,
	policies *services.PolicyService,
	workflow *services.WorkflowService,
	validation *services.ValidationService,
	replacement *services.ReplacementService,
	pricing *services.PricingService,
	tokens *services.TokenService,
	store *services.ObjectStore,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger)
	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())

	return &Router{
		engine:            engine,
		logger:            logger,
		metrics:           mc,
		authHandler:       handlers.NewAuthHandler(auth, logger),
		policyHandler:     handlers.NewPolicyHandler(policies, workflow, replacement, pricing, logger),
		actorHandler:      handlers.NewActorHandler(policies, validation, tokens, store, logger),
		validationHandler: handlers.NewValidationHandler(validation, logger),
		authMiddleware:    middleware.NewAuthMiddleware(auth),
		reqMiddleware:     reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "hestia"})
	})

	r.engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  r.metrics.GetCounters(),
			"latencies": r.metrics.GetLatencies(),
		})
	})

	r.engine.POST("/api/auth/login", r.authHandler.Login)

	admin := r.engine.Group("/api")
	admin.Use(r.authMiddleware.RequireAdmin())
	{
		admin.POST("/policies", r.policyHandler.Create)
		admin.GET("/policies", r.policyHandler.List)
		admin.GET("/policies/:id", r.policyHandler.Get)
		admin.GET("/policies/:id/quote", r.policyHandler.Quote)
		admin.POST("/policies/:id/transition", r.policyHandler.Transition)
		admin.POST("/policies/:id/cancel", r.policyHandler.Cancel)
		admin.POST("/policies/:id/replace-tenant", r.policyHandler.ReplaceTenant)
		admin.POST("/policies/:id/guarantor-type", r.policyHandler.ChangeGuarantorType)

		admin.POST("/validations/section", r.validationHandler.ValidateSection)
		admin.POST("/validations/document", r.validationHandler.ValidateDocument)

		admin.POST("/actors/:kind/:id/submit", r.actorHandler.AdminSubmit)
		admin.POST("/actors/:kind/:id/regenerate-token", r.actorHandler.RegenerateToken)
	}

	selfService := r.engine.Group("/api/actor")
	{
		selfService.GET("/:token", r.actorHandler.Get)
		selfService.PUT("/:token", r.actorHandler.Save)
		selfService.POST("/:token/documents", r.actorHandler.UploadDocument)
		selfService.GET("/:token/documents/:docId", r.actorHandler.DownloadDocument)
		selfService.POST("/:token/submit", r.actorHandler.Submit)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	r.logger.Info("starting HTTP server", zap.String("address", addr))
	return r.engine.Run(addr)
}
