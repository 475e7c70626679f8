package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/netoho/hestia-app-staging-sub000/internal/api"
	"github.com/netoho/hestia-app-staging-sub000/internal/config"
	"github.com/netoho/hestia-app-staging-sub000/internal/db"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/internal/services"
	"github.com/netoho/hestia-app-staging-sub000/pkg/logger"
	"github.com/netoho/hestia-app-staging-sub000/pkg/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "hestia",
		Short: "Rental policy onboarding and review backend",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to config file")

	root.AddCommand(serveCmd(), sweepCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg         *config.Configuration
	logger      *zap.Logger
	db          *gorm.DB
	metrics     *metrics.MetricsCollector
	auth        *services.AuthService
	policies    *services.PolicyService
	workflow    *services.WorkflowService
	validation  *services.ValidationService
	replacement *services.ReplacementService
	pricing     *services.PricingService
	tokens      *services.TokenService
	store       *services.ObjectStore
	notifier    services.Notifier
}

func buildApp(needStorage bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	zapLogger, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(zapLogger)

	database, err := db.Initialize(cfg)
	if err != nil {
		return nil, err
	}

	mc := metrics.NewMetricsCollector()
	notifier := services.NewLogNotifier(zapLogger)
	tokens := services.NewTokenService(database, zapLogger, cfg.Tokens.ActorTokenTTL)
	pricing := services.NewPricingService(cfg.Pricing)
	auth := services.NewAuthService(database, zapLogger, cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
	workflow := services.NewWorkflowService(database, zapLogger, mc, notifier)
	validation := services.NewValidationService(database, zapLogger, mc, workflow)
	policies := services.NewPolicyService(database, zapLogger, mc, pricing, tokens, notifier)
	replacement := services.NewReplacementService(database, zapLogger, mc, tokens, notifier)

	a := &app{
		cfg:         cfg,
		logger:      zapLogger,
		db:          database,
		metrics:     mc,
		auth:        auth,
		policies:    policies,
		workflow:    workflow,
		validation:  validation,
		replacement: replacement,
		pricing:     pricing,
		tokens:      tokens,
		notifier:    notifier,
	}

	if needStorage {
		store, err := services.NewObjectStore(&cfg.Storage, zapLogger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		a.store = store
	}

	return a, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(true)
			if err != nil {
				log.Printf("failed to initialize: %v", err)
				return err
			}
			defer a.logger.Sync()

			if err := seedAdmin(a.db, a.logger); err != nil {
				a.logger.Fatal("failed to seed admin account", zap.Error(err))
			}

			router := api.NewRouter(a.logger, a.metrics, a.auth, a.policies, a.workflow,
				a.validation, a.replacement, a.pricing, a.tokens, a.store)
			router.SetupRoutes()

			go func() {
				if err := router.Run(":" + a.cfg.Server.Port); err != nil {
					a.logger.Fatal("failed to start server", zap.Error(err))
				}
			}()
			a.logger.Info("server started", zap.String("port", a.cfg.Server.Port))

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			a.logger.Info("shutting down server...")

			if sqlDB, err := a.db.DB(); err == nil {
				sqlDB.Close()
			}
			a.logger.Info("server gracefully stopped")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the auto-transition batch once and exit (cron target)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(false)
			if err != nil {
				log.Printf("failed to initialize: %v", err)
				return err
			}
			defer a.logger.Sync()

			result, err := a.workflow.AutoTransitionPolicies(context.Background())
			if err != nil {
				a.logger.Error("sweep failed", zap.Error(err))
				return err
			}
			a.logger.Info("sweep complete",
				zap.Strings("promoted", result.Promoted),
				zap.Strings("expired", result.Expired))
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(false)
			if err != nil {
				log.Printf("failed to initialize: %v", err)
				return err
			}
			defer a.logger.Sync()
			a.logger.Info("schema migration complete")
			return nil
		},
	}
}

// seedAdmin creates the bootstrap reviewer account when the user table
// is empty. Password comes from ADMIN_PASSWORD or a dev default.
func seedAdmin(database *gorm.DB, zapLogger *zap.Logger) error {
	var count int64
	if err := database.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme-admin"
	}
	hash, err := services.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        "admin@hestia.local",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		FirstName:    "Admin",
		ActiveStatus: true,
	}
	if err := database.Create(&admin).Error; err != nil {
		return err
	}
	zapLogger.Info("seeded bootstrap admin account", zap.String("email", admin.Email))
	return nil
}
