// Command server starts the CRM HTTP API.
//
// Startup sequence: load configuration, initialise the logger, connect to
// MongoDB (required) and Redis (optional, report cache only), ensure indexes,
// seed the bootstrap admin account, then serve until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/fieldline/crm-system/docs"
	"github.com/fieldline/crm-system/internal/api"
	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
	"github.com/fieldline/crm-system/internal/core/service"
	"github.com/fieldline/crm-system/internal/infrastructure/config"
	mongodb "github.com/fieldline/crm-system/internal/infrastructure/db/mongo"
	redisdb "github.com/fieldline/crm-system/internal/infrastructure/db/redis"
	"github.com/fieldline/crm-system/pkg/logger"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 30 * time.Second
	tokenTTL        = 24 * time.Hour
)

// @title        CRM System API
// @version      1.0
// @description  Customer relationship management backend: customers, sales
// @description  with a consistent purchase ledger, interactions and reports.
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// --- MongoDB (required) ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// --- Redis (optional: report cache) ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, reports will recompute on every request")
		rdb = nil
	}

	if err := seedAdmin(ctx, db, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	e := api.NewRouter(client, db, rdb, api.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       tokenTTL,
		ReportCacheTTL: cfg.Redis.CacheTTL,
	}, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, r := range []interface {
		EnsureIndexes(ctx context.Context) error
	}{
		mongodb.NewCustomerRepository(db),
		mongodb.NewSaleRepository(db),
		mongodb.NewUserRepository(db),
		mongodb.NewInteractionRepository(db),
	} {
		if err := r.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// seedAdmin creates the bootstrap ADMIN account on first start so the
// admin-gated registration endpoint is reachable. A missing seed password
// skips seeding entirely.
func seedAdmin(ctx context.Context, db *mongo.Database, cfg *config.Config, log zerolog.Logger) error {
	if cfg.Seed.AdminPassword == "" {
		log.Info().Msg("SEED_ADMIN_PASSWORD not set, skipping admin seeding")
		return nil
	}

	userRepo := mongodb.NewUserRepository(db)
	if _, err := userRepo.FindByUserName(ctx, cfg.Seed.AdminUserName); err == nil {
		return nil // already seeded
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	users := service.NewUserService(userRepo, mongodb.NewSaleRepository(db), mongodb.NewInteractionRepository(db), log)
	role := domain.RoleAdmin
	_, err := users.CreateUser(ctx, ports.CreateUserInput{
		UserName:  cfg.Seed.AdminUserName,
		Email:     cfg.Seed.AdminEmail,
		Password:  cfg.Seed.AdminPassword,
		FirstName: "System",
		LastName:  "Admin",
		Role:      &role,
	})
	if err != nil {
		return err
	}

	log.Info().Str("user_name", cfg.Seed.AdminUserName).Msg("seeded bootstrap admin account")
	return nil
}
