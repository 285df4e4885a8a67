package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fieldline/crm-system/internal/api/handler"
	"github.com/fieldline/crm-system/internal/api/middleware"
	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/service"
	mongodb "github.com/fieldline/crm-system/internal/infrastructure/db/mongo"
	redisdb "github.com/fieldline/crm-system/internal/infrastructure/db/redis"
)

// RouterConfig carries the settings the router needs beyond its storage handles.
type RouterConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	ReportCacheTTL time.Duration
}

// NewRouter builds and returns the Echo instance with all routes registered.
// rdb may be nil; reports then recompute on every request.
func NewRouter(client *mongo.Client, db *mongo.Database, rdb *redis.Client, cfg RouterConfig, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("crm"))

	// --- Repositories ---
	customerRepo := mongodb.NewCustomerRepository(db)
	saleRepo := mongodb.NewSaleRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	interactionRepo := mongodb.NewInteractionRepository(db)
	txRunner := mongodb.NewTxRunner(client)

	var reportCache service.ReportCache
	if rdb != nil {
		reportCache = redisdb.NewReportCache(rdb, cfg.ReportCacheTTL)
	}

	// --- Services ---
	customerService := service.NewCustomerService(customerRepo, saleRepo, interactionRepo, log)
	saleService := service.NewSaleService(saleRepo, customerRepo, userRepo, txRunner, log)
	userService := service.NewUserService(userRepo, saleRepo, interactionRepo, log)
	interactionService := service.NewInteractionService(interactionRepo, customerRepo, userRepo, log)
	reportService := service.NewReportService(customerRepo, saleRepo, interactionRepo, userRepo, reportCache, log)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService, userService)
	customerHandler := handler.NewCustomerHandler(customerService)
	saleHandler := handler.NewSaleHandler(saleService)
	userHandler := handler.NewUserHandler(userService)
	interactionHandler := handler.NewInteractionHandler(interactionService)
	reportHandler := handler.NewReportHandler(reportService)
	dashboardHandler := handler.NewDashboardHandler(reportService)

	authRequired := middleware.Auth(cfg.JWTSecret)

	allStaff := middleware.RBAC(domain.RoleAdmin, domain.RoleManager, domain.RoleSalesRep, domain.RoleSupport)
	salesStaff := middleware.RBAC(domain.RoleAdmin, domain.RoleManager, domain.RoleSalesRep)
	managers := middleware.RBAC(domain.RoleAdmin, domain.RoleManager)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth ---
	e.POST("/api/auth/login", authHandler.Login)
	e.POST("/api/auth/register", authHandler.Register, authRequired, adminOnly)

	// --- Customers ---
	customers := e.Group("/api/customers", authRequired)
	customers.POST("", customerHandler.Create, salesStaff)
	customers.GET("", customerHandler.List, allStaff)
	customers.GET("/active", customerHandler.ListActive, managers)
	customers.GET("/count", customerHandler.Count, managers)
	customers.GET("/email/:email", customerHandler.GetByEmail, allStaff)
	customers.GET("/:id", customerHandler.Get, allStaff)
	customers.PUT("/:id", customerHandler.Update, salesStaff)
	customers.PUT("/:id/deactivate", customerHandler.Deactivate, managers)
	customers.DELETE("/:id", customerHandler.Delete, adminOnly)

	// --- Sales ---
	sales := e.Group("/api/sales", authRequired)
	sales.POST("", saleHandler.Create, salesStaff)
	sales.GET("", saleHandler.List, salesStaff)
	sales.GET("/completed", saleHandler.ListCompleted, salesStaff)
	sales.GET("/canceled", saleHandler.ListCanceled, salesStaff)
	sales.GET("/status/:status", saleHandler.ListByStatus, salesStaff)
	sales.GET("/rep/:id", saleHandler.ListByRep, salesStaff)
	sales.GET("/customer/:id", saleHandler.ListByCustomer, salesStaff)
	sales.GET("/:id", saleHandler.Get, salesStaff)
	sales.PUT("/:id", saleHandler.Update, salesStaff)
	sales.DELETE("/:id", saleHandler.Delete, adminOnly)
	sales.PUT("/:id/complete", saleHandler.Complete, salesStaff)
	sales.PUT("/:id/cancel", saleHandler.Cancel, salesStaff)
	sales.PUT("/:id/pending", saleHandler.Pending, salesStaff)
	sales.PUT("/:id/status/:status", saleHandler.UpdateStatus, salesStaff)

	// --- Interactions ---
	interactions := e.Group("/api/interactions", authRequired)
	interactions.POST("", interactionHandler.Create, allStaff)
	interactions.GET("", interactionHandler.List, allStaff)
	interactions.GET("/recent", interactionHandler.ListRecent, allStaff)
	interactions.GET("/count", interactionHandler.Count, managers)
	interactions.GET("/type/:type", interactionHandler.ListByType, allStaff)
	interactions.GET("/customer/:id", interactionHandler.ListByCustomer, allStaff)
	interactions.GET("/user/:id", interactionHandler.ListByUser, allStaff)
	interactions.GET("/:id", interactionHandler.Get, allStaff)
	interactions.PUT("/:id", interactionHandler.Update, salesStaff)
	interactions.DELETE("/:id", interactionHandler.Delete, adminOnly)

	// --- Reports ---
	reports := e.Group("/api/reports", authRequired)
	reports.GET("/dashboard", reportHandler.Dashboard, salesStaff)
	reports.GET("/customer/:id/activity", reportHandler.CustomerActivity, salesStaff)
	reports.GET("/sales-trends", reportHandler.SalesTrends, managers)

	// --- Per-user dashboard ---
	e.GET("/api/dashboard/:username", dashboardHandler.UserDashboard, authRequired, allStaff)

	// --- Users (admin only) ---
	users := e.Group("/api/users", authRequired, adminOnly)
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.GET("/username/:username", userHandler.GetByUserName)
	users.GET("/email/:email", userHandler.GetByEmail)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.PUT("/:id/activate", userHandler.Activate)
	users.PUT("/:id/deactivate", userHandler.Deactivate)
	users.DELETE("/:id", userHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
