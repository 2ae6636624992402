package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/luigy23/BackComandapp/internal/auth"
	"github.com/luigy23/BackComandapp/internal/category"
	"github.com/luigy23/BackComandapp/internal/db"
	"github.com/luigy23/BackComandapp/internal/maintenance"
	"github.com/luigy23/BackComandapp/internal/observability"
	"github.com/luigy23/BackComandapp/internal/order"
	"github.com/luigy23/BackComandapp/internal/product"
	"github.com/luigy23/BackComandapp/internal/table"
	"github.com/luigy23/BackComandapp/internal/user"
	"github.com/luigy23/BackComandapp/internal/web"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// Build wires the whole application and returns its root handler. Both the
// long-running server and the serverless entry share it.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	attempts := auth.NewAttemptTracker(
		envIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		envMinutesOrDefault("LOGIN_LOCK_MINUTES", 15),
	)

	authRepo := auth.NewRepository(database)
	authService := auth.NewService(authRepo, attempts, jwtSecret)
	authService.WithTokenTTL(envHoursOrDefault("TOKEN_TTL_HOURS", 24))
	authHandler := auth.NewHandler(authService)

	if adminEmail := strings.TrimSpace(os.Getenv("ADMIN_EMAIL")); adminEmail != "" {
		adminName := envOrDefault("ADMIN_NAME", "Admin System")
		if err := authRepo.EnsureAdmin(context.Background(), adminName, adminEmail, os.Getenv("ADMIN_PASSWORD")); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	cleanupHandler := maintenance.NewCleanupHandler(attempts, logger, os.Getenv("CRON_SECRET"))

	tableRepo := table.NewRepository(database)
	tableHandler := table.NewHandler(tableRepo)
	tableCategoryHandler := table.NewCategoryHandler(tableRepo)

	categoryRepo := category.NewRepository(database)
	categoryHandler := category.NewHandler(categoryRepo)

	productRepo := product.NewRepository(database)
	productHandler := product.NewHandler(productRepo)

	orderRepo := order.NewRepository(database)
	orderHandler := order.NewHandler(orderRepo, order.NewLogNotifier(logger))

	userRepo := user.NewRepository(database)
	userHandler := user.NewHandler(userRepo)
	roleHandler := user.NewRoleHandler(userRepo)

	loginThrottle := auth.NewLoginThrottle(
		envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
	)

	metrics := observability.NewMetrics()

	authed := func(permission string, h http.HandlerFunc) http.Handler {
		return auth.Middleware(jwtSecret, auth.RequirePermission(authRepo, permission, h))
	}
	authedAny := func(permissions []string, h http.HandlerFunc) http.Handler {
		return auth.Middleware(jwtSecret, auth.RequireAnyPermission(authRepo, permissions, h))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /auth/login", loginThrottle.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /auth/register", authHandler.Register)

	mux.HandleFunc("GET /health", healthHandler(database))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)

	mux.Handle("GET /tables", auth.Middleware(jwtSecret, http.HandlerFunc(tableHandler.List)))
	mux.Handle("GET /tables/{id}", auth.Middleware(jwtSecret, http.HandlerFunc(tableHandler.Get)))
	mux.Handle("POST /tables", authed(user.PermManageTables, tableHandler.Create))
	mux.Handle("PUT /tables/{id}", authed(user.PermManageTables, tableHandler.Update))
	mux.Handle("DELETE /tables/{id}", authed(user.PermManageTables, tableHandler.Delete))

	mux.Handle("GET /table-categories", auth.Middleware(jwtSecret, http.HandlerFunc(tableCategoryHandler.List)))
	mux.Handle("GET /table-categories/{id}", auth.Middleware(jwtSecret, http.HandlerFunc(tableCategoryHandler.Get)))
	mux.Handle("POST /table-categories", authed(user.PermManageTables, tableCategoryHandler.Create))
	mux.Handle("PUT /table-categories/{id}", authed(user.PermManageTables, tableCategoryHandler.Update))
	mux.Handle("DELETE /table-categories/{id}", authed(user.PermManageTables, tableCategoryHandler.Delete))

	mux.HandleFunc("GET /categories", categoryHandler.List)
	mux.HandleFunc("GET /categories/{id}", categoryHandler.Get)
	mux.Handle("POST /categories", authed(user.PermManageCategories, categoryHandler.Create))
	mux.Handle("PUT /categories/{id}", authed(user.PermManageCategories, categoryHandler.Update))
	mux.Handle("DELETE /categories/{id}", authed(user.PermManageCategories, categoryHandler.Delete))

	mux.HandleFunc("GET /products", productHandler.List)
	mux.HandleFunc("GET /products/{id}", productHandler.Get)
	mux.Handle("POST /products", authed(user.PermManageProducts, productHandler.Create))
	mux.Handle("PUT /products/{id}", authed(user.PermManageProducts, productHandler.Update))
	mux.Handle("DELETE /products/{id}", authed(user.PermManageProducts, productHandler.Delete))

	kitchenOrWaiter := []string{user.PermManageOrders, user.PermKitchenAccess}
	mux.Handle("POST /orders", authed(user.PermManageOrders, orderHandler.Create))
	mux.Handle("GET /orders", authedAny(kitchenOrWaiter, orderHandler.List))
	mux.Handle("GET /orders/{id}", authedAny(kitchenOrWaiter, orderHandler.Get))
	mux.Handle("GET /orders/table/{tableId}", authedAny(kitchenOrWaiter, orderHandler.ListByTable))
	mux.Handle("GET /orders/status/{status}", authedAny(kitchenOrWaiter, orderHandler.ListByStatus))
	mux.Handle("GET /orders/waiter/{waiterId}", authedAny(kitchenOrWaiter, orderHandler.ListByWaiter))
	mux.Handle("GET /orders/current/{tableId}", authedAny(kitchenOrWaiter, orderHandler.CurrentForTable))
	mux.Handle("PUT /orders/{id}", authed(user.PermManageOrders, orderHandler.Update))
	mux.Handle("PATCH /orders/{orderId}/items/{itemId}", authedAny(kitchenOrWaiter, orderHandler.UpdateItemStatus))
	mux.Handle("DELETE /orders/{id}", authed(user.PermManageOrders, orderHandler.Delete))

	mux.Handle("GET /users", authed(user.PermManageUsers, userHandler.List))
	mux.Handle("GET /users/{id}", authed(user.PermManageUsers, userHandler.Get))
	mux.Handle("POST /users", authed(user.PermManageUsers, userHandler.Create))
	mux.Handle("PUT /users/{id}", authed(user.PermManageUsers, userHandler.Update))
	mux.Handle("DELETE /users/{id}", authed(user.PermManageUsers, userHandler.Delete))

	mux.Handle("GET /roles", authed(user.PermManageRoles, roleHandler.List))
	mux.Handle("GET /roles/permissions", authed(user.PermManageRoles, roleHandler.Permissions))
	mux.Handle("GET /roles/{id}", authed(user.PermManageRoles, roleHandler.Get))
	mux.Handle("POST /roles", authed(user.PermManageRoles, roleHandler.Create))
	mux.Handle("PUT /roles/{id}", authed(user.PermManageRoles, roleHandler.Update))
	mux.Handle("DELETE /roles/{id}", authed(user.PermManageRoles, roleHandler.Delete))

	handler := observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger,
			metrics.Middleware(mux)))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		web.WriteJSON(w, status, body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
