package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sudo-init-do/fixmate/internal/admin"
	"github.com/sudo-init-do/fixmate/internal/alerts"
	"github.com/sudo-init-do/fixmate/internal/auth"
	"github.com/sudo-init-do/fixmate/internal/booking"
	"github.com/sudo-init-do/fixmate/internal/category"
	"github.com/sudo-init-do/fixmate/internal/config"
	"github.com/sudo-init-do/fixmate/internal/db"
	"github.com/sudo-init-do/fixmate/internal/logger"
	mware "github.com/sudo-init-do/fixmate/internal/middleware"
	"github.com/sudo-init-do/fixmate/internal/provider"
	"github.com/sudo-init-do/fixmate/internal/store"
	"github.com/sudo-init-do/fixmate/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()

	pool, err := db.New(ctx, cfg.DBURL)
	if err != nil {
		zl.Fatal("database connect failed", zap.Error(err))
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		zl.Fatal("redis connect failed", zap.Error(err))
	}
	defer rdb.Close()

	// Core booking machinery.
	st := store.New(pool)
	engine := booking.NewEngine(st)
	notifier := alerts.NewService(cfg.RedisAddr, pool, zl)
	defer notifier.Close()
	svc := booking.NewService(st, engine, notifier, zl)

	// Background email worker.
	worker := alerts.NewWorker(cfg.RedisAddr, alerts.NewMailerFromEnv(zl), zl)
	worker.Start()
	defer worker.Shutdown()

	// HTTP handlers.
	authH := &auth.Handler{
		Pool:   pool,
		Secret: cfg.JWTSecret,
		Resets: auth.NewResetStore(rdb),
		Mail:   notifier,
		AppURL: cfg.AppURL,
		Log:    zl,
	}
	bookingH := &booking.Handler{Svc: svc, Store: st, List: st, Log: zl}
	categoryH := &category.Handler{Pool: pool, Log: zl}
	providerH := &provider.Handler{Pool: pool, Log: zl}
	userH := &user.Handler{Pool: pool, Log: zl}
	adminH := &admin.Handler{Pool: pool, Store: st, Engine: engine, Log: zl}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "fixmate"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/signup/provider", authH.SignupProvider)
	authGroup.POST("/login", authH.Login)
	authGroup.POST("/password/request", authH.RequestPasswordReset)
	authGroup.POST("/password/reset", authH.ConfirmPasswordReset)

	// Public routes
	e.GET("/categories", categoryH.ListActive)
	e.GET("/providers/:id", providerH.PublicProfile)
	e.GET("/user/:id/profile", userH.GetPublicProfile)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWT(cfg.JWTSecret))

	api.GET("/auth/me", authH.Me)
	api.PATCH("/user/profile", userH.UpdateProfile)

	api.POST("/bookings", bookingH.Create, mware.RequireRoles("customer"))
	api.GET("/bookings/me", bookingH.ListMine)
	api.GET("/bookings/:id", bookingH.Get)
	api.POST("/bookings/:id/status", bookingH.SetStatus)

	api.GET("/provider/profile", providerH.MyProfile, mware.RequireRoles("provider"))
	api.PATCH("/provider/profile", providerH.UpdateProfile, mware.RequireRoles("provider"))
	api.PATCH("/provider/availability", providerH.SetAvailability, mware.RequireRoles("provider"))
	api.GET("/provider/bookings", bookingH.ListAssignedToMe, mware.RequireRoles("provider"))

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWT(cfg.JWTSecret))
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/users", adminH.ListUsers)
	adminGroup.PATCH("/users/:id/active", adminH.SetUserActive)
	adminGroup.GET("/providers", adminH.ListProviders)
	adminGroup.PATCH("/providers/:id/verify", adminH.VerifyProvider)
	adminGroup.PATCH("/providers/:id/availability", adminH.SetProviderAvailability)
	adminGroup.PATCH("/providers/:id/rating", adminH.SetProviderRating)
	adminGroup.GET("/bookings", adminH.ListBookings)
	adminGroup.POST("/bookings/:id/dispatch", adminH.DispatchBooking)
	adminGroup.GET("/categories", categoryH.ListAll)
	adminGroup.POST("/categories", categoryH.Create)
	adminGroup.PATCH("/categories/:id", categoryH.SetActive)
	adminGroup.GET("/stats", adminH.Stats)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown error", zap.Error(err))
	}
}
