package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/supplyhub/supplier-console/docs"
	"github.com/supplyhub/supplier-console/internal/api/handler"
	"github.com/supplyhub/supplier-console/internal/api/middleware"
	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log           zerolog.Logger
	Store         ports.SessionStore
	Account       ports.AccountGateway
	Notifications ports.NotificationService
	Realtime      handler.RealtimeConnector
	Invalidations handler.InvalidationQueue
	Cookie        middleware.CookieOptions
	Policy        domain.RoutePolicy
	Readiness     []handler.Dependency
	// Shutdown, when closed, ends long-lived notification streams.
	Shutdown <-chan struct{}

	// Extra middleware installed after recovery and request ids, e.g. the
	// Prometheus request collector.
	Middleware []echo.MiddlewareFunc
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	sessions := middleware.NewSessions(d.Store, d.Cookie, d.Policy, d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(d.Middleware...)
	e.Use(middleware.RequestLogger(d.Log))
	// Every navigation passes the guard; excluded prefixes (api, health,
	// metrics, swagger, sign-in pages) skip it before any session lookup.
	e.Use(sessions.Guard())

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Store, sessions, d.Account)
	notificationHandler := handler.NewNotificationHandler(d.Notifications, sessions, d.Realtime, d.Invalidations, d.Log)
	notificationHandler.StopOn(d.Shutdown)
	viewHandler := handler.NewViewHandler()

	requireSession := sessions.Require()
	requireRole := middleware.RBAC(d.Policy.RequiredRole)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/session", authHandler.Session)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/verify-otp", authHandler.VerifyOTP)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/me", authHandler.Me, requireSession)
	auth.POST("/change-password", authHandler.ChangePassword, requireSession)

	// --- Notification routes ---
	notifications := e.Group("/api/notifications", requireSession, requireRole)
	notifications.GET("", notificationHandler.List)
	notifications.PATCH("/read-all", notificationHandler.MarkAllViewed)
	notifications.GET("/stream", notificationHandler.Stream)

	// --- Guarded views ---
	for path := range handler.Views {
		e.GET(path, viewHandler.Show)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Readiness...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
