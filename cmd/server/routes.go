package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"churchadmin/internal/api"
	"churchadmin/internal/config"
	"churchadmin/internal/database"
	"churchadmin/internal/handlers"
	"churchadmin/internal/repository"
	"churchadmin/internal/security"
	"churchadmin/internal/service"
	"churchadmin/internal/templates"
)

const (
	sessionCleanupInterval = time.Hour
	// authFormBytes bounds the sign-in and password forms
	authFormBytes = 64 << 10
)

// buildApp wires the services and returns the handler serving the console and the API
func buildApp(ctx context.Context, cfg *config.Config, db *database.DB, tmpl *template.Template, logger *zap.Logger) (http.Handler, error) {
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, logger.Named("email"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email service: %w", err)
	}
	emailService.SetDebug(cfg.EmailDebug)

	var s3Client service.S3API
	if cfg.BackupBucket != "" {
		client, err := service.NewS3Client(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		s3Client = client
	}

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, security.NewTokenIssuer(cfg.JWTSecret), emailService, cfg.SessionDuration, logger.Named("auth"))
	records := service.NewRecords(db, logger.Named("records"))
	dashboardService := service.NewDashboardService(db, logger.Named("dashboard"))
	backupService := service.NewBackupService(db, logger.Named("backup"))

	go authService.RunCleanup(ctx, sessionCleanupInterval)

	// Console and API sign-ins are limited separately.
	consoleLimiter := security.NewRateLimiter(ctx, cfg.LoginAttempts, time.Minute)
	apiLimiter := security.NewRateLimiter(ctx, cfg.LoginAttempts, time.Minute)

	oauthProviders := map[string]handlers.OAuthProvider{}
	if google, ok := handlers.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret); ok {
		oauthProviders[google.Name] = google
	}

	middleware := handlers.NewMiddleware(authService, security.NewCSRFGenerator(cfg.CSRFSecret), consoleLimiter, logger)
	authHandler := handlers.NewAuthHandler(authService, tmpl, middleware, oauthProviders, cfg.OAuthRedirectBaseURL, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, tmpl, middleware, logger)
	recordHandlers := handlers.NewRecordHandlers(records, tmpl, middleware, logger)
	adminHandler := handlers.NewAdminHandler(tmpl, backupService, s3Client, cfg.BackupBucket, cfg.BackupPrefix, middleware, logger)
	apiServer := api.NewServer(authService, records, dashboardService, apiLimiter, logger.Named("api"))

	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(templates.Static())))
	mux.Handle(api.BasePath+"/", apiServer.Router())

	// Public routes
	mux.HandleFunc("GET /{$}", authHandler.Home)
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", middleware.RateLimit(handlers.LimitBody(authFormBytes, middleware.CSRFProtect(authHandler.Login))))
	mux.HandleFunc("GET /register", authHandler.ShowRegister)
	mux.HandleFunc("POST /register", middleware.RateLimit(handlers.LimitBody(authFormBytes, middleware.CSRFProtect(authHandler.Register))))
	mux.HandleFunc("POST /logout", handlers.LimitBody(authFormBytes, middleware.CSRFProtect(authHandler.Logout)))
	mux.HandleFunc("GET /forgot-password", authHandler.ShowForgotPassword)
	mux.HandleFunc("POST /forgot-password", middleware.RateLimit(handlers.LimitBody(authFormBytes, middleware.CSRFProtect(authHandler.ForgotPassword))))
	mux.HandleFunc("GET /reset-password", authHandler.ShowResetPassword)
	mux.HandleFunc("POST /reset-password", handlers.LimitBody(authFormBytes, middleware.CSRFProtect(authHandler.ResetPassword)))
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Console
	mux.HandleFunc("GET /dashboard", middleware.RequireAuth(dashboardHandler.ShowDashboard))
	recordHandlers.Register(mux)
	adminHandler.Register(mux)

	return handlers.Recover(logger)(handlers.Logging(logger)(mux)), nil
}
