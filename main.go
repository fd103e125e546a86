package main

import (
	"log"
	"time"

	"closetry/internal/config"
	"closetry/internal/database"
	"closetry/internal/email"
	"closetry/internal/handlers"
	"closetry/internal/logger"
	"closetry/internal/middleware"
	"closetry/internal/outfit"
	"closetry/templates"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func main() {
	cfg := config.Load()

	logger.Initialize(logger.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())
	defer logger.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := database.Seed(db); err != nil {
		log.Fatal("Failed to seed seasons and styles:", err)
	}

	emailService := email.NewService(cfg)
	if emailService.IsEnabled() {
		logger.Info("Email service enabled with Mailgun", "domain", cfg.MailgunDomain)
	} else {
		logger.Info("Email service disabled - Mailgun not configured")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	tmpl, err := templates.Load()
	if err != nil {
		log.Fatal("Failed to parse templates:", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg))

	handlers.SetupRoutes(r, db, cfg, emailService, outfit.NewGenerator(db))

	go cleanupExpired(db, time.Hour)

	logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
	log.Fatal(r.Run(":" + cfg.Port))
}

// cleanupExpired purges expired sessions and CSRF tokens every interval.
func cleanupExpired(db *sqlx.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := database.CleanupExpiredSessions(db); err != nil {
			logger.Warn("Failed to clean up sessions", "error", err)
		}
		if err := database.CleanupExpiredCSRFTokens(db); err != nil {
			logger.Warn("Failed to clean up CSRF tokens", "error", err)
		}
	}
}
