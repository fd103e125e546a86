package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"closetry/internal/config"
	"closetry/internal/database"
	"closetry/internal/email"
	"closetry/internal/logger"
	"closetry/internal/middleware"
	"closetry/internal/models"
	"closetry/internal/outfit"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func SetupRoutes(r *gin.Engine, db *sqlx.DB, cfg *config.Config, emailService *email.Service, generator *outfit.Generator) {
	r.Use(middleware.RequestID())
	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(middleware.AddDBContext(db, cfg))
	r.Use(addServiceContext(emailService, generator))
	r.Use(middleware.TrimSpaces())

	r.GET("/register", middleware.AuthOptional(db, cfg), handleRegisterPage)
	r.POST("/register", middleware.AuthRateLimit(cfg), handleRegister)
	r.GET("/login", middleware.AuthOptional(db, cfg), handleLoginPage)
	r.POST("/login", middleware.AuthRateLimit(cfg), handleLogin)
	r.POST("/logout", middleware.AuthRequired(db, cfg), handleLogout)

	protected := r.Group("/")
	protected.Use(middleware.AuthRequired(db, cfg))
	protected.Use(middleware.CSRF(db, cfg))
	{
		protected.GET("/", handleHome)
		protected.GET("/dashboard", handleDashboard)

		protected.GET("/wardrobe", handleWardrobe)
		protected.GET("/add", handleNewItemPage)
		protected.POST("/add", handleCreateItem)
		protected.POST("/delete/:id", handleDeleteItem)

		protected.GET("/laundry", handleLaundry)
		protected.POST("/laundry/:id", handleMoveToLaundry)
		protected.POST("/restore/:id", handleRestoreFromLaundry)

		protected.GET("/auto", handleAutoPage)
		protected.POST("/auto", handleGenerateOutfit)

		protected.GET("/outfits", handleOutfits)
		protected.POST("/outfits", handleSaveOutfit)
		protected.POST("/outfits/:id/favorite", handleToggleFavorite)
		protected.POST("/outfits/:id/delete", handleDeleteOutfit)

		protected.GET("/account", handleAccountPage)
		protected.POST("/account/password", handleChangePassword)
		protected.POST("/account/delete", handleDeleteAccount)

		protected.GET("/api/csrf-token", handleCSRFToken)
	}
}

func addServiceContext(emailService *email.Service, generator *outfit.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("email_service", emailService)
		c.Set("outfit_generator", generator)
		c.Next()
	}
}

// newCSRFToken issues a token for the signed-in user, or "" when there is none.
func newCSRFToken(c *gin.Context) string {
	userID, ok := c.Get("user_id")
	if !ok {
		return ""
	}

	db := c.MustGet("db").(*sqlx.DB)
	token, err := database.CreateCSRFToken(db, userID.(int))
	if err != nil {
		logger.Error("Failed to create CSRF token", "user_id", userID, "error", err)
		return ""
	}
	return token.Token
}

// parseOptionalID turns a form value into an id. Empty means "not set".
func parseOptionalID(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return nil, errors.New("invalid id")
	}
	return &id, nil
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// renderError shows the error page with the status matching err.
func renderError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		message = "The page or item you asked for does not exist"
	case errors.Is(err, database.ErrForbidden):
		status = http.StatusForbidden
		message = "You do not have access to that"
	default:
		logger.Error(fallback,
			"request_id", c.GetString("request_id"),
			"path", c.FullPath(),
			"error", err)
	}

	user, _ := c.Get("user")
	c.HTML(status, "error.html", gin.H{
		"Title":   "Error - Closetry",
		"User":    user,
		"Status":  status,
		"Message": message,
	})
}

func handleHome(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)
	user := c.MustGet("user")

	latest, err := database.GetLatestSuggestion(db, userID)
	if err != nil {
		renderError(c, err, "Failed to load latest suggestion")
		return
	}

	suggestion, err := database.ResolveSuggestion(db, latest)
	if err != nil {
		renderError(c, err, "Failed to load latest suggestion")
		return
	}

	items, err := database.GetAvailableItems(db, userID, models.ItemFilter{})
	if err != nil {
		renderError(c, err, "Failed to load wardrobe")
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Title":      "Outfit Builder - Closetry",
		"User":       user,
		"CSRFToken":  newCSRFToken(c),
		"Suggestion": suggestion,
		"Items":      items,
	})
}

func handleDashboard(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)
	user := c.MustGet("user")

	stats, err := database.GetUserStats(db, userID)
	if err != nil {
		logger.Error("Failed to get user stats", "user_id", userID, "error", err)
		c.HTML(http.StatusInternalServerError, "dashboard.html", gin.H{
			"Title": "Dashboard - Closetry",
			"User":  user,
			"Error": "Failed to load dashboard statistics",
		})
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":      "Dashboard - Closetry",
		"User":       user,
		"CSRFToken":  newCSRFToken(c),
		"Stats":      stats,
		"Categories": models.Categories,
	})
}
