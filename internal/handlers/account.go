package handlers

import (
	"errors"
	"net/http"

	"closetry/internal/config"
	"closetry/internal/database"
	"closetry/internal/logger"
	"closetry/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func renderAccount(c *gin.Context, status int, data gin.H) {
	page := gin.H{
		"Title":     "Account - Closetry",
		"User":      c.MustGet("user"),
		"CSRFToken": newCSRFToken(c),
	}
	for k, v := range data {
		page[k] = v
	}
	c.HTML(status, "account.html", page)
}

func handleAccountPage(c *gin.Context) {
	renderAccount(c, http.StatusOK, nil)
}

func handleChangePassword(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)

	currentPassword := c.PostForm("current_password")
	newPassword := c.PostForm("new_password")
	confirmPassword := c.PostForm("confirm_password")

	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		renderAccount(c, http.StatusBadRequest, gin.H{"Error": "All password fields are required"})
		return
	}

	if newPassword != confirmPassword {
		renderAccount(c, http.StatusBadRequest, gin.H{"Error": "New passwords do not match"})
		return
	}

	if len(newPassword) < 8 {
		renderAccount(c, http.StatusBadRequest, gin.H{"Error": "New password must be at least 8 characters long"})
		return
	}

	if err := database.VerifyPassword(db, userID, currentPassword); err != nil {
		if !errors.Is(err, database.ErrAuthFailure) {
			logger.Error("Failed to verify password", "user_id", userID, "error", err)
		}
		renderAccount(c, http.StatusBadRequest, gin.H{"Error": "Current password is incorrect"})
		return
	}

	if err := database.UpdatePassword(db, userID, newPassword); err != nil {
		logger.Error("Failed to update password", "user_id", userID, "error", err)
		renderAccount(c, http.StatusInternalServerError, gin.H{"Error": "Failed to update password"})
		return
	}

	logger.Info("Password changed", "user_id", userID)
	renderAccount(c, http.StatusOK, gin.H{"Success": "Password updated successfully"})
}

// handleDeleteAccount removes the user and everything they own, then signs
// them out.
func handleDeleteAccount(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)
	cfg := c.MustGet("config").(*config.Config)

	if err := database.VerifyPassword(db, userID, c.PostForm("password")); err != nil {
		renderAccount(c, http.StatusBadRequest, gin.H{"DeleteError": "Password is incorrect"})
		return
	}

	if err := database.DeleteUser(db, userID); err != nil {
		logger.Error("Failed to delete account", "user_id", userID, "error", err)
		renderAccount(c, http.StatusInternalServerError, gin.H{"DeleteError": "Failed to delete account"})
		return
	}

	logger.Info("Account deleted", "user_id", userID)
	middleware.ClearSessionCookie(c, cfg)
	c.Redirect(http.StatusFound, "/login")
}
