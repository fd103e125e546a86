package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"closetry/internal/config"
	"closetry/internal/database"
	emailService "closetry/internal/email"
	"closetry/internal/logger"
	"closetry/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func handleRegisterPage(c *gin.Context) {
	if _, signedIn := c.Get("user"); signedIn {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "register.html", gin.H{
		"Title": "Register - Closetry",
	})
}

func handleRegister(c *gin.Context) {
	db := c.MustGet("db").(*sqlx.DB)

	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	formErrors := make(map[string]string)

	if len(username) < 3 || len(username) > 30 {
		formErrors["username"] = "Username must be between 3 and 30 characters"
	}

	if !emailRegex.MatchString(email) {
		formErrors["email"] = "Please enter a valid email address"
	}

	if len(password) < 8 {
		formErrors["password"] = "Password must be at least 8 characters"
	}

	if password != confirmPassword {
		formErrors["confirm_password"] = "Passwords do not match"
	}

	if len(formErrors) > 0 {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"Title":    "Register - Closetry",
			"Errors":   formErrors,
			"Username": username,
			"Email":    email,
		})
		return
	}

	user, err := database.CreateUser(db, username, email, password)
	if err != nil {
		status := http.StatusInternalServerError
		formErrors["general"] = "Failed to create account. Please try again."
		if errors.Is(err, database.ErrConflict) {
			status = http.StatusConflict
			formErrors["general"] = "An account with those credentials already exists"
		} else {
			logger.Error("Failed to create user", "email", email, "error", err)
		}

		c.HTML(status, "register.html", gin.H{
			"Title":  "Register - Closetry",
			"Errors": formErrors,
		})
		return
	}

	logger.Info("User registered", "user_id", user.ID, "email", user.Email)

	emailSvc, _ := c.Get("email_service")
	if service, ok := emailSvc.(*emailService.Service); ok && service.IsEnabled() {
		go func() {
			if err := service.SendWelcomeEmail(user); err != nil {
				logger.Warn("Failed to send welcome email",
					"email", user.Email,
					"user_id", user.ID,
					"error", err)
			}
		}()
	}

	c.Redirect(http.StatusFound, "/login")
}

func handleLoginPage(c *gin.Context) {
	if _, signedIn := c.Get("user"); signedIn {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title": "Login - Closetry",
	})
}

func handleLogin(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	formErrors := make(map[string]string)

	if email == "" {
		formErrors["email"] = "Email is required"
	}

	if password == "" {
		formErrors["password"] = "Password is required"
	}

	if len(formErrors) > 0 {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Title":  "Login - Closetry",
			"Errors": formErrors,
			"Email":  email,
		})
		return
	}

	db := c.MustGet("db").(*sqlx.DB)

	user, err := database.AuthenticateUser(db, email, password)
	if err != nil {
		if !errors.Is(err, database.ErrAuthFailure) {
			logger.Error("Failed to authenticate user", "email", email, "error", err)
		}
		formErrors["general"] = "Invalid email or password"
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Title":  "Login - Closetry",
			"Errors": formErrors,
			"Email":  email,
		})
		return
	}

	cfg := c.MustGet("config").(*config.Config)
	session, err := database.CreateSession(db, user.ID, cfg.SessionDuration)
	if err != nil {
		logger.Error("Failed to create session", "user_id", user.ID, "error", err)
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Title":  "Login - Closetry",
			"Errors": map[string]string{"general": "Failed to create session. Please try again."},
		})
		return
	}

	middleware.SetSessionCookie(c, cfg, session.ID)
	c.Redirect(http.StatusFound, "/wardrobe")
}

func handleLogout(c *gin.Context) {
	db := c.MustGet("db").(*sqlx.DB)
	cfg := c.MustGet("config").(*config.Config)

	if sessionID := c.GetString("session_id"); sessionID != "" {
		if err := database.DeleteSession(db, sessionID); err != nil {
			logger.Warn("Failed to delete session", "session_id", sessionID, "error", err)
		}
	}

	middleware.ClearSessionCookie(c, cfg)
	c.Redirect(http.StatusFound, "/login")
}

func handleCSRFToken(c *gin.Context) {
	token := newCSRFToken(c)
	if token == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate CSRF token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
