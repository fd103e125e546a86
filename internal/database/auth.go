package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"closetry/internal/logger"
	"closetry/internal/models"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

func GetUserByID(db *sqlx.DB, userID int) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	if err := db.Get(user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// CreateUser stores a new account with a bcrypt hash of password. A taken
// username or email yields ErrConflict and leaves the table untouched.
func CreateUser(db *sqlx.DB, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES (?, ?, ?)
	`

	result, err := db.Exec(query, username, email, string(hashedPassword))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           int(id),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return user, nil
}

// AuthenticateUser returns ErrAuthFailure for both an unknown email and a
// wrong password so callers cannot tell the two apart.
func AuthenticateUser(db *sqlx.DB, email, password string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = ?
	`

	if err := db.Get(user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Unknown emails cost the same bcrypt work as wrong passwords.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrAuthFailure
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthFailure
	}

	return user, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("closetry-dummy-password"), bcrypt.DefaultCost)

func VerifyPassword(db *sqlx.DB, userID int, password string) error {
	var hashedPassword string
	if err := db.Get(&hashedPassword, "SELECT password_hash FROM users WHERE id = ?", userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrAuthFailure
	}

	return nil
}

func UpdatePassword(db *sqlx.DB, userID int, newPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	query := "UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := db.Exec(query, string(hashedPassword), userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// DeleteUser removes an account and every row it owns in one transaction.
func DeleteUser(db *sqlx.DB, userID int) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM outfit_items WHERE outfit_id IN (SELECT id FROM outfits WHERE user_id = ?)`,
		`DELETE FROM outfit_items WHERE item_id IN (SELECT id FROM wardrobe_items WHERE user_id = ?)`,
		`DELETE FROM outfits WHERE user_id = ?`,
		`DELETE FROM laundry WHERE user_id = ?`,
		`DELETE FROM laundry WHERE item_id IN (SELECT id FROM wardrobe_items WHERE user_id = ?)`,
		`DELETE FROM outfit_suggestions WHERE user_id = ?`,
		`DELETE FROM wardrobe_items WHERE user_id = ?`,
		`DELETE FROM csrf_tokens WHERE user_id = ?`,
		`DELETE FROM sessions WHERE user_id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt, userID); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}

	result, err := tx.Exec(`DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}
	return nil
}

func CreateSession(db *sqlx.DB, userID int, sessionDuration time.Duration) (*models.Session, error) {
	sessionID, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(sessionDuration)

	query := `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := db.Exec(query, sessionID, userID, expiresAt, now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	return session, nil
}

// ValidateSession resolves a session id to its user and slides the expiry
// window forward.
func ValidateSession(db *sqlx.DB, sessionID string, sessionDuration time.Duration) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at, u.updated_at
		FROM users u
		INNER JOIN sessions s ON u.id = s.user_id
		WHERE s.id = ? AND s.expires_at > ?
	`

	if err := db.Get(user, query, sessionID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if err := RenewSession(db, sessionID, sessionDuration); err != nil {
		logger.Warn("Failed to renew session",
			"session_id", sessionID,
			"error", err)
	}

	return user, nil
}

func RenewSession(db *sqlx.DB, sessionID string, sessionDuration time.Duration) error {
	newExpiresAt := time.Now().UTC().Add(sessionDuration)

	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, newExpiresAt, sessionID); err != nil {
		return fmt.Errorf("failed to renew session: %w", err)
	}

	return nil
}

func DeleteSession(db *sqlx.DB, sessionID string) error {
	if _, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func CleanupExpiredSessions(db *sqlx.DB) error {
	if _, err := db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return nil
}

func CreateCSRFToken(db *sqlx.DB, userID int) (*models.CSRFToken, error) {
	token, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF token: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(1 * time.Hour)

	query := `
		INSERT INTO csrf_tokens (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := db.Exec(query, token, userID, expiresAt, now); err != nil {
		return nil, fmt.Errorf("failed to create CSRF token: %w", err)
	}

	return &models.CSRFToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// ValidateCSRFToken checks and consumes a token. Tokens are single use.
func ValidateCSRFToken(db *sqlx.DB, token string, userID int) error {
	result, err := db.Exec(
		`DELETE FROM csrf_tokens WHERE token = ? AND user_id = ? AND expires_at > ?`,
		token, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to validate CSRF token: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("CSRF token not found or expired")
	}

	return nil
}

func CleanupExpiredCSRFTokens(db *sqlx.DB) error {
	if _, err := db.Exec(`DELETE FROM csrf_tokens WHERE expires_at < ?`, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to cleanup expired CSRF tokens: %w", err)
	}
	return nil
}

func generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
