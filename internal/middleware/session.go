package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"closetry/internal/config"

	"github.com/gin-gonic/gin"
)

const SessionCookieName = "session_id"

// SignSessionID returns "<id>.<hmac>" so a cookie cannot be forged or
// altered without the server's secret key.
func SignSessionID(secret, sessionID string) string {
	return sessionID + "." + sessionMAC(secret, sessionID)
}

// VerifySessionValue returns the session id carried by a signed cookie value.
func VerifySessionValue(secret, value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}

	id, mac := value[:i], value[i+1:]
	if !hmac.Equal([]byte(mac), []byte(sessionMAC(secret, id))) {
		return "", false
	}
	return id, true
}

func sessionMAC(secret, sessionID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(sessionID))
	return hex.EncodeToString(h.Sum(nil))
}

func SetSessionCookie(c *gin.Context, cfg *config.Config, sessionID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, SignSessionID(cfg.SecretKey, sessionID),
		int(cfg.SessionDuration.Seconds()), "/", "", !cfg.IsDevelopment(), true)
}

func ClearSessionCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", !cfg.IsDevelopment(), true)
}

// ReadSessionCookie returns the verified session id of the request, if any.
func ReadSessionCookie(c *gin.Context, cfg *config.Config) (string, bool) {
	value, err := c.Cookie(SessionCookieName)
	if err != nil || value == "" {
		return "", false
	}
	return VerifySessionValue(cfg.SecretKey, value)
}
