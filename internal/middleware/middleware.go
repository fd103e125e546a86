package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"closetry/internal/config"
	"closetry/internal/database"
	"closetry/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterByIP keeps one token bucket per client IP and forgets clients that
// have been idle for longer than idle.
type limiterByIP struct {
	mu      sync.Mutex
	clients map[string]*rateLimiter
	every   time.Duration
	burst   int
	idle    time.Duration
}

func newLimiterByIP(every time.Duration, burst int, idle time.Duration) *limiterByIP {
	return &limiterByIP{
		clients: make(map[string]*rateLimiter),
		every:   every,
		burst:   burst,
		idle:    idle,
	}
}

func (l *limiterByIP) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	client, exists := l.clients[ip]
	if !exists {
		client = &rateLimiter{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.clients[ip] = client
	}
	client.lastSeen = now

	for addr, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idle {
			delete(l.clients, addr)
		}
	}

	return client.limiter.Allow()
}

func RateLimit(cfg *config.Config) gin.HandlerFunc {
	limiter := newLimiterByIP(time.Second/20, 20, 10*time.Minute)

	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		if !limiter.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func AuthRateLimit(cfg *config.Config) gin.HandlerFunc {
	limiter := newLimiterByIP(time.Minute, 5, 30*time.Minute)

	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		if !limiter.allow(c.ClientIP()) {
			logger.Warn("Authentication rate limit exceeded", "ip", c.ClientIP(), "path", c.FullPath())
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Authentication rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		for _, allowedOrigin := range origins {
			if origin != "" && origin == allowedOrigin {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				break
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// CSRF requires a valid single-use token on every state-changing request of
// an authenticated user. It must run after AuthRequired.
func CSRF(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := c.GetHeader("X-CSRF-Token")
		if token == "" {
			token = c.PostForm("csrf_token")
		}

		if token == "" {
			c.String(http.StatusForbidden, "CSRF token required")
			c.Abort()
			return
		}

		userID, exists := c.Get("user_id")
		if !exists {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if err := database.ValidateCSRFToken(db, token, userID.(int)); err != nil {
			logger.Warn("Rejected CSRF token", "user_id", userID, "path", c.FullPath())
			c.String(http.StatusForbidden, "Invalid CSRF token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func SecurityHeaders(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "same-origin")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		// Wardrobe images are arbitrary user supplied URLs.
		c.Header("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src * data:")
		c.Next()
	}
}

// RequestID tags every request with an id, echoed in the X-Request-ID
// response header and available to handlers as "request_id".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set("request_id", reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

func LogRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("request",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		)
	}
}

// AddDBContext exposes the store and configuration to handlers.
func AddDBContext(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Set("config", cfg)
		c.Next()
	}
}

func TrimSpaces() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			if err := c.Request.ParseForm(); err == nil {
				for key, values := range c.Request.PostForm {
					for i, value := range values {
						c.Request.PostForm[key][i] = strings.TrimSpace(value)
					}
				}
			}
		}
		c.Next()
	}
}

// AuthRequired resolves the session cookie to a user and stores it under
// "user" and "user_id". Requests without a valid session are sent to /login.
func AuthRequired(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := ReadSessionCookie(c, cfg)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		user, err := database.ValidateSession(db, sessionID, cfg.SessionDuration)
		if err != nil {
			ClearSessionCookie(c, cfg)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("session_id", sessionID)
		c.Next()
	}
}

func AuthOptional(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID, ok := ReadSessionCookie(c, cfg); ok {
			user, err := database.ValidateSession(db, sessionID, cfg.SessionDuration)
			if err == nil {
				c.Set("user", user)
				c.Set("user_id", user.ID)
				c.Set("session_id", sessionID)
			}
		}
		c.Next()
	}
}
