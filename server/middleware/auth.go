package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aidetectsai/detector-api/auth/authctx"
	apperrors "github.com/aidetectsai/detector-api/errors"
	"github.com/aidetectsai/detector-api/logger"
)

// LoginKey is the Gin context key carrying the authenticated login.
const LoginKey = "login"

// bearerPrefix is the exact literal an Authorization header must start
// with; anything else counts as "no token", not an error.
const bearerPrefix = "Bearer "

// authRequiredMessage substitutes an absent rejection reason.
const authRequiredMessage = "Authentication required"

// TokenValidator is the token contract the filter depends on.
type TokenValidator interface {
	Valid(token string) bool
	ParseSubject(token string) (string, error)
}

// Authentication returns the per-request authentication filter. A present,
// valid bearer token attaches the subject login to the request; a missing
// or invalid token forwards the request unauthenticated — rejection is the
// authorization layer's call, not this filter's. An unexpected failure
// inside validation never reaches the transport layer: the filter answers
// with the generic 401 body and terminates the request. The guard covers
// only the validation step, so downstream handler panics still reach the
// recovery middleware.
func Authentication(tokens TokenValidator) gin.HandlerFunc {
	log := logger.WithComponent("authfilter")
	return func(c *gin.Context) {
		if !attachLogin(c, tokens, log) {
			return
		}
		c.Next()
	}
}

// attachLogin validates the bearer token under its own panic guard and
// attaches the login on success. Returns false when validation panicked
// and the 401 has already been written.
func attachLogin(c *gin.Context, tokens TokenValidator, log *logger.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("authentication failed unexpectedly", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"panic": r,
			})
			Unauthorized(c, "Authentication failed")
			ok = false
		}
	}()

	token := ParseBearer(c.GetHeader("Authorization"))
	if token != "" && tokens.Valid(token) {
		if login, err := tokens.ParseSubject(token); err == nil {
			c.Set(LoginKey, login)
			c.Request = c.Request.WithContext(authctx.WithLogin(c.Request.Context(), login))
		}
	}
	return true
}

// RequireAuth is the authorization gate for protected routes: requests
// without an authenticated login are rejected with the 401 body.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authctx.Login(c.Request.Context()); !ok {
			Unauthorized(c, "")
			return
		}
		c.Next()
	}
}

// ParseBearer extracts the token from an Authorization header value.
// Returns "" when the header is absent or not bearer-shaped.
func ParseBearer(header string) string {
	if strings.HasPrefix(header, bearerPrefix) {
		return header[len(bearerPrefix):]
	}
	return ""
}

// Unauthorized writes the terminal 401 response:
// {"error": "Unauthorized", "message": <reason>, "status": 401}.
// A missing reason becomes "Authentication required"; the JSON serializer
// handles any quoting inside the reason.
func Unauthorized(c *gin.Context, reason string) {
	if reason == "" {
		reason = authRequiredMessage
	}
	logger.WithComponent("server").Warn("unauthorized request", map[string]interface{}{
		"path":   c.Request.URL.Path,
		"reason": reason,
	})
	c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error:   "Unauthorized",
		Message: reason,
		Status:  http.StatusUnauthorized,
	})
}
