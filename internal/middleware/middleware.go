package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nestlet/nestlet/internal/cache"
	apierrors "github.com/nestlet/nestlet/internal/errors"
	"github.com/nestlet/nestlet/internal/guard"
	"github.com/nestlet/nestlet/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// Context keys for storing request information
const (
	ContextKeyUserID       = "user_id"
	ContextKeySessionToken = "session_token"
)

// Token extraction errors
var (
	ErrMissingToken = errors.New("missing bearer token")
)

// SessionAuth creates a middleware that resolves the bearer session token
// through the session guard and stores the actor id in the context.
// The guard decides; this middleware only translates the decision to HTTP.
func SessionAuth(sessions *guard.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondWithError(c, apierrors.ErrUnauthenticatedError)
			c.Abort()
			return
		}

		decision, err := sessions.Check(c.Request.Context(), token)
		if err != nil {
			log.Error().Err(err).Msg("Session lookup failed")
			respondWithError(c, apierrors.ErrPersistenceError)
			c.Abort()
			return
		}
		monitoring.RecordGuardDecision("session", decision.Status.String())

		if decision.Status != guard.Authorized {
			respondWithError(c, apierrors.ErrUnauthenticatedError)
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, decision.ActorID.String())
		c.Set(ContextKeySessionToken, token)

		c.Next()
	}
}

// RequireListingOwner creates a middleware that checks the authenticated
// actor owns the listing named by the route parameter. Must be used after
// SessionAuth so the actor id is present in the context.
func RequireListingOwner(owners *guard.Owner, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := GetUserIDFromContext(c)
		if actorID == "" {
			respondWithError(c, apierrors.ErrUnauthenticatedError)
			c.Abort()
			return
		}

		decision, err := owners.Check(c.Request.Context(), actorID, c.Param(param))
		if err != nil {
			log.Error().Err(err).Msg("Ownership check failed")
			respondWithError(c, apierrors.ErrPersistenceError)
			c.Abort()
			return
		}
		monitoring.RecordGuardDecision("owner", decision.Status.String())

		switch decision.Status {
		case guard.Authorized:
			c.Next()
		case guard.NotFound:
			respondWithError(c, apierrors.ErrListingNotFoundError)
			c.Abort()
		default:
			respondWithError(c, apierrors.ErrNotOwnerError)
			c.Abort()
		}
	}
}

// RateLimit creates a middleware that throttles requests through the
// given limiter, keyed per request. A nil limiter disables throttling.
func RateLimit(limiter *cache.RateLimiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		result, err := limiter.Allow(c.Request.Context(), keyFn(c))
		if err != nil {
			log.Error().Err(err).Msg("Rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter/time.Second)+1))
			respondWithError(c, apierrors.ErrRateLimitedError)
			c.Abort()
			return
		}

		c.Next()
	}
}

// KeyByClientIP keys rate limits by the requesting client address
func KeyByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByActor keys rate limits by the authenticated actor, falling back
// to the client address before authentication ran.
func KeyByActor(c *gin.Context) string {
	if actorID := GetUserIDFromContext(c); actorID != "" {
		return actorID
	}
	return c.ClientIP()
}

// extractBearerToken extracts the token from a Bearer authorization header
func extractBearerToken(authHeader string) (string, error) {
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrMissingToken
	}
	token := authHeader[len(bearerPrefix):]
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, err *apierrors.APIError) {
	requestID := c.GetString("request_id")

	c.JSON(err.HTTPStatus, apierrors.ErrorResponse{
		Error:     *err,
		RequestID: requestID,
	})
}

// GetUserIDFromContext extracts the user ID from the gin context
// Returns empty string if not found
func GetUserIDFromContext(c *gin.Context) string {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return ""
	}
	return userID.(string)
}

// GetSessionTokenFromContext extracts the session token from the gin context
// Returns empty string if not found
func GetSessionTokenFromContext(c *gin.Context) string {
	token, exists := c.Get(ContextKeySessionToken)
	if !exists {
		return ""
	}
	return token.(string)
}

// GetRequestIDFromContext extracts the request ID from the gin context
// Returns empty string if not found
func GetRequestIDFromContext(c *gin.Context) string {
	requestID, exists := c.Get("request_id")
	if !exists {
		return ""
	}
	return requestID.(string)
}

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// CORS configures CORS headers
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// Check if origin is allowed
		allowed := false
		for _, o := range allowedOrigins {
			if o == origin || o == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "43200") // 12 hours
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
