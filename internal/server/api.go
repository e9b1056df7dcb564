package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nestlet/nestlet/internal/auth"
	"github.com/nestlet/nestlet/internal/cache"
	"github.com/nestlet/nestlet/internal/config"
	apierrors "github.com/nestlet/nestlet/internal/errors"
	"github.com/nestlet/nestlet/internal/guard"
	"github.com/nestlet/nestlet/internal/listing"
	"github.com/nestlet/nestlet/internal/logging"
	"github.com/nestlet/nestlet/internal/middleware"
	"github.com/nestlet/nestlet/internal/monitoring"
	"github.com/nestlet/nestlet/internal/review"
)

// APIServer represents the main API server
type APIServer struct {
	config         *config.Config
	router         *gin.Engine
	db             *pgxpool.Pool
	authService    *auth.Service
	reviewService  *review.Service
	listingService *listing.Service
	sessionGuard   *guard.Session
	ownerGuard     *guard.Owner
	loginLimiter   *cache.RateLimiter
	reviewLimiter  *cache.RateLimiter
}

// NewAPIServer creates a new API server instance
func NewAPIServer(cfg *config.Config, db *pgxpool.Pool, redis *cache.Redis) *APIServer {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	// Services
	sessions := auth.NewSessionStore(redis.Client, cfg.Session.TTL)
	authService := auth.NewService(db, sessions)
	reviewService := review.NewService(db)
	listingService := listing.NewService(db)

	// Guards compose the session state and the listing store into
	// allow/deny decisions; the route layer maps them to responses
	sessionGuard := guard.NewSession(sessions)
	ownerGuard := guard.NewOwner(listingService)

	// Credential guessing and review spam get throttled per window
	var loginLimiter, reviewLimiter *cache.RateLimiter
	if cfg.RateLimit.Enabled {
		loginLimiter = cache.NewRateLimiter(redis, "login", cfg.RateLimit.LoginLimit, cfg.RateLimit.Window)
		reviewLimiter = cache.NewRateLimiter(redis, "reviews", cfg.RateLimit.ReviewLimit, cfg.RateLimit.Window)
	}

	srv := &APIServer{
		config:         cfg,
		router:         router,
		db:             db,
		authService:    authService,
		reviewService:  reviewService,
		listingService: listingService,
		sessionGuard:   sessionGuard,
		ownerGuard:     ownerGuard,
		loginLimiter:   loginLimiter,
		reviewLimiter:  reviewLimiter,
	}

	srv.setupRoutes()
	return srv
}

// Router returns the gin router
func (s *APIServer) Router() http.Handler {
	return s.router
}

// setupRoutes configures all API routes
func (s *APIServer) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Auth routes (public, logout requires a session)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/login",
				middleware.RateLimit(s.loginLimiter, middleware.KeyByClientIP),
				s.handleLogin)
			authGroup.POST("/logout", middleware.SessionAuth(s.sessionGuard), s.handleLogout)
		}

		// Profile routes (public)
		profiles := v1.Group("/profiles")
		{
			profiles.GET("/:id", s.handleGetProfile)
		}

		// Review routes (reading is public, submitting requires a session)
		reviews := v1.Group("/reviews")
		{
			reviews.GET("/users/:id", s.handleGetReviews)
			reviews.POST("/users/:id",
				middleware.SessionAuth(s.sessionGuard),
				middleware.RateLimit(s.reviewLimiter, middleware.KeyByActor),
				s.handleSubmitReview)
		}

		// Listing routes (reading is public; mutation requires a session,
		// and for existing listings, ownership)
		listings := v1.Group("/listings")
		{
			listings.GET("/", s.handleListListings)
			listings.GET("/:id", s.handleGetListing)
			listings.POST("/", middleware.SessionAuth(s.sessionGuard), s.handleCreateListing)
			listings.PUT("/:id",
				middleware.SessionAuth(s.sessionGuard),
				middleware.RequireListingOwner(s.ownerGuard, "id"),
				s.handleUpdateListing)
			listings.DELETE("/:id",
				middleware.SessionAuth(s.sessionGuard),
				middleware.RequireListingOwner(s.ownerGuard, "id"),
				s.handleDeleteListing)
		}
	}
}

// Health check handler
func (s *APIServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "api",
	})
}

// respondError sends a standardized error response
func respondError(c *gin.Context, err *apierrors.APIError) {
	requestID := c.GetString("request_id")

	c.JSON(err.HTTPStatus, apierrors.ErrorResponse{
		Error:     *err,
		RequestID: requestID,
	})
}
