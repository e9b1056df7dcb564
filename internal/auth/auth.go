package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nestlet/nestlet/internal/models"
)

// Service handles authentication operations
type Service struct {
	db       *pgxpool.Pool
	sessions *SessionStore
}

// NewService creates a new auth service
func NewService(db *pgxpool.Pool, sessions *SessionStore) *Service {
	return &Service{
		db:       db,
		sessions: sessions,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string          `json:"username" binding:"required,min=3,max=30"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Role     models.UserRole `json:"role" binding:"required,oneof=tenant landlord"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents a user's public identity and rating summary
type UserResponse struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Role        models.UserRole `json:"role"`
	AvgRating   float64         `json:"avg_rating"`
	ReviewCount int             `json:"review_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SessionResponse represents an issued session
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
}

// AuthResponse represents a registration or login response
type AuthResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

// Register creates a new user account and signs them in
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Role != models.UserRoleTenant && req.Role != models.UserRoleLandlord {
		return nil, ErrInvalidRole
	}

	// Check uniqueness up front for friendlier errors; the unique
	// constraints remain the source of truth
	var emailTaken, usernameTaken bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1),
			EXISTS(SELECT 1 FROM users WHERE username = $2)
	`, req.Email, req.Username).Scan(&emailTaken, &usernameTaken)
	if err != nil {
		return nil, fmt.Errorf("failed to check uniqueness: %w", err)
	}
	if emailTaken {
		return nil, ErrEmailAlreadyExists
	}
	if usernameTaken {
		return nil, ErrUsernameAlreadyExists
	}

	// Hash password using Argon2id
	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = s.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, password_hash, role, avg_rating,
			review_count, created_at, updated_at
	`, req.Username, req.Email, passwordHash, req.Role).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.AvgRating, &user.ReviewCount,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.startSession(ctx, &user)
}

// Login authenticates a user and issues a session
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user models.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, avg_rating,
			review_count, created_at, updated_at
		FROM users WHERE email = $1
	`, req.Email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.AvgRating, &user.ReviewCount,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Generic error to not reveal whether the email exists
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, &user)
}

// Logout deletes the session for the given token
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// GetUserByID retrieves a user by ID
func (s *Service) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, avg_rating,
			review_count, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.AvgRating, &user.ReviewCount,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// GetProfile retrieves a user's public profile
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// startSession issues a session token for the user
func (s *Service) startSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Session: SessionResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(s.sessions.TTL()),
			TokenType: "Bearer",
		},
	}, nil
}

// toUserResponse converts a User to UserResponse
func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		AvgRating:   user.AvgRating,
		ReviewCount: user.ReviewCount,
		CreatedAt:   user.CreatedAt,
	}
}
