package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nestlet/nestlet/internal/auth"
	apierrors "github.com/nestlet/nestlet/internal/errors"
	"github.com/nestlet/nestlet/internal/listing"
	"github.com/nestlet/nestlet/internal/logging"
	"github.com/nestlet/nestlet/internal/middleware"
	"github.com/nestlet/nestlet/internal/monitoring"
	"github.com/nestlet/nestlet/internal/review"
)

// handleRegister handles user registration
func (s *APIServer) handleRegister(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	resp, err := s.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			respondError(c, apierrors.NewInvalidRequestError("Email already registered"))
		case errors.Is(err, auth.ErrUsernameAlreadyExists):
			respondError(c, apierrors.NewInvalidRequestError("Username already taken"))
		case errors.Is(err, auth.ErrInvalidRole):
			respondError(c, apierrors.NewValidationError("Role must be tenant or landlord"))
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	monitoring.RecordUserRegistered()
	monitoring.RecordSessionIssued()
	c.JSON(http.StatusCreated, resp)
}

// handleLogin handles user login
func (s *APIServer) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	resp, err := s.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logging.LogSecurityEvent("login_failed", "", c.ClientIP(), "invalid credentials")
			respondError(c, apierrors.ErrInvalidCredentialsError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	monitoring.RecordSessionIssued()
	c.JSON(http.StatusOK, resp)
}

// handleLogout deletes the caller's session
func (s *APIServer) handleLogout(c *gin.Context) {
	token := middleware.GetSessionTokenFromContext(c)

	if err := s.authService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, apierrors.ErrPersistenceError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out"})
}

// handleGetProfile returns a user's public profile with their reviews
func (s *APIServer) handleGetProfile(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrUserNotFoundError)
		return
	}

	profile, err := s.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondError(c, apierrors.ErrUserNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	reviews, err := s.reviewService.GetForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"reviews": reviews,
	})
}

// handleGetReviews returns all reviews for a user with their aggregate
func (s *APIServer) handleGetReviews(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrUserNotFoundError)
		return
	}

	resp, err := s.reviewService.GetForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, review.ErrUserNotFound) {
			respondError(c, apierrors.ErrUserNotFoundError)
		} else {
			respondError(c, apierrors.ErrPersistenceError)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleSubmitReview persists a review for the user named in the route
func (s *APIServer) handleSubmitReview(c *gin.Context) {
	reviewerID, err := uuid.Parse(middleware.GetUserIDFromContext(c))
	if err != nil {
		respondError(c, apierrors.ErrUnauthenticatedError)
		return
	}

	reviewedUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrUserNotFoundError)
		return
	}

	var req review.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	resp, err := s.reviewService.Submit(c.Request.Context(), reviewerID, reviewedUserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrUserNotFound):
			respondError(c, apierrors.ErrUserNotFoundError)
		case errors.Is(err, review.ErrSelfReview):
			respondError(c, apierrors.NewInvalidRequestError("You cannot review yourself"))
		case errors.Is(err, review.ErrInvalidRating):
			respondError(c, apierrors.NewValidationError("Rating must be between 1 and 5"))
		case errors.Is(err, review.ErrCommentTooLong):
			respondError(c, apierrors.NewValidationError("Comment cannot exceed 500 characters"))
		default:
			respondError(c, apierrors.ErrPersistenceError)
		}
		return
	}

	monitoring.RecordReviewSubmitted(resp.Review.Rating)
	logging.LogReviewSubmitted(
		middleware.GetRequestIDFromContext(c),
		reviewerID.String(), reviewedUserID.String(),
		resp.Review.Rating, resp.Summary.Count, resp.Summary.Mean,
	)

	c.JSON(http.StatusCreated, resp)
}

// handleListListings returns all listings
func (s *APIServer) handleListListings(c *gin.Context) {
	listings, err := s.listingService.List(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrPersistenceError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// handleGetListing returns one listing
func (s *APIServer) handleGetListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrListingNotFoundError)
		return
	}

	l, err := s.listingService.GetByID(c.Request.Context(), listingID)
	if err != nil {
		if errors.Is(err, listing.ErrListingNotFound) {
			respondError(c, apierrors.ErrListingNotFoundError)
		} else {
			respondError(c, apierrors.ErrPersistenceError)
		}
		return
	}

	c.JSON(http.StatusOK, l)
}

// handleCreateListing creates a listing owned by the caller
func (s *APIServer) handleCreateListing(c *gin.Context) {
	ownerID, err := uuid.Parse(middleware.GetUserIDFromContext(c))
	if err != nil {
		respondError(c, apierrors.ErrUnauthenticatedError)
		return
	}

	var req listing.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	l, err := s.listingService.Create(c.Request.Context(), ownerID, &req)
	if err != nil {
		if errors.Is(err, listing.ErrInvalidPrice) {
			respondError(c, apierrors.NewValidationError("Price must be greater than zero"))
		} else {
			respondError(c, apierrors.ErrPersistenceError)
		}
		return
	}

	monitoring.RecordListingCreated()
	c.JSON(http.StatusCreated, l)
}

// handleUpdateListing updates a listing. The ownership guard has already
// authorized the caller; the service re-checks ownership all the same.
func (s *APIServer) handleUpdateListing(c *gin.Context) {
	actorID, err := uuid.Parse(middleware.GetUserIDFromContext(c))
	if err != nil {
		respondError(c, apierrors.ErrUnauthenticatedError)
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrListingNotFoundError)
		return
	}

	var req listing.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	l, err := s.listingService.Update(c.Request.Context(), listingID, actorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, listing.ErrListingNotFound):
			respondError(c, apierrors.ErrListingNotFoundError)
		case errors.Is(err, listing.ErrNotOwner):
			respondError(c, apierrors.ErrNotOwnerError)
		case errors.Is(err, listing.ErrInvalidPrice):
			respondError(c, apierrors.NewValidationError("Price must be greater than zero"))
		default:
			respondError(c, apierrors.ErrPersistenceError)
		}
		return
	}

	c.JSON(http.StatusOK, l)
}

// handleDeleteListing deletes a listing
func (s *APIServer) handleDeleteListing(c *gin.Context) {
	actorID, err := uuid.Parse(middleware.GetUserIDFromContext(c))
	if err != nil {
		respondError(c, apierrors.ErrUnauthenticatedError)
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrListingNotFoundError)
		return
	}

	err = s.listingService.Delete(c.Request.Context(), listingID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, listing.ErrListingNotFound):
			respondError(c, apierrors.ErrListingNotFoundError)
		case errors.Is(err, listing.ErrNotOwner):
			respondError(c, apierrors.ErrNotOwnerError)
		default:
			respondError(c, apierrors.ErrPersistenceError)
		}
		return
	}

	monitoring.RecordListingDeleted()
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}
