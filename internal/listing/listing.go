package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nestlet/nestlet/internal/models"
)

// Service errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNotOwner        = errors.New("listing not owned by user")
	ErrInvalidPrice    = errors.New("invalid price: must be greater than zero")
)

// Service handles listing operations
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new listing service
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// CreateListingRequest represents a request to create a listing
type CreateListingRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=100"`
	Address     string  `json:"address" binding:"required,min=1,max=200"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price" binding:"required"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// UpdateListingRequest represents a request to update a listing
type UpdateListingRequest struct {
	Title       *string  `json:"title,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

// ValidatePrice validates that the price is positive
func ValidatePrice(price float64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Create creates a new listing owned by the given user
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateListingRequest) (*models.Listing, error) {
	if err := ValidatePrice(req.Price); err != nil {
		return nil, err
	}

	var l models.Listing
	err := s.db.QueryRow(ctx, `
		INSERT INTO listings (owner_id, title, address, description, price, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, owner_id, title, address, description, price, image_url,
			created_at, updated_at
	`, ownerID, req.Title, req.Address, req.Description, req.Price, req.ImageURL).Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Address, &l.Description,
		&l.Price, &l.ImageURL, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return &l, nil
}

// GetByID retrieves a listing by ID
func (s *Service) GetByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var l models.Listing
	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id, title, address, description, price, image_url,
			created_at, updated_at
		FROM listings WHERE id = $1
	`, listingID).Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Address, &l.Description,
		&l.Price, &l.ImageURL, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &l, nil
}

// FindListing implements guard.ListingFinder
func (s *Service) FindListing(ctx context.Context, id uuid.UUID) (*models.Listing, bool, error) {
	l, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return l, true, nil
}

// List retrieves all listings, newest first
func (s *Service) List(ctx context.Context) ([]models.Listing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, title, address, description, price, image_url,
			created_at, updated_at
		FROM listings
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		err := rows.Scan(
			&l.ID, &l.OwnerID, &l.Title, &l.Address, &l.Description,
			&l.Price, &l.ImageURL, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}

	return listings, nil
}

// Update updates a listing. Ownership is enforced again here even though
// the route layer runs the ownership guard first.
func (s *Service) Update(ctx context.Context, listingID, actorID uuid.UUID, req *UpdateListingRequest) (*models.Listing, error) {
	l, err := s.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if l.OwnerID != actorID {
		return nil, ErrNotOwner
	}

	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Address != nil {
		l.Address = *req.Address
	}
	if req.Description != nil {
		l.Description = req.Description
	}
	if req.Price != nil {
		if err := ValidatePrice(*req.Price); err != nil {
			return nil, err
		}
		l.Price = *req.Price
	}
	if req.ImageURL != nil {
		l.ImageURL = req.ImageURL
	}

	err = s.db.QueryRow(ctx, `
		UPDATE listings SET
			title = $1, address = $2, description = $3, price = $4,
			image_url = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING id, owner_id, title, address, description, price, image_url,
			created_at, updated_at
	`, l.Title, l.Address, l.Description, l.Price, l.ImageURL, listingID).Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Address, &l.Description,
		&l.Price, &l.ImageURL, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	return l, nil
}

// Delete deletes a listing owned by the actor
func (s *Service) Delete(ctx context.Context, listingID, actorID uuid.UUID) error {
	l, err := s.GetByID(ctx, listingID)
	if err != nil {
		return err
	}

	if l.OwnerID != actorID {
		return ErrNotOwner
	}

	_, err = s.db.Exec(ctx, `DELETE FROM listings WHERE id = $1`, listingID)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	return nil
}
