// Command seed resets the database and loads sample data: one landlord
// with a handful of listings and two tenants who have reviewed them.
// Reviews are submitted through the review service so the cached rating
// summaries are consistent with the review table after seeding.
package main

import (
	"context"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/nestlet/nestlet/internal/config"
	"github.com/nestlet/nestlet/internal/database"
	"github.com/nestlet/nestlet/internal/logging"
	"github.com/nestlet/nestlet/internal/models"
	"github.com/nestlet/nestlet/internal/review"
	"github.com/rs/zerolog/log"
)

type sampleUser struct {
	Username string
	Email    string
	Password string
	Role     models.UserRole
}

type sampleListing struct {
	Title       string
	Address     string
	Description string
	Price       float64
	ImageURL    string
}

type sampleReview struct {
	Rating  int
	Comment string
}

var sampleUsers = []sampleUser{
	{"JohnLandlord", "john@example.com", "password-john1", models.UserRoleLandlord},
	{"AliceTenant", "alice@example.com", "password-alice1", models.UserRoleTenant},
	{"BobTenant", "bob@example.com", "password-bob1", models.UserRoleTenant},
}

var sampleListings = []sampleListing{
	{
		Title:       "Modern Studio Apartment",
		Address:     "12 Oxford Road, Oxford",
		Description: "Bright studio close to universities and city centre.",
		Price:       950,
		ImageURL:    "https://images.unsplash.com/photo-1560448204-e02f11c3d0e2",
	},
	{
		Title:       "Luxury 2 Bedroom Flat",
		Address:     "89 Kensington High Street, London",
		Description: "Spacious flat with excellent transport links.",
		Price:       2450,
		ImageURL:    "https://images.unsplash.com/photo-1600585154340-be6161a56a0c",
	},
	{
		Title:       "Cozy 1 Bed Flat",
		Address:     "102 Broad Street, Birmingham",
		Description: "Perfect for young professionals.",
		Price:       850,
		ImageURL:    "https://images.unsplash.com/photo-1502672260266-1c1ef2d93688",
	},
	{
		Title:       "Family Home With Garden",
		Address:     "22 Richmond Avenue, Leeds",
		Description: "3 bed home ideal for families. Large garden.",
		Price:       1200,
		ImageURL:    "https://images.unsplash.com/photo-1570129477492-45c003edd2be",
	},
	{
		Title:       "Bright Loft Apartment",
		Address:     "21 George Square, Edinburgh",
		Description: "Stylish loft near historic centre.",
		Price:       1400,
		ImageURL:    "https://images.unsplash.com/photo-1568605114967-8130f3a36994",
	},
}

var sampleReviews = []sampleReview{
	{5, "John was a great landlord! Very responsive."},
	{4, "Nice flat, good communication overall."},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logging.Setup(&cfg.Logging, cfg.Server.Env)

	if cfg.Server.Env == "production" {
		log.Fatal().Msg("Refusing to seed a production database")
	}

	db, err := database.New(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()

	if err := reset(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset database")
	}

	userIDs, err := seedUsers(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed users")
	}

	landlordID := userIDs[0]
	if err := seedListings(ctx, db, landlordID); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed listings")
	}

	// Tenants review the landlord through the service so the cached
	// rating summary stays consistent with the review table
	reviews := review.NewService(db.Pool)
	for i, r := range sampleReviews {
		reviewerID := userIDs[i+1]
		_, err := reviews.Submit(ctx, reviewerID, landlordID, &review.SubmitReviewRequest{
			Rating:  r.Rating,
			Comment: r.Comment,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed review")
		}
	}

	log.Info().
		Int("users", len(sampleUsers)).
		Int("listings", len(sampleListings)).
		Int("reviews", len(sampleReviews)).
		Msg("Database seeded")
}

// reset removes all existing records, children first
func reset(ctx context.Context, db *database.DB) error {
	for _, table := range []string{"reviews", "listings", "users"} {
		if _, err := db.Pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(ctx context.Context, db *database.DB) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(sampleUsers))
	for _, u := range sampleUsers {
		hash, err := argon2id.CreateHash(u.Password, argon2id.DefaultParams)
		if err != nil {
			return nil, err
		}

		var id uuid.UUID
		err = db.Pool.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, u.Username, u.Email, hash, u.Role).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedListings(ctx context.Context, db *database.DB, ownerID uuid.UUID) error {
	for _, l := range sampleListings {
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO listings (owner_id, title, address, description, price, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ownerID, l.Title, l.Address, l.Description, l.Price, l.ImageURL)
		if err != nil {
			return err
		}
	}
	return nil
}
