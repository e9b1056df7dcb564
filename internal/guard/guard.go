// Package guard provides composable authorization checks. Guards decide,
// they never render or redirect; the route layer maps decisions to HTTP
// responses.
package guard

import (
	"context"

	"github.com/google/uuid"
	"github.com/nestlet/nestlet/internal/models"
)

// Status is the tagged outcome of a guard check
type Status int

const (
	Authorized Status = iota
	Unauthenticated
	Forbidden
	NotFound
)

// String returns the name of the status
func (s Status) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Decision is the result of a guard check. ActorID is set only when the
// status is Authorized and the guard resolved an actor identity.
type Decision struct {
	Status  Status
	ActorID uuid.UUID
}

// SessionStore resolves a session token to the actor it belongs to.
// found is false when no session exists for the token.
type SessionStore interface {
	Lookup(ctx context.Context, token string) (actorID uuid.UUID, found bool, err error)
}

// Session decides whether a request carries an authenticated actor
type Session struct {
	store SessionStore
}

// NewSession creates a session guard backed by the given store
func NewSession(store SessionStore) *Session {
	return &Session{store: store}
}

// Check resolves the session token to an actor identity. An empty or
// unknown token yields Unauthenticated; store failures are returned as
// errors so the caller can surface them as persistence failures.
func (g *Session) Check(ctx context.Context, token string) (Decision, error) {
	if token == "" {
		return Decision{Status: Unauthenticated}, nil
	}

	actorID, found, err := g.store.Lookup(ctx, token)
	if err != nil {
		return Decision{}, err
	}
	if !found {
		return Decision{Status: Unauthenticated}, nil
	}

	return Decision{Status: Authorized, ActorID: actorID}, nil
}

// ListingFinder looks up a listing by id. found is false when no listing
// with that id exists.
type ListingFinder interface {
	FindListing(ctx context.Context, id uuid.UUID) (listing *models.Listing, found bool, err error)
}

// Owner decides whether an actor owns a listing. It must run strictly
// after the session guard: the actor id it receives is assumed to come
// from an authenticated session.
type Owner struct {
	listings ListingFinder
}

// NewOwner creates an ownership guard backed by the given listing finder
func NewOwner(listings ListingFinder) *Owner {
	return &Owner{listings: listings}
}

// Check looks up the listing and compares its owner against the actor.
// Both ids arrive as strings from route params and session state and are
// normalized through uuid parsing before comparison.
func (g *Owner) Check(ctx context.Context, actorID, listingID string) (Decision, error) {
	lid, err := uuid.Parse(listingID)
	if err != nil {
		// A malformed id can never name an existing listing
		return Decision{Status: NotFound}, nil
	}

	aid, err := uuid.Parse(actorID)
	if err != nil {
		return Decision{Status: Forbidden}, nil
	}

	listing, found, err := g.listings.FindListing(ctx, lid)
	if err != nil {
		return Decision{}, err
	}
	if !found {
		return Decision{Status: NotFound}, nil
	}

	if listing.OwnerID != aid {
		return Decision{Status: Forbidden}, nil
	}

	return Decision{Status: Authorized, ActorID: aid}, nil
}
