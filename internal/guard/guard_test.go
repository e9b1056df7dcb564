package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nestlet/nestlet/internal/models"
)

type fakeSessionStore struct {
	sessions map[string]uuid.UUID
	err      error
}

func (f *fakeSessionStore) Lookup(_ context.Context, token string) (uuid.UUID, bool, error) {
	if f.err != nil {
		return uuid.Nil, false, f.err
	}
	id, ok := f.sessions[token]
	return id, ok, nil
}

type fakeListingStore struct {
	listings map[uuid.UUID]*models.Listing
	err      error
}

func (f *fakeListingStore) FindListing(_ context.Context, id uuid.UUID) (*models.Listing, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	l, ok := f.listings[id]
	return l, ok, nil
}

func TestSessionGuard(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()
	store := &fakeSessionStore{sessions: map[string]uuid.UUID{"tok-valid": actorID}}
	g := NewSession(store)

	t.Run("valid token", func(t *testing.T) {
		d, err := g.Check(ctx, "tok-valid")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Status != Authorized {
			t.Fatalf("Expected Authorized, got %v", d.Status)
		}
		if d.ActorID != actorID {
			t.Fatalf("Expected actor %v, got %v", actorID, d.ActorID)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		d, err := g.Check(ctx, "")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Status != Unauthenticated {
			t.Fatalf("Expected Unauthenticated, got %v", d.Status)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		d, err := g.Check(ctx, "tok-unknown")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Status != Unauthenticated {
			t.Fatalf("Expected Unauthenticated, got %v", d.Status)
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		broken := NewSession(&fakeSessionStore{err: errors.New("redis down")})
		_, err := broken.Check(ctx, "tok-valid")
		if err == nil {
			t.Fatal("Expected error from failing store")
		}
	})
}

func TestOwnerGuard(t *testing.T) {
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()
	listingID := uuid.New()

	store := &fakeListingStore{listings: map[uuid.UUID]*models.Listing{
		listingID: {ID: listingID, OwnerID: owner, Title: "Modern Studio Apartment"},
	}}
	g := NewOwner(store)

	t.Run("owner is authorized", func(t *testing.T) {
		d, err := g.Check(ctx, owner.String(), listingID.String())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Status != Authorized {
			t.Fatalf("Expected Authorized, got %v", d.Status)
		}
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		d, err := g.Check(ctx, other.String(), listingID.String())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Status != Forbidden {
			t.Fatalf("Expected Forbidden, got %v", d.Status)
		}
	})

	t.Run("missing listing is not found", func(t *testing.T) {
		d, err := g.Check(ctx, owner.String(), uuid.New().String())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Status != NotFound {
			t.Fatalf("Expected NotFound, got %v", d.Status)
		}
	})

	t.Run("malformed listing id is not found", func(t *testing.T) {
		d, err := g.Check(ctx, owner.String(), "not-a-uuid")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Status != NotFound {
			t.Fatalf("Expected NotFound, got %v", d.Status)
		}
	})

	t.Run("ids are normalized before comparison", func(t *testing.T) {
		// Same identity in a different string representation
		d, err := g.Check(ctx, strings.ToUpper(owner.String()), listingID.String())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Status != Authorized {
			t.Fatalf("Expected Authorized for normalized id, got %v", d.Status)
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		broken := NewOwner(&fakeListingStore{err: errors.New("db down")})
		_, err := broken.Check(ctx, owner.String(), listingID.String())
		if err == nil {
			t.Fatal("Expected error from failing store")
		}
	})
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		Authorized:      "authorized",
		Unauthenticated: "unauthenticated",
		Forbidden:       "forbidden",
		NotFound:        "not_found",
	}
	for status, want := range cases {
		if status.String() != want {
			t.Fatalf("Status %d: got %q, want %q", status, status.String(), want)
		}
	}
}
