package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nestlet/nestlet/internal/guard"
	"github.com/nestlet/nestlet/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSessionStore struct {
	sessions map[string]uuid.UUID
}

func (f *fakeSessionStore) Lookup(_ context.Context, token string) (uuid.UUID, bool, error) {
	id, ok := f.sessions[token]
	return id, ok, nil
}

type fakeListingStore struct {
	listings map[uuid.UUID]*models.Listing
}

func (f *fakeListingStore) FindListing(_ context.Context, id uuid.UUID) (*models.Listing, bool, error) {
	l, ok := f.listings[id]
	return l, ok, nil
}

func TestSessionAuth(t *testing.T) {
	actorID := uuid.New()
	sessions := guard.NewSession(&fakeSessionStore{
		sessions: map[string]uuid.UUID{"tok-valid": actorID},
	})

	router := gin.New()
	router.GET("/protected", SessionAuth(sessions), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserIDFromContext(c)})
	})

	t.Run("valid token passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer tok-valid")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("unknown token rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer tok-unknown")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", w.Code)
		}
	})
}

func TestRequireListingOwner(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	listingID := uuid.New()

	sessions := guard.NewSession(&fakeSessionStore{
		sessions: map[string]uuid.UUID{
			"tok-owner": owner,
			"tok-other": other,
		},
	})
	owners := guard.NewOwner(&fakeListingStore{
		listings: map[uuid.UUID]*models.Listing{
			listingID: {ID: listingID, OwnerID: owner, Title: "Cozy 1 Bed Flat"},
		},
	})

	router := gin.New()
	router.DELETE("/listings/:id",
		SessionAuth(sessions),
		RequireListingOwner(owners, "id"),
		func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

	request := func(token, id string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/listings/"+id, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("owner may modify", func(t *testing.T) {
		w := request("tok-owner", listingID.String())
		if w.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		w := request("tok-other", listingID.String())
		if w.Code != http.StatusForbidden {
			t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("missing listing not found", func(t *testing.T) {
		w := request("tok-owner", uuid.New().String())
		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("malformed listing id not found", func(t *testing.T) {
		w := request("tok-owner", "not-a-uuid")
		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unauthenticated never reaches ownership check", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/listings/"+listingID.String(), nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", w.Code)
		}
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"no prefix", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractBearerToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractBearerToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestIDFromContext(c))
	})

	t.Run("generated when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		router.ServeHTTP(w, req)

		if w.Header().Get("X-Request-ID") == "" {
			t.Fatal("Expected generated X-Request-ID header")
		}
		if w.Body.String() != w.Header().Get("X-Request-ID") {
			t.Fatal("Context request id does not match response header")
		}
	})

	t.Run("propagated when present", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		router.ServeHTTP(w, req)

		if w.Header().Get("X-Request-ID") != "req-42" {
			t.Fatalf("Expected propagated request id, got %q", w.Header().Get("X-Request-ID"))
		}
	})
}
