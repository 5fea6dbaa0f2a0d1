package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/profilehub/backend/internal/livecheck"
	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/repository"
	"github.com/profilehub/backend/internal/service"
	"github.com/profilehub/backend/internal/transport/http/middleware"
)

// =============================================================================
// STUB REPOSITORIES
// =============================================================================

type stubProfileRepo struct {
	profile *model.Profile
}

func (s *stubProfileRepo) Get(ctx context.Context, ownerID string) (*model.Profile, error) {
	if s.profile != nil && s.profile.OwnerID == ownerID {
		cp := *s.profile
		return &cp, nil
	}
	return nil, model.ErrProfileNotFound
}

func (s *stubProfileRepo) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	if s.profile != nil && s.profile.Username == username {
		cp := *s.profile
		return &cp, nil
	}
	return nil, model.ErrProfileNotFound
}

func (s *stubProfileRepo) Upsert(ctx context.Context, ownerID string, update repository.ProfileUpdate) (*model.Profile, error) {
	cp := *s.profile
	return &cp, nil
}

type stubReservationRepo struct {
	owners map[string]string // username -> holder
}

func (s *stubReservationRepo) Get(ctx context.Context, username string) (*model.UsernameReservation, error) {
	owner, ok := s.owners[username]
	if !ok {
		return nil, nil
	}
	return &model.UsernameReservation{Username: username, OwnerID: &owner}, nil
}

func (s *stubReservationRepo) Release(ctx context.Context, username string) error { return nil }

func (s *stubReservationRepo) Claim(ctx context.Context, username, ownerID string) error {
	return nil
}

// =============================================================================
// TEST SETUP
// =============================================================================

func newCheckHandler(quiet time.Duration) *UsernameHandler {
	profiles := &stubProfileRepo{profile: &model.Profile{
		OwnerID:     "user-1",
		DisplayName: "Alice",
		Username:    "alice",
	}}
	reservations := &stubReservationRepo{owners: map[string]string{"bob": "user-2"}}

	usernames := service.NewUsernameService(reservations, nil)
	profileService := service.NewProfileService(profiles, reservations, usernames, nil, nil)
	return NewUsernameHandler(usernames, profileService, livecheck.NewRegistry(quiet))
}

func doCheck(t *testing.T, h *UsernameHandler, target string) livecheck.Status {
	t.Helper()

	req := httptest.NewRequest("GET", target, nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "user-1"))
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	var status livecheck.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return status
}

// =============================================================================
// CHECK TESTS
// =============================================================================

func TestCheckIgnoresClientSuppliedCurrent(t *testing.T) {
	h := newCheckHandler(20 * time.Millisecond)

	// "bob" is held by another user. A client forging current=bob must not
	// get the instant "that's already your name" green.
	status := doCheck(t, h, "/me/username/check?candidate=bob&current=bob")
	if status.Valid && !status.Checking {
		t.Fatalf("forged current parameter produced an instant positive: %+v", status)
	}

	time.Sleep(100 * time.Millisecond)

	status = doCheck(t, h, "/me/username/check?candidate=bob")
	if status.Valid {
		t.Errorf("name held by another user reported valid: %+v", status)
	}
}

func TestCheckOwnStoredUsernameIsInstantGreen(t *testing.T) {
	h := newCheckHandler(20 * time.Millisecond)

	// The caller's stored username, in any case, resets immediately.
	status := doCheck(t, h, "/me/username/check?candidate=Alice")
	if !status.Valid || status.Checking || status.Message != "" {
		t.Errorf("own stored username = %+v, want instant initial state", status)
	}
}
