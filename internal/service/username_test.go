package service

import (
	"context"
	"errors"
	"testing"

	"github.com/profilehub/backend/internal/model"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// UsernameService depends on the ReservationRepository INTERFACE, so tests can
// swap in a mock that returns controlled responses and records calls.

type mockReservationRepo struct {
	getFn     func(ctx context.Context, username string) (*model.UsernameReservation, error)
	releaseFn func(ctx context.Context, username string) error
	claimFn   func(ctx context.Context, username, ownerID string) error

	getCalls     []string
	releaseCalls []string
	claimCalls   []string
}

func (m *mockReservationRepo) Get(ctx context.Context, username string) (*model.UsernameReservation, error) {
	m.getCalls = append(m.getCalls, username)
	if m.getFn != nil {
		return m.getFn(ctx, username)
	}
	return nil, nil
}

func (m *mockReservationRepo) Release(ctx context.Context, username string) error {
	m.releaseCalls = append(m.releaseCalls, username)
	if m.releaseFn != nil {
		return m.releaseFn(ctx, username)
	}
	return nil
}

func (m *mockReservationRepo) Claim(ctx context.Context, username, ownerID string) error {
	m.claimCalls = append(m.claimCalls, username)
	if m.claimFn != nil {
		return m.claimFn(ctx, username, ownerID)
	}
	return nil
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	svc := NewUsernameService(&mockReservationRepo{}, nil)

	tests := []struct {
		name      string
		candidate string
		wantErr   bool
	}{
		{"simple lowercase", "alice", false},
		{"mixed case", "AliceB", false},
		{"digits and underscore", "alice_99", false},
		{"minimum length", "abc", false},
		{"maximum length", "a2345678901234567890", false},
		{"too short", "ab", true},
		{"too long", "a23456789012345678901", true},
		{"empty", "", true},
		{"hyphen", "alice-b", true},
		{"space", "alice b", true},
		{"dot", "alice.b", true},
		{"unicode", "alïce", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(tt.candidate)
			if tt.wantErr && !errors.Is(err, model.ErrInvalidFormat) {
				t.Errorf("Validate(%q) = %v, want ErrInvalidFormat", tt.candidate, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tt.candidate, err)
			}
		})
	}
}

// =============================================================================
// AVAILABILITY TESTS
// =============================================================================

func strPtr(s string) *string { return &s }

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	const me = "user-1"
	const other = "user-2"

	t.Run("invalid format answered without store read", func(t *testing.T) {
		repo := &mockReservationRepo{}
		svc := NewUsernameService(repo, nil)

		avail, err := svc.CheckAvailability(ctx, "a!", me, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if avail.Available {
			t.Error("invalid candidate reported available")
		}
		if len(repo.getCalls) != 0 {
			t.Errorf("store read for invalid candidate: %v", repo.getCalls)
		}
	})

	t.Run("current username answered without store read", func(t *testing.T) {
		repo := &mockReservationRepo{}
		svc := NewUsernameService(repo, nil)

		avail, err := svc.CheckAvailability(ctx, "Alice", me, "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !avail.Available {
			t.Errorf("own username reported unavailable: %+v", avail)
		}
		if len(repo.getCalls) != 0 {
			t.Errorf("store read for own username: %v", repo.getCalls)
		}
	})

	t.Run("no reservation document means available", func(t *testing.T) {
		repo := &mockReservationRepo{}
		svc := NewUsernameService(repo, nil)

		avail, err := svc.CheckAvailability(ctx, "newname", me, "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !avail.Available {
			t.Errorf("absent reservation reported unavailable: %+v", avail)
		}
	})

	t.Run("released reservation means available", func(t *testing.T) {
		repo := &mockReservationRepo{
			getFn: func(ctx context.Context, username string) (*model.UsernameReservation, error) {
				return &model.UsernameReservation{Username: username, OwnerID: nil}, nil
			},
		}
		svc := NewUsernameService(repo, nil)

		avail, err := svc.CheckAvailability(ctx, "oldname", me, "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !avail.Available {
			t.Errorf("released reservation reported unavailable: %+v", avail)
		}
	})

	t.Run("held by caller means available", func(t *testing.T) {
		repo := &mockReservationRepo{
			getFn: func(ctx context.Context, username string) (*model.UsernameReservation, error) {
				return &model.UsernameReservation{Username: username, OwnerID: strPtr(me)}, nil
			},
		}
		svc := NewUsernameService(repo, nil)

		avail, err := svc.CheckAvailability(ctx, "mine", me, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !avail.Available {
			t.Errorf("caller's own reservation reported unavailable: %+v", avail)
		}
	})

	t.Run("held by another owner means taken", func(t *testing.T) {
		repo := &mockReservationRepo{
			getFn: func(ctx context.Context, username string) (*model.UsernameReservation, error) {
				return &model.UsernameReservation{Username: username, OwnerID: strPtr(other)}, nil
			},
		}
		svc := NewUsernameService(repo, nil)

		avail, err := svc.CheckAvailability(ctx, "taken", me, "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if avail.Available {
			t.Error("foreign reservation reported available")
		}
		if avail.Message == "" {
			t.Error("taken result has no message")
		}
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		repo := &mockReservationRepo{
			getFn: func(ctx context.Context, username string) (*model.UsernameReservation, error) {
				if username != "taken" {
					t.Errorf("lookup key = %q, want lowercase %q", username, "taken")
				}
				return &model.UsernameReservation{Username: username, OwnerID: strPtr(other)}, nil
			},
		}
		svc := NewUsernameService(repo, nil)

		avail, err := svc.CheckAvailability(ctx, "TaKeN", me, "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if avail.Available {
			t.Error("case variant of foreign reservation reported available")
		}
	})

	t.Run("store failure is unknown, not available", func(t *testing.T) {
		repo := &mockReservationRepo{
			getFn: func(ctx context.Context, username string) (*model.UsernameReservation, error) {
				return nil, errors.New("connection reset")
			},
		}
		svc := NewUsernameService(repo, nil)

		_, err := svc.CheckAvailability(ctx, "newname", me, "alice")
		if !errors.Is(err, model.ErrLookupFailed) {
			t.Errorf("error = %v, want ErrLookupFailed", err)
		}
	})
}

// =============================================================================
// CACHE INTERACTION TESTS
// =============================================================================

type mockAvailabilityCache struct {
	entries map[string]model.Availability

	getCalls int
	setCalls int
}

func (m *mockAvailabilityCache) Get(ctx context.Context, username string) (model.Availability, bool, error) {
	m.getCalls++
	avail, ok := m.entries[username]
	return avail, ok, nil
}

func (m *mockAvailabilityCache) Set(ctx context.Context, username string, result model.Availability) error {
	m.setCalls++
	m.entries[username] = result
	return nil
}

func (m *mockAvailabilityCache) Invalidate(ctx context.Context, username string) error {
	delete(m.entries, username)
	return nil
}

func TestCheckAvailabilityUsesCache(t *testing.T) {
	ctx := context.Background()

	repo := &mockReservationRepo{}
	avCache := &mockAvailabilityCache{entries: map[string]model.Availability{
		"cached": {Available: false, Message: "username already taken"},
	}}
	svc := NewUsernameService(repo, avCache)

	avail, err := svc.CheckAvailability(ctx, "cached", "user-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.Available {
		t.Error("cached taken answer ignored")
	}
	if len(repo.getCalls) != 0 {
		t.Errorf("store read despite cache hit: %v", repo.getCalls)
	}

	// Miss populates the cache.
	if _, err := svc.CheckAvailability(ctx, "fresh", "user-1", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avCache.setCalls != 1 {
		t.Errorf("setCalls = %d, want 1", avCache.setCalls)
	}
}

func TestHeldNameVerdictNotSharedAcrossRequesters(t *testing.T) {
	ctx := context.Background()
	const holder = "user-x"
	const other = "user-y"

	repo := &mockReservationRepo{
		getFn: func(ctx context.Context, username string) (*model.UsernameReservation, error) {
			return &model.UsernameReservation{Username: username, OwnerID: strPtr(holder)}, nil
		},
	}
	avCache := &mockAvailabilityCache{entries: make(map[string]model.Availability)}
	svc := NewUsernameService(repo, avCache)

	// The holder checks first and sees their own name as available.
	avail, err := svc.CheckAvailability(ctx, "held", holder, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !avail.Available {
		t.Errorf("holder's own name reported unavailable: %+v", avail)
	}

	// That verdict must not be cached: checked by another user, the same
	// name is taken.
	if avCache.setCalls != 0 {
		t.Errorf("requester-specific verdict entered the cache: setCalls = %d", avCache.setCalls)
	}
	avail, err = svc.CheckAvailability(ctx, "held", other, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.Available {
		t.Error("name held by another user reported available")
	}
	if avCache.setCalls != 0 {
		t.Errorf("taken verdict entered the cache: setCalls = %d", avCache.setCalls)
	}
}
