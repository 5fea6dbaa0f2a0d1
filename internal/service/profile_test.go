package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/queue"
	"github.com/profilehub/backend/internal/repository"
)

// =============================================================================
// IN-MEMORY FAKES
// =============================================================================
//
// The swap tests care about end state across two collections, so instead of
// per-call stubs these fakes keep real maps and implement the same conditional
// claim semantics as the Mongo repository.

type fakeProfileRepo struct {
	profiles map[string]*model.Profile

	upsertCalls int
	failUpsert  bool
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (f *fakeProfileRepo) Get(ctx context.Context, ownerID string) (*model.Profile, error) {
	p, ok := f.profiles[ownerID]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	for _, p := range f.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, model.ErrProfileNotFound
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, ownerID string, update repository.ProfileUpdate) (*model.Profile, error) {
	f.upsertCalls++
	if f.failUpsert {
		return nil, errors.New("write concern error")
	}

	p, ok := f.profiles[ownerID]
	if !ok {
		p = &model.Profile{OwnerID: ownerID, CreatedAt: time.Now()}
		f.profiles[ownerID] = p
	}
	if update.DisplayName != nil {
		p.DisplayName = *update.DisplayName
	}
	if update.Username != nil {
		p.Username = *update.Username
	}
	if update.Bio != nil {
		p.Bio = update.Bio
	}
	if update.AvatarURL != nil {
		p.AvatarURL = update.AvatarURL
	}
	if update.AvatarKey != nil {
		p.AvatarKey = update.AvatarKey
	}
	if update.Email != nil {
		p.Email = *update.Email
	}
	p.UpdatedAt = time.Now()

	cp := *p
	return &cp, nil
}

type fakeReservationRepo struct {
	reservations map[string]*model.UsernameReservation

	releaseCalls int
	claimCalls   int
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[string]*model.UsernameReservation)}
}

func (f *fakeReservationRepo) hold(username, ownerID string) {
	owner := ownerID
	f.reservations[username] = &model.UsernameReservation{Username: username, OwnerID: &owner}
}

func (f *fakeReservationRepo) Get(ctx context.Context, username string) (*model.UsernameReservation, error) {
	r, ok := f.reservations[username]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservationRepo) Release(ctx context.Context, username string) error {
	f.releaseCalls++
	r, ok := f.reservations[username]
	if !ok {
		f.reservations[username] = &model.UsernameReservation{Username: username}
		return nil
	}
	r.OwnerID = nil
	return nil
}

func (f *fakeReservationRepo) Claim(ctx context.Context, username, ownerID string) error {
	f.claimCalls++
	r, ok := f.reservations[username]
	if ok && !r.Released() && !r.HeldBy(ownerID) {
		return model.ErrUsernameTaken
	}
	f.hold(username, ownerID)
	return nil
}

type fakePublisher struct {
	events []queue.ProfileEvent
}

func (f *fakePublisher) Publish(ctx context.Context, stream string, event queue.ProfileEvent) (string, error) {
	f.events = append(f.events, event)
	return "1-0", nil
}

func (f *fakePublisher) lastType() string {
	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1].Type
}

func newTestProfileService() (*ProfileService, *fakeProfileRepo, *fakeReservationRepo, *fakePublisher) {
	profiles := newFakeProfileRepo()
	reservations := newFakeReservationRepo()
	publisher := &fakePublisher{}
	usernames := NewUsernameService(reservations, nil)
	svc := NewProfileService(profiles, reservations, usernames, nil, publisher)
	return svc, profiles, reservations, publisher
}

// seedProfile installs an existing profile and its reservation.
func seedProfile(profiles *fakeProfileRepo, reservations *fakeReservationRepo, ownerID, username string) {
	profiles.profiles[ownerID] = &model.Profile{
		OwnerID:     ownerID,
		DisplayName: "Alice",
		Username:    username,
		CreatedAt:   time.Now(),
	}
	reservations.hold(username, ownerID)
}

// =============================================================================
// USERNAME SWAP TESTS
// =============================================================================

func TestUpdateSwapsUsername(t *testing.T) {
	ctx := context.Background()
	svc, profiles, reservations, publisher := newTestProfileService()
	seedProfile(profiles, reservations, "user-1", "alice")

	newName := "Bob_99"
	got, err := svc.Update(ctx, "user-1", &model.UpdateProfileRequest{Username: &newName})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got.Username != "bob_99" {
		t.Errorf("profile username = %q, want %q", got.Username, "bob_99")
	}

	oldRes := reservations.reservations["alice"]
	if oldRes == nil || !oldRes.Released() {
		t.Errorf("old reservation not released: %+v", oldRes)
	}
	newRes := reservations.reservations["bob_99"]
	if newRes == nil || !newRes.HeldBy("user-1") {
		t.Errorf("new reservation not held by owner: %+v", newRes)
	}

	if publisher.lastType() != queue.EventUsernameChanged {
		t.Errorf("published event = %q, want %q", publisher.lastType(), queue.EventUsernameChanged)
	}
}

func TestUpdateCaseOnlyChangeIsNoSwap(t *testing.T) {
	ctx := context.Background()
	svc, profiles, reservations, publisher := newTestProfileService()
	seedProfile(profiles, reservations, "user-1", "alice")

	caseVariant := "ALICE"
	bio := "hello"
	got, err := svc.Update(ctx, "user-1", &model.UpdateProfileRequest{Username: &caseVariant, Bio: &bio})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got.Username != "alice" {
		t.Errorf("profile username = %q, want unchanged %q", got.Username, "alice")
	}
	if reservations.releaseCalls != 0 || reservations.claimCalls != 0 {
		t.Errorf("reservation writes for case-only change: release=%d claim=%d",
			reservations.releaseCalls, reservations.claimCalls)
	}
	if profiles.upsertCalls != 1 {
		t.Errorf("upsertCalls = %d, want 1", profiles.upsertCalls)
	}
	if publisher.lastType() != queue.EventProfileUpdated {
		t.Errorf("published event = %q, want %q", publisher.lastType(), queue.EventProfileUpdated)
	}
}

func TestUpdateTakenUsernameReclaimsOld(t *testing.T) {
	ctx := context.Background()
	svc, profiles, reservations, _ := newTestProfileService()
	seedProfile(profiles, reservations, "user-1", "alice")
	reservations.hold("bob", "user-2")

	newName := "bob"
	_, err := svc.Update(ctx, "user-1", &model.UpdateProfileRequest{Username: &newName})
	if !errors.Is(err, model.ErrUsernameTaken) {
		t.Fatalf("error = %v, want ErrUsernameTaken", err)
	}

	// The loser keeps the foreign reservation intact and gets their own
	// name back.
	bobRes := reservations.reservations["bob"]
	if bobRes == nil || !bobRes.HeldBy("user-2") {
		t.Errorf("foreign reservation disturbed: %+v", bobRes)
	}
	aliceRes := reservations.reservations["alice"]
	if aliceRes == nil || !aliceRes.HeldBy("user-1") {
		t.Errorf("old reservation not re-claimed: %+v", aliceRes)
	}

	// No profile write happened.
	p, _ := profiles.Get(ctx, "user-1")
	if p.Username != "alice" {
		t.Errorf("profile username = %q, want unchanged %q", p.Username, "alice")
	}
}

func TestUpdateInvalidUsernameRejectedBeforeSwap(t *testing.T) {
	ctx := context.Background()
	svc, profiles, reservations, _ := newTestProfileService()
	seedProfile(profiles, reservations, "user-1", "alice")

	bad := "a!"
	_, err := svc.Update(ctx, "user-1", &model.UpdateProfileRequest{Username: &bad})
	if !errors.Is(err, model.ErrInvalidFormat) {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}
	if reservations.releaseCalls != 0 || reservations.claimCalls != 0 {
		t.Errorf("reservation writes for invalid candidate: release=%d claim=%d",
			reservations.releaseCalls, reservations.claimCalls)
	}
}

func TestUpdateProfileWriteFailureAfterSwap(t *testing.T) {
	ctx := context.Background()
	svc, profiles, reservations, _ := newTestProfileService()
	seedProfile(profiles, reservations, "user-1", "alice")
	profiles.failUpsert = true

	newName := "bob"
	_, err := svc.Update(ctx, "user-1", &model.UpdateProfileRequest{Username: &newName})
	if !errors.Is(err, model.ErrWriteFailed) {
		t.Fatalf("error = %v, want ErrWriteFailed", err)
	}

	// No rollback: the reservations keep the new state and reconciliation
	// is left to the worker.
	newRes := reservations.reservations["bob"]
	if newRes == nil || !newRes.HeldBy("user-1") {
		t.Errorf("new reservation rolled back: %+v", newRes)
	}
}

// =============================================================================
// FIRST SIGN-IN AND AVATAR TESTS
// =============================================================================

func TestGetOrCreateFirstSignIn(t *testing.T) {
	ctx := context.Background()
	svc, profiles, _, _ := newTestProfileService()

	p, err := svc.GetOrCreate(ctx, "user-9", "carol@example.com")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if p.DisplayName != "carol" {
		t.Errorf("display name = %q, want %q", p.DisplayName, "carol")
	}
	if p.Email != "carol@example.com" {
		t.Errorf("email = %q, want %q", p.Email, "carol@example.com")
	}
	if p.Username != "" {
		t.Errorf("new profile has username %q, want none", p.Username)
	}

	// Second call returns the same document without another create.
	calls := profiles.upsertCalls
	if _, err := svc.GetOrCreate(ctx, "user-9", "carol@example.com"); err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if profiles.upsertCalls != calls {
		t.Errorf("second GetOrCreate wrote again: upsertCalls = %d", profiles.upsertCalls)
	}
}

func TestGetPublicStripsPrivateFields(t *testing.T) {
	ctx := context.Background()
	svc, profiles, reservations, _ := newTestProfileService()
	seedProfile(profiles, reservations, "user-1", "alice")
	profiles.profiles["user-1"].Email = "alice@example.com"

	public, err := svc.GetPublic(ctx, "Alice")
	if err != nil {
		t.Fatalf("GetPublic failed: %v", err)
	}
	if public.Username != "alice" || public.DisplayName != "Alice" {
		t.Errorf("public profile = %+v", public)
	}

	_, err = svc.GetPublic(ctx, "nobody")
	if !errors.Is(err, model.ErrProfileNotFound) {
		t.Errorf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestSetAvatarPublishesOldKey(t *testing.T) {
	ctx := context.Background()
	svc, profiles, reservations, publisher := newTestProfileService()
	seedProfile(profiles, reservations, "user-1", "alice")

	oldKey := "avatars/old.jpg"
	profiles.profiles["user-1"].AvatarKey = &oldKey

	_, err := svc.SetAvatar(ctx, "user-1", &model.UploadResult{
		URL: "https://cdn.example.com/avatars/new.jpg",
		Key: "avatars/new.jpg",
	})
	if err != nil {
		t.Fatalf("SetAvatar failed: %v", err)
	}

	if publisher.lastType() != queue.EventAvatarUpdated {
		t.Fatalf("published event = %q, want %q", publisher.lastType(), queue.EventAvatarUpdated)
	}
	last := publisher.events[len(publisher.events)-1]
	if last.OldAvatarKey != oldKey {
		t.Errorf("event old key = %q, want %q", last.OldAvatarKey, oldKey)
	}

	p, _ := profiles.Get(ctx, "user-1")
	if p.AvatarKey == nil || *p.AvatarKey != "avatars/new.jpg" {
		t.Errorf("profile avatar key = %v, want avatars/new.jpg", p.AvatarKey)
	}
}
