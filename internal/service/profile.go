package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/profilehub/backend/internal/cache"
	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/queue"
	"github.com/profilehub/backend/internal/repository"
)

const maxBioLength = 500

// ProfileService handles business logic for profile operations, including
// the two-document username swap.
type ProfileService struct {
	profiles     repository.ProfileRepository
	reservations repository.ReservationRepository
	usernames    *UsernameService
	availCache   cache.AvailabilityCache
	publisher    queue.Publisher
}

func NewProfileService(
	profiles repository.ProfileRepository,
	reservations repository.ReservationRepository,
	usernames *UsernameService,
	availCache cache.AvailabilityCache,
	publisher queue.Publisher,
) *ProfileService {
	return &ProfileService{
		profiles:     profiles,
		reservations: reservations,
		usernames:    usernames,
		availCache:   availCache,
		publisher:    publisher,
	}
}

// GetOrCreate returns the caller's profile, creating an empty one on first
// sign-in. The identity provider is the source of truth for identity; the
// profile document only carries page content.
func (s *ProfileService) GetOrCreate(ctx context.Context, ownerID, email string) (*model.Profile, error) {
	profile, err := s.profiles.Get(ctx, ownerID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, model.ErrProfileNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	displayName := defaultDisplayName(email, ownerID)
	update := repository.ProfileUpdate{
		DisplayName: &displayName,
	}
	if email != "" {
		update.Email = &email
	}

	profile, err = s.profiles.Upsert(ctx, ownerID, update)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	log.Printf("[ProfileService] created profile: owner=%s", ownerID)
	return profile, nil
}

// Update applies a profile edit. When the edit includes a username change it
// runs the reservation swap first: release the old name, claim the new one,
// then merge the profile document.
//
// A failed claim means the name was taken between check and submit; the old
// name is re-claimed best-effort and model.ErrUsernameTaken is returned. A
// store failure after the claim succeeded returns model.ErrWriteFailed with
// no rollback - the published event lets the worker reconcile.
func (s *ProfileService) Update(ctx context.Context, ownerID string, req *model.UpdateProfileRequest) (*model.Profile, error) {
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return nil, fmt.Errorf("%w: display name must not be empty", model.ErrInvalidFormat)
	}
	if req.Bio != nil && len(*req.Bio) > maxBioLength {
		return nil, fmt.Errorf("%w: bio exceeds %d characters", model.ErrInvalidFormat, maxBioLength)
	}

	current, err := s.profiles.Get(ctx, ownerID)
	if err != nil && !errors.Is(err, model.ErrProfileNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	oldUsername := ""
	if current != nil {
		oldUsername = current.Username
	}

	update := repository.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	}

	usernameChanged := false
	newUsername := ""
	if req.Username != nil {
		candidate := *req.Username
		// A case-only variation of the current name is a no-op: names are
		// stored lowercase, so there is nothing to swap or rewrite.
		if oldUsername == "" || !strings.EqualFold(candidate, oldUsername) {
			if err := s.usernames.Validate(candidate); err != nil {
				return nil, err
			}
			newUsername = strings.ToLower(candidate)

			if err := s.swapReservation(ctx, ownerID, oldUsername, newUsername); err != nil {
				return nil, err
			}
			update.Username = &newUsername
			usernameChanged = true
		}
	}

	profile, err := s.profiles.Upsert(ctx, ownerID, update)
	if err != nil {
		log.Printf("[ProfileService] Update profile write FAILED after swap: owner=%s old=%s new=%s err=%v",
			ownerID, oldUsername, newUsername, err)
		return nil, fmt.Errorf("%w: %v", model.ErrWriteFailed, err)
	}

	if usernameChanged {
		s.invalidateAvailability(ctx, oldUsername, newUsername)
		s.publish(ctx, queue.NewUsernameChangedEvent(ownerID, oldUsername, newUsername))
	} else {
		s.publish(ctx, queue.NewProfileUpdatedEvent(ownerID))
	}

	return profile, nil
}

// swapReservation runs release-old then claim-new. The claim is a conditional
// write, so two racing claimants cannot both win; the loser gets
// model.ErrUsernameTaken and their old name back.
func (s *ProfileService) swapReservation(ctx context.Context, ownerID, oldUsername, newUsername string) error {
	if oldUsername != "" {
		if err := s.reservations.Release(ctx, oldUsername); err != nil {
			return fmt.Errorf("%w: release %s: %v", model.ErrWriteFailed, oldUsername, err)
		}
	}

	err := s.reservations.Claim(ctx, newUsername, ownerID)
	if err == nil {
		return nil
	}

	if errors.Is(err, model.ErrUsernameTaken) {
		// Take the old name back so the release above doesn't leave the
		// caller with no reservation at all.
		if oldUsername != "" {
			if reclaimErr := s.reservations.Claim(ctx, oldUsername, ownerID); reclaimErr != nil {
				log.Printf("[ProfileService] re-claim of old username FAILED: owner=%s username=%s err=%v",
					ownerID, oldUsername, reclaimErr)
			}
		}
		return model.ErrUsernameTaken
	}

	return fmt.Errorf("%w: claim %s: %v", model.ErrWriteFailed, newUsername, err)
}

// GetPublic returns the public view of the profile holding username.
func (s *ProfileService) GetPublic(ctx context.Context, username string) (*model.PublicProfile, error) {
	profile, err := s.profiles.GetByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	public := profile.Public()
	return &public, nil
}

// SetAvatar records a freshly uploaded avatar on the profile and publishes
// an event carrying the superseded object key so the worker can delete it.
func (s *ProfileService) SetAvatar(ctx context.Context, ownerID string, upload *model.UploadResult) (*model.Profile, error) {
	oldKey := ""
	current, err := s.profiles.Get(ctx, ownerID)
	if err != nil && !errors.Is(err, model.ErrProfileNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if current != nil && current.AvatarKey != nil {
		oldKey = *current.AvatarKey
	}

	profile, err := s.profiles.Upsert(ctx, ownerID, repository.ProfileUpdate{
		AvatarURL: &upload.URL,
		AvatarKey: &upload.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrWriteFailed, err)
	}

	s.publish(ctx, queue.NewAvatarUpdatedEvent(ownerID, oldKey))
	return profile, nil
}

// publish fires an event best-effort; delivery failures are logged, not
// surfaced, because the user-facing write already committed.
func (s *ProfileService) publish(ctx context.Context, event queue.ProfileEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamProfile, event); err != nil {
		log.Printf("[ProfileService] publish FAILED: type=%s err=%v", event.Type, err)
	}
}

// invalidateAvailability drops cached answers for both ends of a swap.
func (s *ProfileService) invalidateAvailability(ctx context.Context, usernames ...string) {
	if s.availCache == nil {
		return
	}
	for _, u := range usernames {
		if u == "" {
			continue
		}
		if err := s.availCache.Invalidate(ctx, u); err != nil {
			log.Printf("[ProfileService] cache invalidate failed: username=%s err=%v", u, err)
		}
	}
}

func defaultDisplayName(email, ownerID string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if email != "" {
		return email
	}
	return ownerID
}
