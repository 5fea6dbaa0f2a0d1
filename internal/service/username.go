package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/profilehub/backend/internal/cache"
	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/repository"
)

// usernamePattern: 3-20 characters, letters, digits and underscore only.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

const (
	msgInvalidFormat = "3-20 characters, letters, digits and underscore only"
	msgTaken         = "username already taken"
)

// UsernameService validates candidate usernames and answers availability
// questions against the reservation collection.
type UsernameService struct {
	reservations repository.ReservationRepository
	availCache   cache.AvailabilityCache
}

func NewUsernameService(reservations repository.ReservationRepository, availCache cache.AvailabilityCache) *UsernameService {
	return &UsernameService{
		reservations: reservations,
		availCache:   availCache,
	}
}

// Validate checks the candidate against the username format rules.
// Returns model.ErrInvalidFormat when the candidate doesn't conform.
func (s *UsernameService) Validate(candidate string) error {
	if !usernamePattern.MatchString(candidate) {
		return model.ErrInvalidFormat
	}
	return nil
}

// CheckAvailability answers whether candidate can be claimed by ownerID.
//
// Order matters: format is checked before any store access, and a candidate
// equal to the caller's current username (case-insensitive) is answered
// without a lookup - you always "have" your own name. Only then does the
// reservation collection get consulted, via a short-lived cache.
//
// A store failure returns an error wrapping model.ErrLookupFailed: the
// caller must treat availability as unknown, not as available.
func (s *UsernameService) CheckAvailability(ctx context.Context, candidate, ownerID, currentUsername string) (model.Availability, error) {
	if err := s.Validate(candidate); err != nil {
		return model.Availability{Available: false, Message: msgInvalidFormat}, nil
	}

	if currentUsername != "" && strings.EqualFold(candidate, currentUsername) {
		return model.Availability{Available: true}, nil
	}

	key := strings.ToLower(candidate)

	if s.availCache != nil {
		if avail, found, err := s.availCache.Get(ctx, key); err == nil && found {
			return avail, nil
		}
	}

	res, err := s.reservations.Get(ctx, key)
	if err != nil {
		return model.Availability{}, fmt.Errorf("%w: %v", model.ErrLookupFailed, err)
	}

	avail := model.Availability{Available: true}
	if res != nil && !res.Released() {
		// A held name's verdict depends on who asks: the holder sees it as
		// available, everyone else as taken. Requester-specific verdicts
		// never enter the shared cache.
		if res.HeldBy(ownerID) {
			return avail, nil
		}
		return model.Availability{Available: false, Message: msgTaken}, nil
	}

	// Cache best-effort; a stale positive is harmless because the claim
	// itself is a conditional write.
	if s.availCache != nil {
		if err := s.availCache.Set(ctx, key, avail); err != nil {
			log.Printf("[UsernameService] cache set failed: username=%s err=%v", key, err)
		}
	}

	return avail, nil
}
