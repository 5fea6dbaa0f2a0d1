package repository

import (
	"context"

	"github.com/profilehub/backend/internal/model"
)

// ProfileUpdate carries the fields of a merge upsert against the profile
// document. Nil pointers are skipped, so only edited fields are written.
type ProfileUpdate struct {
	DisplayName *string
	Username    *string // must already be lowercase
	Bio         *string
	AvatarURL   *string
	AvatarKey   *string
	Email       *string
}

// ProfileRepository is the document access layer for the "users" collection.
type ProfileRepository interface {
	// Get returns the profile for ownerID, or model.ErrProfileNotFound.
	Get(ctx context.Context, ownerID string) (*model.Profile, error)

	// GetByUsername returns the profile holding a lowercase username,
	// or model.ErrProfileNotFound.
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)

	// Upsert merges the non-nil fields into the profile document, creating it
	// if absent, and returns the resulting document. updated_at is always set.
	Upsert(ctx context.Context, ownerID string, update ProfileUpdate) (*model.Profile, error)
}

// ReservationRepository is the document access layer for the "usernames"
// collection. Keys are lowercase usernames.
type ReservationRepository interface {
	// Get returns the reservation for a lowercase username, or (nil, nil)
	// when no document exists yet.
	Get(ctx context.Context, username string) (*model.UsernameReservation, error)

	// Release sets the reservation's owner to null. The document is created
	// if it does not exist; it is never deleted.
	Release(ctx context.Context, username string) error

	// Claim atomically takes the reservation for ownerID. It succeeds when
	// the document is absent, released, or already held by ownerID, and
	// returns model.ErrUsernameTaken when another owner holds it.
	Claim(ctx context.Context, username, ownerID string) error
}

// NotificationRepository stores user-visible feedback records.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, ownerID string, limit int) ([]model.Notification, int, error)
	MarkAllRead(ctx context.Context, ownerID string) error
}
