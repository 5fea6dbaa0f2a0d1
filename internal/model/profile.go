package model

import (
	"errors"
	"time"
)

// Profile is the editable profile document for one user.
// OwnerID is the identity-provider user id and doubles as the document key.
type Profile struct {
	OwnerID     string    `bson:"_id" json:"owner_id"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Username    string    `bson:"username" json:"username"` // always stored lowercase
	Bio         *string   `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL   *string   `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	AvatarKey   *string   `bson:"avatar_key,omitempty" json:"-"`
	Email       string    `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// PublicProfile is the subset of Profile safe to show to other users.
type PublicProfile struct {
	OwnerID     string  `json:"owner_id"`
	DisplayName string  `json:"display_name"`
	Username    string  `json:"username"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Public strips the private fields from a profile.
func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		OwnerID:     p.OwnerID,
		DisplayName: p.DisplayName,
		Username:    p.Username,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
	}
}

// UpdateProfileRequest carries the edited fields from the profile form.
// Nil pointers mean "leave unchanged"; the merge upsert only writes what is set.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Username    *string `json:"username"`
	Bio         *string `json:"bio"`
}

var (
	// ErrProfileNotFound is returned when no profile document exists for a user
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInvalidFormat is returned when a candidate username fails the syntax rule
	ErrInvalidFormat = errors.New("invalid username format")

	// ErrUsernameTaken is returned when another user holds the reservation
	ErrUsernameTaken = errors.New("username already taken")

	// ErrLookupFailed is returned when an availability read could not complete.
	// Callers must treat the result as unknown, not as available.
	ErrLookupFailed = errors.New("username lookup failed")

	// ErrWriteFailed is returned when a commit-time store write fails.
	// Already-completed steps of the swap are not rolled back.
	ErrWriteFailed = errors.New("profile write failed")
)
