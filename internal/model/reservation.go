package model

import "time"

// UsernameReservation asserts that a lowercase username is held by a user,
// or by nobody when OwnerID is nil. Documents are released, never deleted,
// so a name's history survives and re-claims race against a real document.
type UsernameReservation struct {
	Username  string    `bson:"_id" json:"username"` // lowercase
	OwnerID   *string   `bson:"owner_id" json:"owner_id"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HeldBy reports whether the reservation currently belongs to ownerID.
func (r *UsernameReservation) HeldBy(ownerID string) bool {
	return r.OwnerID != nil && *r.OwnerID == ownerID
}

// Released reports whether the reservation is unowned.
func (r *UsernameReservation) Released() bool {
	return r.OwnerID == nil
}

// Availability is the outcome of a single availability check.
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}
