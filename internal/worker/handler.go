package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/queue"
)

// ReservationStore is the reservation access the worker needs for repair.
// Abstracting the repository keeps the worker testable without a database.
type ReservationStore interface {
	Get(ctx context.Context, username string) (*model.UsernameReservation, error)
	Claim(ctx context.Context, username, ownerID string) error
	Release(ctx context.Context, username string) error
}

// ProfileStore is the read access the worker needs to verify swap outcomes.
type ProfileStore interface {
	Get(ctx context.Context, ownerID string) (*model.Profile, error)
}

// ObjectRemover deletes stored avatar objects by key.
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

// NotificationCreator records user-visible feedback for processed events.
type NotificationCreator interface {
	Notify(ctx context.Context, ownerID, title, description, severity string) error
}

// Handler processes profile events from the queue. Its main job is
// reconciliation: a username swap is three separate document writes, and if
// the server died between them the reservation and profile collections can
// disagree. The handler re-derives the intended state from the event and
// repairs drift.
type Handler struct {
	reservations ReservationStore
	profiles     ProfileStore
	objects      ObjectRemover       // Can be nil if object storage not wired
	notifier     NotificationCreator // Can be nil if notifications not wired
}

// NewHandler creates a new event handler.
func NewHandler(reservations ReservationStore, profiles ProfileStore) *Handler {
	return &Handler{
		reservations: reservations,
		profiles:     profiles,
	}
}

// SetObjectRemover sets the object store (optional, for avatar cleanup).
func (h *Handler) SetObjectRemover(o ObjectRemover) {
	h.objects = o
}

// SetNotificationCreator sets the notification creator (optional).
func (h *Handler) SetNotificationCreator(nc NotificationCreator) {
	h.notifier = nc
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ProfileEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventUsernameChanged:
		err = h.handleUsernameChanged(ctx, event)
	case queue.EventProfileUpdated:
		err = h.handleProfileUpdated(ctx, event)
	case queue.EventAvatarUpdated:
		err = h.handleAvatarUpdated(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleUsernameChanged verifies that the reservation documents agree with
// the committed swap and repairs them if not.
//
// The intended end state: new name held by the owner, old name not held by
// the owner. The profile document is the commit record; if it doesn't carry
// the new name the swap never finished and the event is stale - leave the
// reservations alone and let the user retry.
func (h *Handler) handleUsernameChanged(ctx context.Context, event queue.ProfileEvent) error {
	log.Printf("[Worker] UsernameChanged: owner=%s old=%s new=%s",
		event.OwnerID, event.OldUsername, event.NewUsername)

	profile, err := h.profiles.Get(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile.Username != event.NewUsername {
		log.Printf("[Worker] UsernameChanged: profile carries %q, not %q - stale event, skipping repair",
			profile.Username, event.NewUsername)
		return nil
	}

	// The new name must be held by the owner.
	res, err := h.reservations.Get(ctx, event.NewUsername)
	if err != nil {
		return fmt.Errorf("get reservation: %w", err)
	}
	if res == nil || !res.HeldBy(event.OwnerID) {
		log.Printf("[Worker] UsernameChanged: repairing claim of %s for owner=%s", event.NewUsername, event.OwnerID)
		if err := h.reservations.Claim(ctx, event.NewUsername, event.OwnerID); err != nil {
			return fmt.Errorf("repair claim %s: %w", event.NewUsername, err)
		}
	}

	// The old name must no longer be held by the owner.
	if event.OldUsername != "" && event.OldUsername != event.NewUsername {
		res, err := h.reservations.Get(ctx, event.OldUsername)
		if err != nil {
			return fmt.Errorf("get old reservation: %w", err)
		}
		if res != nil && res.HeldBy(event.OwnerID) {
			log.Printf("[Worker] UsernameChanged: releasing stale hold on %s", event.OldUsername)
			if err := h.reservations.Release(ctx, event.OldUsername); err != nil {
				return fmt.Errorf("release stale %s: %w", event.OldUsername, err)
			}
		}
	}

	h.notify(ctx, event.OwnerID, "Username updated",
		fmt.Sprintf("Your username is now @%s", event.NewUsername), model.SeveritySuccess)
	return nil
}

// handleProfileUpdated records feedback for a plain profile edit.
func (h *Handler) handleProfileUpdated(ctx context.Context, event queue.ProfileEvent) error {
	log.Printf("[Worker] ProfileUpdated: owner=%s", event.OwnerID)

	h.notify(ctx, event.OwnerID, "Profile updated", "Your profile changes were saved", model.SeverityInfo)
	return nil
}

// handleAvatarUpdated deletes the superseded avatar object, if any.
func (h *Handler) handleAvatarUpdated(ctx context.Context, event queue.ProfileEvent) error {
	log.Printf("[Worker] AvatarUpdated: owner=%s oldKey=%s", event.OwnerID, event.OldAvatarKey)

	if event.OldAvatarKey != "" {
		if h.objects == nil {
			log.Printf("[Worker] AvatarUpdated: object store not set, leaving %s", event.OldAvatarKey)
		} else if err := h.objects.Delete(ctx, event.OldAvatarKey); err != nil {
			return fmt.Errorf("delete old avatar %s: %w", event.OldAvatarKey, err)
		}
	}

	h.notify(ctx, event.OwnerID, "Avatar updated", "Your new profile picture is live", model.SeveritySuccess)
	return nil
}

// notify records feedback best-effort; a notification failure never fails
// the event.
func (h *Handler) notify(ctx context.Context, ownerID, title, description, severity string) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Notify(ctx, ownerID, title, description, severity); err != nil {
		log.Printf("[Worker] notification failed: owner=%s err=%v", ownerID, err)
	}
}
