// Package livecheck implements the debounced availability check that backs
// the live feedback shown while a user types a new username. Keystrokes
// arrive as individual observations; the checker coalesces them so that a
// burst of typing produces a single store lookup once the input goes quiet.
package livecheck

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/profilehub/backend/internal/model"
)

const (
	// DefaultQuiet is how long the input must be idle before a lookup fires.
	DefaultQuiet = 500 * time.Millisecond

	// checkTimeout bounds a single availability lookup.
	checkTimeout = 10 * time.Second

	// staleAfter is how long an idle checker survives before the registry
	// prunes it.
	staleAfter = 10 * time.Minute
)

// Status is the feedback state shown next to the username field.
type Status struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
	Checking bool   `json:"checking"`
}

// initialStatus is the state before the user has typed anything worth
// checking: no message, submit allowed.
func initialStatus() Status {
	return Status{Valid: true}
}

// CheckFunc performs the actual availability lookup for a candidate.
type CheckFunc func(ctx context.Context, candidate string) (model.Availability, error)

// Checker debounces availability lookups for one user's edit session.
type Checker struct {
	mu       sync.Mutex
	check    CheckFunc
	quiet    time.Duration
	timer    *time.Timer
	status   Status
	lastSeen time.Time
}

// NewChecker creates a Checker with the given lookup and quiet period.
// A non-positive quiet falls back to DefaultQuiet.
func NewChecker(check CheckFunc, quiet time.Duration) *Checker {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Checker{
		check:  check,
		quiet:  quiet,
		status: initialStatus(),
	}
}

// Observe records a keystroke. Empty input or input equal to the user's
// current username (case-insensitive) resets the feedback immediately with
// no lookup. Anything else marks the status as checking and (re)arms the
// quiet timer; the lookup fires only after the input stays unchanged for
// the full quiet period.
func (c *Checker) Observe(candidate, current string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeen = time.Now()

	if candidate == "" || strings.EqualFold(candidate, current) {
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.status = initialStatus()
		return c.status
	}

	c.status.Checking = true

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiet, func() {
		c.fire(candidate)
	})

	return c.status
}

// fire runs the lookup for candidate and records the result. A later
// keystroke may already have superseded candidate; the result still
// overwrites the status, and the next observation corrects it.
func (c *Checker) fire(candidate string) {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	avail, err := c.check(ctx, candidate)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		log.Printf("[LiveCheck] check FAILED: candidate=%s err=%v", candidate, err)
		c.status = Status{Valid: false, Message: "could not verify username, try again"}
		return
	}

	c.status = Status{Valid: avail.Available, Message: avail.Message}
}

// Status returns the current feedback state without observing input.
func (c *Checker) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Registry hands out one Checker per user and prunes idle ones.
type Registry struct {
	mu       sync.Mutex
	checkers map[string]*Checker
	quiet    time.Duration
}

// NewRegistry creates a Registry whose checkers use the given quiet period.
func NewRegistry(quiet time.Duration) *Registry {
	return &Registry{
		checkers: make(map[string]*Checker),
		quiet:    quiet,
	}
}

// Get returns the checker for ownerID, creating it with check on first use.
func (r *Registry) Get(ownerID string, check CheckFunc) *Checker {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	if c, ok := r.checkers[ownerID]; ok {
		return c
	}
	c := NewChecker(check, r.quiet)
	r.checkers[ownerID] = c
	return c
}

// pruneLocked drops checkers idle longer than staleAfter. Caller holds r.mu.
func (r *Registry) pruneLocked() {
	cutoff := time.Now().Add(-staleAfter)
	for id, c := range r.checkers {
		c.mu.Lock()
		stale := !c.lastSeen.IsZero() && c.lastSeen.Before(cutoff)
		c.mu.Unlock()
		if stale {
			delete(r.checkers, id)
		}
	}
}
