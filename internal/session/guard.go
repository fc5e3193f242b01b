// Package session gates every inbound chat event: it binds the first
// sender ever seen as the sole owner, and keeps the locked/unlocked OTP
// state with its inactivity re-lock.
package session

import (
	"fmt"
	"time"

	"github.com/ehrlich-b/termbot/internal/totp"
)

// Timeout bounds in seconds.
const (
	MinTimeout     = 30
	MaxTimeout     = 28800
	DefaultTimeout = 300
)

// Store is the slice of the settings store the guard needs.
type Store interface {
	OwnerID() (int64, error)
	SetOwnerID(int64) error
	SetOTPTimeout(secs int) error
}

// Decision tells the dispatcher what to do with an inbound event.
type Decision int

const (
	// Drop the event silently (non-owner sender).
	Drop Decision = iota
	// AckCallback: acknowledge the callback to clear the chat UI spinner,
	// process nothing else (locked state).
	AckCallback
	// Accepted: the event was a correct OTP; session is now unlocked.
	// Reply with a confirmation, process nothing else.
	Accepted
	// Prompt: locked and the event is not a correct OTP; ask for a code.
	Prompt
	// Pass the event through to command dispatch.
	Pass
)

// Guard is the authentication state machine. Not safe for concurrent use;
// the dispatcher serializes all events behind one lock.
type Guard struct {
	store  Store
	secret []byte
	weak   bool

	owner        int64
	unlocked     bool
	lastActivity time.Time
	timeout      time.Duration
}

// New loads the owner binding from the store. secret may be nil only when
// weak is true. timeoutSecs is clamped to the valid range.
func New(store Store, secret []byte, weak bool, timeoutSecs int) (*Guard, error) {
	owner, err := store.OwnerID()
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if timeoutSecs == 0 {
		timeoutSecs = DefaultTimeout
	}
	g := &Guard{
		store:   store,
		secret:  secret,
		weak:    weak,
		owner:   owner,
		timeout: time.Duration(clampTimeout(timeoutSecs)) * time.Second,
	}
	return g, nil
}

// Owner returns the bound owner id, 0 when unbound.
func (g *Guard) Owner() int64 { return g.owner }

// Admit evaluates one inbound event against the auth state machine.
func (g *Guard) Admit(sender int64, text string, isCallback bool, now time.Time) (Decision, error) {
	if g.owner == 0 {
		if err := g.store.SetOwnerID(sender); err != nil {
			return Drop, fmt.Errorf("bind owner: %w", err)
		}
		g.owner = sender
	}
	if sender != g.owner {
		return Drop, nil
	}

	if g.weak {
		return Pass, nil
	}

	if !g.unlocked || now.Sub(g.lastActivity) > g.timeout {
		g.unlocked = false
		if isCallback {
			return AckCallback, nil
		}
		if totp.Verify(g.secret, text, now) {
			g.unlocked = true
			g.lastActivity = now
			return Accepted, nil
		}
		return Prompt, nil
	}

	g.lastActivity = now
	return Pass, nil
}

// SetTimeout clamps the requested inactivity timeout, applies it, and
// persists it. Returns the applied value in seconds.
func (g *Guard) SetTimeout(secs int) (int, error) {
	secs = clampTimeout(secs)
	g.timeout = time.Duration(secs) * time.Second
	if err := g.store.SetOTPTimeout(secs); err != nil {
		return secs, fmt.Errorf("persist otp timeout: %w", err)
	}
	return secs, nil
}

func clampTimeout(secs int) int {
	if secs < MinTimeout {
		return MinTimeout
	}
	if secs > MaxTimeout {
		return MaxTimeout
	}
	return secs
}
