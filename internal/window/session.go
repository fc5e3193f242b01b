package window

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/ehrlich-b/termbot/internal/keys"
)

var (
	// ErrNotConnected is returned by operations that need a connected window.
	ErrNotConnected = errors.New("no window connected")
	// ErrOutOfRange is returned by Select for an invalid window number.
	ErrOutOfRange = errors.New("window number out of range")
)

// Session holds the single process-wide window connection. It is not safe
// for concurrent use; the dispatcher serializes all access.
type Session struct {
	auto        Automator
	limiter     *rate.Limiter // paces consecutive key injections
	submitDelay time.Duration // pause before the implied trailing Enter
	redrawWait  time.Duration // repaint time before liveness/capture

	connected bool
	conn      Descriptor
}

// NewSession wires a session to its automation backend. keyDelay of zero
// disables pacing (used by tests).
func NewSession(auto Automator, keyDelay, submitDelay, redrawWait time.Duration) *Session {
	lim := rate.NewLimiter(rate.Inf, 1)
	if keyDelay > 0 {
		lim = rate.NewLimiter(rate.Every(keyDelay), 1)
	}
	return &Session{
		auto:        auto,
		limiter:     lim,
		submitDelay: submitDelay,
		redrawWait:  redrawWait,
	}
}

// Connected returns the current connection, if any.
func (s *Session) Connected() (Descriptor, bool) {
	return s.conn, s.connected
}

// Disconnect unconditionally clears the connection slot.
func (s *Session) Disconnect() {
	s.connected = false
	s.conn = Descriptor{}
}

// List requests a fresh window listing from the backend and applies the
// descriptor byte caps.
func (s *Session) List(ctx context.Context, danger bool) ([]Descriptor, error) {
	wins, err := s.auto.ListWindows(ctx, danger)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	for i := range wins {
		wins[i] = capDescriptor(wins[i])
	}
	return wins, nil
}

// Select connects to the index-th window (1-based) of a fresh listing. On
// an out-of-range index the current state is left untouched.
func (s *Session) Select(ctx context.Context, index int, danger bool) (Descriptor, error) {
	wins, err := s.List(ctx, danger)
	if err != nil {
		return Descriptor{}, err
	}
	if index < 1 || index > len(wins) {
		return Descriptor{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, index, len(wins))
	}
	s.conn = wins[index-1]
	s.connected = true
	return s.conn, nil
}

// VerifyAlive checks that the connected window is still on screen. When
// the exact window id is gone but the owning process has another visible
// window, the connection silently rebinds to it. On a dead window the
// session disconnects.
func (s *Session) VerifyAlive(ctx context.Context) bool {
	if !s.connected {
		return false
	}
	found, newID, err := s.auto.WindowExists(ctx, s.conn.ID, s.conn.PID)
	if err != nil || !found {
		s.Disconnect()
		return false
	}
	s.conn.ID = newID
	return true
}

// Interact raises the connected window, injects the payload's key events
// one OS call at a time, appends the implied Enter when the encoder says
// so, waits for the target to repaint, and re-verifies liveness. Failed
// key sends are skipped; keys already delivered are not rolled back.
func (s *Session) Interact(ctx context.Context, payload string) (alive bool, err error) {
	if !s.connected {
		return false, ErrNotConnected
	}

	if err := s.auto.Raise(ctx, s.conn.PID, s.conn.ID); err != nil {
		return false, fmt.Errorf("raise window: %w", err)
	}

	events, appendEnter := keys.Encode(payload)
	for _, ev := range events {
		if err := s.limiter.Wait(ctx); err != nil {
			return false, err
		}
		if err := s.auto.SendKey(ctx, s.conn.PID, ev); err != nil {
			continue // best effort, no retry
		}
	}
	if appendEnter {
		if err := sleepCtx(ctx, s.submitDelay); err != nil {
			return false, err
		}
		s.auto.SendKey(ctx, s.conn.PID, keys.Event{Key: keys.KeyReturn})
	}

	if err := sleepCtx(ctx, s.redrawWait); err != nil {
		return false, err
	}
	return s.VerifyAlive(ctx), nil
}

// Raise brings the connected window to the front.
func (s *Session) Raise(ctx context.Context) error {
	if !s.connected {
		return ErrNotConnected
	}
	return s.auto.Raise(ctx, s.conn.PID, s.conn.ID)
}

// Capture writes a screenshot of the connected window to path.
func (s *Session) Capture(ctx context.Context, path string) error {
	if !s.connected {
		return ErrNotConnected
	}
	if err := s.auto.Capture(ctx, s.conn.ID, path); err != nil {
		return fmt.Errorf("capture window: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
