// Package window owns the "currently connected window" and its lifecycle,
// and defines the contract with the OS automation backends.
package window

import (
	"context"

	"github.com/ehrlich-b/termbot/internal/keys"
)

// Byte caps for descriptor text fields.
const (
	maxOwnerBytes = 128
	maxTitleBytes = 256
)

// Descriptor identifies one on-screen window. Descriptors are produced
// fresh by the backend on every listing; nothing is cached across calls.
type Descriptor struct {
	ID    uint64 // opaque window id (X11 window / CGWindowID)
	PID   int    // owning process
	Owner string // application name, capped at 128 bytes
	Title string // window title, capped at 256 bytes
}

// Automator is the OS automation backend. Implementations exist per
// platform; tests inject fakes.
type Automator interface {
	// ListWindows returns the visible windows, filtered to known terminal
	// applications unless danger is set.
	ListWindows(ctx context.Context, danger bool) ([]Descriptor, error)

	// WindowExists reports whether id is still on screen. When id is gone
	// but the same pid owns another visible window, it returns found=true
	// with that window's id so the caller can rebind.
	WindowExists(ctx context.Context, id uint64, pid int) (found bool, newID uint64, err error)

	// Capture writes a PNG screenshot of the window to path.
	Capture(ctx context.Context, id uint64, path string) error

	// Raise brings the window to the front and focuses it.
	Raise(ctx context.Context, pid int, id uint64) error

	// SendKey delivers one physical key press to the focused window.
	SendKey(ctx context.Context, pid int, ev keys.Event) error
}

// truncateBytes caps s at n raw bytes. The cut is at a byte boundary, not
// a rune boundary, mirroring the fixed-size buffers this replaces; a
// multi-byte sequence straddling the cap comes out split.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func capDescriptor(d Descriptor) Descriptor {
	d.Owner = truncateBytes(d.Owner, maxOwnerBytes)
	d.Title = truncateBytes(d.Title, maxTitleBytes)
	return d
}
