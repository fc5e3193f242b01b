//go:build darwin

package window

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ehrlich-b/termbot/internal/keys"
)

// Known terminal application names on macOS.
var terminalApps = []string{
	"Terminal", "iTerm2", "iTerm", "Ghostty", "kitty", "Alacritty",
	"Hyper", "Warp", "WezTerm", "Tabby",
}

const minWindowDim = 50

// listWindowsJXA dumps the on-screen window list as JSON via the JXA
// ObjC bridge to CoreGraphics. Layer and bounds filtering happens on the
// Go side to keep the script dumb.
const listWindowsJXA = `
ObjC.import('CoreGraphics');
const opts = $.kCGWindowListOptionOnScreenOnly | $.kCGWindowListExcludeDesktopElements;
const list = $.CFBridgingRelease($.CGWindowListCopyWindowInfo(opts, $.kCGNullWindowID));
const out = [];
for (let i = 0; i < list.count; i++) {
  const w = list.objectAtIndex(i);
  const get = (k) => { const v = w.objectForKey(k); return v.isNil() ? null : ObjC.unwrap(v); };
  out.push({
    id: get('kCGWindowNumber'),
    pid: get('kCGWindowOwnerPID'),
    owner: get('kCGWindowOwnerName') || '',
    title: get('kCGWindowName') || '',
    layer: get('kCGWindowLayer') || 0,
    bounds: get('kCGWindowBounds') || {},
  });
}
JSON.stringify(out);
`

type quartzAutomator struct{}

// NewAutomator returns the Quartz backend: osascript's JXA bridge for
// window enumeration and key injection, screencapture for capture.
func NewAutomator() (Automator, error) {
	for _, tool := range RequiredTools() {
		if _, err := exec.LookPath(tool); err != nil {
			return nil, fmt.Errorf("required tool %q not found on PATH: %w", tool, err)
		}
	}
	return &quartzAutomator{}, nil
}

// RequiredTools lists the external binaries this backend shells out to.
func RequiredTools() []string {
	return []string{"osascript", "screencapture"}
}

func isTerminalApp(owner string) bool {
	lo := strings.ToLower(owner)
	for _, t := range terminalApps {
		if strings.Contains(lo, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

type cgWindow struct {
	ID     uint64 `json:"id"`
	PID    int    `json:"pid"`
	Owner  string `json:"owner"`
	Title  string `json:"title"`
	Layer  int    `json:"layer"`
	Bounds struct {
		Width  float64 `json:"Width"`
		Height float64 `json:"Height"`
	} `json:"bounds"`
}

func (a *quartzAutomator) listAll(ctx context.Context) ([]Descriptor, error) {
	out, err := exec.CommandContext(ctx, "osascript", "-l", "JavaScript", "-e", listWindowsJXA).Output()
	if err != nil {
		return nil, fmt.Errorf("osascript window list: %w", err)
	}
	var raw []cgWindow
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(out))), &raw); err != nil {
		return nil, fmt.Errorf("parse window list: %w", err)
	}

	var wins []Descriptor
	for _, w := range raw {
		if w.Layer != 0 {
			continue
		}
		if w.Bounds.Width <= minWindowDim || w.Bounds.Height <= minWindowDim {
			continue
		}
		wins = append(wins, Descriptor{ID: w.ID, PID: w.PID, Owner: w.Owner, Title: w.Title})
	}
	return wins, nil
}

func (a *quartzAutomator) ListWindows(ctx context.Context, danger bool) ([]Descriptor, error) {
	wins, err := a.listAll(ctx)
	if err != nil {
		return nil, err
	}
	if danger {
		return wins, nil
	}
	var terms []Descriptor
	for _, w := range wins {
		if isTerminalApp(w.Owner) {
			terms = append(terms, w)
		}
	}
	return terms, nil
}

func (a *quartzAutomator) WindowExists(ctx context.Context, id uint64, pid int) (bool, uint64, error) {
	wins, err := a.listAll(ctx)
	if err != nil {
		return false, 0, err
	}
	var fallback uint64
	for _, w := range wins {
		if w.ID == id {
			return true, id, nil
		}
		if fallback == 0 && w.PID == pid {
			fallback = w.ID
		}
	}
	if fallback != 0 {
		return true, fallback, nil
	}
	return false, 0, nil
}

func (a *quartzAutomator) Capture(ctx context.Context, id uint64, path string) error {
	err := exec.CommandContext(ctx, "screencapture",
		"-o", "-x", fmt.Sprintf("-l%d", id), path).Run()
	if err != nil {
		return fmt.Errorf("screencapture: %w", err)
	}
	return nil
}

func (a *quartzAutomator) Raise(ctx context.Context, pid int, id uint64) error {
	script := fmt.Sprintf(
		`tell application "System Events" to set frontmost of (first process whose unix id is %d) to true`, pid)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("osascript raise: %w", err)
	}
	return nil
}

// Virtual key codes for the special keys (Carbon Events.h values).
const (
	vkReturn = 36
	vkTab    = 48
	vkEscape = 53
)

func (a *quartzAutomator) SendKey(ctx context.Context, pid int, ev keys.Event) error {
	script := sendKeyScript(ev)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("osascript key: %w", err)
	}
	return nil
}

func sendKeyScript(ev keys.Event) string {
	var mods []string
	if ev.Mods&keys.ModCtrl != 0 {
		mods = append(mods, "control down")
	}
	if ev.Mods&keys.ModAlt != 0 {
		mods = append(mods, "option down")
	}
	if ev.Mods&keys.ModCmd != 0 {
		mods = append(mods, "command down")
	}
	using := ""
	if len(mods) > 0 {
		using = fmt.Sprintf(" using {%s}", strings.Join(mods, ", "))
	}

	switch ev.Key {
	case keys.KeyReturn:
		return fmt.Sprintf(`tell application "System Events" to key code %d%s`, vkReturn, using)
	case keys.KeyTab:
		return fmt.Sprintf(`tell application "System Events" to key code %d%s`, vkTab, using)
	case keys.KeyEscape:
		return fmt.Sprintf(`tell application "System Events" to key code %d%s`, vkEscape, using)
	default:
		ch := string(ev.Ch)
		ch = strings.ReplaceAll(ch, `\`, `\\`)
		ch = strings.ReplaceAll(ch, `"`, `\"`)
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"%s`, ch, using)
	}
}
