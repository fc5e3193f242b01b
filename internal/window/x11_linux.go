//go:build linux

package window

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ehrlich-b/termbot/internal/keys"
)

// Known terminal WM_CLASS names on Linux.
var terminalClasses = []string{
	"gnome-terminal", "xterm", "kitty", "alacritty",
	"ghostty", "terminator", "tilix", "konsole",
	"xfce4-terminal", "mate-terminal", "lxterminal", "st", "stterm",
	"urxvt", "foot", "wezterm",
	"hyper", "tabby", "sakura", "terminology", "guake", "tilda",
}

// Minimum window size; anything smaller is a popup or tray artifact.
const minWindowDim = 50

type x11Automator struct{}

// NewAutomator returns the X11 backend. It drives the standard X tools
// instead of binding libX11: wmctrl for listing/raising, xdotool for key
// injection, ImageMagick's import for capture.
func NewAutomator() (Automator, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("DISPLAY is not set; X11 automation needs a running X session")
	}
	for _, tool := range RequiredTools() {
		if _, err := exec.LookPath(tool); err != nil {
			return nil, fmt.Errorf("required tool %q not found on PATH: %w", tool, err)
		}
	}
	return &x11Automator{}, nil
}

// RequiredTools lists the external binaries this backend shells out to.
func RequiredTools() []string {
	return []string{"wmctrl", "xdotool", "import"}
}

func isTerminalClass(class string) bool {
	lc := strings.ToLower(class)
	for _, t := range terminalClasses {
		if strings.Contains(lc, t) {
			return true
		}
	}
	return false
}

// listAll parses `wmctrl -lpGx`: id, desktop, pid, x, y, w, h, class,
// hostname, title...
func (a *x11Automator) listAll(ctx context.Context) ([]Descriptor, error) {
	out, err := exec.CommandContext(ctx, "wmctrl", "-lpGx").Output()
	if err != nil {
		return nil, fmt.Errorf("wmctrl: %w", err)
	}

	var wins []Descriptor
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 64)
		if err != nil {
			continue
		}
		pid, _ := strconv.Atoi(fields[2])
		w, _ := strconv.Atoi(fields[5])
		h, _ := strconv.Atoi(fields[6])
		if w <= minWindowDim || h <= minWindowDim {
			continue
		}
		// WM_CLASS prints as "instance.Class"; keep the class part.
		class := fields[7]
		if i := strings.LastIndexByte(class, '.'); i >= 0 {
			class = class[i+1:]
		}
		title := ""
		if len(fields) > 9 {
			title = strings.Join(fields[9:], " ")
		}
		wins = append(wins, Descriptor{ID: id, PID: pid, Owner: class, Title: title})
	}
	return wins, nil
}

func (a *x11Automator) ListWindows(ctx context.Context, danger bool) ([]Descriptor, error) {
	wins, err := a.listAll(ctx)
	if err != nil {
		return nil, err
	}
	if danger {
		return wins, nil
	}
	var terms []Descriptor
	for _, w := range wins {
		if isTerminalClass(w.Owner) {
			terms = append(terms, w)
		}
	}
	return terms, nil
}

func (a *x11Automator) WindowExists(ctx context.Context, id uint64, pid int) (bool, uint64, error) {
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

func (a *x11Automator) Capture(ctx context.Context, id uint64, path string) error {
	err := exec.CommandContext(ctx, "import",
		"-window", fmt.Sprintf("0x%x", id), "-silent", path).Run()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

func (a *x11Automator) Raise(ctx context.Context, pid int, id uint64) error {
	err := exec.CommandContext(ctx, "wmctrl",
		"-i", "-a", fmt.Sprintf("0x%x", id)).Run()
	if err != nil {
		return fmt.Errorf("wmctrl raise: %w", err)
	}
	return nil
}

func (a *x11Automator) SendKey(ctx context.Context, pid int, ev keys.Event) error {
	spec, err := keyspec(ev)
	if err != nil {
		return err
	}
	if err := exec.CommandContext(ctx, "xdotool", "key", "--clearmodifiers", spec).Run(); err != nil {
		return fmt.Errorf("xdotool key %s: %w", spec, err)
	}
	return nil
}

// keyspec builds an xdotool key chord like "ctrl+super+Return".
func keyspec(ev keys.Event) (string, error) {
	var parts []string
	if ev.Mods&keys.ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if ev.Mods&keys.ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if ev.Mods&keys.ModCmd != 0 {
		parts = append(parts, "super")
	}

	var sym string
	switch ev.Key {
	case keys.KeyReturn:
		sym = "Return"
	case keys.KeyTab:
		sym = "Tab"
	case keys.KeyEscape:
		sym = "Escape"
	case keys.KeyChar:
		s, ok := charKeysym(ev.Ch)
		if !ok {
			return "", fmt.Errorf("no keysym for byte 0x%02x", ev.Ch)
		}
		sym = s
	default:
		return "", fmt.Errorf("unknown key %d", ev.Key)
	}
	parts = append(parts, sym)
	return strings.Join(parts, "+"), nil
}

// punctKeysyms maps ASCII punctuation to X11 keysym names. Letters and
// digits are their own keysym; xdotool adds Shift for uppercase itself.
var punctKeysyms = map[byte]string{
	' ':  "space",
	'!':  "exclam",
	'"':  "quotedbl",
	'#':  "numbersign",
	'$':  "dollar",
	'%':  "percent",
	'&':  "ampersand",
	'\'': "apostrophe",
	'(':  "parenleft",
	')':  "parenright",
	'*':  "asterisk",
	'+':  "plus",
	',':  "comma",
	'-':  "minus",
	'.':  "period",
	'/':  "slash",
	':':  "colon",
	';':  "semicolon",
	'<':  "less",
	'=':  "equal",
	'>':  "greater",
	'?':  "question",
	'@':  "at",
	'[':  "bracketleft",
	'\\': "backslash",
	']':  "bracketright",
	'^':  "asciicircum",
	'_':  "underscore",
	'`':  "grave",
	'{':  "braceleft",
	'|':  "bar",
	'}':  "braceright",
	'~':  "asciitilde",
}

func charKeysym(ch byte) (string, bool) {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return string(ch), true
	}
	s, ok := punctKeysyms[ch]
	return s, ok
}
