// Package keys translates a chat message into the ordered key events to
// inject into the connected window.
//
// The payload is scanned byte-wise, longest match first. Heart emojis are
// protocol markers: ❤️ accumulates Ctrl, 💙 Alt, 💚 Cmd/Super onto the next
// key; 💛 presses Escape immediately; 🧡 presses Enter immediately. A 💜 as
// the very last bytes suppresses the implicit trailing Enter. The escapes
// \n, \t and \\ map to Enter, Tab and a literal backslash. Every other
// byte becomes one literal character event.
package keys

// Mod is a modifier bitmask.
type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModAlt
	ModCmd // Cmd on macOS, Super on Linux
)

// Key identifies the key of an event.
type Key uint8

const (
	KeyChar Key = iota
	KeyReturn
	KeyTab
	KeyEscape
)

// Event is one keystroke to inject: a key (or literal character) with the
// modifiers held while it is pressed.
type Event struct {
	Key  Key
	Ch   byte // valid only for KeyChar
	Mods Mod
}

// Marker byte sequences. Protocol surface: these exact bytes, nothing else.
var (
	ctrlMarker     = []byte{0xE2, 0x9D, 0xA4}       // ❤ (U+2764)
	variationSel   = []byte{0xEF, 0xB8, 0x8F}       // U+FE0F, optional after ❤
	altMarker      = []byte{0xF0, 0x9F, 0x92, 0x99} // 💙
	cmdMarker      = []byte{0xF0, 0x9F, 0x92, 0x9A} // 💚
	escapeMarker   = []byte{0xF0, 0x9F, 0x92, 0x9B} // 💛
	submitMarker   = []byte{0xF0, 0x9F, 0xA7, 0xA1} // 🧡
	suppressMarker = []byte{0xF0, 0x9F, 0x92, 0x9C} // 💜
)

func hasPrefix(p, marker []byte) bool {
	if len(p) < len(marker) {
		return false
	}
	for i := range marker {
		if p[i] != marker[i] {
			return false
		}
	}
	return true
}

// Encode parses payload into its key event sequence. appendEnter reports
// whether the caller should inject one more plain Enter after the events:
// true unless the payload ended with the suppress marker, or the last
// event already was an Enter, or the whole payload amounted to a single
// keystroke in a scan that saw a modified event (a lone "Ctrl+C" style
// chord is taken as self-contained).
func Encode(payload string) (events []Event, appendEnter bool) {
	p := []byte(payload)

	appendEnter = true
	if n := len(p); n >= len(suppressMarker) && hasPrefix(p[n-len(suppressMarker):], suppressMarker) {
		appendEnter = false
		p = p[:n-len(suppressMarker)]
	}

	var mods Mod
	sawModified := false // some emitted event carried modifiers (or was 💛)
	lastWasSubmit := false

	emit := func(ev Event) {
		if ev.Mods != 0 {
			sawModified = true
		}
		events = append(events, ev)
		lastWasSubmit = ev.Key == KeyReturn
		mods = 0
	}

	for len(p) > 0 {
		switch {
		case hasPrefix(p, ctrlMarker):
			mods |= ModCtrl
			p = p[len(ctrlMarker):]
			if hasPrefix(p, variationSel) {
				p = p[len(variationSel):]
			}

		case hasPrefix(p, submitMarker):
			emit(Event{Key: KeyReturn, Mods: mods})
			p = p[len(submitMarker):]

		case hasPrefix(p, altMarker):
			mods |= ModAlt
			p = p[len(altMarker):]

		case hasPrefix(p, cmdMarker):
			mods |= ModCmd
			p = p[len(cmdMarker):]

		case hasPrefix(p, escapeMarker):
			// Immediate Escape. Pending modifiers are discarded, and the
			// event still counts as "modified" for the trailing-Enter rule.
			mods = 0
			emit(Event{Key: KeyEscape})
			sawModified = true
			p = p[len(escapeMarker):]

		case p[0] == '\\' && len(p) > 1 && p[1] == 'n':
			emit(Event{Key: KeyReturn, Mods: mods})
			p = p[2:]

		case p[0] == '\\' && len(p) > 1 && p[1] == 't':
			emit(Event{Key: KeyTab, Mods: mods})
			p = p[2:]

		case p[0] == '\\' && len(p) > 1 && p[1] == '\\':
			emit(Event{Key: KeyChar, Ch: '\\', Mods: mods})
			p = p[2:]

		default:
			emit(Event{Key: KeyChar, Ch: p[0], Mods: mods})
			p = p[1:]
		}
	}

	if len(events) == 1 && sawModified {
		appendEnter = false
	}
	if lastWasSubmit {
		appendEnter = false
	}
	return events, appendEnter
}
