package keys

import (
	"reflect"
	"testing"
)

func TestEncodePlainText(t *testing.T) {
	events, appendEnter := Encode("hello")
	want := []Event{
		{Key: KeyChar, Ch: 'h'},
		{Key: KeyChar, Ch: 'e'},
		{Key: KeyChar, Ch: 'l'},
		{Key: KeyChar, Ch: 'l'},
		{Key: KeyChar, Ch: 'o'},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if !appendEnter {
		t.Error("plain text must get the implicit trailing Enter")
	}
}

func TestEncodeSuppressMarker(t *testing.T) {
	events, appendEnter := Encode("hello\U0001F49C") // trailing 💜
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}
	for i, ch := range []byte("hello") {
		if events[i].Key != KeyChar || events[i].Ch != ch {
			t.Errorf("event %d = %v, want char %q", i, events[i], ch)
		}
	}
	if appendEnter {
		t.Error("suppress marker must cancel the trailing Enter")
	}
}

func TestEncodeCtrlChord(t *testing.T) {
	// ❤️ (with variation selector) then "c": a single self-contained chord.
	events, appendEnter := Encode("❤️c")
	want := []Event{{Key: KeyChar, Ch: 'c', Mods: ModCtrl}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if appendEnter {
		t.Error("single modified keystroke must not get a trailing Enter")
	}
}

func TestEncodeCtrlWithoutVariationSelector(t *testing.T) {
	events, _ := Encode("❤c") // bare ❤ U+2764, no U+FE0F
	want := []Event{{Key: KeyChar, Ch: 'c', Mods: ModCtrl}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestEncodeSubmitMarkerAlone(t *testing.T) {
	events, appendEnter := Encode("\U0001F9E1") // 🧡
	want := []Event{{Key: KeyReturn}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if appendEnter {
		t.Error("explicit Enter must not double-submit")
	}
}

func TestEncodeModifierAccumulation(t *testing.T) {
	// Ctrl+Alt+x then a plain y: the mask applies to x only.
	events, appendEnter := Encode("❤️\U0001F499xy")
	want := []Event{
		{Key: KeyChar, Ch: 'x', Mods: ModCtrl | ModAlt},
		{Key: KeyChar, Ch: 'y'},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if !appendEnter {
		t.Error("multi-key payload still gets the trailing Enter")
	}
}

func TestEncodeCmdMarker(t *testing.T) {
	events, _ := Encode("\U0001F49At") // 💚 then t
	want := []Event{{Key: KeyChar, Ch: 't', Mods: ModCmd}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestEncodeEscapeMarker(t *testing.T) {
	// 💛 alone: one Escape, no trailing Enter (counts as self-contained).
	events, appendEnter := Encode("\U0001F49B")
	want := []Event{{Key: KeyEscape}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if appendEnter {
		t.Error("lone Escape must not get a trailing Enter")
	}
}

func TestEncodeEscapeMarkerDiscardsPendingMods(t *testing.T) {
	// Ctrl pending, then 💛: Escape goes out unmodified and the pending
	// Ctrl is dropped, so the following char is plain.
	events, _ := Encode("❤️\U0001F49Ba")
	want := []Event{
		{Key: KeyEscape},
		{Key: KeyChar, Ch: 'a'},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestEncodeBackslashEscapes(t *testing.T) {
	events, appendEnter := Encode(`a\tb\\c\n`)
	want := []Event{
		{Key: KeyChar, Ch: 'a'},
		{Key: KeyTab},
		{Key: KeyChar, Ch: 'b'},
		{Key: KeyChar, Ch: '\\'},
		{Key: KeyChar, Ch: 'c'},
		{Key: KeyReturn},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if appendEnter {
		t.Error("payload ending in \\n must not double-submit")
	}
}

func TestEncodeUnknownEscapeIsLiteral(t *testing.T) {
	events, _ := Encode(`\x`)
	want := []Event{
		{Key: KeyChar, Ch: '\\'},
		{Key: KeyChar, Ch: 'x'},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestEncodeTrailingLoneBackslash(t *testing.T) {
	events, _ := Encode(`a\`)
	want := []Event{
		{Key: KeyChar, Ch: 'a'},
		{Key: KeyChar, Ch: '\\'},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestEncodeInteriorSuppressMarkerIsLiteral(t *testing.T) {
	// 💜 not at the end is not a marker: its four bytes go out literally.
	events, appendEnter := Encode("\U0001F49Ca")
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5 (4 marker bytes + 'a')", len(events))
	}
	for i, ev := range events[:4] {
		if ev.Key != KeyChar {
			t.Errorf("event %d = %v, want literal char", i, ev)
		}
	}
	if events[4].Ch != 'a' {
		t.Errorf("last event = %v, want 'a'", events[4])
	}
	if !appendEnter {
		t.Error("interior suppress marker must not cancel the Enter")
	}
}

func TestEncodeModifiedSubmit(t *testing.T) {
	// Ctrl+🧡: an Enter carrying Ctrl, self-contained.
	events, appendEnter := Encode("❤️\U0001F9E1")
	want := []Event{{Key: KeyReturn, Mods: ModCtrl}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if appendEnter {
		t.Error("single modified Enter must not double-submit")
	}
}

func TestEncodeEmptyPayload(t *testing.T) {
	events, appendEnter := Encode("")
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
	if !appendEnter {
		t.Error("empty payload still implies one Enter")
	}
}

func TestEncodeSuppressOnlyPayload(t *testing.T) {
	events, appendEnter := Encode("\U0001F49C")
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
	if appendEnter {
		t.Error("suppress-only payload must emit nothing at all")
	}
}
