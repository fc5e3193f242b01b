package window

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ehrlich-b/termbot/internal/keys"
)

type fakeAutomator struct {
	windows  []Descriptor
	sent     []keys.Event
	raised   []uint64
	captured []string
	sendErr  map[int]error // fail the i-th SendKey call
	sendN    int
}

func (f *fakeAutomator) ListWindows(ctx context.Context, danger bool) ([]Descriptor, error) {
	out := make([]Descriptor, len(f.windows))
	copy(out, f.windows)
	return out, nil
}

func (f *fakeAutomator) WindowExists(ctx context.Context, id uint64, pid int) (bool, uint64, error) {
	var fallback uint64
	for _, w := range f.windows {
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

func (f *fakeAutomator) Capture(ctx context.Context, id uint64, path string) error {
	f.captured = append(f.captured, path)
	return nil
}

func (f *fakeAutomator) Raise(ctx context.Context, pid int, id uint64) error {
	f.raised = append(f.raised, id)
	return nil
}

func (f *fakeAutomator) SendKey(ctx context.Context, pid int, ev keys.Event) error {
	n := f.sendN
	f.sendN++
	if err := f.sendErr[n]; err != nil {
		return err
	}
	f.sent = append(f.sent, ev)
	return nil
}

func threeWindows() *fakeAutomator {
	return &fakeAutomator{windows: []Descriptor{
		{ID: 101, PID: 11, Owner: "kitty", Title: "vim"},
		{ID: 102, PID: 12, Owner: "xterm", Title: "htop"},
		{ID: 103, PID: 13, Owner: "foot", Title: ""},
	}}
}

func TestSelectConnects(t *testing.T) {
	s := NewSession(threeWindows(), 0, 0, 0)
	d, err := s.Select(context.Background(), 2, false)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if d.ID != 102 || d.Owner != "xterm" {
		t.Errorf("connected to %+v, want window 102", d)
	}
	if _, ok := s.Connected(); !ok {
		t.Error("session must be connected after Select")
	}
}

func TestSelectOutOfRangeLeavesStateUntouched(t *testing.T) {
	s := NewSession(threeWindows(), 0, 0, 0)

	_, err := s.Select(context.Background(), 5, false)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if _, ok := s.Connected(); ok {
		t.Error("failed Select must not leave a partial connection")
	}

	// Previously connected: a bad Select keeps the old connection.
	if _, err := s.Select(context.Background(), 1, false); err != nil {
		t.Fatal(err)
	}
	_, err = s.Select(context.Background(), 99, false)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	d, ok := s.Connected()
	if !ok || d.ID != 101 {
		t.Errorf("connection after failed Select = %+v, want window 101", d)
	}
}

func TestSelectZeroIsOutOfRange(t *testing.T) {
	s := NewSession(threeWindows(), 0, 0, 0)
	if _, err := s.Select(context.Background(), 0, false); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Select(0) err = %v, want ErrOutOfRange", err)
	}
}

func TestVerifyAliveRebindsSamePID(t *testing.T) {
	fa := threeWindows()
	s := NewSession(fa, 0, 0, 0)
	if _, err := s.Select(context.Background(), 1, false); err != nil {
		t.Fatal(err)
	}

	// Window 101 is replaced by 150, same process.
	fa.windows[0] = Descriptor{ID: 150, PID: 11, Owner: "kitty", Title: "vim"}

	if !s.VerifyAlive(context.Background()) {
		t.Fatal("VerifyAlive must rebind to the replacement window")
	}
	d, _ := s.Connected()
	if d.ID != 150 {
		t.Errorf("rebound id = %d, want 150", d.ID)
	}
}

func TestVerifyAliveDisconnectsWhenGone(t *testing.T) {
	fa := threeWindows()
	s := NewSession(fa, 0, 0, 0)
	if _, err := s.Select(context.Background(), 1, false); err != nil {
		t.Fatal(err)
	}

	fa.windows = fa.windows[1:] // pid 11 has no windows left

	if s.VerifyAlive(context.Background()) {
		t.Fatal("VerifyAlive must report a dead window")
	}
	if _, ok := s.Connected(); ok {
		t.Error("dead window must leave the session disconnected")
	}
}

func TestInteractSendsEventsAndImpliedEnter(t *testing.T) {
	fa := threeWindows()
	s := NewSession(fa, 0, 0, 0)
	if _, err := s.Select(context.Background(), 1, false); err != nil {
		t.Fatal(err)
	}

	alive, err := s.Interact(context.Background(), "ls")
	if err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if !alive {
		t.Error("window should still be alive")
	}
	if len(fa.raised) != 1 {
		t.Errorf("raised %d times, want 1", len(fa.raised))
	}
	want := []keys.Event{
		{Key: keys.KeyChar, Ch: 'l'},
		{Key: keys.KeyChar, Ch: 's'},
		{Key: keys.KeyReturn},
	}
	if len(fa.sent) != len(want) {
		t.Fatalf("sent %d events, want %d: %v", len(fa.sent), len(want), fa.sent)
	}
	for i := range want {
		if fa.sent[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, fa.sent[i], want[i])
		}
	}
}

func TestInteractSuppressedEnter(t *testing.T) {
	fa := threeWindows()
	s := NewSession(fa, 0, 0, 0)
	if _, err := s.Select(context.Background(), 1, false); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Interact(context.Background(), "ab\U0001F49C"); err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if len(fa.sent) != 2 {
		t.Fatalf("sent %d events, want 2 (no implied Enter)", len(fa.sent))
	}
}

func TestInteractSkipsFailedSends(t *testing.T) {
	fa := threeWindows()
	fa.sendErr = map[int]error{1: errors.New("injection failed")}
	s := NewSession(fa, 0, 0, 0)
	if _, err := s.Select(context.Background(), 1, false); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Interact(context.Background(), "ab\U0001F49C"); err != nil {
		t.Fatalf("Interact must not fail on a dropped key: %v", err)
	}
	if len(fa.sent) != 1 || fa.sent[0].Ch != 'a' {
		t.Errorf("sent = %v, want just 'a' (failed 'b' skipped, no retry)", fa.sent)
	}
}

func TestInteractRequiresConnection(t *testing.T) {
	s := NewSession(threeWindows(), 0, 0, 0)
	if _, err := s.Interact(context.Background(), "ls"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestListCapsDescriptorBytes(t *testing.T) {
	long := strings.Repeat("é", 200) // 400 bytes of two-byte runes
	fa := &fakeAutomator{windows: []Descriptor{{ID: 1, PID: 2, Owner: long, Title: long}}}
	s := NewSession(fa, 0, 0, 0)

	wins, err := s.List(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(wins[0].Owner); got != 128 {
		t.Errorf("owner = %d bytes, want 128", got)
	}
	if got := len(wins[0].Title); got != 256 {
		t.Errorf("title = %d bytes, want 256", got)
	}
}
