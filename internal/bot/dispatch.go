package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehrlich-b/termbot/internal/session"
	"github.com/ehrlich-b/termbot/internal/window"
)

const (
	refreshLabel = "\U0001F504 Refresh"
	refreshData  = "refresh"

	// ScreenshotPrefix names capture temp files so housekeeping can find
	// strays after a crash.
	ScreenshotPrefix = "termbot-shot-"
)

const helpText = "Commands:\n" +
	".list - Show terminal windows\n" +
	".1 .2 ... - Connect to window\n" +
	".help - This help\n\n" +
	"Once connected, text is sent as keystrokes.\n" +
	"Newline is auto-added; end with `\U0001F49C` to suppress it.\n\n" +
	"Modifiers (tap to copy, then paste + key):\n" +
	"`\u2764\ufe0f` Ctrl  " +
	"`\U0001F499` Alt  " +
	"`\U0001F49A` Cmd/Super  " +
	"`\U0001F49B` ESC  " +
	"`\U0001F9E1` Enter\n\n" +
	"Escape sequences: \\n=Enter \\t=Tab\n\n" +
	"`.otptimeout <seconds>` - Set OTP timeout (30-28800)"

// Alerter pushes out-of-band security notifications to the operator.
type Alerter interface {
	Alert(kind, title, body string)
}

// Handler serializes and dispatches every inbound event. One mutex covers
// the whole pipeline: guard, window session and listing are process-wide
// singletons with no per-sender isolation.
type Handler struct {
	Guard   *session.Guard
	Windows *window.Session
	Chat    Chat
	Alerts  Alerter          // may be nil
	Danger  bool             // list/connect to any window
	Now     func() time.Time // test clock; nil means time.Now

	mu sync.Mutex
}

// HandleEvent runs one event through the auth gate and the dispatcher.
// It never returns an error: every failure is either replied to the
// operator or logged and swallowed, per the no-retry error model.
func (h *Handler) HandleEvent(ctx context.Context, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}

	decision, err := h.Guard.Admit(ev.Sender, ev.Text, ev.IsCallback, now)
	if err != nil {
		slog.Error("auth gate failed", "err", err)
		return
	}

	switch decision {
	case session.Drop:
		// No reply: don't confirm the bot's existence to third parties.
		slog.Info("dropped event from non-owner", "sender", ev.Sender)
		h.alert("owner", "Rejected sender",
			fmt.Sprintf("Dropped a message from unknown sender %d", ev.Sender))
	case session.AckCallback:
		h.ack(ev)
	case session.Accepted:
		h.reply(ev, "Authenticated.")
	case session.Prompt:
		if isOTPCandidate(ev.Text) {
			h.alert("auth", "Failed OTP attempt", "A 6-digit code was rejected")
		}
		h.reply(ev, "Enter OTP code.")
	case session.Pass:
		h.dispatch(ctx, ev)
	}
}

func (h *Handler) dispatch(ctx context.Context, ev Event) {
	if ev.IsCallback {
		h.ack(ev)
		if ev.CallbackData == refreshData {
			if _, ok := h.Windows.Connected(); ok {
				h.refreshScreenshot(ctx, ev)
			}
		}
		return
	}

	text := ev.Text
	switch {
	case strings.EqualFold(text, ".list"):
		h.Windows.Disconnect()
		h.reply(ev, h.listingText(ctx))

	case strings.EqualFold(text, ".help"):
		h.reply(ev, helpText)

	case len(text) >= len(".otptimeout") && strings.EqualFold(text[:len(".otptimeout")], ".otptimeout"):
		secs := parseLeadingInt(strings.TrimLeft(text[len(".otptimeout"):], " "))
		applied, err := h.Guard.SetTimeout(secs)
		if err != nil {
			slog.Error("set otp timeout", "err", err)
		}
		h.reply(ev, fmt.Sprintf("OTP timeout set to %d seconds.", applied))

	case len(text) > 1 && text[0] == '.' && isDigit(text[1]):
		h.selectWindow(ctx, ev, parseLeadingInt(text[1:]))

	default:
		h.sendKeystrokes(ctx, ev)
	}
}

func (h *Handler) selectWindow(ctx context.Context, ev Event, n int) {
	d, err := h.Windows.Select(ctx, n, h.Danger)
	if err != nil {
		if !errors.Is(err, window.ErrOutOfRange) {
			slog.Error("select window", "err", err)
		}
		h.reply(ev, "Invalid window number.")
		return
	}

	msg := "Connected to " + d.Owner
	if d.Title != "" {
		msg += " - " + d.Title
	}
	h.reply(ev, msg)

	if err := h.Windows.Raise(ctx); err != nil {
		slog.Warn("raise window", "err", err)
	}
	h.sendScreenshot(ctx, ev)
}

func (h *Handler) sendKeystrokes(ctx context.Context, ev Event) {
	if _, ok := h.Windows.Connected(); !ok {
		h.reply(ev, h.listingText(ctx))
		return
	}
	if !h.Windows.VerifyAlive(ctx) {
		h.reply(ev, "Window closed.\n\n"+h.listingText(ctx))
		return
	}

	alive, err := h.Windows.Interact(ctx, ev.Text)
	if err != nil {
		slog.Error("interact", "err", err)
		return
	}
	if alive {
		h.sendScreenshot(ctx, ev)
	}
}

// listingText builds the numbered window listing for replies.
func (h *Handler) listingText(ctx context.Context) string {
	wins, err := h.Windows.List(ctx, h.Danger)
	if err != nil {
		slog.Error("list windows", "err", err)
		return "No terminal windows found."
	}
	if len(wins) == 0 {
		return "No terminal windows found."
	}

	var b strings.Builder
	b.WriteString("Terminal windows:\n")
	for i, w := range wins {
		if w.Title != "" {
			fmt.Fprintf(&b, ".%d [%d] %s - %s\n", i+1, w.ID, w.Owner, w.Title)
		} else {
			fmt.Fprintf(&b, ".%d [%d] %s\n", i+1, w.ID, w.Owner)
		}
	}
	return b.String()
}

// sendScreenshot captures the connected window and replies with the image.
// Capture failure is silent: no reply, no retry.
func (h *Handler) sendScreenshot(ctx context.Context, ev Event) {
	path := screenshotPath()
	defer os.Remove(path)
	if err := h.Windows.Capture(ctx, path); err != nil {
		slog.Warn("screenshot capture", "err", err)
		return
	}
	if err := h.Chat.SendPhoto(ev.Target, path, refreshLabel, refreshData); err != nil {
		slog.Warn("send screenshot", "err", err)
	}
}

// refreshScreenshot re-captures and replaces the image of the message the
// refresh button lives on.
func (h *Handler) refreshScreenshot(ctx context.Context, ev Event) {
	path := screenshotPath()
	defer os.Remove(path)
	if err := h.Windows.Capture(ctx, path); err != nil {
		slog.Warn("screenshot capture", "err", err)
		return
	}
	if err := h.Chat.EditPhoto(ev.Target, ev.MessageID, path, refreshLabel, refreshData); err != nil {
		slog.Warn("edit screenshot", "err", err)
	}
}

func (h *Handler) reply(ev Event, text string) {
	if err := h.Chat.SendText(ev.Target, text); err != nil {
		slog.Warn("send reply", "err", err)
	}
}

func (h *Handler) ack(ev Event) {
	if err := h.Chat.AckCallback(ev.CallbackID); err != nil {
		slog.Warn("ack callback", "err", err)
	}
}

func (h *Handler) alert(kind, title, body string) {
	if h.Alerts != nil {
		h.Alerts.Alert(kind, title, body)
	}
}

func screenshotPath() string {
	return filepath.Join(os.TempDir(), ScreenshotPrefix+uuid.NewString()+".png")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isOTPCandidate(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// parseLeadingInt reads the leading decimal digits of s (optionally
// signed), ignoring any trailing garbage. Returns 0 for no digits.
func parseLeadingInt(s string) int {
	neg := false
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	for ; i < len(s) && isDigit(s[i]); i++ {
		n = n*10 + int(s[i]-'0')
		if n > 1<<30 {
			break
		}
	}
	if neg {
		return -n
	}
	return n
}
