// Package daemon wires the bot together and owns process lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ehrlich-b/termbot/internal/bot"
	"github.com/ehrlich-b/termbot/internal/config"
	"github.com/ehrlich-b/termbot/internal/enroll"
	"github.com/ehrlich-b/termbot/internal/ntfy"
	"github.com/ehrlich-b/termbot/internal/session"
	"github.com/ehrlich-b/termbot/internal/store"
	"github.com/ehrlich-b/termbot/internal/window"
)

const (
	housekeepingInterval = 10 * time.Minute
	screenshotMaxAge     = time.Hour
)

// Run starts the bot and blocks until SIGINT/SIGTERM.
func Run(cfg *config.Config) error {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var secret []byte
	if !cfg.Auth.WeakSecurity {
		// Fatal when the secret cannot be generated: the process must not
		// run without one.
		secret, err = enroll.EnsureSecret(st, os.Stdout)
		if err != nil {
			return err
		}
	} else {
		slog.Warn("OTP authentication disabled (weak security)")
	}

	// A persisted timeout (set via .otptimeout) wins over the config file.
	timeout := cfg.Auth.OTPTimeout
	if saved, err := st.OTPTimeout(); err != nil {
		return fmt.Errorf("load otp timeout: %w", err)
	} else if saved >= session.MinTimeout && saved <= session.MaxTimeout {
		timeout = saved
	}

	guard, err := session.New(st, secret, cfg.Auth.WeakSecurity, timeout)
	if err != nil {
		return err
	}

	auto, err := window.NewAutomator()
	if err != nil {
		return fmt.Errorf("init window automation: %w", err)
	}

	tg, err := bot.NewTelegram(cfg.Telegram.Token)
	if err != nil {
		return err
	}

	if cfg.Automation.DangerMode {
		slog.Warn("danger mode: all windows will be visible")
	}

	handler := &bot.Handler{
		Guard:   guard,
		Windows: window.NewSession(auto, cfg.KeyDelay(), cfg.SubmitDelay(), cfg.RedrawWait()),
		Chat:    tg,
		Alerts:  ntfy.New(cfg.Ntfy.Topic, cfg.Ntfy.Token, cfg.Ntfy.Events),
		Danger:  cfg.Automation.DangerMode,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go housekeeping(ctx)

	slog.Info("termbot started", "db", cfg.Database.Path)
	err = tg.Run(ctx, func(ev bot.Event) {
		handler.HandleEvent(ctx, ev)
	})
	if errors.Is(err, context.Canceled) {
		slog.Info("shutting down")
		return nil
	}
	return err
}

// housekeeping periodically prunes screenshot temp files left behind by a
// crash mid-send. It touches no guarded state.
func housekeeping(ctx context.Context) {
	t := time.NewTicker(housekeepingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pruneScreenshots(os.TempDir(), time.Now())
		}
	}
}

func pruneScreenshots(dir string, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), bot.ScreenshotPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > screenshotMaxAge {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}
