package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram adapts the Telegram Bot API to the Chat contract and delivers
// inbound updates as Events.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram authenticates against the Bot API.
func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	slog.Info("telegram connected", "bot", api.Self.UserName)
	return &Telegram{api: api}, nil
}

func (t *Telegram) SendText(target int64, text string) error {
	msg := tgbotapi.NewMessage(target, text)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

func refreshMarkup(label, data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, data),
		),
	)
}

func (t *Telegram) SendPhoto(target int64, path, buttonLabel, buttonData string) error {
	photo := tgbotapi.NewPhoto(target, tgbotapi.FilePath(path))
	photo.ReplyMarkup = refreshMarkup(buttonLabel, buttonData)
	if _, err := t.api.Send(photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

func (t *Telegram) EditPhoto(target int64, messageID int, path, buttonLabel, buttonData string) error {
	markup := refreshMarkup(buttonLabel, buttonData)
	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:      target,
			MessageID:   messageID,
			ReplyMarkup: &markup,
		},
		Media: tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(path)),
	}
	if _, err := t.api.Request(edit); err != nil {
		return fmt.Errorf("edit photo: %w", err)
	}
	return nil
}

func (t *Telegram) AckCallback(callbackID string) error {
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("ack callback: %w", err)
	}
	return nil
}

// Run long-polls for updates until ctx is canceled, delivering each as an
// Event. Poll failures back off exponentially and never kill the loop.
func (t *Telegram) Run(ctx context.Context, handle func(Event)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	bo := backoff{base: time.Second, max: time.Minute}
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := t.api.GetUpdates(u)
		if err != nil {
			d := bo.next()
			slog.Warn("poll failed", "err", err, "retry_in", d)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
			continue
		}
		bo.reset()

		for _, up := range updates {
			if up.UpdateID >= u.Offset {
				u.Offset = up.UpdateID + 1
			}
			if ev, ok := toEvent(up); ok {
				handle(ev)
			}
		}
	}
}

func toEvent(up tgbotapi.Update) (Event, bool) {
	switch {
	case up.CallbackQuery != nil:
		cb := up.CallbackQuery
		ev := Event{
			Sender:       cb.From.ID,
			IsCallback:   true,
			CallbackID:   cb.ID,
			CallbackData: cb.Data,
		}
		if cb.Message != nil {
			ev.Target = cb.Message.Chat.ID
			ev.MessageID = cb.Message.MessageID
		}
		return ev, true
	case up.Message != nil && up.Message.From != nil:
		m := up.Message
		return Event{
			Sender:    m.From.ID,
			Target:    m.Chat.ID,
			Text:      m.Text,
			MessageID: m.MessageID,
		}, true
	}
	return Event{}, false
}
