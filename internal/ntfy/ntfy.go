// Package ntfy pushes security notifications to the operator via ntfy.sh
// or a self-hosted ntfy server. Delivery is best effort; the bot never
// blocks or fails on a lost notification.
package ntfy

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client posts to a single topic. A zero topic disables all sends.
type Client struct {
	url    string
	token  string
	events map[string]bool
	http   *http.Client
}

// New builds a client. topic may be a bare topic name (expanded against
// ntfy.sh) or a full URL. events is a comma-separated list of alert kinds
// to deliver (e.g. "auth,owner"); empty means everything.
func New(topic, token, events string) *Client {
	url := topic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		url = "https://ntfy.sh/" + topic
	}
	ev := make(map[string]bool)
	for _, e := range strings.Split(events, ",") {
		if e = strings.TrimSpace(e); e != "" {
			ev[e] = true
		}
	}
	return &Client{
		url:    url,
		token:  token,
		events: ev,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Alert sends one notification of the given kind, subject to the event
// filter. Failures are logged and dropped.
func (c *Client) Alert(kind, title, body string) {
	if c.url == "" {
		return
	}
	if len(c.events) > 0 && !c.events[kind] {
		return
	}

	req, err := http.NewRequest(http.MethodPost, c.url, strings.NewReader(body))
	if err != nil {
		slog.Warn("ntfy request", "err", err)
		return
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", "high")
	req.Header.Set("Tags", "warning")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("ntfy send", "err", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		slog.Warn("ntfy send", "status", resp.Status)
	}
}
