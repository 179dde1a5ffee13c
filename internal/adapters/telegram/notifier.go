// Package telegram implements the ports.Notifier contract against the
// Telegram Bot API. Delivery is best-effort: failures are logged and dropped,
// never surfaced to the trading loops.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/ports"
)

const (
	apiURLTemplate = "https://api.telegram.org/bot%s/sendMessage"
	sendTimeout    = 10 * time.Second
	maxMessageLen  = 4000 // Telegram caps messages at 4096 characters
)

// Notifier posts alerts to a single Telegram chat.
type Notifier struct {
	token  string
	chatID string
	client *http.Client
	logger ports.Logger
}

// Config holds Telegram credentials. Empty token or chat ID disables the
// notifier (Notify becomes a no-op).
type Config struct {
	BotToken string
	ChatID   string
	Logger   ports.Logger
}

// New creates a Notifier. Returns a disabled notifier when credentials are
// missing, never an error: alerting must not block startup.
func New(cfg Config) *Notifier {
	n := &Notifier{
		token:  cfg.BotToken,
		chatID: cfg.ChatID,
		client: &http.Client{Timeout: sendTimeout},
		logger: cfg.Logger,
	}
	if !n.enabled() && cfg.Logger != nil {
		cfg.Logger.Warn(context.Background(), "Telegram notifier disabled (missing token or chat ID)")
	}
	return n
}

func (n *Notifier) enabled() bool {
	return n.token != "" && n.chatID != ""
}

// Notify sends the text to the configured chat. Never returns an error.
func (n *Notifier) Notify(ctx context.Context, text string) {
	if !n.enabled() || text == "" {
		return
	}
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen]
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)

	endpoint := fmt.Sprintf(apiURLTemplate, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		n.logError(ctx, err, text)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logError(ctx, err, text)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logError(ctx, fmt.Errorf("telegram API returned status %d", resp.StatusCode), text)
	}
}

func (n *Notifier) logError(ctx context.Context, err error, text string) {
	if n.logger == nil {
		return
	}
	preview := text
	if len(preview) > 80 {
		preview = preview[:80]
	}
	n.logger.Warn(ctx, "Failed to deliver notification", map[string]interface{}{
		"error": err.Error(), "preview": preview,
	})
}
