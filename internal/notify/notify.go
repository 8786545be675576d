// Package notify posts backup outcomes to a Discord webhook.
//
// Notification failures are logged and swallowed: a broken webhook must
// never fail or retry a backup run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mariabak-dev/mariabak/internal/ansi"
	"github.com/mariabak-dev/mariabak/internal/config"
)

// requestTimeout bounds a single webhook delivery.
const requestTimeout = 10 * time.Second

// Notifier delivers webhook notifications.
type Notifier struct {
	webhookURL string
	onSuccess  string
	onFailure  string
	logger     *slog.Logger
	client     *http.Client
}

// message is the Discord webhook payload.
type message struct {
	Content string `json:"content"`
}

// New creates a Notifier from the discord config section.
func New(cfg config.DiscordConfig, logger *slog.Logger) *Notifier {
	onSuccess := cfg.OnSuccess
	if onSuccess == "" {
		onSuccess = config.DefaultSuccessMessage
	}

	onFailure := cfg.OnFailure
	if onFailure == "" {
		onFailure = config.DefaultFailureMessage
	}

	return &Notifier{
		webhookURL: cfg.WebhookURL,
		onSuccess:  onSuccess,
		onFailure:  onFailure,
		logger:     logger,
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Enabled reports whether a usable webhook URL is configured.
// The starter-file placeholder counts as unset.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != "" && n.webhookURL != config.WebhookPlaceholder
}

// BackupSucceeded sends the success notification for one database.
func (n *Notifier) BackupSucceeded(ctx context.Context, host, database string) {
	n.post(ctx, render(n.onSuccess, host, database, ""))
}

// BackupFailed sends the failure notification for one database.
func (n *Notifier) BackupFailed(ctx context.Context, host, database string, cause error) {
	errText := ""
	if cause != nil {
		errText = ansi.Strip(cause.Error())
	}

	n.post(ctx, render(n.onFailure, host, database, errText))
}

func (n *Notifier) post(ctx context.Context, content string) {
	if !n.Enabled() {
		return
	}

	body, err := json.Marshal(message{Content: content})
	if err != nil {
		n.logger.Error("encode webhook payload", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("build webhook request", slog.String("error", err.Error()))
		return
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("send webhook notification", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		n.logger.Error("webhook notification rejected",
			slog.String("status", fmt.Sprintf("%d", resp.StatusCode)),
		)
	}
}

// render fills the {database}, {host}, and {error} placeholders.
func render(template, host, database, errText string) string {
	return strings.NewReplacer(
		"{database}", database,
		"{host}", host,
		"{error}", errText,
	).Replace(template)
}
