package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Embed presentation.
const (
	embedTitle = "ghive"
	embedColor = 0xfff42b
)

// discordTimeout bounds a single webhook delivery.
const discordTimeout = 15 * time.Second

// ErrNoWebhookURL is returned by NewDiscord for an empty URL.
var ErrNoWebhookURL = errors.New("notify: discord webhook URL is required")

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Discord posts one embed per transfer to a Discord webhook.
type Discord struct {
	webhookURL string
	footer     string
	client     *resty.Client
	logger     *slog.Logger
}

// NewDiscord returns a notifier posting to webhookURL. footer is shown under
// every embed (the service account email). httpClient may be nil.
func NewDiscord(webhookURL, footer string, httpClient *http.Client, logger *slog.Logger) (*Discord, error) {
	if webhookURL == "" {
		return nil, ErrNoWebhookURL
	}

	if logger == nil {
		logger = slog.Default()
	}

	var client *resty.Client
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	} else {
		client = resty.New()
	}

	client.SetTimeout(discordTimeout)

	return &Discord{
		webhookURL: webhookURL,
		footer:     footer,
		client:     client,
		logger:     logger,
	}, nil
}

// Notify posts t. The webhook URL is a credential, so errors never include it.
func (d *Discord) Notify(ctx context.Context, t Transfer) error {
	embed := discordEmbed{
		Title:       embedTitle,
		Description: Describe(t),
		Color:       embedColor,
	}

	if d.footer != "" {
		embed.Footer = &discordFooter{Text: d.footer}
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(discordPayload{Embeds: []discordEmbed{embed}}).
		Post(d.webhookURL)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("notify: discord delivery canceled: %w", ctx.Err())
		}

		return errors.New("notify: discord delivery failed")
	}

	if resp.IsError() {
		return fmt.Errorf("notify: discord webhook returned HTTP %d", resp.StatusCode())
	}

	d.logger.Debug("sent discord notification", slog.Int("status", resp.StatusCode()))

	return nil
}
