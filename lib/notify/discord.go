package notify

import (
	"context"
	"fmt"
	"time"

	"clantracker-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

// discord caps message content at 2000 characters, a fenced code block
// adds 8 more on top of the chunk itself.
const discordMessageLimit = 2000 - 8

type DiscordWebhook struct {
	http *resty.Client
	url  string
}

// NewDiscordWebhook builds a sink posting reports to a discord webhook.
// the channel identity is part of the webhook url.
func NewDiscordWebhook(webhookUrl string) *DiscordWebhook {
	client := resty.New()
	client.SetTimeout(time.Second * 15)
	restyutil.InstrumentClient(client, "notify/discord")

	return &DiscordWebhook{
		http: client,
		url:  webhookUrl,
	}
}

func (d *DiscordWebhook) Send(ctx context.Context, text string) error {
	for _, chunk := range splitChunks(text, discordMessageLimit) {
		res, err := d.http.R().
			SetContext(ctx).
			SetHeader("content-type", "application/json").
			SetBody(map[string]string{
				"content": fmt.Sprintf("```\n%s```", chunk),
			}).
			Post(d.url)
		if err != nil {
			return err
		}
		if !res.IsSuccess() {
			return fmt.Errorf("discord webhook returned status %d", res.StatusCode())
		}
	}
	return nil
}

// splitChunks breaks text into pieces no longer than limit, preferring to
// split on line boundaries.
func splitChunks(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if text[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
