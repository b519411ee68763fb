package archive

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"pin-archive-bot/guildconfig"

	"github.com/bwmarrin/discordgo"
)

const webhookName = "Pin Archive Webhook"

// Session is the subset of discordgo.Session the dispatcher needs.
type Session interface {
	WebhookCreate(channelID, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error)
	WebhookDeleteWithToken(webhookID, token string, options ...discordgo.RequestOption) (*discordgo.Webhook, error)
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Dispatcher owns webhook lifecycle and payload delivery for archive channels.
// The webhook URL itself is persisted in the guild config store; the remote
// webhook resource belongs to the archive channel.
type Dispatcher struct {
	session Session
	store   *guildconfig.Store
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(session Session, store *guildconfig.Store) *Dispatcher {
	return &Dispatcher{session: session, store: store}
}

// EnsureWebhook returns the guild's archive webhook URL, creating and
// persisting one bound to the archive channel when none exists yet.
func (d *Dispatcher) EnsureWebhook(guildID, channelID string) (string, error) {
	existing, ok, err := d.store.WebhookURL(guildID)
	if err != nil {
		return "", err
	}
	if ok {
		return existing, nil
	}
	return d.create(guildID, channelID)
}

// Rotate deletes the guild's previous remote webhook, then creates and
// persists a new one for the given archive channel. Deleting first keeps a
// re-init from orphaning the old remote resource.
func (d *Dispatcher) Rotate(guildID, channelID string) (string, error) {
	old, ok, err := d.store.WebhookURL(guildID)
	if err != nil {
		return "", err
	}
	if ok {
		id, token, err := parseWebhookURL(old)
		if err != nil {
			log.Printf("Stored webhook URL for guild %s is malformed, skipping delete: %v", guildID, err)
		} else if _, err := d.session.WebhookDeleteWithToken(id, token); err != nil {
			// The remote webhook may already be gone; not worth failing init.
			log.Printf("Failed to delete old webhook for guild %s: %v", guildID, err)
		}
	}
	return d.create(guildID, channelID)
}

func (d *Dispatcher) create(guildID, channelID string) (string, error) {
	webhook, err := d.session.WebhookCreate(channelID, webhookName, "")
	if err != nil {
		return "", fmt.Errorf("failed to create webhook for channel %s: %w", channelID, err)
	}
	webhookURL := fmt.Sprintf("https://discord.com/api/webhooks/%s/%s", webhook.ID, webhook.Token)
	if err := d.store.SetWebhookURL(guildID, webhookURL); err != nil {
		return "", err
	}
	return webhookURL, nil
}

// Send posts a payload through the webhook. Fire-and-forget: no wait for the
// platform acknowledgment, and callers treat failures as terminal for the
// event (logged, never retried).
func (d *Dispatcher) Send(webhookURL string, p *Payload) error {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return err
	}
	_, err = d.session.WebhookExecute(id, token, false, &discordgo.WebhookParams{
		Content: p.Content,
		Embeds:  p.Embeds,
	})
	if err != nil {
		return fmt.Errorf("failed to execute webhook: %w", err)
	}
	return nil
}

// parseWebhookURL extracts the webhook ID and token from a stored webhook URL
// of the form https://discord.com/api/webhooks/{id}/{token}.
func parseWebhookURL(webhookURL string) (string, string, error) {
	u, err := url.Parse(webhookURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook URL: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "webhooks" && i+2 < len(parts) {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook URL %q has no id/token segments", webhookURL)
}
