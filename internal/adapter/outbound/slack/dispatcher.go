package slack

import (
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/outbound"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 5 * time.Second

// Config holds the configuration for the Slack webhook dispatcher.
type Config struct {
	WebhookURL string        `json:"webhook_url"`
	Timeout    time.Duration `json:"timeout"`
}

// Validate validates the dispatcher configuration.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return errors.New("webhook URL cannot be empty")
	}
	if _, err := url.Parse(c.WebhookURL); err != nil || !strings.HasPrefix(c.WebhookURL, "http") {
		return errors.New("invalid webhook URL")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// Dispatcher posts notifications to a Slack incoming webhook and relays
// interaction payloads back to the registered handler.
type Dispatcher struct {
	config     *Config
	httpClient *http.Client

	mu      sync.RWMutex
	handler outbound.InteractionHandler
}

// NewDispatcher creates a Slack dispatcher with the provided configuration.
func NewDispatcher(config *Config) (*Dispatcher, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	finalConfig := *config
	if finalConfig.Timeout == 0 {
		finalConfig.Timeout = defaultTimeout
	}

	return &Dispatcher{
		config:     &finalConfig,
		httpClient: &http.Client{Timeout: finalConfig.Timeout},
	}, nil
}

// webhookPayload is the Slack incoming-webhook message shape.
type webhookPayload struct {
	Channel     string       `json:"channel,omitempty"`
	Text        string       `json:"text"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	Color  string  `json:"color"`
	Text   string  `json:"text"`
	Fields []field `json:"fields,omitempty"`
}

type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Send posts a message to the configured webhook. The webhook API returns no
// message identifier, so a locally generated one keys later interactions.
func (d *Dispatcher) Send(ctx context.Context, notification outbound.Notification) (string, error) {
	messageID := uuid.New().String()

	fields := []field{
		{Title: "Kind", Value: string(notification.Kind), Short: true},
	}
	if !notification.Fingerprint.IsZero() {
		fields = append(fields, field{Title: "Fingerprint", Value: notification.Fingerprint.String(), Short: true})
	}
	if notification.Level != valueobject.EscalationLevelNone {
		fields = append(fields, field{Title: "Escalation", Value: notification.Level.String(), Short: true})
	}

	payload := webhookPayload{
		Channel: notification.Channel,
		Text:    notification.Title,
		Attachments: []attachment{{
			Color:  colorFor(notification),
			Text:   notification.Body,
			Fields: fields,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	slogger.Debug(ctx, "Notification sent", slogger.Fields2(
		"kind", string(notification.Kind),
		"message_id", messageID,
	))
	return messageID, nil
}

// OnInteraction registers the handler for relayed interaction payloads.
func (d *Dispatcher) OnInteraction(handler outbound.InteractionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// DispatchInteraction forwards one decoded interaction to the registered
// handler. The inbound webhook endpoint calls this.
func (d *Dispatcher) DispatchInteraction(ctx context.Context, interaction outbound.Interaction) error {
	d.mu.RLock()
	handler := d.handler
	d.mu.RUnlock()

	if handler == nil {
		return errors.New("no interaction handler registered")
	}
	handler(ctx, interaction)
	return nil
}

func colorFor(notification outbound.Notification) string {
	switch notification.Kind {
	case outbound.NotificationKindResolutionSuccess:
		return "good"
	case outbound.NotificationKindResolutionFailure:
		return "danger"
	case outbound.NotificationKindManualAction:
		return "warning"
	case outbound.NotificationKindEscalationChange:
		if notification.Level.IsTerminal() {
			return "danger"
		}
		return "warning"
	default:
		return "#439FE0"
	}
}
