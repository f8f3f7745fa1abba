package messaging

import (
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/config"
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/inbound"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// defaultSubmitTimeout bounds how long one pushed event may hold the
// pipeline.
const defaultSubmitTimeout = 30 * time.Second

// eventMessage is the wire shape of a pushed error event.
type eventMessage struct {
	EventID         string    `json:"event_id"`
	Message         string    `json:"message"`
	Level           string    `json:"level"`
	Environment     string    `json:"environment"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	OccurrenceCount int       `json:"occurrence_count"`
}

// ConsumerStats tracks message handling counters.
type ConsumerStats struct {
	MessagesReceived int64     `json:"messages_received"`
	MessagesFailed   int64     `json:"messages_failed"`
	LastError        string    `json:"last_error,omitempty"`
	ActiveSince      time.Time `json:"active_since"`
}

// EventConsumer subscribes to the push-event subject and feeds events into
// the orchestration pipeline through a queue group, so multiple instances
// share the stream.
type EventConsumer struct {
	config       config.NATSConfig
	orchestrator inbound.OrchestratorService

	mu      sync.RWMutex
	running bool
	conn    *nats.Conn
	sub     *nats.Subscription
	stats   ConsumerStats
}

// NewEventConsumer creates a consumer with validation.
func NewEventConsumer(natsConfig config.NATSConfig, orchestrator inbound.OrchestratorService) (*EventConsumer, error) {
	if natsConfig.URL == "" {
		return nil, errors.New("NATS URL cannot be empty")
	}
	if natsConfig.Subject == "" {
		return nil, errors.New("subject cannot be empty")
	}
	if natsConfig.QueueGroup == "" {
		return nil, errors.New("queue group cannot be empty")
	}
	if orchestrator == nil {
		return nil, errors.New("orchestrator cannot be nil")
	}

	return &EventConsumer{
		config:       natsConfig,
		orchestrator: orchestrator,
	}, nil
}

// Start connects to NATS and subscribes to the configured subject.
func (c *EventConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("consumer already running for subject %s", c.config.Subject)
	}

	conn, err := nats.Connect(c.config.URL,
		nats.MaxReconnects(c.config.MaxReconnects),
		nats.ReconnectWait(c.config.ReconnectWait),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	sub, err := conn.QueueSubscribe(c.config.Subject, c.config.QueueGroup, func(msg *nats.Msg) {
		if handleErr := c.handleMessage(msg); handleErr != nil {
			slogger.ErrorNoCtx("Failed to handle pushed event", slogger.Fields{
				"error": handleErr.Error(),
			})
		}
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", c.config.Subject, err)
	}

	c.conn = conn
	c.sub = sub
	c.running = true
	c.stats = ConsumerStats{ActiveSince: time.Now()}

	slogger.Info(ctx, "Event consumer started", slogger.Fields2(
		"subject", c.config.Subject,
		"queue_group", c.config.QueueGroup,
	))
	return nil
}

// Stop drains the subscription and closes the connection. Idempotent.
func (c *EventConsumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			slogger.Warn(ctx, "Failed to drain subscription", slogger.Fields{"error": err.Error()})
		}
		c.sub = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.running = false

	slogger.Info(ctx, "Event consumer stopped", nil)
	return nil
}

// IsConnected reports whether the NATS connection is up.
func (c *EventConsumer) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// GetStats returns message handling counters.
func (c *EventConsumer) GetStats() ConsumerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// handleMessage decodes one pushed event and submits it to the pipeline.
func (c *EventConsumer) handleMessage(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("received nil message")
	}

	var wire eventMessage
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		c.recordFailure(fmt.Sprintf("failed to unmarshal event: %v", err))
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event, err := toEvent(wire)
	if err != nil {
		c.recordFailure(err.Error())
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSubmitTimeout)
	defer cancel()

	if err := c.orchestrator.SubmitEvent(ctx, event); err != nil {
		c.recordFailure(fmt.Sprintf("submit failed: %v", err))
		return fmt.Errorf("failed to submit event %s: %w", event.ID(), err)
	}

	c.mu.Lock()
	c.stats.MessagesReceived++
	c.mu.Unlock()
	return nil
}

func toEvent(wire eventMessage) (*entity.ErrorEvent, error) {
	if wire.EventID == "" {
		return nil, errors.New("event_id cannot be empty")
	}

	level, err := valueobject.NewEventLevel(wire.Level)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", wire.EventID, err)
	}

	occurrences := wire.OccurrenceCount
	if occurrences == 0 {
		occurrences = 1
	}
	firstSeen := wire.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = time.Now()
	}
	lastSeen := wire.LastSeen
	if lastSeen.IsZero() {
		lastSeen = firstSeen
	}

	return entity.NewErrorEvent(
		wire.EventID, wire.Message, level, wire.Environment,
		firstSeen, lastSeen, occurrences)
}

func (c *EventConsumer) recordFailure(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.MessagesReceived++
	c.stats.MessagesFailed++
	c.stats.LastError = message
}
