package mock

import (
	"context"
	"errors"
	"sync"

	"alertflow/internal/application/common/slogger"
	"alertflow/internal/port/outbound"

	"github.com/google/uuid"
)

// Dispatcher provides a mock implementation of NotificationDispatcher for
// development runs where no webhook is configured. Sent notifications are
// logged and retained for verification.
type Dispatcher struct {
	mu      sync.Mutex
	sent    []outbound.Notification
	handler outbound.InteractionHandler
}

// NewDispatcher creates a new mock notification dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		sent: make([]outbound.Notification, 0),
	}
}

// Send records the notification and logs it instead of delivering anywhere.
func (d *Dispatcher) Send(_ context.Context, notification outbound.Notification) (string, error) {
	d.mu.Lock()
	d.sent = append(d.sent, notification)
	d.mu.Unlock()

	slogger.InfoNoCtx("Mock: notification suppressed", slogger.Fields2(
		"kind", string(notification.Kind),
		"title", notification.Title,
	))

	return uuid.New().String(), nil
}

// OnInteraction registers the handler interactions are relayed to.
func (d *Dispatcher) OnInteraction(handler outbound.InteractionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// DispatchInteraction forwards an interaction to the registered handler.
func (d *Dispatcher) DispatchInteraction(ctx context.Context, interaction outbound.Interaction) error {
	d.mu.Lock()
	handler := d.handler
	d.mu.Unlock()

	if handler == nil {
		return errors.New("no interaction handler registered")
	}

	handler(ctx, interaction)
	return nil
}

// Sent returns all notifications recorded so far (for testing).
func (d *Dispatcher) Sent() []outbound.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]outbound.Notification, len(d.sent))
	copy(out, d.sent)
	return out
}

// Reset clears all recorded notifications.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = d.sent[:0]
}
