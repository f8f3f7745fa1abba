package outbound

import (
	"alertflow/internal/domain/valueobject"
	"context"
)

// NotificationKind distinguishes the classes of message the engine sends.
type NotificationKind string

// Notification kind constants.
const (
	NotificationKindResolutionSuccess NotificationKind = "resolution_success"
	NotificationKindResolutionFailure NotificationKind = "resolution_failure"
	NotificationKindManualAction      NotificationKind = "manual_action_required"
	NotificationKindEscalationChange  NotificationKind = "escalation_change"
	NotificationKindCycleSummary      NotificationKind = "cycle_summary"
)

// Notification is a rendered, human-readable message bound for a channel.
type Notification struct {
	Kind        NotificationKind
	Channel     string
	Title       string
	Body        string
	Fingerprint valueobject.Fingerprint
	Level       valueobject.EscalationLevel
}

// InteractionAction identifies what a human chose on an interactive message.
type InteractionAction string

// Interaction action constants.
const (
	InteractionActionMarkResolved      InteractionAction = "mark_resolved"
	InteractionActionApproveEscalation InteractionAction = "approve_escalation"
)

// Interaction is an acknowledgement or approval relayed back from the
// messaging backend.
type Interaction struct {
	MessageID   string
	Action      InteractionAction
	Fingerprint valueobject.Fingerprint
	Actor       string
}

// InteractionHandler receives relayed interactions.
type InteractionHandler func(ctx context.Context, interaction Interaction)

// NotificationDispatcher renders and sends alerts to a messaging channel and
// relays interactive responses back. Delivery failures are retried with
// bounded backoff by the adapter and never block the pipeline.
type NotificationDispatcher interface {
	// Send posts a message and returns the backend message ID.
	Send(ctx context.Context, notification Notification) (string, error)

	// OnInteraction registers a handler for acknowledgement and approval
	// responses.
	OnInteraction(handler InteractionHandler)
}
