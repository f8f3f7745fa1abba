package api

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/inbound"
	"alertflow/internal/port/outbound"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// InteractionSink receives decoded interaction payloads from the webhook
// endpoint. The Slack dispatcher implements it.
type InteractionSink interface {
	DispatchInteraction(ctx context.Context, interaction outbound.Interaction) error
}

type attemptResponse struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	StrategyID  string    `json:"strategy_id,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Outcome     string    `json:"outcome"`
	Confidence  float64   `json:"confidence"`
	SafetyLevel string    `json:"safety_level"`
	Detail      string    `json:"detail,omitempty"`
}

type escalationResponse struct {
	Fingerprint     string    `json:"fingerprint"`
	Level           int       `json:"level"`
	LevelName       string    `json:"level_name"`
	LastEscalatedAt time.Time `json:"last_escalated_at"`
	LastObservedAt  time.Time `json:"last_observed_at"`
	TriggerReason   string    `json:"trigger_reason,omitempty"`
}

type cycleResponse struct {
	CycleID            string    `json:"cycle_id"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	EventsProcessed    int       `json:"events_processed"`
	ResolutionsApplied int       `json:"resolutions_applied"`
	EscalationsRaised  int       `json:"escalations_raised"`
	Failures           int       `json:"failures"`
	SourceError        string    `json:"source_error,omitempty"`
}

func toAttemptResponse(attempt *entity.ResolutionAttempt) attemptResponse {
	return attemptResponse{
		ID:          attempt.ID().String(),
		Fingerprint: attempt.Fingerprint().String(),
		StrategyID:  attempt.StrategyID(),
		StartedAt:   attempt.StartedAt(),
		FinishedAt:  attempt.FinishedAt(),
		Outcome:     attempt.Outcome().String(),
		Confidence:  attempt.ConfidenceAtTime().Float(),
		SafetyLevel: attempt.SafetyLevel().String(),
		Detail:      attempt.Detail(),
	}
}

func toEscalationResponse(state *entity.EscalationState) escalationResponse {
	return escalationResponse{
		Fingerprint:     state.Fingerprint().String(),
		Level:           int(state.Level()),
		LevelName:       state.Level().String(),
		LastEscalatedAt: state.LastEscalatedAt(),
		LastObservedAt:  state.LastObservedAt(),
		TriggerReason:   state.TriggerReason(),
	}
}

func toCycleResponse(summary *entity.CycleSummary) cycleResponse {
	return cycleResponse{
		CycleID:            summary.CycleID().String(),
		StartedAt:          summary.StartedAt(),
		FinishedAt:         summary.FinishedAt(),
		EventsProcessed:    summary.EventsProcessed(),
		ResolutionsApplied: summary.ResolutionsApplied(),
		EscalationsRaised:  summary.EscalationsRaised(),
		Failures:           summary.Failures(),
		SourceError:        summary.SourceError(),
	}
}

// StatusHandler serves liveness and counter endpoints for the orchestration
// loop.
type StatusHandler struct {
	orchestrator inbound.OrchestratorService
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(orchestrator inbound.OrchestratorService) *StatusHandler {
	return &StatusHandler{orchestrator: orchestrator}
}

// GetHealth handles GET /health.
func (h *StatusHandler) GetHealth(w http.ResponseWriter, _ *http.Request) {
	health := h.orchestrator.Health()

	statusCode := http.StatusOK
	if !health.IsRunning {
		statusCode = http.StatusServiceUnavailable
	}
	_ = WriteJSON(w, statusCode, health)
}

// GetMetrics handles GET /metrics.
func (h *StatusHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, h.orchestrator.GetMetrics())
}

// AuditHandler serves the resolution audit trail, escalation states and
// cycle summaries.
type AuditHandler struct {
	audit       inbound.AuditReader
	escalations inbound.EscalationReader
	cycles      inbound.CycleReader
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(
	audit inbound.AuditReader,
	escalations inbound.EscalationReader,
	cycles inbound.CycleReader,
) *AuditHandler {
	return &AuditHandler{audit: audit, escalations: escalations, cycles: cycles}
}

// GetAttempts handles GET /fingerprints/{fingerprint}/attempts.
func (h *AuditHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	fp, err := valueobject.FingerprintFromString(r.PathValue("fingerprint"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid fingerprint")
		return
	}

	attempts, err := h.audit.GetAttempts(r.Context(), fp)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load attempts")
		return
	}

	response := make([]attemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		response = append(response, toAttemptResponse(attempt))
	}
	_ = WriteJSON(w, http.StatusOK, response)
}

// ListEscalations handles GET /escalations.
func (h *AuditHandler) ListEscalations(w http.ResponseWriter, r *http.Request) {
	states, err := h.escalations.ListEscalationStates(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list escalation states")
		return
	}

	response := make([]escalationResponse, 0, len(states))
	for _, state := range states {
		response = append(response, toEscalationResponse(state))
	}
	_ = WriteJSON(w, http.StatusOK, response)
}

// GetEscalation handles GET /escalations/{fingerprint}.
func (h *AuditHandler) GetEscalation(w http.ResponseWriter, r *http.Request) {
	fp, err := valueobject.FingerprintFromString(r.PathValue("fingerprint"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid fingerprint")
		return
	}

	state, err := h.escalations.GetEscalationState(r.Context(), fp)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load escalation state")
		return
	}
	if state == nil {
		WriteError(w, http.StatusNotFound, "no escalation state for fingerprint")
		return
	}
	_ = WriteJSON(w, http.StatusOK, toEscalationResponse(state))
}

// GetCycleSummary handles GET /cycles/{cycle_id}.
func (h *AuditHandler) GetCycleSummary(w http.ResponseWriter, r *http.Request) {
	cycleID, err := uuid.Parse(r.PathValue("cycle_id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid cycle id")
		return
	}

	summary, err := h.cycles.GetCycleSummary(r.Context(), cycleID)
	if err != nil || summary == nil {
		WriteError(w, http.StatusNotFound, "cycle not found")
		return
	}
	_ = WriteJSON(w, http.StatusOK, toCycleResponse(summary))
}

// interactionRequest is the webhook payload relayed by the messaging
// backend.
type interactionRequest struct {
	MessageID   string `json:"message_id"`
	Action      string `json:"action"`
	Fingerprint string `json:"fingerprint"`
	Actor       string `json:"actor"`
}

// InteractionHandler receives acknowledgement and approval webhooks.
type InteractionHandler struct {
	sink InteractionSink
}

// NewInteractionHandler creates an InteractionHandler.
func NewInteractionHandler(sink InteractionSink) *InteractionHandler {
	return &InteractionHandler{sink: sink}
}

// PostInteraction handles POST /interactions.
func (h *InteractionHandler) PostInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid interaction payload")
		return
	}

	action := outbound.InteractionAction(req.Action)
	if action != outbound.InteractionActionMarkResolved && action != outbound.InteractionActionApproveEscalation {
		WriteError(w, http.StatusBadRequest, "unknown interaction action")
		return
	}

	fp, err := valueobject.FingerprintFromString(req.Fingerprint)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid fingerprint")
		return
	}

	interaction := outbound.Interaction{
		MessageID:   req.MessageID,
		Action:      action,
		Fingerprint: fp,
		Actor:       req.Actor,
	}
	if err := h.sink.DispatchInteraction(r.Context(), interaction); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "interaction could not be dispatched")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
