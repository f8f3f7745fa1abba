package api

import (
	"alertflow/internal/adapter/outbound/memory"
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/inbound"
	"alertflow/internal/port/outbound"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrchestrator struct {
	health  inbound.OrchestratorHealthStatus
	metrics inbound.OrchestratorMetrics
}

func (s *stubOrchestrator) Start(context.Context) error { return nil }
func (s *stubOrchestrator) Stop(context.Context) error  { return nil }

func (s *stubOrchestrator) RunCycle(context.Context) (*entity.CycleSummary, error) {
	return entity.NewCycleSummary(), nil
}

func (s *stubOrchestrator) SubmitEvent(context.Context, *entity.ErrorEvent) error { return nil }

func (s *stubOrchestrator) Health() inbound.OrchestratorHealthStatus { return s.health }

func (s *stubOrchestrator) GetMetrics() inbound.OrchestratorMetrics { return s.metrics }

type stubSink struct {
	received []outbound.Interaction
	err      error
}

func (s *stubSink) DispatchInteraction(_ context.Context, interaction outbound.Interaction) error {
	if s.err != nil {
		return s.err
	}
	s.received = append(s.received, interaction)
	return nil
}

func testFingerprint(t *testing.T) valueobject.Fingerprint {
	t.Helper()
	fp, err := valueobject.NewFingerprint("Connection timeout to db-7", "production")
	require.NoError(t, err)
	return fp
}

func newTestRouter(t *testing.T, orchestrator inbound.OrchestratorService, store *memory.Store, sink InteractionSink) *http.ServeMux {
	t.Helper()
	if orchestrator == nil {
		orchestrator = &stubOrchestrator{}
	}
	if sink == nil {
		sink = &stubSink{}
	}
	return NewRouter(
		NewStatusHandler(orchestrator),
		NewAuditHandler(store, store, store),
		NewInteractionHandler(sink),
	)
}

func TestGetHealth(t *testing.T) {
	store := memory.NewStore()
	orchestrator := &stubOrchestrator{
		health: inbound.OrchestratorHealthStatus{IsRunning: true, PatternCount: 3},
	}
	router := newTestRouter(t, orchestrator, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var health inbound.OrchestratorHealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.IsRunning)
	assert.Equal(t, 3, health.PatternCount)
}

func TestGetHealth_NotRunningReturns503(t *testing.T) {
	router := newTestRouter(t, &stubOrchestrator{}, memory.NewStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetMetrics(t *testing.T) {
	orchestrator := &stubOrchestrator{
		metrics: inbound.OrchestratorMetrics{CyclesCompleted: 7, EventsProcessed: 21},
	}
	router := newTestRouter(t, orchestrator, memory.NewStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var metrics inbound.OrchestratorMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, int64(7), metrics.CyclesCompleted)
}

func TestGetAttempts(t *testing.T) {
	store := memory.NewStore()
	fp := testFingerprint(t)

	attempt, err := entity.NewResolutionAttempt(fp, "restart_db_pool",
		valueobject.Confidence(0.8), valueobject.SafetyLevelSafe)
	require.NoError(t, err)
	require.NoError(t, attempt.Finish(valueobject.AttemptOutcomeSuccess, "pool restarted"))
	require.NoError(t, store.SaveAttempt(context.Background(), attempt))

	router := newTestRouter(t, nil, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fingerprints/"+fp.String()+"/attempts", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var attempts []attemptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &attempts))
	require.Len(t, attempts, 1)
	assert.Equal(t, "restart_db_pool", attempts[0].StrategyID)
	assert.Equal(t, "success", attempts[0].Outcome)
	assert.InDelta(t, 0.8, attempts[0].Confidence, 0.0001)
}

func TestGetAttempts_InvalidFingerprint(t *testing.T) {
	router := newTestRouter(t, nil, memory.NewStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fingerprints/zzzz/attempts", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEscalationEndpoints(t *testing.T) {
	store := memory.NewStore()
	fp := testFingerprint(t)
	state := entity.RehydrateEscalationState(
		fp, valueobject.EscalationLevelOnCall, time.Now(), time.Now(), "3 consecutive resolution failures")
	require.NoError(t, store.SaveEscalationState(context.Background(), state))

	router := newTestRouter(t, nil, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/escalations", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var states []escalationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &states))
	require.Len(t, states, 1)
	assert.Equal(t, "oncall", states[0].LevelName)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/escalations/"+fp.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var single escalationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	assert.Equal(t, 2, single.Level)
	assert.Equal(t, "3 consecutive resolution failures", single.TriggerReason)
}

func TestGetEscalation_UnknownFingerprintReturns404(t *testing.T) {
	router := newTestRouter(t, nil, memory.NewStore(), nil)
	fp := testFingerprint(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/escalations/"+fp.String(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCycleSummary(t *testing.T) {
	store := memory.NewStore()
	summary := entity.NewCycleSummary()
	summary.RecordEvent()
	summary.RecordResolution()
	require.NoError(t, summary.Finish())
	require.NoError(t, store.SaveCycleSummary(context.Background(), summary))

	router := newTestRouter(t, nil, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cycles/"+summary.CycleID().String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var cycle cycleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cycle))
	assert.Equal(t, 1, cycle.EventsProcessed)
	assert.Equal(t, 1, cycle.ResolutionsApplied)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cycles/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostInteraction(t *testing.T) {
	sink := &stubSink{}
	router := newTestRouter(t, nil, memory.NewStore(), sink)
	fp := testFingerprint(t)

	body := `{"message_id":"msg-1","action":"mark_resolved","fingerprint":"` + fp.String() + `","actor":"oncall"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, sink.received, 1)
	assert.Equal(t, outbound.InteractionActionMarkResolved, sink.received[0].Action)
	assert.Equal(t, fp, sink.received[0].Fingerprint)
}

func TestPostInteraction_Validation(t *testing.T) {
	router := newTestRouter(t, nil, memory.NewStore(), &stubSink{})
	fp := testFingerprint(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body := `{"action":"self_destruct","fingerprint":"` + fp.String() + `"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body = `{"action":"mark_resolved","fingerprint":"zzzz"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostInteraction_SinkFailureReturns503(t *testing.T) {
	sink := &stubSink{err: errors.New("no interaction handler registered")}
	router := newTestRouter(t, nil, memory.NewStore(), sink)
	fp := testFingerprint(t)

	body := `{"action":"mark_resolved","fingerprint":"` + fp.String() + `"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
