package slack

import (
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/outbound"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification(t *testing.T) outbound.Notification {
	t.Helper()
	fp, err := valueobject.NewFingerprint("Connection timeout to db-7", "production")
	require.NoError(t, err)
	return outbound.Notification{
		Kind:        outbound.NotificationKindResolutionSuccess,
		Channel:     "#alerts",
		Title:       "Resolved: restart_db_pool",
		Body:        "Connection timeout to db-7\npool restarted",
		Fingerprint: fp,
	}
}

func TestNewDispatcher_Validation(t *testing.T) {
	_, err := NewDispatcher(nil)
	require.Error(t, err)

	_, err = NewDispatcher(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook URL cannot be empty")

	_, err = NewDispatcher(&Config{WebhookURL: "not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid webhook URL")
}

func TestSend_PostsWebhookPayload(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher, err := NewDispatcher(&Config{WebhookURL: server.URL})
	require.NoError(t, err)

	messageID, err := dispatcher.Send(context.Background(), testNotification(t))

	require.NoError(t, err)
	assert.NotEmpty(t, messageID)
	assert.Equal(t, "#alerts", received.Channel)
	assert.Equal(t, "Resolved: restart_db_pool", received.Text)
	require.Len(t, received.Attachments, 1)
	assert.Equal(t, "good", received.Attachments[0].Color)
	assert.Contains(t, received.Attachments[0].Text, "pool restarted")
}

func TestSend_UpstreamErrorSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	dispatcher, err := NewDispatcher(&Config{WebhookURL: server.URL})
	require.NoError(t, err)

	_, err = dispatcher.Send(context.Background(), testNotification(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, "good", colorFor(outbound.Notification{Kind: outbound.NotificationKindResolutionSuccess}))
	assert.Equal(t, "danger", colorFor(outbound.Notification{Kind: outbound.NotificationKindResolutionFailure}))
	assert.Equal(t, "warning", colorFor(outbound.Notification{Kind: outbound.NotificationKindManualAction}))
	assert.Equal(t, "warning", colorFor(outbound.Notification{
		Kind:  outbound.NotificationKindEscalationChange,
		Level: valueobject.EscalationLevelOnCall,
	}))
	assert.Equal(t, "danger", colorFor(outbound.Notification{
		Kind:  outbound.NotificationKindEscalationChange,
		Level: valueobject.EscalationLevelCritical,
	}))
	assert.Equal(t, "#439FE0", colorFor(outbound.Notification{Kind: outbound.NotificationKindCycleSummary}))
}

func TestDispatchInteraction(t *testing.T) {
	dispatcher, err := NewDispatcher(&Config{WebhookURL: "https://hooks.slack.example.com/services/T/B/X"})
	require.NoError(t, err)

	interaction := outbound.Interaction{
		MessageID: "msg-1",
		Action:    outbound.InteractionActionMarkResolved,
		Actor:     "oncall-engineer",
	}

	err = dispatcher.DispatchInteraction(context.Background(), interaction)
	require.Error(t, err, "dispatch without a handler must fail")

	var got outbound.Interaction
	dispatcher.OnInteraction(func(_ context.Context, i outbound.Interaction) {
		got = i
	})

	require.NoError(t, dispatcher.DispatchInteraction(context.Background(), interaction))
	assert.Equal(t, interaction, got)
}
