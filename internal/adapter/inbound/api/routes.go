package api

import "net/http"

// NewRouter wires all API routes onto a ServeMux using method patterns.
func NewRouter(
	status *StatusHandler,
	audit *AuditHandler,
	interactions *InteractionHandler,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", status.GetHealth)
	mux.HandleFunc("GET /metrics", status.GetMetrics)

	mux.HandleFunc("GET /fingerprints/{fingerprint}/attempts", audit.GetAttempts)
	mux.HandleFunc("GET /escalations", audit.ListEscalations)
	mux.HandleFunc("GET /escalations/{fingerprint}", audit.GetEscalation)
	mux.HandleFunc("GET /cycles/{cycle_id}", audit.GetCycleSummary)

	mux.HandleFunc("POST /interactions", interactions.PostInteraction)

	return mux
}
