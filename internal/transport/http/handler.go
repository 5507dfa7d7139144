// Package httptransport is the thin HTTP layer over the mark and reputation
// services. The namespace is fixed per deployed instance; requests carry only
// participant ids and a mark-type name.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"spectra/internal/mark"
	"spectra/internal/platform/metrics"
	"spectra/pkg/marktypes"
	"spectra/pkg/requestcontext"
)

// MarkService applies upserts for this instance's namespace.
type MarkService interface {
	Onchain() bool
	Process(ctx context.Context, req mark.Request) bool
}

// ReputationService answers the read queries for this instance's namespace.
type ReputationService interface {
	Context(ctx context.Context, from, to string, t marktypes.Type) mark.ReputationContext
	Count(ctx context.Context, from, to string, t marktypes.Type) mark.ReputationCount
	Changelog(ctx context.Context, from, to string, t marktypes.Type) []mark.ChangelogEntry
}

// HealthChecker reports connectivity of one backing resource.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler holds the service dependencies of the HTTP API.
type Handler struct {
	marks      MarkService
	reputation ReputationService
	health     map[string]HealthChecker
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewHandler(marks MarkService, reputation ReputationService, health map[string]HealthChecker, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		marks:      marks,
		reputation: reputation,
		health:     health,
		logger:     logger,
		metrics:    m,
	}
}

type processRequest struct {
	FromParticipantID string `json:"fromParticipantId"`
	ToParticipantID   string `json:"toParticipantId"`
	MarkType          string `json:"markType"`
	Value             *bool  `json:"value"`
}

type processResponse struct {
	Processed bool `json:"processed"`
}

func (h *Handler) handleProcessMark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FromParticipantID == "" || req.ToParticipantID == "" {
		writeError(w, http.StatusBadRequest, "fromParticipantId and toParticipantId are required")
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	markType, err := marktypes.Parse(req.MarkType, h.marks.Onchain())
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown mark type")
		return
	}

	processed := h.marks.Process(ctx, mark.Request{
		FromParticipantID: req.FromParticipantID,
		ToParticipantID:   req.ToParticipantID,
		Type:              markType,
		Value:             *req.Value,
	})
	writeJSON(w, http.StatusOK, processResponse{Processed: processed})
}

type contextResponse struct {
	FromTo             *bool                    `json:"fromTo"`
	ToFrom             *bool                    `json:"toFrom"`
	CommonParticipants []commonParticipantEntry `json:"commonParticipants"`
}

type commonParticipantEntry struct {
	IntermediateID     string `json:"intermediateId"`
	IntermediateToFrom *bool  `json:"intermediateToFrom"`
	FromToIntermediate *bool  `json:"fromToIntermediate"`
	IntermediateToTo   *bool  `json:"intermediateToTo"`
	ToToIntermediate   *bool  `json:"toToIntermediate"`
}

func (h *Handler) handleReputationContext(w http.ResponseWriter, r *http.Request) {
	from, to, markType, ok := h.queryArgs(w, r)
	if !ok {
		return
	}

	result := h.reputation.Context(r.Context(), from, to, markType)
	resp := contextResponse{
		FromTo:             result.MutualMarks.FromTo,
		ToFrom:             result.MutualMarks.ToFrom,
		CommonParticipants: make([]commonParticipantEntry, 0, len(result.CommonParticipants)),
	}
	for _, p := range result.CommonParticipants {
		resp.CommonParticipants = append(resp.CommonParticipants, commonParticipantEntry{
			IntermediateID:     p.IntermediateID,
			IntermediateToFrom: p.IntermediateToFrom,
			FromToIntermediate: p.FromToIntermediate,
			IntermediateToTo:   p.IntermediateToTo,
			ToToIntermediate:   p.ToToIntermediate,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type countResponse struct {
	PositiveCount int `json:"positiveCount"`
	NegativeCount int `json:"negativeCount"`
	CommonCount   int `json:"commonCount"`
}

func (h *Handler) handleReputationCount(w http.ResponseWriter, r *http.Request) {
	from, to, markType, ok := h.queryArgs(w, r)
	if !ok {
		return
	}

	count := h.reputation.Count(r.Context(), from, to, markType)
	writeJSON(w, http.StatusOK, countResponse{
		PositiveCount: count.Positive,
		NegativeCount: count.Negative,
		CommonCount:   count.CommonCount,
	})
}

type changelogResponse struct {
	Changes []changelogEntry `json:"changes"`
}

type changelogEntry struct {
	ParticipantID string    `json:"participantId"`
	Value         bool      `json:"value"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (h *Handler) handleReputationChangelog(w http.ResponseWriter, r *http.Request) {
	from, to, markType, ok := h.queryArgs(w, r)
	if !ok {
		return
	}

	entries := h.reputation.Changelog(r.Context(), from, to, markType)
	resp := changelogResponse{Changes: make([]changelogEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Changes = append(resp.Changes, changelogEntry{
			ParticipantID: e.ParticipantID,
			Value:         e.Value,
			UpdatedAt:     e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, checker := range h.health {
		if err := checker.Health(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, status, checks)
}

// queryArgs extracts and validates the common query parameters. It reports
// the problem to the client itself and returns ok=false.
func (h *Handler) queryArgs(w http.ResponseWriter, r *http.Request) (from, to string, t marktypes.Type, ok bool) {
	q := r.URL.Query()
	from = q.Get("fromParticipantId")
	to = q.Get("toParticipantId")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "fromParticipantId and toParticipantId are required")
		return "", "", "", false
	}
	t, err := marktypes.Parse(q.Get("markType"), h.marks.Onchain())
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown mark type")
		return "", "", "", false
	}
	return from, to, t, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// logRequest is shared request logging for the router middleware.
func (h *Handler) logRequest(r *http.Request) {
	h.logger.DebugContext(r.Context(), "http request",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
