package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ritik/timeline-core/internal/admission"
	"github.com/ritik/timeline-core/internal/config"
	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/pipeline"
	"github.com/ritik/timeline-core/internal/repository"
	"github.com/ritik/timeline-core/internal/stream"
)

// Handler wires the HTTP surface onto the assembled pipeline, the
// streaming registry, and the admission gate.
type Handler struct {
	cfg        *config.Config
	pipeline   *pipeline.Pipeline
	streams    *stream.Registry
	admitter   *admission.Admitter
	metrics    *MetricsStore
	viewerRepo *repository.ViewerRepository
	followRepo *repository.FollowRepository
}

// NewHandler constructs a Handler.
func NewHandler(cfg *config.Config, p *pipeline.Pipeline, streams *stream.Registry, admitter *admission.Admitter, metrics *MetricsStore, viewerRepo *repository.ViewerRepository, followRepo *repository.FollowRepository) *Handler {
	return &Handler{cfg: cfg, pipeline: p, streams: streams, admitter: admitter, metrics: metrics, viewerRepo: viewerRepo, followRepo: followRepo}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

type successEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success      bool   `json:"success"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func respondSuccess(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data})
}

func respondAPIError(w http.ResponseWriter, err *apiError) {
	respondJSON(w, httpStatus(err.Code), errorEnvelope{
		Success:      false,
		ErrorCode:    string(err.Code),
		ErrorMessage: err.Message,
	})
}

// gate authorizes and rate-limits one request; on failure it writes the
// error response itself and returns false.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request, class admission.EndpointClass, viewerID string) (*requestContext, bool) {
	forYou := class == admission.EndpointForYou
	rc := parseRequestContext(r, forYou)

	if h.cfg.SharedAuthToken != "" && rc.AuthToken != h.cfg.SharedAuthToken {
		respondAPIError(w, newAPIError(ErrUnauthorized, "invalid or missing x-auth-token"))
		return nil, false
	}

	if rc.CallerID != "" {
		if err := admission.Authorize(rc.CallerID, rc.IsAdmin, viewerID); err != nil {
			respondAPIError(w, newAPIError(ErrUnauthorized, err.Error()))
			return nil, false
		}
	}

	rpm := h.cfg.DefaultRPM
	if rc.RateRPM > 0 && rc.RateRPM < rpm {
		rpm = rc.RateRPM
	}
	key := admission.Key(class, callerKey(rc.CallerID, viewerID))
	if !h.admitter.Allow(key, rpm, h.cfg.DefaultBurst) {
		respondAPIError(w, newAPIError(ErrRateLimited, "rate limit exceeded"))
		return nil, false
	}

	return rc, true
}

func callerKey(callerID, viewerID string) string {
	if callerID != "" {
		return callerID
	}
	return viewerID
}

func parsePagination(r *http.Request, defaultLimit int) (offset, limit int, apiErr *apiError) {
	offset = 0
	limit = defaultLimit
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, newAPIError(ErrInvalidArgument, "offset must be a non-negative integer")
		}
		offset = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, newAPIError(ErrInvalidArgument, "limit must be a non-negative integer")
		}
		limit = n
	}
	return offset, limit, nil
}

func classifyPipelineError(err error) *apiError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newAPIError(ErrDeadlineExceeded, "request budget exhausted before any candidate source returned")
	}
	return newAPIError(ErrInternal, err.Error())
}

func (h *Handler) runEntryPoint(w http.ResponseWriter, r *http.Request, entryPoint string, class admission.EndpointClass,
	run func(ctx context.Context, req pipeline.Request) (models.TimelineResponse, error)) {

	viewerID := chi.URLParam(r, "viewer_id")
	if viewerID == "" {
		respondAPIError(w, newAPIError(ErrInvalidArgument, "viewer_id is required"))
		return
	}

	rc, ok := h.gate(w, r, class, viewerID)
	if !ok {
		return
	}

	offset, limit, apiErr := parsePagination(r, h.cfg.DefaultPageSize)
	if apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	req := pipeline.Request{ViewerID: viewerID, Offset: offset, Limit: limit, Overrides: rc.Overrides}

	start := time.Now()
	resp, err := run(r.Context(), req)
	h.recordOperation(entryPoint, start, err == nil, resp)
	if err != nil {
		respondAPIError(w, classifyPipelineError(err))
		return
	}
	respondSuccess(w, resp)
}

func (h *Handler) recordOperation(entryPoint string, start time.Time, success bool, resp models.TimelineResponse) {
	h.metrics.Add(&OperationMetric{
		EntryPoint:     entryPoint,
		StartTime:      start,
		EndTime:        time.Now(),
		Success:        success,
		CandidateCount: resp.Metadata.TotalItems,
	})
}

// GetTimeline is the General entry point.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	h.runEntryPoint(w, r, "general", admission.EndpointGeneral, h.pipeline.GetTimeline)
}

// GetForYou is the For-You entry point.
func (h *Handler) GetForYou(w http.ResponseWriter, r *http.Request) {
	h.runEntryPoint(w, r, "for_you", admission.EndpointForYou, h.pipeline.GetForYou)
}

// GetFollowing is the Following entry point.
func (h *Handler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.runEntryPoint(w, r, "following", admission.EndpointFollowing, h.pipeline.GetFollowing)
}

// RefreshTimeline forces a fresh pipeline run restricted to items newer
// than the `since` query parameter, per spec.md §6.
func (h *Handler) RefreshTimeline(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewer_id")
	if viewerID == "" {
		respondAPIError(w, newAPIError(ErrInvalidArgument, "viewer_id is required"))
		return
	}

	rc, ok := h.gate(w, r, admission.EndpointRefresh, viewerID)
	if !ok {
		return
	}

	since, apiErr := parseSince(r)
	if apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}
	maxItems, apiErr := parseMaxItems(r)
	if apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	req := pipeline.Request{ViewerID: viewerID, Overrides: rc.Overrides, Since: since, MaxItems: maxItems}

	start := time.Now()
	resp, err := h.pipeline.RefreshTimeline(r.Context(), req)
	h.recordOperation("refresh", start, err == nil, resp)
	if err != nil {
		respondAPIError(w, classifyPipelineError(err))
		return
	}
	respondSuccess(w, resp)
}

func parseSince(r *http.Request) (time.Time, *apiError) {
	v := r.URL.Query().Get("since")
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, newAPIError(ErrInvalidArgument, "since must be an RFC3339 timestamp")
	}
	return t, nil
}

func parseMaxItems(r *http.Request) (int, *apiError) {
	v := r.URL.Query().Get("max_items")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, newAPIError(ErrInvalidArgument, "max_items must be a non-negative integer")
	}
	return n, nil
}

type recordEngagementRequest struct {
	NoteID          string  `json:"note_id"`
	Action          string  `json:"action"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RecordEngagement folds one engagement event into the affinity state.
func (h *Handler) RecordEngagement(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewer_id")
	if viewerID == "" {
		respondAPIError(w, newAPIError(ErrInvalidArgument, "viewer_id is required"))
		return
	}
	if _, ok := h.gate(w, r, admission.EndpointEngage, viewerID); !ok {
		return
	}

	var body recordEngagementRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondAPIError(w, newAPIError(ErrInvalidArgument, "malformed request body"))
		return
	}
	action := models.EngagementAction(body.Action)
	switch action {
	case models.ActionLike, models.ActionReshare, models.ActionReply, models.ActionFollow, models.ActionHide:
	default:
		respondAPIError(w, newAPIError(ErrInvalidArgument, "unknown engagement action: "+body.Action))
		return
	}

	event := models.EngagementEvent{
		ViewerID:        viewerID,
		NoteID:          body.NoteID,
		Action:          action,
		DurationSeconds: body.DurationSeconds,
		RecordedAt:      time.Now().UTC(),
	}
	if err := h.pipeline.RecordEngagement(r.Context(), event); err != nil {
		respondAPIError(w, newAPIError(ErrInternal, err.Error()))
		return
	}
	respondSuccess(w, map[string]bool{"recorded": true})
}

type markReadRequest struct {
	ReadUntil time.Time `json:"read_until"`
}

// MarkTimelineRead records the viewer's read checkpoint.
func (h *Handler) MarkTimelineRead(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewer_id")
	if viewerID == "" {
		respondAPIError(w, newAPIError(ErrInvalidArgument, "viewer_id is required"))
		return
	}
	if _, ok := h.gate(w, r, admission.EndpointEngage, viewerID); !ok {
		return
	}

	var body markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondAPIError(w, newAPIError(ErrInvalidArgument, "malformed request body"))
		return
	}
	if err := h.pipeline.MarkTimelineRead(r.Context(), viewerID, body.ReadUntil); err != nil {
		respondAPIError(w, newAPIError(ErrInternal, err.Error()))
		return
	}
	respondSuccess(w, map[string]bool{"marked": true})
}

// SubscribeTimelineUpdates streams TimelineUpdate events to the viewer
// over a chunked newline-delimited-JSON response, the HTTP-native analogue
// of the teacher's polling metrics endpoints.
func (h *Handler) SubscribeTimelineUpdates(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewer_id")
	if viewerID == "" {
		respondAPIError(w, newAPIError(ErrInvalidArgument, "viewer_id is required"))
		return
	}
	if _, ok := h.gate(w, r, admission.EndpointStream, viewerID); !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondAPIError(w, newAPIError(ErrInternal, "streaming unsupported by this transport"))
		return
	}

	session := h.streams.Open(viewerID)
	defer h.streams.Unregister(session)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.streams.HeartbeatInterval())
	defer heartbeat.Stop()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-session.Done():
			return
		case update := <-session.Updates():
			if err := enc.Encode(update); err != nil {
				return
			}
			flusher.Flush()
			heartbeat.Reset(h.streams.HeartbeatInterval())
		case <-heartbeat.C:
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// GetMetrics returns the aggregated per-entry-point latency/cache summary.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.metrics.GetSummary())
}

// GetRecentMetrics returns the most recent raw metric points.
func (h *Handler) GetRecentMetrics(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	respondSuccess(w, h.metrics.GetRecent(limit))
}

// ClearMetrics resets the metrics store.
func (h *Handler) ClearMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.Clear()
	respondSuccess(w, map[string]bool{"cleared": true})
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]string{"status": "ok"})
}

// GetSampleViewers returns a small random sample of viewers, for manual
// exploration and benchmark seeding.
func (h *Handler) GetSampleViewers(w http.ResponseWriter, r *http.Request) {
	viewers, err := h.viewerRepo.GetRandomViewers(r.Context(), 5)
	if err != nil {
		respondAPIError(w, newAPIError(ErrUnavailable, err.Error()))
		return
	}
	respondSuccess(w, map[string]interface{}{"viewers": viewers})
}

// GetViewerFollowers returns the followers of a viewer.
func (h *Handler) GetViewerFollowers(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "id")
	followers, err := h.followRepo.Followers(r.Context(), viewerID)
	if err != nil {
		respondAPIError(w, newAPIError(ErrUnavailable, err.Error()))
		return
	}
	respondSuccess(w, map[string]interface{}{"viewer_id": viewerID, "follower_count": len(followers), "followers": followers})
}

// GetViewerFollowing returns who a viewer follows.
func (h *Handler) GetViewerFollowing(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "id")
	following, err := h.followRepo.Following(r.Context(), viewerID)
	if err != nil {
		respondAPIError(w, newAPIError(ErrUnavailable, err.Error()))
		return
	}
	respondSuccess(w, map[string]interface{}{"viewer_id": viewerID, "following_count": len(following), "following": following})
}
