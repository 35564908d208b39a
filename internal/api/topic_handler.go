package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/cizu-api/internal/api/shared"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/service/topicgen"
)

// TopicHandler handles topic generation HTTP requests
type TopicHandler struct {
	service topicgen.Service
	logger  *slog.Logger
}

// NewTopicHandler creates a new TopicHandler
func NewTopicHandler(service topicgen.Service, logger *slog.Logger) *TopicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicHandler{
		service: service,
		logger:  logger.With(slog.String("component", "topic_handler")),
	}
}

// RequestGeneration handles POST /api/topics/{id}/generate.
// It responds 202 once the run is queued and 409 while another run holds the topic.
func (h *TopicHandler) RequestGeneration(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	topicID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	topic, err := h.service.RequestGeneration(r.Context(), topicID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start topic generation")
		return
	}

	log.InfoContext(r.Context(), "topic generation queued",
		slog.String("topic_id", topicID.String()))
	shared.RespondWithJSON(w, r, http.StatusAccepted, generationToResponse(topic))
}

// GetProgress handles GET /api/topics/{id}/progress.
func (h *TopicHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	topicID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	report, err := h.service.Progress(r.Context(), topicID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load topic progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(report))
}
