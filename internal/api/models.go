package api

import (
	"time"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/service/topicgen"
)

// GenerationResponse is returned when a generation run has been queued.
type GenerationResponse struct {
	TopicID    string `json:"topic_id"`
	Title      string `json:"title"`
	Level      string `json:"level"`
	WordTarget int    `json:"word_target"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// ProgressResponse reports the counters of a topic's generation run.
type ProgressResponse struct {
	TopicID            string    `json:"topic_id"`
	Status             string    `json:"status"`
	WordTarget         int       `json:"word_target"`
	WordsSelected      int       `json:"words_selected"`
	SentencesGenerated int       `json:"sentences_generated"`
	SentenceAttempts   int       `json:"sentence_attempts"`
	SentenceTasksTotal int       `json:"sentence_tasks_total"`
	Done               bool      `json:"done"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func generationToResponse(topic *domain.Topic) GenerationResponse {
	return GenerationResponse{
		TopicID:    topic.ID.String(),
		Title:      topic.Title,
		Level:      topic.Level,
		WordTarget: topic.WordTarget,
		Status:     string(topic.Status),
		Message:    "generation queued",
	}
}

func progressToResponse(report *topicgen.ProgressReport) ProgressResponse {
	return ProgressResponse{
		TopicID:            report.TopicID.String(),
		Status:             string(report.Status),
		WordTarget:         report.WordTarget,
		WordsSelected:      report.WordsSelected,
		SentencesGenerated: report.SentencesGenerated,
		SentenceAttempts:   report.SentenceAttempts,
		SentenceTasksTotal: report.SentenceTasksTotal,
		Done:               report.Status == domain.TopicStatusReady || report.Status == domain.TopicStatusError,
		ErrorMessage:       report.ErrorMessage,
		UpdatedAt:          report.UpdatedAt,
	}
}
