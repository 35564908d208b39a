package topicgen

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/redact"
	"github.com/phrazzld/cizu-api/internal/store"
)

// progressWriter persists a progress snapshot.
type progressWriter interface {
	UpdateProgress(ctx context.Context, id uuid.UUID, update store.TopicUpdate) error
}

// reporter holds the counters of one run and writes them through to the
// topic record at most once per interval. It is not synchronized; callers
// mutate it from inside the run's serialQueue.
type reporter struct {
	topicID  uuid.UUID
	total    int
	writer   progressWriter
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	status   domain.TopicStatus
	progress domain.Progress
	errMsg   string

	written   bool
	lastWrite time.Time
}

func newReporter(
	topic *domain.Topic,
	writer progressWriter,
	interval time.Duration,
	now func() time.Time,
	logger *slog.Logger,
) *reporter {
	return &reporter{
		topicID:  topic.ID,
		total:    topic.SentenceTasksTotal(),
		writer:   writer,
		interval: interval,
		now:      now,
		logger:   logger,
		status:   topic.Status,
		progress: topic.Progress,
	}
}

// snapshot returns the current update with generated ≤ attempts ≤ total.
func (r *reporter) snapshot() store.TopicUpdate {
	p := r.progress
	if p.SentenceAttempts > r.total {
		p.SentenceAttempts = r.total
	}
	if p.SentencesGenerated > p.SentenceAttempts {
		p.SentencesGenerated = p.SentenceAttempts
	}
	return store.TopicUpdate{
		Status:       r.status,
		Progress:     p,
		ErrorMessage: r.errMsg,
	}
}

// flush writes the current snapshot if forced, if nothing has been written
// yet, or if the interval has elapsed since the last write. It reports
// whether a write was attempted.
func (r *reporter) flush(ctx context.Context, force bool) bool {
	now := r.now()
	if !force && r.written && now.Sub(r.lastWrite) < r.interval {
		return false
	}

	r.written = true
	r.lastWrite = now

	update := r.snapshot()
	if err := r.writer.UpdateProgress(ctx, r.topicID, update); err != nil {
		// A failed progress write does not fail the run; the next flush retries.
		r.logger.WarnContext(ctx, "failed to write topic progress",
			slog.String("topic_id", r.topicID.String()),
			slog.String("status", string(update.Status)),
			redact.ErrorAttr(err))
	}
	return true
}

func (r *reporter) setStatus(status domain.TopicStatus) {
	r.status = status
	if status != domain.TopicStatusError {
		r.errMsg = ""
	}
}

func (r *reporter) fail(message string) {
	r.status = domain.TopicStatusError
	r.errMsg = message
}
