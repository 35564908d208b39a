package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/redact"
)

// StalledTopicFinder lists in-progress topics whose run stopped touching them.
type StalledTopicFinder interface {
	FindStalled(ctx context.Context, idleSince time.Time, limit int) ([]*domain.Topic, error)
}

// TaskSubmitter queues a task for execution. *TaskRunner implements it.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TopicTaskFactory builds generation tasks for topics.
type TopicTaskFactory interface {
	CreateTask(topicID uuid.UUID) (Task, error)
}

// ResumeSweeperConfig tunes the periodic resume of stalled topics.
type ResumeSweeperConfig struct {
	// Interval between sweeps. Zero or negative disables the sweeper.
	Interval time.Duration

	// StaleAfter is how long a generating topic must sit untouched before it
	// is resumed. It matches the lease a run needs to reclaim the topic.
	StaleAfter time.Duration

	// BatchSize caps the number of topics resumed per sweep.
	BatchSize int

	// MaxResumes is how many times a topic is resumed without gaining a word
	// before the sweeper leaves it alone.
	MaxResumes int

	// ForgetAfter is how long a topic that hit MaxResumes is left alone
	// before it gets a fresh allowance.
	ForgetAfter time.Duration
}

// resumeRecord tracks the resumes of one topic since it last gained words.
type resumeRecord struct {
	resumes       int
	wordsSelected int
	lastResume    time.Time
}

// ResumeSweeper periodically resubmits generation tasks for topics left in
// progress, either by a run that died or by one that finished short of its
// word target. The runner's startup recovery requeues interrupted tasks, but
// their claim is refused while the lease is fresh, so topics stranded in
// selecting are swept here too.
//
// A topic that keeps coming back without gaining words is resumed at most
// MaxResumes times per ForgetAfter window. The counts live in memory.
type ResumeSweeper struct {
	finder    StalledTopicFinder
	factory   TopicTaskFactory
	submitter TaskSubmitter
	config    ResumeSweeperConfig
	logger    *slog.Logger
	scheduler *gocron.Scheduler
	now       func() time.Time

	mu      sync.Mutex
	records map[uuid.UUID]*resumeRecord
}

// NewResumeSweeper creates a sweeper. It does nothing until Start is called.
func NewResumeSweeper(
	finder StalledTopicFinder,
	factory TopicTaskFactory,
	submitter TaskSubmitter,
	config ResumeSweeperConfig,
	logger *slog.Logger,
) *ResumeSweeper {
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.MaxResumes <= 0 {
		config.MaxResumes = 3
	}
	if config.ForgetAfter <= 0 {
		config.ForgetAfter = 24 * time.Hour
	}
	return &ResumeSweeper{
		finder:    finder,
		factory:   factory,
		submitter: submitter,
		config:    config,
		logger:    logger.With(slog.String("component", "resume_sweeper")),
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
		records:   make(map[uuid.UUID]*resumeRecord),
	}
}

// Start schedules the sweep. The first sweep runs one interval after Start;
// tasks interrupted before startup are recovered by the task runner instead.
func (s *ResumeSweeper) Start(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.logger.Info("resume sweeper disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.config.Interval).
		SingletonMode().
		WaitForSchedule().
		Do(func() {
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("resume sweep failed", redact.ErrorAttr(err))
			}
		})
	if err != nil {
		return fmt.Errorf("failed to schedule resume sweep: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("resume sweeper started", slog.Duration("interval", s.config.Interval))
	return nil
}

// Stop halts the schedule.
func (s *ResumeSweeper) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

// Sweep submits a generation task for every stalled topic that still has
// resumes left and returns how many were submitted. A failure to submit one
// topic does not stop the rest.
func (s *ResumeSweeper) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.forget(now)

	// Exhausted topics are never touched again, so they stay at the head of
	// the oldest-first listing; fetch past them.
	limit := s.config.BatchSize + s.exhausted()
	topics, err := s.finder.FindStalled(ctx, now.Add(-s.config.StaleAfter), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find stalled topics: %w", err)
	}

	var errs []error
	submitted := 0
	for _, topic := range topics {
		if submitted >= s.config.BatchSize {
			break
		}

		rec := s.record(topic)
		if rec.resumes >= s.config.MaxResumes {
			s.logger.Debug("stalled topic out of resumes",
				slog.String("topic_id", topic.ID.String()),
				slog.Int("resumes", rec.resumes),
				slog.Int("words_selected", rec.wordsSelected))
			continue
		}

		task, err := s.factory.CreateTask(topic.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("topic %s: %w", topic.ID, err))
			continue
		}
		if err := s.submitter.Submit(ctx, task); err != nil {
			errs = append(errs, fmt.Errorf("topic %s: %w", topic.ID, err))
			continue
		}
		submitted++
		rec.resumes++
		rec.lastResume = now

		log := s.logger.With(slog.String("topic_id", topic.ID.String()))
		log.Info("resuming stalled topic",
			slog.Time("updated_at", topic.UpdatedAt),
			slog.Int("resume", rec.resumes))
		if rec.resumes == s.config.MaxResumes {
			log.Warn("stalled topic reached its resume limit",
				slog.Int("words_selected", rec.wordsSelected),
				slog.Int("word_target", topic.WordTarget),
				slog.Duration("retry_after", s.config.ForgetAfter))
		}
	}

	return submitted, errors.Join(errs...)
}

// record returns the resume record for topic, resetting it when the topic
// has gained words since the last resume.
func (s *ResumeSweeper) record(topic *domain.Topic) *resumeRecord {
	rec, ok := s.records[topic.ID]
	if !ok || topic.Progress.WordsSelected > rec.wordsSelected {
		rec = &resumeRecord{wordsSelected: topic.Progress.WordsSelected}
		s.records[topic.ID] = rec
	}
	return rec
}

func (s *ResumeSweeper) exhausted() int {
	n := 0
	for _, rec := range s.records {
		if rec.resumes >= s.config.MaxResumes {
			n++
		}
	}
	return n
}

// forget drops records whose last resume is older than ForgetAfter.
func (s *ResumeSweeper) forget(now time.Time) {
	for id, rec := range s.records {
		if now.Sub(rec.lastResume) >= s.config.ForgetAfter {
			delete(s.records, id)
		}
	}
}
