package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
)

type fakeFinder struct {
	mu        sync.Mutex
	topics    []*domain.Topic
	err       error
	idleSince []time.Time
	limits    []int
}

func (f *fakeFinder) FindStalled(_ context.Context, idleSince time.Time, limit int) ([]*domain.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idleSince = append(f.idleSince, idleSince)
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.topics[:min(limit, len(f.topics))], nil
}

func (f *fakeFinder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.idleSince)
}

type recordingSubmitter struct {
	mu      sync.Mutex
	tasks   []Task
	failFor uuid.UUID
}

func (s *recordingSubmitter) Submit(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen, ok := task.(*TopicGenerationTask); ok && gen.TopicID() == s.failFor {
		return ErrQueueFull
	}
	s.tasks = append(s.tasks, task)
	return nil
}

func stalledTopic(t *testing.T) *domain.Topic {
	t.Helper()
	topic, err := domain.NewTopic("Kitchen", "HSK2", 6, 0)
	require.NoError(t, err)
	topic.Status = domain.TopicStatusGenerating
	return topic
}

func TestResumeSweeper_Sweep(t *testing.T) {
	t.Parallel()

	first, second := stalledTopic(t), stalledTopic(t)
	finder := &fakeFinder{topics: []*domain.Topic{first, second}}
	submitter := &recordingSubmitter{}
	factory := NewTopicGenerationTaskFactory(&fakeTopicRunner{}, logger.Discard())

	sweeper := NewResumeSweeper(finder, factory, submitter, ResumeSweeperConfig{
		Interval:   time.Minute,
		StaleAfter: 10 * time.Minute,
		BatchSize:  5,
	}, logger.Discard())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return now }

	submitted, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, submitted)
	assert.Equal(t, []time.Time{now.Add(-10 * time.Minute)}, finder.idleSince)
	assert.Equal(t, []int{5}, finder.limits)

	require.Len(t, submitter.tasks, 2)
	assert.Equal(t, first.ID, submitter.tasks[0].(*TopicGenerationTask).TopicID())
	assert.Equal(t, second.ID, submitter.tasks[1].(*TopicGenerationTask).TopicID())
}

func topicIDs(tasks []Task) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.(*TopicGenerationTask).TopicID())
	}
	return ids
}

func TestResumeSweeper_CapsResumesWithoutProgress(t *testing.T) {
	t.Parallel()

	topic := stalledTopic(t)
	topic.Progress.WordsSelected = 3
	submitter := &recordingSubmitter{}
	sweeper := NewResumeSweeper(
		&fakeFinder{topics: []*domain.Topic{topic}},
		NewTopicGenerationTaskFactory(&fakeTopicRunner{}, logger.Discard()),
		submitter,
		ResumeSweeperConfig{StaleAfter: time.Minute, MaxResumes: 2, ForgetAfter: time.Hour},
		logger.Discard(),
	)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return now }

	sweep := func() int {
		t.Helper()
		n, err := sweeper.Sweep(context.Background())
		require.NoError(t, err)
		now = now.Add(5 * time.Minute)
		return n
	}

	assert.Equal(t, 1, sweep())
	assert.Equal(t, 1, sweep())
	assert.Equal(t, 0, sweep(), "a topic that gains no words is not resumed forever")

	topic.Progress.WordsSelected = 4
	assert.Equal(t, 1, sweep(), "gaining a word restores the allowance")
	assert.Equal(t, 1, sweep())
	assert.Equal(t, 0, sweep())

	now = now.Add(time.Hour)
	assert.Equal(t, 1, sweep(), "the allowance returns after ForgetAfter")

	assert.Len(t, submitter.tasks, 5)
}

func TestResumeSweeper_ExhaustedTopicsDoNotBlockOthers(t *testing.T) {
	t.Parallel()

	first, second := stalledTopic(t), stalledTopic(t)
	finder := &fakeFinder{topics: []*domain.Topic{first, second}}
	submitter := &recordingSubmitter{}
	sweeper := NewResumeSweeper(
		finder,
		NewTopicGenerationTaskFactory(&fakeTopicRunner{}, logger.Discard()),
		submitter,
		ResumeSweeperConfig{StaleAfter: time.Minute, BatchSize: 1, MaxResumes: 1},
		logger.Discard(),
	)

	for range 2 {
		submitted, err := sweeper.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, submitted)
	}

	assert.Equal(t, []int{1, 2}, finder.limits)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, topicIDs(submitter.tasks))
}

func TestResumeSweeper_SweepContinuesPastFailures(t *testing.T) {
	t.Parallel()

	first, second := stalledTopic(t), stalledTopic(t)
	submitter := &recordingSubmitter{failFor: first.ID}
	sweeper := NewResumeSweeper(
		&fakeFinder{topics: []*domain.Topic{first, second}},
		NewTopicGenerationTaskFactory(&fakeTopicRunner{}, logger.Discard()),
		submitter,
		ResumeSweeperConfig{StaleAfter: time.Minute},
		logger.Discard(),
	)

	submitted, err := sweeper.Sweep(context.Background())
	assert.Equal(t, 1, submitted)
	assert.ErrorIs(t, err, ErrQueueFull)
	require.Len(t, submitter.tasks, 1)
}

func TestResumeSweeper_SweepFinderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("database unavailable")
	sweeper := NewResumeSweeper(
		&fakeFinder{err: boom},
		NewTopicGenerationTaskFactory(&fakeTopicRunner{}, logger.Discard()),
		&recordingSubmitter{},
		ResumeSweeperConfig{StaleAfter: time.Minute},
		logger.Discard(),
	)

	_, err := sweeper.Sweep(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestResumeSweeper_Schedule(t *testing.T) {
	t.Parallel()

	finder := &fakeFinder{}
	sweeper := NewResumeSweeper(
		finder,
		NewTopicGenerationTaskFactory(&fakeTopicRunner{}, logger.Discard()),
		&recordingSubmitter{},
		ResumeSweeperConfig{Interval: 50 * time.Millisecond, StaleAfter: time.Minute},
		logger.Discard(),
	)

	require.NoError(t, sweeper.Start(context.Background()))
	defer sweeper.Stop()

	assert.Eventually(t, func() bool { return finder.calls() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestResumeSweeper_Disabled(t *testing.T) {
	t.Parallel()

	finder := &fakeFinder{}
	sweeper := NewResumeSweeper(
		finder,
		NewTopicGenerationTaskFactory(&fakeTopicRunner{}, logger.Discard()),
		&recordingSubmitter{},
		ResumeSweeperConfig{},
		logger.Discard(),
	)

	require.NoError(t, sweeper.Start(context.Background()))
	sweeper.Stop()
	assert.Zero(t, finder.calls())
}
