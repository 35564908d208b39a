package topicgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/config"
	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/generation"
	"github.com/phrazzld/cizu-api/internal/novelty"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/redact"
	"github.com/phrazzld/cizu-api/internal/store"
	"github.com/phrazzld/cizu-api/internal/task"
)

// Config tunes an Orchestrator.
type Config struct {
	// Concurrency is the maximum number of word tasks in flight.
	Concurrency int
	// ProgressInterval is the minimum time between unforced progress writes.
	ProgressInterval time.Duration
	// MaxAttempts is the number of sentence attempts per word.
	MaxAttempts int
	// StaleAfter is the idle time after which an in-progress topic may be reclaimed.
	StaleAfter time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:      5,
		ProgressInterval: 800 * time.Millisecond,
		MaxAttempts:      generation.MaxSentenceAttempts,
		StaleAfter:       10 * time.Minute,
	}
}

// ConfigFrom converts loaded configuration, keeping defaults for unset values.
func ConfigFrom(cfg config.GenerationConfig) Config {
	c := DefaultConfig()
	if cfg.SentenceConcurrency > 0 {
		c.Concurrency = cfg.SentenceConcurrency
	}
	if cfg.ProgressInterval > 0 {
		c.ProgressInterval = cfg.ProgressInterval
	}
	if cfg.MaxAttempts > 0 {
		c.MaxAttempts = min(cfg.MaxAttempts, generation.MaxSentenceAttempts)
	}
	if cfg.StaleAfter > 0 {
		c.StaleAfter = cfg.StaleAfter
	}
	return c
}

// RunResult summarizes one generation run.
type RunResult struct {
	TopicID            uuid.UUID          `json:"topic_id"`
	Status             domain.TopicStatus `json:"status"`
	WordsInserted      int                `json:"words_inserted"`
	WordsFailed        int                `json:"words_failed"`
	SentencesGenerated int                `json:"sentences_generated"`
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the clock used for claims and progress throttling.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func withPicker(p picker) Option {
	return func(o *Orchestrator) {
		o.rand = p
	}
}

// Orchestrator runs the generation state machine for one topic at a time.
// It is safe for concurrent use; concurrent runs for the same topic are
// refused by the claim.
type Orchestrator struct {
	topics    store.TopicStore
	words     store.WordStore
	sentences store.SentenceStore
	generator generation.Generator
	config    Config
	logger    *slog.Logger
	now       func() time.Time
	rand      picker
}

// NewOrchestrator creates an Orchestrator.
// It returns an error if any dependency is nil or the config is unusable.
func NewOrchestrator(
	topics store.TopicStore,
	words store.WordStore,
	sentences store.SentenceStore,
	generator generation.Generator,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) (*Orchestrator, error) {
	switch {
	case topics == nil:
		return nil, errors.New("topic store cannot be nil")
	case words == nil:
		return nil, errors.New("word store cannot be nil")
	case sentences == nil:
		return nil, errors.New("sentence store cannot be nil")
	case generator == nil:
		return nil, errors.New("generator cannot be nil")
	case logger == nil:
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Concurrency <= 0 || cfg.MaxAttempts <= 0 || cfg.ProgressInterval <= 0 || cfg.StaleAfter <= 0 {
		return nil, fmt.Errorf("invalid orchestrator config: %+v", cfg)
	}

	o := &Orchestrator{
		topics:    topics,
		words:     words,
		sentences: sentences,
		generator: generator,
		config:    cfg,
		logger:    logger.With(slog.String("component", "topic_orchestrator")),
		now:       func() time.Time { return time.Now().UTC() },
		rand:      globalRand{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// run is the state shared by the word tasks of one run. filter and rep are
// only touched inside queue.do.
type run struct {
	topic  *domain.Topic
	filter *novelty.Filter
	rep    *reporter
	queue  serialQueue
}

// Run fills the topic up to its word target. A topic that is already
// complete is marked ready without calling the generator. The returned
// result is non-nil whenever the topic was claimed.
func (o *Orchestrator) Run(ctx context.Context, topicID uuid.UUID) (*RunResult, error) {
	log := o.logger.With(slog.String("topic_id", topicID.String()))
	ctx = logger.WithLogger(ctx, log)

	topic, err := o.topics.GetByID(ctx, topicID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTopicNotFound
		}
		return nil, stepError("load_topic", err)
	}

	wordCount, err := o.words.CountByTopic(ctx, topicID)
	if err != nil {
		return nil, stepError("count_words", err)
	}
	orphans, err := o.words.ListWithoutSentences(ctx, topicID)
	if err != nil {
		return nil, stepError("list_orphans", err)
	}

	if wordCount >= topic.WordTarget && len(orphans) == 0 {
		return o.markComplete(ctx, topic, wordCount)
	}

	claimed, err := o.topics.Claim(ctx, topicID, o.now(), o.config.StaleAfter)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTopicNotFound
		}
		return nil, stepError("claim", err)
	}
	if !claimed {
		log.InfoContext(ctx, "topic generation already in progress",
			slog.String("status", string(topic.Status)))
		return nil, ErrAlreadyInProgress
	}

	sentenceCount, err := o.sentences.CountByTopic(ctx, topicID)
	if err != nil {
		return nil, stepError("count_sentences", err)
	}

	topic.Status = domain.TopicStatusSelecting
	topic.Progress = domain.Progress{
		WordsSelected:      wordCount,
		SentencesGenerated: sentenceCount,
		SentenceAttempts:   sentenceCount,
	}
	r := &run{
		topic:  topic,
		filter: novelty.New(),
		rep:    newReporter(topic, o.topics, o.config.ProgressInterval, o.now, log),
	}
	r.queue.do(func() { r.rep.flush(ctx, true) })

	result := &RunResult{TopicID: topicID, Status: domain.TopicStatusSelecting}

	log.InfoContext(ctx, "topic generation started",
		slog.Int("word_target", topic.WordTarget),
		slog.Int("existing_words", wordCount),
		slog.Int("orphan_words", len(orphans)))

	var inserted []*domain.Word
	if needed := topic.WordTarget - wordCount; needed > 0 {
		inserted, err = o.selectWords(ctx, r, needed)
		if err != nil {
			return o.abort(ctx, r, result, err)
		}
	}
	result.WordsInserted = len(inserted)

	words := append(orphans, inserted...)
	if len(words) == 0 {
		return o.abort(ctx, r, result, stepError("select_words", ErrNoWordsPersisted))
	}

	r.queue.do(func() {
		r.rep.setStatus(domain.TopicStatusGenerating)
		r.rep.flush(ctx, true)
	})
	result.Status = domain.TopicStatusGenerating

	plan := domain.NewGrammarPlan(topic.ID, topic.Level, topic.GrammarTarget, len(words))
	thunks := make([]task.Thunk[int], len(words))
	for i, word := range words {
		hint, _ := plan.PatternFor(i)
		thunks[i] = func(ctx context.Context) (int, error) {
			return o.generateForWord(ctx, r, word, hint)
		}
	}

	results, err := task.RunBounded(ctx, thunks, o.config.Concurrency)
	if err != nil {
		return o.abort(ctx, r, result, stepError("generate_sentences", err))
	}
	for i, res := range results {
		if res.OK() {
			result.SentencesGenerated += res.Value
			continue
		}
		if isCanceled(res.Err) {
			continue
		}
		result.WordsFailed++
		log.WarnContext(ctx, "word dropped from topic",
			slog.String("hanzi", words[i].Hanzi),
			redact.ErrorAttr(res.Err))
	}

	// The final write must land even when the run was interrupted.
	finalCtx := context.WithoutCancel(ctx)
	if ctx.Err() != nil {
		r.queue.do(func() { r.rep.flush(finalCtx, true) })
		log.WarnContext(ctx, "topic generation interrupted",
			slog.Int("sentences_generated", result.SentencesGenerated))
		return result, fmt.Errorf("topic generation interrupted: %w", ctx.Err())
	}

	finalCount, err := o.words.CountByTopic(ctx, topicID)
	if err != nil {
		r.queue.do(func() { r.rep.flush(finalCtx, true) })
		return result, stepError("count_words", err)
	}
	finalSentences, err := o.sentences.CountByTopic(ctx, topicID)
	if err != nil {
		r.queue.do(func() { r.rep.flush(finalCtx, true) })
		return result, stepError("count_sentences", err)
	}

	status := domain.TopicStatusGenerating
	if finalCount >= topic.WordTarget {
		status = domain.TopicStatusReady
	}
	r.queue.do(func() {
		r.rep.progress.WordsSelected = finalCount
		r.rep.progress.SentencesGenerated = finalSentences
		r.rep.progress.SentenceAttempts = max(r.rep.progress.SentenceAttempts, finalSentences)
		r.rep.setStatus(status)
		r.rep.flush(finalCtx, true)
	})
	result.Status = status

	log.InfoContext(ctx, "topic generation finished",
		slog.String("status", string(status)),
		slog.Int("words", finalCount),
		slog.Int("words_inserted", result.WordsInserted),
		slog.Int("words_failed", result.WordsFailed),
		slog.Int("sentences_generated", result.SentencesGenerated))

	return result, nil
}

// RunTopic runs generation for a background task. A topic held by another
// run is not an error for the task.
func (o *Orchestrator) RunTopic(ctx context.Context, topicID uuid.UUID) error {
	_, err := o.Run(ctx, topicID)
	if errors.Is(err, ErrAlreadyInProgress) {
		return nil
	}
	return err
}

var _ task.TopicRunner = (*Orchestrator)(nil)

func (o *Orchestrator) markComplete(ctx context.Context, topic *domain.Topic, wordCount int) (*RunResult, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)
	result := &RunResult{TopicID: topic.ID, Status: domain.TopicStatusReady}
	if topic.Status == domain.TopicStatusReady {
		log.DebugContext(ctx, "topic already complete")
		return result, nil
	}

	sentenceCount, err := o.sentences.CountByTopic(ctx, topic.ID)
	if err != nil {
		return nil, stepError("count_sentences", err)
	}
	update := store.TopicUpdate{
		Status: domain.TopicStatusReady,
		Progress: domain.Progress{
			WordsSelected:      wordCount,
			SentencesGenerated: sentenceCount,
			SentenceAttempts:   max(topic.Progress.SentenceAttempts, sentenceCount),
		},
	}
	if err := o.topics.UpdateProgress(ctx, topic.ID, update); err != nil {
		return nil, stepError("mark_ready", err)
	}

	log.InfoContext(ctx, "topic already has its words, marked ready",
		slog.Int("words", wordCount))
	return result, nil
}

// abort records err on the topic and returns it.
func (o *Orchestrator) abort(ctx context.Context, r *run, result *RunResult, err error) (*RunResult, error) {
	finalCtx := context.WithoutCancel(ctx)
	r.queue.do(func() {
		r.rep.fail(err.Error())
		r.rep.flush(finalCtx, true)
	})
	result.Status = domain.TopicStatusError

	logger.FromContextOrDefault(ctx, o.logger).ErrorContext(ctx, "topic generation failed",
		redact.ErrorAttr(err))
	return result, err
}

// selectWords asks for needed candidates and persists the new ones in order.
func (o *Orchestrator) selectWords(ctx context.Context, r *run, needed int) ([]*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	existing, err := o.words.ListHanzi(ctx, r.topic.ID)
	if err != nil {
		return nil, stepError("list_words", err)
	}

	candidates, err := o.generator.GenerateWordList(ctx, generation.WordListRequest{
		Topic:   r.topic.Title,
		Level:   r.topic.Level,
		Count:   needed,
		Exclude: existing,
	})
	if err != nil {
		return nil, stepError("select_words", fmt.Errorf("%w: %w", ErrWordListFailed, err))
	}

	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, h := range existing {
		seen[h] = struct{}{}
	}

	position := len(existing)
	var inserted []*domain.Word
	for _, cand := range candidates {
		if len(inserted) >= needed {
			break
		}
		hanzi := strings.TrimSpace(cand.Hanzi)
		if _, dup := seen[hanzi]; dup {
			continue
		}
		seen[hanzi] = struct{}{}

		word, err := domain.NewWord(r.topic.ID, cand, position)
		if err != nil {
			log.WarnContext(ctx, "skipping invalid word candidate",
				slog.String("hanzi", cand.Hanzi),
				redact.ErrorAttr(err))
			continue
		}

		if err := o.words.Create(ctx, word); err != nil {
			if store.IsSkippableInsertError(err) {
				log.WarnContext(ctx, "skipping word that could not be inserted",
					slog.String("hanzi", word.Hanzi),
					redact.ErrorAttr(err))
				continue
			}
			return nil, stepError("insert_word", err)
		}

		position++
		inserted = append(inserted, word)
		r.queue.do(func() {
			r.rep.progress.WordsSelected++
			r.rep.flush(ctx, false)
		})
	}

	log.InfoContext(ctx, "words selected",
		slog.Int("requested", needed),
		slog.Int("proposed", len(candidates)),
		slog.Int("inserted", len(inserted)))
	return inserted, nil
}

// generateForWord produces and stores one sentence triple for word,
// returning the number of sentences stored. On failure the word is deleted
// unless the run was cancelled.
func (o *Orchestrator) generateForWord(ctx context.Context, r *run, word *domain.Word, hint string) (int, error) {
	log := logger.FromContextOrDefault(ctx, o.logger).With(slog.String("hanzi", word.Hanzi))

	styles, contexts := pickFlavors(o.rand)
	r.queue.do(func() {
		r.rep.progress.SentenceAttempts += domain.SentencesPerWord
		r.rep.flush(ctx, false)
	})

	req := generation.SentenceRequest{
		Word: domain.WordCandidate{
			Hanzi:   word.Hanzi,
			Pinyin:  word.Pinyin,
			English: word.English,
		},
		Topic:       r.topic.Title,
		Level:       r.topic.Level,
		GrammarHint: hint,
		Styles:      styles,
		Contexts:    contexts,
	}

	var (
		chosen    domain.SentenceTriple
		lastValid *domain.SentenceTriple
		lastErr   error
		done      bool
	)
	for attempt := 1; attempt <= o.config.MaxAttempts && !done; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		req.Params = generation.RetryParamsFor(attempt)
		triple, err := o.generator.GenerateSentences(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			lastErr = err
			log.WarnContext(ctx, "sentence attempt failed",
				slog.Int("attempt", attempt),
				redact.ErrorAttr(err))
			continue
		}

		triple = applyGrammarHint(triple, hint)
		valid := triple
		lastValid = &valid

		final := attempt == o.config.MaxAttempts
		var verdict novelty.Verdict
		r.queue.do(func() {
			verdict = r.filter.CheckAndRegister(word.Hanzi, triple)
			if !verdict.Accepted && final {
				r.filter.Register(triple)
			}
		})

		switch {
		case verdict.Accepted:
			chosen, done = triple, true
		case final:
			log.InfoContext(ctx, "accepting triple on final attempt",
				slog.Any("reasons", verdict.Reasons))
			chosen, done = triple, true
		default:
			log.DebugContext(ctx, "triple rejected by novelty filter",
				slog.Int("attempt", attempt),
				slog.Any("reasons", verdict.Reasons))
			req.AvoidOpeners = verdict.AvoidOpeners
			req.AvoidPatterns = verdict.AvoidPatterns
		}
	}

	if !done {
		if lastValid == nil {
			o.dropWord(ctx, r, word)
			return 0, fmt.Errorf("%w for %q: %w", ErrNoValidTriple, word.Hanzi, lastErr)
		}
		// The last attempt was malformed; fall back to the last well-formed one.
		chosen = *lastValid
		r.queue.do(func() { r.filter.Register(chosen) })
	}

	sentences := domain.SentencesFromTriple(word, chosen)
	if err := o.sentences.CreateTriple(ctx, sentences); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		o.dropWord(ctx, r, word)
		return 0, fmt.Errorf("failed to store sentences for %q: %w", word.Hanzi, err)
	}

	r.queue.do(func() {
		r.rep.progress.SentencesGenerated += len(sentences)
		r.rep.flush(ctx, false)
	})
	return len(sentences), nil
}

// dropWord deletes a word that could not be given sentences.
func (o *Orchestrator) dropWord(ctx context.Context, r *run, word *domain.Word) {
	log := logger.FromContextOrDefault(ctx, o.logger)
	if err := o.words.Delete(ctx, word.ID); err != nil && !store.IsNotFoundError(err) {
		log.ErrorContext(ctx, "failed to delete word without sentences",
			slog.String("hanzi", word.Hanzi),
			redact.ErrorAttr(err))
		return
	}
	r.queue.do(func() {
		if r.rep.progress.WordsSelected > 0 {
			r.rep.progress.WordsSelected--
		}
	})
}

// applyGrammarHint keeps at most one grammar tag, and only for targeted words.
func applyGrammarHint(triple domain.SentenceTriple, hint string) domain.SentenceTriple {
	tagged := false
	for i := range triple {
		if triple[i].GrammarTag == nil || hint == "" || tagged {
			triple[i].GrammarTag = nil
			continue
		}
		tag := hint
		triple[i].GrammarTag = &tag
		tagged = true
	}
	return triple
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
