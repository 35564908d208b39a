package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/store"
)

// MemoryDB is an in-memory backing store shared by MockTopicStore,
// MockWordStore and MockSentenceStore. It enforces the same uniqueness and
// parent rules as the database schema.
type MemoryDB struct {
	mu        sync.Mutex
	topics    map[uuid.UUID]*domain.Topic
	words     map[uuid.UUID]*domain.Word
	sentences map[uuid.UUID]*domain.Sentence

	// ProgressWrites records every UpdateProgress call, in order.
	ProgressWrites []store.TopicUpdate
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		topics:    make(map[uuid.UUID]*domain.Topic),
		words:     make(map[uuid.UUID]*domain.Word),
		sentences: make(map[uuid.UUID]*domain.Sentence),
	}
}

// Topic returns a copy of the stored topic.
func (db *MemoryDB) Topic(id uuid.UUID) (domain.Topic, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.topics[id]
	if !ok {
		return domain.Topic{}, false
	}
	return *t, true
}

// PutTopic stores a copy of topic, replacing any existing one.
func (db *MemoryDB) PutTopic(topic *domain.Topic) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *topic
	db.topics[topic.ID] = &cp
}

// DeleteTopic removes a topic and, like the schema's cascade, its words and sentences.
func (db *MemoryDB) DeleteTopic(id uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.topics, id)
	for wid, w := range db.words {
		if w.TopicID == id {
			db.deleteWordLocked(wid)
		}
	}
}

// Words returns the words of a topic in position order.
func (db *MemoryDB) Words(topicID uuid.UUID) []domain.Word {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.wordsLocked(topicID)
}

// Sentences returns the sentences of a word.
func (db *MemoryDB) Sentences(wordID uuid.UUID) []domain.Sentence {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.Sentence
	for _, s := range db.sentences {
		if s.WordID == wordID {
			out = append(out, *s)
		}
	}
	return out
}

// ProgressWriteCount returns the number of UpdateProgress calls so far.
func (db *MemoryDB) ProgressWriteCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.ProgressWrites)
}

func (db *MemoryDB) wordsLocked(topicID uuid.UUID) []domain.Word {
	var out []domain.Word
	for _, w := range db.words {
		if w.TopicID == topicID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (db *MemoryDB) deleteWordLocked(id uuid.UUID) {
	delete(db.words, id)
	for sid, s := range db.sentences {
		if s.WordID == id {
			delete(db.sentences, sid)
		}
	}
}

// MockTopicStore implements store.TopicStore on a MemoryDB.
// Fn fields, when set, replace the default behavior.
type MockTopicStore struct {
	DB *MemoryDB

	ClaimFn          func(ctx context.Context, id uuid.UUID, now time.Time, staleAfter time.Duration) (bool, error)
	UpdateProgressFn func(ctx context.Context, id uuid.UUID, update store.TopicUpdate) error
}

var _ store.TopicStore = (*MockTopicStore)(nil)

// Create implements store.TopicStore.
func (m *MockTopicStore) Create(_ context.Context, topic *domain.Topic) error {
	if err := topic.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	m.DB.PutTopic(topic)
	return nil
}

// GetByID implements store.TopicStore.
func (m *MockTopicStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Topic, error) {
	t, ok := m.DB.Topic(id)
	if !ok {
		return nil, store.ErrTopicNotFound
	}
	return &t, nil
}

// Claim implements store.TopicStore.
func (m *MockTopicStore) Claim(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
	staleAfter time.Duration,
) (bool, error) {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, id, now, staleAfter)
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	t, ok := m.DB.topics[id]
	if !ok {
		return false, store.ErrTopicNotFound
	}
	if t.Status.InProgress() && !t.UpdatedAt.Before(now.Add(-staleAfter)) {
		return false, nil
	}
	t.Status = domain.TopicStatusSelecting
	t.ErrorMessage = ""
	t.UpdatedAt = now
	return true, nil
}

// UpdateProgress implements store.TopicStore.
func (m *MockTopicStore) UpdateProgress(ctx context.Context, id uuid.UUID, update store.TopicUpdate) error {
	if m.UpdateProgressFn != nil {
		if err := m.UpdateProgressFn(ctx, id, update); err != nil {
			return err
		}
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	m.DB.ProgressWrites = append(m.DB.ProgressWrites, update)
	t, ok := m.DB.topics[id]
	if !ok {
		return store.ErrTopicNotFound
	}
	t.Status = update.Status
	t.Progress = update.Progress
	t.ErrorMessage = update.ErrorMessage
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// FindStalled implements store.TopicStore.
func (m *MockTopicStore) FindStalled(_ context.Context, idleSince time.Time, limit int) ([]*domain.Topic, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	var out []*domain.Topic
	for _, t := range m.DB.topics {
		if t.Status.InProgress() && t.UpdatedAt.Before(idleSince) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockWordStore implements store.WordStore on a MemoryDB.
type MockWordStore struct {
	DB *MemoryDB

	CreateFn func(ctx context.Context, word *domain.Word) error
	DeleteFn func(ctx context.Context, id uuid.UUID) error
}

var _ store.WordStore = (*MockWordStore)(nil)

// Create implements store.WordStore.
func (m *MockWordStore) Create(ctx context.Context, word *domain.Word) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, word); err != nil {
			return err
		}
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if _, ok := m.DB.topics[word.TopicID]; !ok {
		return store.ErrParentMissing
	}
	for _, w := range m.DB.words {
		if w.TopicID == word.TopicID && w.Hanzi == word.Hanzi {
			return store.ErrDuplicate
		}
	}
	cp := *word
	m.DB.words[word.ID] = &cp
	return nil
}

// CountByTopic implements store.WordStore.
func (m *MockWordStore) CountByTopic(_ context.Context, topicID uuid.UUID) (int, error) {
	return len(m.DB.Words(topicID)), nil
}

// ListHanzi implements store.WordStore.
func (m *MockWordStore) ListHanzi(_ context.Context, topicID uuid.UUID) ([]string, error) {
	var hanzi []string
	for _, w := range m.DB.Words(topicID) {
		hanzi = append(hanzi, w.Hanzi)
	}
	return hanzi, nil
}

// ListWithoutSentences implements store.WordStore.
func (m *MockWordStore) ListWithoutSentences(_ context.Context, topicID uuid.UUID) ([]*domain.Word, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()

	withSentences := make(map[uuid.UUID]bool)
	for _, s := range m.DB.sentences {
		withSentences[s.WordID] = true
	}

	var out []*domain.Word
	for _, w := range m.DB.wordsLocked(topicID) {
		if !withSentences[w.ID] {
			cp := w
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Delete implements store.WordStore.
func (m *MockWordStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		if err := m.DeleteFn(ctx, id); err != nil {
			return err
		}
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if _, ok := m.DB.words[id]; !ok {
		return store.ErrWordNotFound
	}
	m.DB.deleteWordLocked(id)
	return nil
}

// MockSentenceStore implements store.SentenceStore on a MemoryDB.
type MockSentenceStore struct {
	DB *MemoryDB

	CreateTripleFn func(ctx context.Context, sentences []*domain.Sentence) error
}

var _ store.SentenceStore = (*MockSentenceStore)(nil)

// CreateTriple implements store.SentenceStore. All sentences are stored or none are.
func (m *MockSentenceStore) CreateTriple(ctx context.Context, sentences []*domain.Sentence) error {
	if m.CreateTripleFn != nil {
		if err := m.CreateTripleFn(ctx, sentences); err != nil {
			return err
		}
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	for _, s := range sentences {
		if _, ok := m.DB.words[s.WordID]; !ok {
			return store.ErrParentMissing
		}
	}
	for _, s := range sentences {
		cp := *s
		m.DB.sentences[s.ID] = &cp
	}
	return nil
}

// CountByTopic implements store.SentenceStore.
func (m *MockSentenceStore) CountByTopic(_ context.Context, topicID uuid.UUID) (int, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	count := 0
	for _, s := range m.DB.sentences {
		if s.TopicID == topicID {
			count++
		}
	}
	return count, nil
}

// NewMemoryStores returns topic, word and sentence stores sharing one MemoryDB.
func NewMemoryStores() (*MemoryDB, *MockTopicStore, *MockWordStore, *MockSentenceStore) {
	db := NewMemoryDB()
	return db, &MockTopicStore{DB: db}, &MockWordStore{DB: db}, &MockSentenceStore{DB: db}
}
