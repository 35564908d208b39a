package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/redact"
	"github.com/phrazzld/cizu-api/internal/store"
)

// PostgresSentenceStore implements the store.SentenceStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSentenceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSentenceStore creates a new PostgreSQL implementation of the SentenceStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSentenceStore(db store.DBTX, logger *slog.Logger) *PostgresSentenceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSentenceStore{
		db:     db,
		logger: logger.With(slog.String("component", "sentence_store")),
	}
}

// Ensure PostgresSentenceStore implements store.SentenceStore interface
var _ store.SentenceStore = (*PostgresSentenceStore)(nil)

const insertSentenceQuery = `
	INSERT INTO sentences (id, word_id, topic_id, tier, hanzi, pinyin, english, grammar_tag, style, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// CreateTriple implements store.SentenceStore.CreateTriple.
// When the store holds a *sql.DB the inserts run in their own transaction;
// when it already holds a transaction they join it.
func (s *PostgresSentenceStore) CreateTriple(ctx context.Context, sentences []*domain.Sentence) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(sentences) == 0 {
		return fmt.Errorf("%w: no sentences to store", store.ErrInvalidEntity)
	}

	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.insertSentences(ctx, s.db, sentences)
	}

	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return s.insertSentences(ctx, tx, sentences)
	})
	if err != nil {
		log.Error("failed to store sentence triple",
			redact.ErrorAttr(err),
			slog.String("word_id", sentences[0].WordID.String()))
		return err
	}
	return nil
}

func (s *PostgresSentenceStore) insertSentences(ctx context.Context, db store.DBTX, sentences []*domain.Sentence) error {
	stmt, err := db.PrepareContext(ctx, insertSentenceQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare sentence insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, sentence := range sentences {
		var grammarTag sql.NullString
		if sentence.GrammarTag != nil {
			grammarTag = sql.NullString{String: *sentence.GrammarTag, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			sentence.ID,
			sentence.WordID,
			sentence.TopicID,
			string(sentence.Tier),
			sentence.Hanzi,
			sentence.Pinyin,
			sentence.English,
			grammarTag,
			sentence.Style,
			sentence.CreatedAt,
		)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

// CountByTopic implements store.SentenceStore.CountByTopic.
func (s *PostgresSentenceStore) CountByTopic(ctx context.Context, topicID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sentences WHERE topic_id = $1`, topicID).Scan(&count)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count sentences",
			redact.ErrorAttr(err),
			slog.String("topic_id", topicID.String()))
		return 0, MapError(err)
	}
	return count, nil
}
