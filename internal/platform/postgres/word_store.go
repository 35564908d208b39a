package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/redact"
	"github.com/phrazzld/cizu-api/internal/store"
)

// PostgresWordStore implements the store.WordStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWordStore creates a new PostgreSQL implementation of the WordStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresWordStore(db store.DBTX, logger *slog.Logger) *PostgresWordStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWordStore{
		db:     db,
		logger: logger.With(slog.String("component", "word_store")),
	}
}

// Ensure PostgresWordStore implements store.WordStore interface
var _ store.WordStore = (*PostgresWordStore)(nil)

// Create implements store.WordStore.Create.
// A word whose hanzi already exists in the topic maps to store.ErrDuplicate;
// a word whose topic was deleted maps to store.ErrParentMissing.
func (s *PostgresWordStore) Create(ctx context.Context, word *domain.Word) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO words (id, topic_id, hanzi, pinyin, english, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		word.ID,
		word.TopicID,
		word.Hanzi,
		word.Pinyin,
		word.English,
		word.Position,
		word.CreatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsSkippableInsertError(mapped) {
			log.Debug("word insert skipped",
				slog.String("topic_id", word.TopicID.String()),
				slog.String("hanzi", word.Hanzi),
				slog.String("reason", redact.Error(err)))
		} else {
			log.Error("failed to create word",
				redact.ErrorAttr(err),
				slog.String("topic_id", word.TopicID.String()))
		}
		return mapped
	}

	return nil
}

// CountByTopic implements store.WordStore.CountByTopic.
func (s *PostgresWordStore) CountByTopic(ctx context.Context, topicID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM words WHERE topic_id = $1`, topicID).Scan(&count)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count words",
			redact.ErrorAttr(err),
			slog.String("topic_id", topicID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// ListHanzi implements store.WordStore.ListHanzi.
func (s *PostgresWordStore) ListHanzi(ctx context.Context, topicID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hanzi FROM words WHERE topic_id = $1 ORDER BY position, created_at`, topicID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list word hanzi",
			redact.ErrorAttr(err),
			slog.String("topic_id", topicID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var hanzi []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan word row: %w", err)
		}
		hanzi = append(hanzi, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating word rows: %w", err)
	}
	return hanzi, nil
}

// ListWithoutSentences implements store.WordStore.ListWithoutSentences.
func (s *PostgresWordStore) ListWithoutSentences(ctx context.Context, topicID uuid.UUID) ([]*domain.Word, error) {
	query := `
		SELECT w.id, w.topic_id, w.hanzi, w.pinyin, w.english, w.position, w.created_at
		FROM words w
		WHERE w.topic_id = $1
		  AND NOT EXISTS (SELECT 1 FROM sentences s WHERE s.word_id = w.id)
		ORDER BY w.position, w.created_at
	`
	rows, err := s.db.QueryContext(ctx, query, topicID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list words without sentences",
			redact.ErrorAttr(err),
			slog.String("topic_id", topicID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var words []*domain.Word
	for rows.Next() {
		var w domain.Word
		if err := rows.Scan(&w.ID, &w.TopicID, &w.Hanzi, &w.Pinyin, &w.English, &w.Position, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan word row: %w", err)
		}
		words = append(words, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating word rows: %w", err)
	}
	return words, nil
}

// Delete implements store.WordStore.Delete.
func (s *PostgresWordStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM words WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete word",
			redact.ErrorAttr(err),
			slog.String("word_id", id.String()))
		return fmt.Errorf("%w: %w", store.ErrDeleteFailed, MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrWordNotFound); err != nil {
		return err
	}

	log.Debug("word deleted", slog.String("word_id", id.String()))
	return nil
}
