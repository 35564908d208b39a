package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/redact"
	"github.com/phrazzld/cizu-api/internal/store"
)

// PostgresTopicStore implements the store.TopicStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTopicStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTopicStore creates a new PostgreSQL implementation of the TopicStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTopicStore(db store.DBTX, logger *slog.Logger) *PostgresTopicStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTopicStore{
		db:     db,
		logger: logger.With(slog.String("component", "topic_store")),
	}
}

// Ensure PostgresTopicStore implements store.TopicStore interface
var _ store.TopicStore = (*PostgresTopicStore)(nil)

const topicColumns = `id, title, level, word_target, grammar_target, status,
	words_selected, sentences_generated, sentence_attempts, error_message,
	created_at, updated_at`

// Create implements store.TopicStore.Create.
func (s *PostgresTopicStore) Create(ctx context.Context, topic *domain.Topic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := topic.Validate(); err != nil {
		log.Warn("topic validation failed during create",
			redact.ErrorAttr(err),
			slog.String("topic_id", topic.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO topics (` + topicColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		topic.ID,
		topic.Title,
		topic.Level,
		topic.WordTarget,
		topic.GrammarTarget,
		string(topic.Status),
		topic.Progress.WordsSelected,
		topic.Progress.SentencesGenerated,
		topic.Progress.SentenceAttempts,
		nullString(topic.ErrorMessage),
		topic.CreatedAt,
		topic.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create topic",
			redact.ErrorAttr(err),
			slog.String("topic_id", topic.ID.String()))
		return MapError(err)
	}

	log.Info("topic created",
		slog.String("topic_id", topic.ID.String()),
		slog.String("level", topic.Level),
		slog.Int("word_target", topic.WordTarget))
	return nil
}

// GetByID implements store.TopicStore.GetByID.
func (s *PostgresTopicStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`

	topic, err := scanTopic(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("topic not found", slog.String("topic_id", id.String()))
			return nil, store.ErrTopicNotFound
		}
		log.Error("failed to get topic by ID",
			redact.ErrorAttr(err),
			slog.String("topic_id", id.String()))
		return nil, MapError(err)
	}

	return topic, nil
}

// Claim implements store.TopicStore.Claim.
// The status check and the update happen in one statement, so two runs racing
// for the same topic cannot both win.
func (s *PostgresTopicStore) Claim(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
	staleAfter time.Duration,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE topics
		SET status = $2, error_message = NULL, updated_at = $3
		WHERE id = $1
		  AND (status NOT IN ($4, $5) OR updated_at < $6)
	`
	result, err := s.db.ExecContext(ctx, query,
		id,
		string(domain.TopicStatusSelecting),
		now,
		string(domain.TopicStatusSelecting),
		string(domain.TopicStatusGenerating),
		now.Add(-staleAfter),
	)
	if err != nil {
		log.Error("failed to claim topic",
			redact.ErrorAttr(err),
			slog.String("topic_id", id.String()))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		log.Debug("topic claimed", slog.String("topic_id", id.String()))
		return true, nil
	}

	// Nothing updated: either the topic is gone or another run holds it.
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM topics WHERE id = $1`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, store.ErrTopicNotFound
		}
		return false, MapError(err)
	}

	log.Info("topic already claimed by an active run", slog.String("topic_id", id.String()))
	return false, nil
}

// UpdateProgress implements store.TopicStore.UpdateProgress.
func (s *PostgresTopicStore) UpdateProgress(ctx context.Context, id uuid.UUID, update store.TopicUpdate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !update.Status.IsValid() {
		return fmt.Errorf("%w: %w: %q", store.ErrInvalidEntity, domain.ErrInvalidTopicStatus, update.Status)
	}

	query := `
		UPDATE topics
		SET status = $2,
		    words_selected = $3,
		    sentences_generated = $4,
		    sentence_attempts = $5,
		    error_message = $6,
		    updated_at = $7
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		id,
		string(update.Status),
		update.Progress.WordsSelected,
		update.Progress.SentencesGenerated,
		update.Progress.SentenceAttempts,
		nullString(update.ErrorMessage),
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to update topic progress",
			redact.ErrorAttr(err),
			slog.String("topic_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTopicNotFound)
}

// FindStalled implements store.TopicStore.FindStalled.
func (s *PostgresTopicStore) FindStalled(ctx context.Context, idleSince time.Time, limit int) ([]*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + topicColumns + `
		FROM topics
		WHERE status IN ($1, $2) AND updated_at < $3
		ORDER BY updated_at ASC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query,
		string(domain.TopicStatusSelecting),
		string(domain.TopicStatusGenerating),
		idleSince,
		limit,
	)
	if err != nil {
		log.Error("failed to query stalled topics", redact.ErrorAttr(err))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var topics []*domain.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic rows: %w", err)
	}

	return topics, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (*domain.Topic, error) {
	var topic domain.Topic
	var status string
	var errorMessage sql.NullString

	err := row.Scan(
		&topic.ID,
		&topic.Title,
		&topic.Level,
		&topic.WordTarget,
		&topic.GrammarTarget,
		&status,
		&topic.Progress.WordsSelected,
		&topic.Progress.SentencesGenerated,
		&topic.Progress.SentenceAttempts,
		&errorMessage,
		&topic.CreatedAt,
		&topic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	topic.Status = domain.TopicStatus(status)
	topic.ErrorMessage = errorMessage.String
	return &topic, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
