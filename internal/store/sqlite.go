package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/provoice/interview-agent/internal/observability"
)

// SQLiteStore implements TranscriptStore on a local SQLite database with the
// two-table schema: sessions(id, job_role, created_at) and
// rounds(round_id, session_id, question, answer, evaluation).
type SQLiteStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens (or creates) the SQLite database at path and runs the additive
// auto-migration for the two tables.
func Open(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrStorage, path, err)
	}

	if err := db.AutoMigrate(&Session{}, &Round{}); err != nil {
		return nil, fmt.Errorf("%w: migrating schema: %v", ErrStorage, err)
	}

	return &SQLiteStore{
		db:  db,
		log: observability.GetLogger().With().Str("component", "store").Logger(),
	}, nil
}

// CreateSession inserts a new session row and returns it with the assigned ID.
func (s *SQLiteStore) CreateSession(ctx context.Context, jobRole string) (*Session, error) {
	session := &Session{JobRole: jobRole}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		observability.RecordStorageError("create_session")
		return nil, fmt.Errorf("%w: creating session: %v", ErrStorage, err)
	}
	s.log.Debug().Uint("session_id", session.ID).Str("job_role", jobRole).Msg("Session created")
	return session, nil
}

// SaveRound appends one round row for the session.
func (s *SQLiteStore) SaveRound(ctx context.Context, sessionID uint, question, answer, evaluation string) error {
	round := &Round{
		SessionID:  sessionID,
		Question:   question,
		Answer:     answer,
		Evaluation: evaluation,
	}
	if err := s.db.WithContext(ctx).Create(round).Error; err != nil {
		observability.RecordStorageError("save_round")
		return fmt.Errorf("%w: saving round: %v", ErrStorage, err)
	}
	return nil
}

// ListSessions returns all sessions, most recent first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&sessions).Error; err != nil {
		observability.RecordStorageError("list_sessions")
		return nil, fmt.Errorf("%w: listing sessions: %v", ErrStorage, err)
	}
	return sessions, nil
}

// GetRounds returns the rounds of a session in insertion order.
func (s *SQLiteStore) GetRounds(ctx context.Context, sessionID uint) ([]Round, error) {
	var rounds []Round
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&rounds).Error; err != nil {
		observability.RecordStorageError("get_rounds")
		return nil, fmt.Errorf("%w: loading rounds: %v", ErrStorage, err)
	}
	return rounds, nil
}

// Ping verifies the database connection is alive, for readiness probes.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
