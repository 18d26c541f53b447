package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// SessionStorage implements the SessionStorage interface for Badger. Only one
// login session exists at a time, stored under models.SessionKey.
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSessionStorage creates a new SessionStorage instance
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SessionStorage {
	return &SessionStorage{
		db:     db,
		logger: logger,
	}
}

// StoreSession persists the active session, replacing any previous one.
func (s *SessionStorage) StoreSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	session.ID = models.SessionKey

	if err := s.db.Store().Upsert(models.SessionKey, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Debug().Str("email", session.Email).Msg("Session stored")
	return nil
}

// GetSession retrieves the active session, or nil when no session is stored.
func (s *SessionStorage) GetSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	err := s.db.Store().Get(models.SessionKey, &session)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes the active session. Deleting a missing session is not
// an error.
func (s *SessionStorage) DeleteSession(ctx context.Context) error {
	err := s.db.Store().Delete(models.SessionKey, &models.Session{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Debug().Msg("Session deleted")
	return nil
}
