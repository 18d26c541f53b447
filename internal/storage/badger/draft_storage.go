package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// DraftStorage implements the DraftStorage interface for Badger. Each record
// is a live wizard session keyed by its session ID.
type DraftStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDraftStorage creates a new DraftStorage instance
func NewDraftStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DraftStorage {
	return &DraftStorage{
		db:     db,
		logger: logger,
	}
}

// SaveDraft inserts or updates a wizard session draft.
func (s *DraftStorage) SaveDraft(ctx context.Context, session *models.WizardSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("draft session requires an ID")
	}

	if err := s.db.Store().Upsert(session.ID, session); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// GetDraft retrieves a wizard session draft by ID, or nil when not found.
func (s *DraftStorage) GetDraft(ctx context.Context, id string) (*models.WizardSession, error) {
	var session models.WizardSession
	err := s.db.Store().Get(id, &session)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return &session, nil
}

// DeleteDraft removes a wizard session draft.
func (s *DraftStorage) DeleteDraft(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.WizardSession{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// ListDrafts returns all stored wizard session drafts.
func (s *DraftStorage) ListDrafts(ctx context.Context) ([]*models.WizardSession, error) {
	var sessions []*models.WizardSession
	if err := s.db.Store().Find(&sessions, nil); err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return sessions, nil
}

// DeleteExpiredDrafts removes drafts idle longer than ttl and returns how
// many were deleted. The scheduler runs this periodically.
func (s *DraftStorage) DeleteExpiredDrafts(ctx context.Context, ttl time.Duration, now time.Time) (int, error) {
	sessions, err := s.ListDrafts(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, session := range sessions {
		if !session.Expired(ttl, now) {
			continue
		}
		if err := s.DeleteDraft(ctx, session.ID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("Failed to delete expired draft")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Msg("Expired wizard drafts removed")
	}
	return deleted, nil
}
