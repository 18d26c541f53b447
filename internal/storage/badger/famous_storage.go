package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// FamousStorage implements the FamousStorage interface for Badger. Entries
// are keyed by slug.
type FamousStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFamousStorage creates a new FamousStorage instance
func NewFamousStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FamousStorage {
	return &FamousStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertFamous inserts or updates a famous-chart entry.
func (s *FamousStorage) UpsertFamous(ctx context.Context, chart *models.FamousChart) error {
	if chart == nil || chart.Slug == "" {
		return fmt.Errorf("famous chart requires a slug")
	}

	if err := s.db.Store().Upsert(chart.Slug, chart); err != nil {
		return fmt.Errorf("failed to upsert famous chart: %w", err)
	}
	return nil
}

// GetFamousBySlug retrieves a famous-chart entry, or nil when not found.
func (s *FamousStorage) GetFamousBySlug(ctx context.Context, slug string) (*models.FamousChart, error) {
	var chart models.FamousChart
	err := s.db.Store().Get(slug, &chart)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get famous chart: %w", err)
	}
	return &chart, nil
}

// ListFamous returns famous-chart entries, optionally filtered by category,
// ordered by name.
func (s *FamousStorage) ListFamous(ctx context.Context, category string) ([]*models.FamousChart, error) {
	var charts []*models.FamousChart

	var query *badgerhold.Query
	if category != "" {
		query = badgerhold.Where("Category").Eq(category)
	}

	if err := s.db.Store().Find(&charts, query); err != nil {
		return nil, fmt.Errorf("failed to list famous charts: %w", err)
	}

	sort.Slice(charts, func(i, j int) bool {
		return charts[i].Name < charts[j].Name
	})

	return charts, nil
}
