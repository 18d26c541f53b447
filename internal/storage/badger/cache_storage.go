package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// CacheKey builds the composite key for per-language cached payloads.
func CacheKey(chartID, language string) string {
	return chartID + ":" + language
}

// ChartCacheStorage implements the ChartCacheStorage interface for Badger.
// Entries are keyed by chart ID plus language so each language variant caches
// independently.
type ChartCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChartCacheStorage creates a new ChartCacheStorage instance
func NewChartCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChartCacheStorage {
	return &ChartCacheStorage{
		db:     db,
		logger: logger,
	}
}

// PutChart stores a per-language chart payload.
func (s *ChartCacheStorage) PutChart(ctx context.Context, cached *models.CachedChart) error {
	if cached == nil || cached.ChartID == "" {
		return fmt.Errorf("cached chart requires a chart ID")
	}
	cached.Key = CacheKey(cached.ChartID, cached.Language)

	if err := s.db.Store().Upsert(cached.Key, cached); err != nil {
		return fmt.Errorf("failed to cache chart: %w", err)
	}
	return nil
}

// GetChart retrieves a cached chart for one language, or nil on a miss.
func (s *ChartCacheStorage) GetChart(ctx context.Context, chartID, language string) (*models.CachedChart, error) {
	var cached models.CachedChart
	err := s.db.Store().Get(CacheKey(chartID, language), &cached)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached chart: %w", err)
	}
	return &cached, nil
}

// DeleteChart removes all language variants cached for a chart. Called when
// the chart is deleted or recalculated.
func (s *ChartCacheStorage) DeleteChart(ctx context.Context, chartID string) error {
	err := s.db.Store().DeleteMatching(&models.CachedChart{},
		badgerhold.Where("ChartID").Eq(chartID))
	if err != nil {
		return fmt.Errorf("failed to delete cached chart: %w", err)
	}

	s.logger.Debug().Str("chart_id", chartID).Msg("Chart cache invalidated")
	return nil
}

// InterpretationCacheStorage implements the InterpretationCacheStorage
// interface for Badger, keyed the same way as the chart cache.
type InterpretationCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewInterpretationCacheStorage creates a new InterpretationCacheStorage instance
func NewInterpretationCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.InterpretationCacheStorage {
	return &InterpretationCacheStorage{
		db:     db,
		logger: logger,
	}
}

// PutInterpretations stores a per-language interpretation payload.
func (s *InterpretationCacheStorage) PutInterpretations(ctx context.Context, cached *models.CachedInterpretations) error {
	if cached == nil || cached.ChartID == "" {
		return fmt.Errorf("cached interpretations require a chart ID")
	}
	cached.Key = CacheKey(cached.ChartID, cached.Language)

	if err := s.db.Store().Upsert(cached.Key, cached); err != nil {
		return fmt.Errorf("failed to cache interpretations: %w", err)
	}
	return nil
}

// GetInterpretations retrieves cached interpretations for one language, or
// nil on a miss.
func (s *InterpretationCacheStorage) GetInterpretations(ctx context.Context, chartID, language string) (*models.CachedInterpretations, error) {
	var cached models.CachedInterpretations
	err := s.db.Store().Get(CacheKey(chartID, language), &cached)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached interpretations: %w", err)
	}
	return &cached, nil
}

// DeleteInterpretations removes all language variants cached for a chart.
func (s *InterpretationCacheStorage) DeleteInterpretations(ctx context.Context, chartID string) error {
	err := s.db.Store().DeleteMatching(&models.CachedInterpretations{},
		badgerhold.Where("ChartID").Eq(chartID))
	if err != nil {
		return fmt.Errorf("failed to delete cached interpretations: %w", err)
	}

	s.logger.Debug().Str("chart_id", chartID).Msg("Interpretation cache invalidated")
	return nil
}
