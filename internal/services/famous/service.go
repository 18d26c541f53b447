package famous

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// Service serves the public famous-person chart pages. Entries are seeded
// from YAML files; their backend charts are created lazily through the same
// Chart API as user charts.
type Service struct {
	storage interfaces.FamousStorage
	charts  interfaces.ChartAPI
	config  *common.FamousConfig
	logger  arbor.ILogger
}

// NewService creates the famous charts service.
func NewService(storage interfaces.FamousStorage, charts interfaces.ChartAPI, config *common.FamousConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		charts:  charts,
		config:  config,
		logger:  logger,
	}
}

// LoadFromFiles scans the configured directory for YAML seed files and
// upserts each entry. Entries already holding a chart ID keep it.
func (s *Service) LoadFromFiles(ctx context.Context) error {
	if _, err := os.Stat(s.config.Dir); os.IsNotExist(err) {
		s.logger.Debug().Str("dir", s.config.Dir).Msg("Famous charts directory does not exist, skipping")
		return nil
	}

	s.logger.Info().Str("dir", s.config.Dir).Msg("Loading famous charts from files")

	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return fmt.Errorf("failed to read famous charts directory: %w", err)
	}

	loadedCount := 0
	for _, entry := range entries {
		if entry.IsDir() || !s.wantedExtension(filepath.Ext(entry.Name())) {
			continue
		}

		filePath := filepath.Join(s.config.Dir, entry.Name())

		yamlBytes, err := os.ReadFile(filePath)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read famous chart file")
			continue
		}

		var chart models.FamousChart
		if err := yaml.Unmarshal(yamlBytes, &chart); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to parse famous chart YAML")
			continue
		}

		if chart.Slug == "" {
			s.logger.Warn().Str("file", entry.Name()).Msg("Famous chart file missing slug, skipping")
			continue
		}

		// Preserve a chart ID created on an earlier run.
		existing, err := s.storage.GetFamousBySlug(ctx, chart.Slug)
		if err == nil && existing != nil && existing.ChartID != "" {
			chart.ChartID = existing.ChartID
		}

		if err := s.storage.UpsertFamous(ctx, &chart); err != nil {
			s.logger.Warn().Err(err).Str("slug", chart.Slug).Msg("Failed to store famous chart")
			continue
		}
		loadedCount++
	}

	s.logger.Info().Int("loaded", loadedCount).Msg("Famous charts loaded")
	return nil
}

func (s *Service) wantedExtension(ext string) bool {
	for _, wanted := range s.config.Extensions {
		if ext == wanted {
			return true
		}
	}
	return false
}

// List returns famous-chart entries, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string) ([]*models.FamousChart, error) {
	return s.storage.ListFamous(ctx, category)
}

// Get returns one famous-chart entry by slug, creating its backend chart on
// first access. The created chart ID is persisted so later requests reuse it.
func (s *Service) Get(ctx context.Context, slug string) (*models.FamousChart, error) {
	entry, err := s.storage.GetFamousBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("famous chart not found: %s", slug)
	}

	if entry.ChartID == "" {
		chart, err := s.createChart(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to create chart for %s: %w", slug, err)
		}

		entry.ChartID = chart.ID
		if err := s.storage.UpsertFamous(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("slug", slug).Msg("Failed to persist famous chart ID")
		}
	}

	return entry, nil
}

func (s *Service) createChart(ctx context.Context, entry *models.FamousChart) (*models.Chart, error) {
	instant, err := normalizeBirthInstant(entry)
	if err != nil {
		return nil, err
	}

	houseSystem := entry.HouseSystem
	if houseSystem == "" {
		houseSystem = models.DefaultHouseSystem
	}
	zodiacType := entry.ZodiacType
	if zodiacType == "" {
		zodiacType = models.DefaultZodiacType
	}
	nodeType := entry.NodeType
	if nodeType == "" {
		nodeType = models.DefaultNodeType
	}

	submission := &models.ChartSubmission{
		PersonName:    entry.Name,
		BirthUTC:      instant.Format(time.RFC3339),
		BirthTimezone: entry.BirthTimezone,
		Latitude:      entry.Latitude,
		Longitude:     entry.Longitude,
		City:          entry.City,
		Country:       entry.Country,
		HouseSystem:   houseSystem,
		ZodiacType:    zodiacType,
		NodeType:      nodeType,
	}

	return s.charts.CreateChart(ctx, submission)
}

// normalizeBirthInstant resolves the seed file's local-civil birth datetime
// in its birth timezone, the same way wizard submissions are normalized.
func normalizeBirthInstant(entry *models.FamousChart) (time.Time, error) {
	loc, err := time.LoadLocation(entry.BirthTimezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown timezone %q: %w", entry.BirthTimezone, err)
	}

	local, err := time.ParseInLocation(models.BirthDateTimeLayout, entry.BirthDateTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birth datetime %q: %w", entry.BirthDateTime, err)
	}

	return local.UTC(), nil
}
