package interpretations

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/httpclient"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/language"
	"github.com/siderealab/siderea/internal/models"
)

// ErrVerificationRequired is returned when an unverified account requests
// interpretations. The account must confirm its email first.
var ErrVerificationRequired = fmt.Errorf("email verification required for interpretations")

// Client implements interfaces.InterpretationsAPI against the remote
// AI-interpretation service. Language travels as a query parameter on every
// request; the backend stores no language preference.
type Client struct {
	http *httpclient.Client
}

// NewClient creates an interpretations client.
func NewClient(http *httpclient.Client) interfaces.InterpretationsAPI {
	return &Client{http: http}
}

// GetInterpretations fetches the reading sections for a chart in one language.
func (c *Client) GetInterpretations(ctx context.Context, chartID, lang string) (*models.InterpretationSet, error) {
	params := url.Values{}
	params.Set("lang", lang)

	var set models.InterpretationSet
	if err := c.http.Get(ctx, "/charts/"+chartID+"/interpretations", params, &set); err != nil {
		return nil, fmt.Errorf("failed to get interpretations: %w", err)
	}
	return &set, nil
}

// RegenerateInterpretations asks the backend to regenerate sections. An empty
// sections slice regenerates the full set.
func (c *Client) RegenerateInterpretations(ctx context.Context, chartID, lang string, sections []string) (*models.InterpretationSet, error) {
	params := url.Values{}
	params.Set("lang", lang)

	body := map[string][]string{"sections": sections}

	var set models.InterpretationSet
	path := fmt.Sprintf("/charts/%s/interpretations/regenerate?%s", chartID, params.Encode())
	if err := c.http.Post(ctx, path, body, &set); err != nil {
		return nil, fmt.Errorf("failed to regenerate interpretations: %w", err)
	}
	return &set, nil
}

// Service fronts the interpretations API with the verification gate and a
// per-language Badger cache.
type Service struct {
	api     interfaces.InterpretationsAPI
	cache   interfaces.InterpretationCacheStorage
	session interfaces.SessionProvider
	logger  arbor.ILogger
}

// NewService creates the interpretations service.
func NewService(api interfaces.InterpretationsAPI, cache interfaces.InterpretationCacheStorage, session interfaces.SessionProvider, logger arbor.ILogger) *Service {
	return &Service{
		api:     api,
		cache:   cache,
		session: session,
		logger:  logger,
	}
}

// Get returns interpretations in the given language. Unverified accounts are
// refused before any network or cache access.
func (s *Service) Get(ctx context.Context, chartID, lang string) (*models.InterpretationSet, error) {
	if !s.session.EmailVerified() {
		return nil, ErrVerificationRequired
	}

	lang = language.Normalize(lang)

	if cached, err := s.cache.GetInterpretations(ctx, chartID, lang); err == nil && cached != nil {
		s.logger.Debug().Str("chart_id", chartID).Str("lang", lang).Msg("Interpretation cache hit")
		return cached.Set, nil
	}

	set, err := s.api.GetInterpretations(ctx, chartID, lang)
	if err != nil {
		return nil, err
	}

	if err := s.put(ctx, chartID, lang, set); err != nil {
		s.logger.Warn().Err(err).Str("chart_id", chartID).Msg("Failed to cache interpretations")
	}
	return set, nil
}

// Regenerate regenerates sections and replaces the cached variant for that
// language.
func (s *Service) Regenerate(ctx context.Context, chartID, lang string, sections []string) (*models.InterpretationSet, error) {
	if !s.session.EmailVerified() {
		return nil, ErrVerificationRequired
	}

	lang = language.Normalize(lang)

	set, err := s.api.RegenerateInterpretations(ctx, chartID, lang, sections)
	if err != nil {
		return nil, err
	}

	if err := s.put(ctx, chartID, lang, set); err != nil {
		s.logger.Warn().Err(err).Str("chart_id", chartID).Msg("Failed to cache interpretations")
	}
	return set, nil
}

// Reload drops the cached variants for a chart and fetches fresh in the given
// language. The language reconciler uses this on real transitions.
func (s *Service) Reload(ctx context.Context, chartID, lang string) error {
	if err := s.cache.DeleteInterpretations(ctx, chartID); err != nil {
		s.logger.Warn().Err(err).Str("chart_id", chartID).Msg("Failed to invalidate interpretation cache")
	}
	_, err := s.Get(ctx, chartID, lang)
	return err
}

// Invalidate drops the cached variants for a chart. Called after a
// recalculating chart update makes the old readings stale.
func (s *Service) Invalidate(ctx context.Context, chartID string) error {
	return s.cache.DeleteInterpretations(ctx, chartID)
}

func (s *Service) put(ctx context.Context, chartID, lang string, set *models.InterpretationSet) error {
	return s.cache.PutInterpretations(ctx, &models.CachedInterpretations{
		ChartID:   chartID,
		Language:  lang,
		Set:       set,
		FetchedAt: time.Now(),
	})
}
