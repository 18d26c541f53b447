package interfaces

import (
	"context"
	"time"

	"github.com/siderealab/siderea/internal/models"
)

// SessionStorage persists the active login session.
type SessionStorage interface {
	StoreSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context) (*models.Session, error)
	DeleteSession(ctx context.Context) error
}

// DraftStorage persists in-progress wizard sessions so a restart does not
// lose entered form values.
type DraftStorage interface {
	SaveDraft(ctx context.Context, session *models.WizardSession) error
	GetDraft(ctx context.Context, id string) (*models.WizardSession, error)
	DeleteDraft(ctx context.Context, id string) error
	ListDrafts(ctx context.Context) ([]*models.WizardSession, error)
	DeleteExpiredDrafts(ctx context.Context, ttl time.Duration, now time.Time) (int, error)
}

// ChartCacheStorage caches per-language chart payloads.
type ChartCacheStorage interface {
	PutChart(ctx context.Context, cached *models.CachedChart) error
	GetChart(ctx context.Context, chartID, language string) (*models.CachedChart, error)
	DeleteChart(ctx context.Context, chartID string) error
}

// InterpretationCacheStorage caches per-language interpretation payloads.
type InterpretationCacheStorage interface {
	PutInterpretations(ctx context.Context, cached *models.CachedInterpretations) error
	GetInterpretations(ctx context.Context, chartID, language string) (*models.CachedInterpretations, error)
	DeleteInterpretations(ctx context.Context, chartID string) error
}

// FamousStorage stores the public famous-person chart entries.
type FamousStorage interface {
	UpsertFamous(ctx context.Context, chart *models.FamousChart) error
	GetFamousBySlug(ctx context.Context, slug string) (*models.FamousChart, error)
	ListFamous(ctx context.Context, category string) ([]*models.FamousChart, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	SessionStorage() SessionStorage
	DraftStorage() DraftStorage
	ChartCacheStorage() ChartCacheStorage
	InterpretationCacheStorage() InterpretationCacheStorage
	FamousStorage() FamousStorage

	RunGC() error
	Close() error
}
