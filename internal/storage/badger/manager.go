package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db                  *BadgerDB
	session             interfaces.SessionStorage
	draft               interfaces.DraftStorage
	chartCache          interfaces.ChartCacheStorage
	interpretationCache interfaces.InterpretationCacheStorage
	famous              interfaces.FamousStorage
	logger              arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:                  db,
		session:             NewSessionStorage(db, logger),
		draft:               NewDraftStorage(db, logger),
		chartCache:          NewChartCacheStorage(db, logger),
		interpretationCache: NewInterpretationCacheStorage(db, logger),
		famous:              NewFamousStorage(db, logger),
		logger:              logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// SessionStorage returns the Session storage interface
func (m *Manager) SessionStorage() interfaces.SessionStorage {
	return m.session
}

// DraftStorage returns the Draft storage interface
func (m *Manager) DraftStorage() interfaces.DraftStorage {
	return m.draft
}

// ChartCacheStorage returns the ChartCache storage interface
func (m *Manager) ChartCacheStorage() interfaces.ChartCacheStorage {
	return m.chartCache
}

// InterpretationCacheStorage returns the InterpretationCache storage interface
func (m *Manager) InterpretationCacheStorage() interfaces.InterpretationCacheStorage {
	return m.interpretationCache
}

// FamousStorage returns the Famous storage interface
func (m *Manager) FamousStorage() interfaces.FamousStorage {
	return m.famous
}

// RunGC triggers value-log garbage collection on the underlying database
func (m *Manager) RunGC() error {
	return m.db.RunGC()
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
