package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/handlers"
	"github.com/siderealab/siderea/internal/httpclient"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/language"
	"github.com/siderealab/siderea/internal/services/auth"
	"github.com/siderealab/siderea/internal/services/charts"
	"github.com/siderealab/siderea/internal/services/events"
	"github.com/siderealab/siderea/internal/services/famous"
	"github.com/siderealab/siderea/internal/services/geocoding"
	"github.com/siderealab/siderea/internal/services/interpretations"
	"github.com/siderealab/siderea/internal/services/pdfexport"
	"github.com/siderealab/siderea/internal/services/scheduler"
	"github.com/siderealab/siderea/internal/services/wizardsvc"
	"github.com/siderealab/siderea/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Backend API client (shared by all API service clients)
	Backend *httpclient.Client

	// Event-driven services
	EventService interfaces.EventService
	Scheduler    *scheduler.Service

	// Domain services
	AuthService           *auth.Service
	ChartAPI              interfaces.ChartAPI
	ChartService          *charts.Service
	GeocodingAPI          interfaces.GeocodingAPI
	InterpretationService *interpretations.Service
	PDFService            *pdfexport.Service
	FamousService         *famous.Service
	WizardService         *wizardsvc.Service
	Reconciler            *language.Reconciler

	// HTTP handlers
	APIHandler            *handlers.APIHandler
	AuthHandler           *handlers.AuthHandler
	WizardHandler         *handlers.WizardHandler
	ChartHandler          *handlers.ChartHandler
	GeocodingHandler      *handlers.GeocodingHandler
	InterpretationHandler *handlers.InterpretationHandler
	PDFHandler            *handlers.PDFHandler
	FamousHandler         *handlers.FamousHandler
	LanguageHandler       *handlers.LanguageHandler
	WSHandler             *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// EventService is needed before any service that publishes, and the
	// WebSocket handler subscribes at construction time
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger)

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	// Start scheduled jobs AFTER everything is wired
	if err := app.startScheduler(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Str("backend", cfg.Backend.BaseURL).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	var err error

	// Shared backend client. The session provider is attached after the auth
	// service exists; login and register go out without a bearer token.
	a.Backend = httpclient.New(
		a.Config.Backend.BaseURL,
		httpclient.WithTimeout(a.Config.Backend.RequestTimeoutDuration()),
		httpclient.WithRateLimit(a.Config.Backend.RateLimit),
		httpclient.WithLogger(a.Logger),
	)

	a.AuthService, err = auth.NewService(a.Backend, a.StorageManager.SessionStorage(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}
	a.Backend.SetSession(a.AuthService)
	a.Logger.Debug().Msg("Auth service initialized")

	// Chart orchestration: API client, per-language cache, watch loops
	a.ChartAPI = charts.NewClient(a.Backend)
	a.ChartService = charts.NewService(
		a.ChartAPI,
		a.StorageManager.ChartCacheStorage(),
		a.EventService,
		&a.Config.Charts,
		a.Logger,
	)
	a.Logger.Debug().Msg("Chart service initialized")

	a.GeocodingAPI = geocoding.NewClient(a.Backend)

	a.InterpretationService = interpretations.NewService(
		interpretations.NewClient(a.Backend),
		a.StorageManager.InterpretationCacheStorage(),
		a.AuthService,
		a.Logger,
	)
	a.Logger.Debug().Msg("Interpretation service initialized")

	a.PDFService = pdfexport.NewService(
		pdfexport.NewClient(a.Backend),
		a.EventService,
		&a.Config.PDF,
		a.Logger,
	)
	a.Logger.Debug().Msg("PDF export service initialized")

	a.FamousService = famous.NewService(
		a.StorageManager.FamousStorage(),
		a.ChartAPI,
		&a.Config.Famous,
		a.Logger,
	)
	if err := a.FamousService.LoadFromFiles(context.Background()); err != nil {
		// Log warning but don't fail startup (consistent with other loaders)
		a.Logger.Warn().Err(err).Msg("Failed to load famous chart seed files")
	}

	a.WizardService = wizardsvc.NewService(
		a.StorageManager.DraftStorage(),
		a.ChartAPI,
		a.EventService,
		&a.Config.Wizard,
		a.Logger,
	)
	a.Logger.Debug().Msg("Wizard service initialized")

	// Language reconciler reloads the currently viewed chart on real
	// language transitions; region-only changes reconcile to no work
	a.Reconciler = language.NewReconciler(
		a.AuthService,
		func(ctx context.Context, lang string) error {
			chartID := a.ChartService.CurrentChartID()
			if chartID == "" {
				return nil
			}
			return a.ChartService.ReloadChart(ctx, chartID, lang)
		},
		func(ctx context.Context, lang string) error {
			chartID := a.ChartService.CurrentChartID()
			if chartID == "" {
				return nil
			}
			return a.InterpretationService.Reload(ctx, chartID, lang)
		},
		a.Logger,
	)
	if err := a.Reconciler.Bind(a.EventService); err != nil {
		return fmt.Errorf("failed to bind language reconciler: %w", err)
	}

	// A submitted chart starts generating on the backend; watch it so
	// progress reaches the browser. Recalculating edits invalidate the
	// cached interpretations, which no longer match the birth data.
	err = a.EventService.Subscribe(interfaces.EventChartSubmitted, func(ctx context.Context, event interfaces.Event) error {
		submitted, ok := event.Payload.(wizardsvc.SubmittedEvent)
		if !ok {
			return nil
		}

		if submitted.Recalculating {
			if err := a.InterpretationService.Invalidate(context.Background(), submitted.ChartID); err != nil {
				a.Logger.Warn().Err(err).Str("chart_id", submitted.ChartID).Msg("Failed to invalidate interpretations after recalculation")
			}
		}

		// The watch loop outlives the submit request.
		a.ChartService.Watch(context.Background(), submitted.ChartID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to chart submissions: %w", err)
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler()
	// WSHandler already initialized in New() before services

	a.AuthHandler = handlers.NewAuthHandler(a.AuthService, a.Logger)
	a.WizardHandler = handlers.NewWizardHandler(a.WizardService, a.Logger)
	a.ChartHandler = handlers.NewChartHandler(a.ChartService, a.ChartAPI, a.AuthService, a.Logger)
	a.GeocodingHandler = handlers.NewGeocodingHandler(a.GeocodingAPI, a.Logger)
	a.InterpretationHandler = handlers.NewInterpretationHandler(a.InterpretationService, a.AuthService, a.Logger)
	a.PDFHandler = handlers.NewPDFHandler(a.PDFService, a.AuthService, a.Logger)
	a.FamousHandler = handlers.NewFamousHandler(a.FamousService, a.Logger)
	a.LanguageHandler = handlers.NewLanguageHandler(a.EventService, a.Reconciler, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
	return nil
}

// startScheduler registers and starts the background cron jobs
func (a *App) startScheduler() error {
	a.Scheduler = scheduler.NewService(a.Logger)

	err := a.Scheduler.Register("wizard-cleanup", a.Config.Wizard.CleanupSchedule, func() error {
		removed, err := a.WizardService.CleanupExpired(context.Background())
		if err != nil {
			return err
		}
		if removed > 0 {
			a.Logger.Info().Int("removed", removed).Msg("Expired wizard sessions cleaned up")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if a.Config.Maintenance.Enabled {
		// Value-log GC plus a rescan of famous seed files added or edited
		// while running
		err = a.Scheduler.Register("maintenance", a.Config.Maintenance.Schedule, func() error {
			if err := a.StorageManager.RunGC(); err != nil {
				a.Logger.Warn().Err(err).Msg("Badger value-log GC failed")
			}
			return a.FamousService.LoadFromFiles(context.Background())
		})
		if err != nil {
			return err
		}
	}

	return a.Scheduler.Start()
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop background work before tearing down what it depends on
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.ChartService != nil {
		a.ChartService.UnwatchAll()
	}

	if a.PDFService != nil {
		a.PDFService.CancelAll()
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
