package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/ternarybob/labelsync/internal/handlers"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
	"github.com/ternarybob/labelsync/internal/queue"
	"github.com/ternarybob/labelsync/internal/services/atlassian"
	"github.com/ternarybob/labelsync/internal/services/events"
	"github.com/ternarybob/labelsync/internal/services/labels"
	"github.com/ternarybob/labelsync/internal/services/refresh"
	"github.com/ternarybob/labelsync/internal/services/scheduler"
	"github.com/ternarybob/labelsync/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Job execution
	QueueManager *queue.BadgerManager
	WorkerPool   *queue.WorkerPool

	// Jira access
	JiraClient   *atlassian.JiraClient
	FieldService interfaces.JiraFieldService

	// Label pipeline
	LabelCache   interfaces.LabelCache
	QueryService interfaces.LabelQueryService
	Orchestrator *refresh.Orchestrator

	// HTTP handlers
	APIHandler   *handlers.APIHandler
	LabelHandler *handlers.LabelHandler
	SyncHandler  *handlers.SyncHandler
	EventHandler *handlers.EventHandler
	WSHandler    *handlers.WebSocketHandler

	started bool
}

// New initializes the application with all dependencies.
// Background processing does not begin until Start is called.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	logger.Info().
		Str("mode", string(app.Orchestrator.Mode())).
		Str("field_id", cfg.Jira.FieldID).
		Str("jira", app.JiraClient.BaseURL()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
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

// initServices initializes all business services in dependency order:
// queue, events, Jira client, label cache, orchestrator, worker pool, scheduler.
func (a *App) initServices() error {
	var err error

	queueConfig := queue.NewConfig(a.Config.Queue)
	a.QueueManager, err = queue.NewBadgerManager(a.StorageManager.DB().Badger(), queueConfig, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create queue manager: %w", err)
	}

	a.EventService = events.NewService(a.Logger)
	if err := events.SubscribeLoggerToAllEvents(a.EventService, a.Logger); err != nil {
		return fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	a.JiraClient, err = atlassian.NewJiraClient(&a.Config.Jira, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create jira client: %w", err)
	}
	a.FieldService = atlassian.NewFieldService(a.JiraClient, a.Config.Jira.FieldID, a.Logger)

	kvStorage := a.StorageManager.KeyValueStorage()
	a.LabelCache = labels.NewCache(kvStorage, a.Config.Cache.SerializeMerges, a.Logger)
	a.QueryService = labels.NewQueryService(a.LabelCache, a.Logger)

	a.Orchestrator = refresh.NewOrchestrator(
		a.FieldService,
		a.LabelCache,
		kvStorage,
		a.QueueManager,
		a.EventService,
		models.SyncMode(a.Config.Sync.Mode),
		a.Logger,
	)

	if err := a.EventService.Subscribe(interfaces.EventFieldConfigChanged, a.Orchestrator.HandleFieldConfigChanged); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", interfaces.EventFieldConfigChanged, err)
	}

	a.WorkerPool = queue.NewWorkerPool(a.QueueManager, queueConfig, a.Logger)
	a.WorkerPool.RegisterHandler(models.JobTypeRefreshLabels, a.Orchestrator.HandleRefreshLabels)
	a.WorkerPool.RegisterHandler(models.JobTypeLoadContexts, a.Orchestrator.HandleLoadContexts)
	a.WorkerPool.RegisterHandler(models.JobTypeLoadContextOptions, a.Orchestrator.HandleLoadContextOptions)

	if a.Config.Sync.Enabled {
		a.SchedulerService = scheduler.NewService(a.Logger)
		err := a.SchedulerService.RegisterJob(
			models.RefreshScheduleJob,
			a.Config.Sync.Schedule,
			"Enqueue a label refresh",
			a.triggerScheduledRefresh,
		)
		if err != nil {
			return fmt.Errorf("failed to register refresh schedule: %w", err)
		}
	}

	return nil
}

// triggerScheduledRefresh enqueues one refresh job per scheduler tick
func (a *App) triggerScheduledRefresh() error {
	_, err := a.Orchestrator.TriggerRefresh(context.Background())
	return err
}

// initHandlers initializes HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.LabelHandler = handlers.NewLabelHandler(a.QueryService, a.Logger)
	a.SyncHandler = handlers.NewSyncHandler(a.Orchestrator, a.SchedulerService, a.QueueManager, a.Logger)
	a.EventHandler = handlers.NewEventHandler(a.EventService, a.Logger)

	wsHandler, err := handlers.NewWebSocketHandler(a.EventService, a.Orchestrator, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create websocket handler: %w", err)
	}
	a.WSHandler = wsHandler

	return nil
}

// Start begins background processing: queue workers, the refresh schedule
// and, when configured, one refresh at startup.
func (a *App) Start() error {
	if err := a.WorkerPool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	a.started = true

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	if a.Config.Sync.RunOnStartup {
		jobID, err := a.Orchestrator.TriggerRefresh(context.Background())
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to enqueue startup refresh")
		} else {
			a.Logger.Info().Str("job_id", jobID).Msg("Startup refresh enqueued")
		}
	}

	return nil
}

// RunOnce performs a single batch refresh in the foreground
func (a *App) RunOnce(ctx context.Context) (*models.SyncReport, error) {
	return a.Orchestrator.RefreshAll(ctx)
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop scheduler service
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Stop workers before the queue and store they read from
	if a.WorkerPool != nil && a.started {
		if err := a.WorkerPool.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop worker pool")
		}
		a.started = false
	}

	if a.QueueManager != nil {
		if err := a.QueueManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close queue manager")
		}
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
		a.StorageManager = nil
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
