// Package server initializes and runs the backend application. It wires the
// document store, the relational layer, the poll cache, the event stream, and
// the hydration pipeline, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/civicdeck/backend/internal/archive"
	"github.com/civicdeck/backend/internal/cache"
	"github.com/civicdeck/backend/internal/catalog"
	"github.com/civicdeck/backend/internal/civicdata"
	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/docstore"
	"github.com/civicdeck/backend/internal/events"
	"github.com/civicdeck/backend/internal/hydration"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/queue"
	"github.com/civicdeck/backend/internal/server/config"
	"github.com/civicdeck/backend/internal/server/repositories/repomanager"
	"github.com/civicdeck/backend/internal/server/services"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	store     *docstore.MongoStore
	publisher *events.SwipePublisher

	Users     *services.UsersService
	Feed      *services.FeedService
	Swipes    *services.SwipesService
	Cards     *services.CardsService
	Status    *services.StatusService
	Hydration *services.HydrationService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)
	clock := clockx.Real{}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := docstore.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("document store init error: %w", err)
	}
	cat := catalog.New(store, clock, logger)

	pollCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	publisher := events.NewSwipePublisher(cfg.BrokerList(), cfg.KafkaTopic, logger)

	enqueuer, err := queue.NewSQSEnqueuer(ctx, queue.SQSConfig{
		QueueURL:     cfg.SQSQueueURL,
		Region:       cfg.AWSRegion,
		BaseEndpoint: cfg.AWSBaseEndpoint,
		AccessKey:    cfg.AWSAccessKey,
		SecretKey:    cfg.AWSSecretKey,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("queue init error: %w", err)
	}

	reader, err := civicdata.NewReader(ctx, civicdata.Config{
		Region:       cfg.AWSRegion,
		BaseEndpoint: cfg.AWSBaseEndpoint,
		AccessKey:    cfg.AWSAccessKey,
		SecretKey:    cfg.AWSSecretKey,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("civic data init error: %w", err)
	}

	rawArchive, err := archive.New(ctx, archive.Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.AWSRegion,
		BaseEndpoint: cfg.AWSBaseEndpoint,
		AccessKey:    cfg.AWSAccessKey,
		SecretKey:    cfg.AWSSecretKey,
	}, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("archive init error: %w", err)
	}

	scheduler := hydration.NewScheduler(hydration.DefaultRules(), clock, logger)

	app := &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		store:     store,
		publisher: publisher,
		Users:     services.NewUsersService(db, rm),
		Feed:      services.NewFeedService(db, rm, pollCache, logger),
		Swipes:    services.NewSwipesService(db, rm, publisher, pollCache, clock, logger),
		Cards:     services.NewCardsService(db, rm, logger),
		Status:    services.NewStatusService(db),
		Hydration: services.NewHydrationService(cat.FedOfficials, scheduler, enqueuer, reader, rawArchive, cfg.FedOfficialsTable, logger),
	}
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runHydrationLoop schedules one refresh pass immediately, then repeats at
// the configured interval until the context is cancelled.
func (app *App) runHydrationLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.HydrationInterval)
	defer ticker.Stop()

	for {
		results, err := app.Hydration.ScheduleFedOfficialRefresh(ctx)
		if err != nil {
			app.logger.Error(ctx, "hydration scheduling failed", "error", err)
		} else {
			app.logger.Info(ctx, "hydration pass complete", "records", len(results))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.logger.Info(ctx, "Health", "status", app.Status.Get(ctx).Status)

	app.initSignalHandler(cancelFunc)

	app.runHydrationLoop(ctx)

	app.Close(ctx)
}

// Close releases the app's long-lived connections.
func (app *App) Close(ctx context.Context) {
	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, "event publisher close failed", "error", err)
	}
	if err := app.store.Close(ctx); err != nil {
		app.logger.Error(ctx, "document store close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "database close failed", "error", err)
	}
}
