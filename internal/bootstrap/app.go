package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"image"
	"sync"

	"github.com/gin-gonic/gin"

	"certificate-backend/internal/certificates"
	"certificate-backend/internal/config"
	"certificate-backend/internal/counters"
	"certificate-backend/internal/server"
	"certificate-backend/internal/shared/storage/blob"
	"certificate-backend/internal/shared/storage/blob/local"
	"certificate-backend/internal/shared/storage/blob/s3"
	"certificate-backend/internal/shared/storage/db"
	"certificate-backend/internal/shared/telemetry"
	"certificate-backend/internal/terms"
	"certificate-backend/internal/verify"
)

// App wires configuration into a runnable application: database, blob
// store, verification broker, pipeline service, sweeper, and router.
type App struct {
	Config  config.Config
	DB      *sql.DB
	Router  *gin.Engine
	Sweeper *certificates.Sweeper

	broker *verify.AMQPBroker

	// Background pipelines spawned by the upload handler register here
	// so shutdown can wait for them.
	pipelines  sync.WaitGroup
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// Build assembles the application from configuration. In development,
// missing external dependencies degrade to in-memory or no-op stand-ins;
// elsewhere they are fatal.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	app.baseCtx, app.cancelBase = context.WithCancel(context.Background())

	var (
		certRepo certificates.Repo
		termRepo terms.Repo
		ctrStore counters.Store
	)
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.DB = database
		certRepo = &certificates.PGRepo{DB: database}
		termRepo = &terms.PGRepo{DB: database}
		ctrStore = counters.NewPGStore(database)
	} else {
		if !cfg.IsDevLike() {
			return nil, fmt.Errorf("DATABASE_URL is required outside development")
		}
		telemetry.Warn("bootstrap.memory_storage", map[string]any{
			"reason": "DATABASE_URL not set, using in-memory stores",
		})
		certRepo = certificates.NewMemoryRepo()
		termRepo = terms.NewMemoryRepo()
		ctrStore = counters.NewMemoryStore()
	}

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	broker, err := buildBroker(app, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	svc := &certificates.Service{
		Repo:  certRepo,
		Blobs: blobs,
		Verifier: verify.NewClient(
			broker,
			verify.RetryPolicy{
				MaxAttempts:   cfg.DispatchMaxAttempts,
				StartInterval: cfg.DispatchStartBackoff,
				StepInterval:  cfg.DispatchStepBackoff,
				MaxInterval:   cfg.DispatchMaxBackoff,
			},
			cfg.PollInterval,
			cfg.PollTimeout,
		),
		Terms:    &terms.Reconciler{Repo: termRepo},
		Counters: ctrStore,
		IconSize: image.Point{X: cfg.IconWidth, Y: cfg.IconHeight},
	}

	handler := &certificates.Handler{
		Service:        svc,
		Repo:           certRepo,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Spawn:          app.spawnPipeline,
	}

	app.Sweeper = &certificates.Sweeper{
		Repo:     certRepo,
		After:    cfg.StuckAfter,
		Interval: cfg.SweepInterval,
	}
	app.Router = server.NewEngine(cfg, handler)
	return app, nil
}

// Close releases external resources and waits for in-flight pipelines.
func (a *App) Close() {
	a.cancelBase()
	a.pipelines.Wait()

	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			telemetry.Error("bootstrap.broker_close", map[string]any{"error": err.Error()})
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			telemetry.Error("bootstrap.db_close", map[string]any{"error": err.Error()})
		}
	}
}

// spawnPipeline runs an upload pipeline detached from its HTTP request but
// bound to the application lifetime.
func (a *App) spawnPipeline(task func(ctx context.Context)) {
	a.pipelines.Add(1)
	go func() {
		defer a.pipelines.Done()
		task(a.baseCtx)
	}()
}

func buildBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.BlobStore {
	case "s3":
		store, err := s3.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("build s3 blob store: %w", err)
		}
		return store, nil
	case "local", "":
		return local.New(cfg.BlobLocalDir), nil
	default:
		return nil, fmt.Errorf("unknown blob store %q", cfg.BlobStore)
	}
}

func buildBroker(app *App, cfg config.Config) (verify.Broker, error) {
	if cfg.AMQPURL == "" {
		if !cfg.IsDevLike() {
			return nil, fmt.Errorf("AMQP_URL is required outside development")
		}
		telemetry.Warn("bootstrap.nop_broker", map[string]any{
			"reason": "AMQP_URL not set, verification will degrade to not-verified",
		})
		return verify.NopBroker{}, nil
	}
	broker, err := verify.DialAMQP(cfg.AMQPURL, cfg.VerifyQueue)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	app.broker = broker
	return broker, nil
}
