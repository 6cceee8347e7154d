package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/db"
	"github.com/agri4/agri-server/internal/db/drivers"
	"github.com/agri4/agri-server/internal/db/migrations"
	"github.com/agri4/agri-server/internal/db/repository"
	"github.com/agri4/agri-server/internal/metrics"
	"github.com/agri4/agri-server/internal/model"
	"github.com/agri4/agri-server/internal/services/filestorage"
	"github.com/agri4/agri-server/internal/services/fileuploader"
	"github.com/agri4/agri-server/internal/services/llm"
	"github.com/agri4/agri-server/internal/services/moderation"
	"github.com/agri4/agri-server/pkg/logger"

	"github.com/getsentry/sentry-go"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const uploadWorkers = 10

type App struct {
	db           *bun.DB
	dbDriver     drivers.Driver
	config       *config.Config
	ctx          context.Context
	cancelFunc   context.CancelFunc
	fileuploader *fileuploader.Uploader
	filestorage  filestorage.FileStorage
	sentry       bool

	Logger    *zap.Logger
	Models    *model.Registry
	LLM       *llm.Client
	Moderator moderation.Moderator

	APIKeyRepository  repository.IAPIKeyRepository
	UserRepository    repository.IUserRepository
	MarketRepository  repository.IMarketRepository
	PostRepository    repository.IPostRepository
	CommentRepository repository.ICommentRepository
}

// Option funcs used to initialize the App struct
type OptionFunc func(app *App) error

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(app *App) error {
		app.Logger = logger
		return nil
	}
}

// WithDB uses an open connection and builds the repositories on it.
func WithDB(driver drivers.Driver) OptionFunc {
	return func(app *App) error {
		app.dbDriver = driver
		app.setDB(driver.GetDB())
		return nil
	}
}

// WithDBInitialization connects using the configured driver and brings the
// schema up to date before building the repositories.
func WithDBInitialization() OptionFunc {
	return func(app *App) error {
		driver, err := db.NewConnection(app.ctx, app.config)
		if err != nil {
			return err
		}

		group, err := migrations.Migrate(app.ctx, driver.GetDB())
		if err != nil {
			driver.Close()
			return err
		}
		if group != nil && !group.IsZero() {
			app.Logger.Info("Applied database migrations", zap.String("group", group.String()))
		}

		app.dbDriver = driver
		app.setDB(driver.GetDB())
		return nil
	}
}

func (app *App) setDB(db *bun.DB) {
	app.db = db
	app.APIKeyRepository = repository.NewAPIKeyRepository(db)
	app.UserRepository = repository.NewUserRepository(db)
	app.MarketRepository = repository.NewMarketRepository(db)
	app.PostRepository = repository.NewPostRepository(db)
	app.CommentRepository = repository.NewCommentRepository(db)
}

func WithFileUploader() OptionFunc {
	return func(app *App) error {
		storage, err := filestorage.NewFileStorage(app.Config())
		if err != nil {
			return err
		}
		app.filestorage = storage
		app.fileuploader = fileuploader.NewFileUploader(storage, uploadWorkers)
		return nil
	}
}

func WithFileStorage(storage filestorage.FileStorage) OptionFunc {
	return func(app *App) error {
		app.filestorage = storage
		app.fileuploader = fileuploader.NewFileUploader(storage, uploadWorkers)
		return nil
	}
}

// WithModels creates the classifier registry. Models listed in warmup_models
// are loaded now; the rest load on their first prediction.
func WithModels() OptionFunc {
	return func(app *App) error {
		loader := &model.ONNXLoader{LibraryPath: app.config.OnnxRuntimeLib}
		app.Models = model.NewRegistry(app.config.ModelsDir, model.DefaultSpecs(), loader, app.Logger)

		if len(app.config.WarmupModels) > 0 {
			if err := app.Models.Warmup(app.config.WarmupModels...); err != nil {
				return fmt.Errorf("model warmup: %w", err)
			}
		}
		return nil
	}
}

func WithModelRegistry(registry *model.Registry) OptionFunc {
	return func(app *App) error {
		app.Models = registry
		return nil
	}
}

// WithLLM builds the chat client. A missing API key is not an error; the
// LLM routes answer 503 instead.
func WithLLM() OptionFunc {
	return func(app *App) error {
		client, err := llm.NewClient(app.config.OpenAI, llm.WithLogger(app.Logger))
		if errors.Is(err, llm.ErrNotConfigured) {
			app.Logger.Warn("OPENAI_API_KEY not set, chat, consult and tips are disabled")
			return nil
		}
		if err != nil {
			return err
		}
		app.LLM = client
		return nil
	}
}

func WithLLMClient(client *llm.Client) OptionFunc {
	return func(app *App) error {
		app.LLM = client
		return nil
	}
}

func WithModeration() OptionFunc {
	return func(app *App) error {
		moderator, err := moderation.New(app.config)
		if err != nil {
			return err
		}
		app.Moderator = moderator
		return nil
	}
}

func WithModerator(moderator moderation.Moderator) OptionFunc {
	return func(app *App) error {
		app.Moderator = moderator
		return nil
	}
}

func WithSentry() OptionFunc {
	return func(app *App) error {
		if app.config.SentryDSN == "" {
			return nil
		}

		err := sentry.Init(sentry.ClientOptions{
			Dsn:              app.config.SentryDSN,
			Environment:      app.config.Environment,
			AttachStacktrace: true,
		})
		if err != nil {
			return fmt.Errorf("failed to init sentry: %w", err)
		}
		app.sentry = true
		return nil
	}
}

func NewApp(config *config.Config, options ...OptionFunc) (*App, error) {
	logger, err := logger.InitLogger(config)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())

	metrics.Register()
	app := &App{
		ctx:        ctx,
		config:     config,
		Logger:     logger,
		cancelFunc: cancel,
		Moderator:  moderation.Noop{},
	}

	// Apply all options
	for _, opt := range options {
		if err := opt(app); err != nil {
			// Continue even if some options fail
			app.Logger.Error("failed to apply option", zap.Error(err))
		}
	}

	return app, nil
}

func (app *App) Close() {
	app.cancelFunc()

	if app.fileuploader != nil {
		app.fileuploader.Stop()
	}
	if app.Models != nil {
		if err := app.Models.Close(); err != nil {
			app.Logger.Warn("failed to close models", zap.Error(err))
		}
	}
	if app.dbDriver != nil {
		if err := app.dbDriver.Close(); err != nil {
			app.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
	if app.sentry {
		sentry.Flush(2 * time.Second)
	}
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) DB() *bun.DB {
	return app.db
}

func (app *App) Uploader() *fileuploader.Uploader {
	return app.fileuploader
}

func (app *App) FileStorage() filestorage.FileStorage {
	return app.filestorage
}

func (app *App) SentryEnabled() bool {
	return app.sentry
}
