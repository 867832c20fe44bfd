package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agamariel/cafetrack/internal/auth"
	"github.com/agamariel/cafetrack/internal/config"
	"github.com/agamariel/cafetrack/internal/events"
	"github.com/agamariel/cafetrack/internal/handlers"
	"github.com/agamariel/cafetrack/internal/idempotency"
	"github.com/agamariel/cafetrack/internal/migrations"
	"github.com/agamariel/cafetrack/internal/services"
	"github.com/agamariel/cafetrack/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// App структура для управления приложением и его зависимостями.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	echo   *echo.Echo

	dbPool     *pgxpool.Pool
	sqlDB      *sql.DB
	redis      *redis.Client
	publisher  events.Publisher
	worker     *services.SyncWorker
	workerCtx  context.Context
	stopWorker context.CancelFunc

	orderStorage    storage.OrderStorage
	operatorStorage storage.OperatorStorage
	orderService    *services.OrderServiceImpl
	idempotency     *idempotency.Store

	// Handlers
	operatorHandler *handlers.OperatorHandler
	orderHandler    *handlers.OrderHandler
	statsHandler    *handlers.StatsHandler
}

// NewApp создаёт и инициализирует новое приложение.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initBroker(); err != nil {
		return nil, fmt.Errorf("failed to initialize broker: %w", err)
	}

	if err := app.initDependencies(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app.initServer()

	return app, nil
}

// initDatabase выбирает хранилище по DATABASE_URI и выполняет миграции.
func (app *App) initDatabase(ctx context.Context) error {
	uri := app.cfg.DatabaseURI
	if uri == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}

	if path, ok := sqlitePath(uri); ok {
		db, err := storage.OpenSQLite(ctx, path)
		if err != nil {
			return err
		}
		if err := migrations.Run(db, migrations.DialectSQLite); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.sqlDB = db
		app.orderStorage = storage.NewSQLiteOrderStorage(db)
		app.operatorStorage = storage.NewSQLiteOperatorStorage(db)
		app.logger.Info("using sqlite storage", slog.String("path", path))
		return nil
	}

	dbPool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	app.logger.Info("running database migrations")
	if err := migrations.Run(stdlib.OpenDBFromPool(dbPool), migrations.DialectPostgres); err != nil {
		dbPool.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app.dbPool = dbPool
	app.orderStorage = storage.NewPostgresOrderStorage(dbPool)
	app.operatorStorage = storage.NewPostgresOperatorStorage(dbPool)
	app.logger.Info("successfully connected to database")
	return nil
}

// sqlitePath распознаёт sqlite://path и пути к файлам *.db.
func sqlitePath(uri string) (string, bool) {
	if path, ok := strings.CutPrefix(uri, "sqlite://"); ok {
		return path, true
	}
	if strings.Contains(uri, "://") {
		return "", false
	}
	return uri, strings.HasSuffix(uri, ".db")
}

// initBroker подключает публикацию событий и Redis для ключей идемпотентности.
func (app *App) initBroker() error {
	publisher, err := events.New(app.cfg.BrokerURL)
	if err != nil {
		return err
	}
	app.publisher = publisher
	if app.cfg.BrokerURL == "" {
		app.logger.Warn("BROKER_URL is not configured, order events are not published")
	}

	if app.cfg.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		app.idempotency = idempotency.NewStore(app.redis, idempotency.DefaultTTL)
		app.logger.Info("idempotency keys enabled", slog.String("redis", app.cfg.RedisAddr))
	}
	return nil
}

// initDependencies инициализирует воркер синхронизации, сервисы и обработчики.
func (app *App) initDependencies(ctx context.Context) error {
	app.worker = services.NewSyncWorker(app.orderStorage, app.publisher, app.cfg.SyncBuffer, app.logger)
	app.workerCtx, app.stopWorker = context.WithCancel(context.WithoutCancel(ctx))

	app.orderService = services.NewOrderService(
		storage.NewOrderStore(),
		app.orderStorage,
		app.worker,
		app.cfg.DefaultLocation,
		app.logger,
	)
	if err := app.orderService.Load(ctx); err != nil {
		return err
	}

	tz, err := app.cfg.Location()
	if err != nil {
		return err
	}

	operatorService := services.NewOperatorService(app.operatorStorage, app.cfg.JWTSecret, app.cfg.TokenExpiration, app.cfg.DefaultLocation)

	app.operatorHandler = handlers.NewOperatorHandler(operatorService, app.cfg.TokenExpiration)
	app.orderHandler = handlers.NewOrderHandler(app.orderService, app.cfg.MaxActive)
	app.statsHandler = handlers.NewStatsHandler(app.orderService, tz)

	return nil
}

// initServer инициализирует HTTP-сервер и настраивает маршруты.
func (app *App) initServer() {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, idempotency.HeaderKey},
	}))

	// Публичные маршруты (не требуют аутентификации)
	e.POST("/api/operators/register", app.operatorHandler.Register)
	e.POST("/api/operators/login", app.operatorHandler.Login)

	// Защищённые маршруты (требуют аутентификации)
	protected := e.Group("/api")
	protected.Use(auth.Middleware(app.cfg.JWTSecret))

	var create []echo.MiddlewareFunc
	if app.idempotency != nil {
		create = append(create, idempotency.Middleware(app.idempotency, auth.Location, app.logger))
	}
	app.orderHandler.Register(protected, create...)
	protected.GET("/stats", app.statsHandler.Get)

	app.echo = e
}

// Start запускает воркер синхронизации и HTTP-сервер. Воркер останавливает Shutdown,
// когда сервер уже не принимает запросы.
func (app *App) Start(ctx context.Context) error {
	app.worker.Start(app.workerCtx)
	app.logger.Info("sync worker started", slog.Int("buffer", app.cfg.SyncBuffer))

	app.logger.Info("starting server", slog.String("address", app.cfg.RunAddress))
	if err := app.echo.Start(app.cfg.RunAddress); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// Shutdown останавливает сервер, дожидается записи очереди синхронизации
// и закрывает соединения.
func (app *App) Shutdown(ctx context.Context) error {
	app.logger.Info("shutting down server")

	var errs []error
	if err := app.echo.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown server: %w", err))
	}

	// запросы дообработаны, теперь воркер дописывает очередь и останавливается
	app.stopWorker()

	select {
	case <-app.worker.Done():
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("sync worker did not finish: %w", ctx.Err()))
	}

	if err := app.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if app.dbPool != nil {
		app.dbPool.Close()
	}
	if app.sqlDB != nil {
		if err := app.sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close sqlite: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	app.logger.Info("server gracefully stopped")
	return nil
}
