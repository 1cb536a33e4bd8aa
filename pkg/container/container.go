package container

import (
	"context"
	"fmt"
	"time"

	"inventory-backend/internal/config"
	itemRepo "inventory-backend/internal/domains/item/repository"
	importHandler "inventory-backend/internal/domains/itemimport/handler"
	"inventory-backend/internal/domains/itemimport/model"
	importRepo "inventory-backend/internal/domains/itemimport/repository"
	importService "inventory-backend/internal/domains/itemimport/service"
	infraCache "inventory-backend/internal/infrastructure/cache"
	"inventory-backend/internal/infrastructure/database"
	"inventory-backend/internal/infrastructure/storage"
	"inventory-backend/pkg/jwt"
	"inventory-backend/pkg/logger"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application
// Pattern: Service Locator + Dependency Injection
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *infraCache.RedisClient // nil nếu Redis không kết nối được
	Storage     *storage.MinIOStorage   // nil ở CLI mode
	AsynqClient *asynq.Client           // nil ở CLI mode
	JWTManager  *jwt.Manager
	Locker      importService.ImportLocker

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	ItemRepo     itemRepo.ItemRepository
	CategoryRepo itemRepo.CategoryRepository
	JobRepo      importRepo.JobRepository

	// ========================================
	// SERVICE LAYER
	// ========================================
	ImportEngine   *importService.Engine
	ImportService  *importService.ImportService
	ImportDefaults model.Options

	// ========================================
	// HANDLER LAYER
	// ========================================
	ImportHandler *importHandler.ImportHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer build full dependency graph (API server + worker)
//
// Thứ tự initialization:
// 1. Config
// 2. Infrastructure (DB, Redis, MinIO, Asynq)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer() (*Container, error) {
	return build(true)
}

// NewCLIContainer chỉ cần DB (Redis optional): dùng cho importctl.
// Async jobs không khả dụng ở mode này.
func NewCLIContainer() (*Container, error) {
	return build(false)
}

func build(withAsync bool) (*Container, error) {
	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	log.Info().Str("env", cfg.App.Environment).Msg("🔧 Initializing DI Container...")

	// ========================================
	// STEP 2: INITIALIZE INFRASTRUCTURE
	// ========================================
	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	c.initRedis()

	if withAsync {
		if err := c.initStorage(); err != nil {
			c.Cleanup()
			return nil, err
		}
		c.AsynqClient = asynq.NewClient(cfg.RedisClientOpt())
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)
	c.initLocker()

	// ========================================
	// STEP 3-5: REPOSITORIES, SERVICES, HANDLERS
	// ========================================
	c.initRepositories()

	if err := c.initServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	c.ImportHandler = importHandler.NewImportHandler(c.ImportService)

	log.Info().Msg("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initDatabase() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if c.Config.App.AutoMigrate {
		if err := database.Migrate(ctx, db.Pool); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return nil
}

// initRedis: Redis failure không critical, lock fallback sang Postgres
func (c *Container) initRedis() {
	rc := infraCache.NewRedisClient(c.Config.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rc.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️  Redis connection failed (non-critical)")
		_ = rc.Close()
		return
	}
	c.Redis = rc
}

func (c *Container) initStorage() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := storage.NewMinIOStorage(ctx, c.Config.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init minio: %w", err)
	}
	c.Storage = s
	return nil
}

// initLocker: Redis lock nếu có Redis, không thì Postgres advisory lock
func (c *Container) initLocker() {
	if c.Redis != nil {
		c.Locker = c.Redis.Locker()
		log.Info().Msg("[LOCK] Using Redis import lock")
		return
	}
	c.Locker = database.NewAdvisoryLocker(c.DB.Pool)
	log.Info().Msg("[LOCK] Using Postgres advisory import lock")
}

func (c *Container) initRepositories() {
	c.ItemRepo = itemRepo.NewItemRepository()
	c.CategoryRepo = itemRepo.NewCategoryRepository()
	c.JobRepo = importRepo.NewJobRepository(c.DB.Pool)
}

func (c *Container) initServices() error {
	var extra map[string][]string
	if path := c.Config.Import.AliasesFile; path != "" {
		loaded, err := importService.LoadAliasFile(path)
		if err != nil {
			return err
		}
		extra = loaded
	}

	aliases, err := importService.NewAliasTable(extra)
	if err != nil {
		return err
	}

	c.ImportEngine = importService.NewEngine(c.DB.Pool, c.ItemRepo, c.CategoryRepo, aliases)

	ic := c.Config.Import
	svcCfg := importService.ServiceConfig{
		Defaults: model.Options{
			BatchSize:         ic.BatchSize,
			MaxErrorsRecorded: ic.MaxErrorsRecorded,
			RequiredFields:    ic.RequiredFields,
			StrictNumbers:     ic.StrictNumbers,
		},
		MaxFileSize: ic.MaxFileSizeBytes(),
		LockTTL:     ic.LockTTL,
		RunTimeout:  ic.RunTimeout,
	}
	if err := svcCfg.Defaults.Validate(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidOptions, err)
	}

	var (
		files importService.FileStore
		queue importService.TaskEnqueuer
	)
	if c.Storage != nil {
		files = c.Storage
	}
	if c.AsynqClient != nil {
		queue = c.AsynqClient
	}

	c.ImportDefaults = svcCfg.Defaults
	c.ImportService = importService.NewImportService(c.ImportEngine, c.JobRepo, files, queue, c.Locker, svcCfg)
	return nil
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to close Redis")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Info().Msg("✅ Container cleanup completed")
}
