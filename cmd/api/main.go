package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	"github.com/bizadmin/record-import/internal/application/upsert"
	"github.com/bizadmin/record-import/internal/bootstrap"
	"github.com/bizadmin/record-import/internal/config"
	"github.com/bizadmin/record-import/internal/domain/schema"
	"github.com/bizadmin/record-import/internal/infrastructure/db/models"
	infrafile "github.com/bizadmin/record-import/internal/infrastructure/file"
	"github.com/bizadmin/record-import/internal/infrastructure/lock"
	"github.com/bizadmin/record-import/internal/infrastructure/logging"
	"github.com/bizadmin/record-import/internal/infrastructure/queue"
	"github.com/bizadmin/record-import/internal/infrastructure/repository"
	"github.com/bizadmin/record-import/internal/infrastructure/spreadsheet"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, shutdownLogger, err := logging.New(ctx, logging.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Level:        cfg.Telemetry.LogLevel,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownLogger(flushCtx); err != nil {
		log.Printf("failed to flush logs: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create pgx pool: %w", err)
	}
	defer pool.Close()

	storage, err := newFileStorage(ctx, cfg)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer conn.Close()

	publishChannel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open publish channel: %w", err)
	}
	if err := queue.DeclareTopology(publishChannel); err != nil {
		return err
	}

	registry := schema.DefaultRegistry()
	reader := spreadsheet.NewExcelReader()
	importJobRepo := repository.NewImportJobRepository(db)

	worker := app.NewImportWorker(
		importJobRepo,
		storage,
		reader,
		registry,
		upsert.NewEngine(repository.NewEntityRecordRepository(pool), logger),
		lock.NewRedisJobLocker(redisClient),
		logger,
		app.ImportWorkerConfig{
			CheckpointEvery: cfg.Import.CheckpointEvery,
			LockTTL:         cfg.Import.LockTTL,
		},
	)

	var consumers sync.WaitGroup
	for i := 1; i <= cfg.Import.Workers; i++ {
		channel, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open consumer channel: %w", err)
		}
		consumer := queue.NewConsumer(channel, worker.ProcessJob, logger, fmt.Sprintf("import-worker-%d", i),
			queue.WithFailHandler(worker.FailJob),
			queue.WithLockedRetryDelay(cfg.Import.LockTTL),
		)

		consumers.Add(1)
		go func() {
			defer consumers.Done()
			if err := consumer.Run(ctx); err != nil {
				logger.Error("import consumer stopped", "error", err)
			}
		}()
	}

	server := bootstrap.NewHTTPServer(bootstrap.ServerDeps{
		DB:             db,
		Storage:        storage,
		Reader:         reader,
		Queue:          queue.NewPublisher(publishChannel),
		Registry:       registry,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		StartImport: app.StartImportConfig{
			MaxAttempts: cfg.Import.MaxAttempts,
			Backoff:     cfg.Import.Backoff,
		},
		Logger: logger,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	consumers.Wait()
	return nil
}

func newFileStorage(ctx context.Context, cfg *config.Config) (app.FileStorage, error) {
	if cfg.Storage.Backend == config.StorageLocal {
		return infrafile.NewLocalStore(cfg.Storage.BaseDir), nil
	}

	store, err := infrafile.NewMinIOStore(ctx, infrafile.MinIOConfig{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect minio: %w", err)
	}
	return store, nil
}
