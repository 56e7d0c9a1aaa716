package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"unidoc-hub/internal/ai"
	"unidoc-hub/internal/config"
	"unidoc-hub/internal/model"
	"unidoc-hub/internal/platform/gcs"
	mysqlClient "unidoc-hub/internal/platform/mysql"
	rabbitmqClient "unidoc-hub/internal/platform/rabbitmq"
	redisClient "unidoc-hub/internal/platform/redis"
	"unidoc-hub/internal/repository"
	"unidoc-hub/internal/worker"
)

type App struct {
	Config             *config.Config
	MySQL              *gorm.DB
	Redis              *redis.Client
	MQConn             *amqp.Connection
	Storage            *gcs.Store
	Generator          ai.Generator
	MessageWorker      *worker.MessagePersistWorker
	NotificationWorker *worker.NotificationWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.App.Env == "dev")
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB
	if err := mysqlDB.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	if a.Redis, err = redisClient.New(ctx, cfg.Redis); err != nil {
		return err
	}

	if a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MessagePersistQueue, cfg.RabbitMQ.NotificationQueue); err != nil {
		return err
	}

	if a.Storage, err = gcs.New(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile, cfg.Storage.MaxDownloadSizeBytes); err != nil {
		return err
	}

	if a.Generator, err = newGenerator(ctx, cfg); err != nil {
		return err
	}

	conversationRepo := repository.NewConversationRepository(mysqlDB)
	a.MessageWorker = worker.NewMessagePersistWorker(a.MQConn, conversationRepo, cfg.RabbitMQ.MessagePersistQueue)
	if err := a.MessageWorker.Start(ctx); err != nil {
		return fmt.Errorf("start message worker failed: %w", err)
	}

	notificationRepo := repository.NewNotificationRepository(mysqlDB)
	a.NotificationWorker = worker.NewNotificationWorker(a.MQConn, notificationRepo, cfg.RabbitMQ.NotificationQueue)
	if err := a.NotificationWorker.Start(ctx); err != nil {
		return fmt.Errorf("start notification worker failed: %w", err)
	}
	return nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (ai.Generator, error) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "vertex":
		slog.Info("using vertex ai generator", "project", cfg.Vertex.ProjectID, "model", cfg.Vertex.Model)
		gen, err := ai.NewVertexGenerator(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Region, cfg.Vertex.Model, cfg.Storage.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case "", "openai":
		if cfg.LLM.APIKey == "" {
			slog.Warn("llm api key is empty; assistant replies will use the fallback path")
		}
		return ai.NewOpenAICompatibleClient(ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.NotificationWorker != nil {
		a.NotificationWorker.Close()
	}
	if c, ok := a.Generator.(io.Closer); ok {
		if err := c.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
