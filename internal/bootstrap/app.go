package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"career-constellation/internal/ai"
	"career-constellation/internal/app"
	"career-constellation/internal/cache"
	"career-constellation/internal/config"
	mysqlClient "career-constellation/internal/platform/mysql"
	rabbitmqClient "career-constellation/internal/platform/rabbitmq"
	redisClient "career-constellation/internal/platform/redis"
	"career-constellation/internal/repository"
	"career-constellation/internal/worker"
)

// App holds every long-lived dependency of the server. MySQL, Redis and
// MQConn are nil when the matching config section is disabled.
type App struct {
	Config           *config.Config
	MySQL            *gorm.DB
	Redis            *redis.Client
	MQConn           *amqp.Connection
	TranscriptWorker *worker.TranscriptPersistWorker

	Generator ai.Generator
	RAG       *app.RAGService
	Chat      *app.ChatService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}

	a.Generator, err = NewGenerator(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	a.RAG = NewRAGService(cfg, a.Generator)

	var (
		historyCache app.HistoryCache
		publisher    app.TranscriptPublisher
		transcripts  app.TranscriptStore
	)

	if cfg.Redis.Enabled {
		a.Redis, err = redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		historyCache = cache.NewHistoryCache(a.Redis, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)
	}

	if cfg.MySQL.Enabled {
		a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		transcripts = repository.NewTranscriptRepository(a.MySQL)
	}

	if cfg.RabbitMQ.Enabled {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.TranscriptPersistQueue)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		publisher = rabbitmqClient.NewTranscriptPublisher(a.MQConn, cfg.RabbitMQ.TranscriptPersistQueue)

		if a.MySQL != nil {
			a.TranscriptWorker = worker.NewTranscriptPersistWorker(
				a.MQConn,
				repository.NewTranscriptRepository(a.MySQL),
				cfg.RabbitMQ.TranscriptPersistQueue,
			)
			if err := a.TranscriptWorker.Start(ctx); err != nil {
				_ = a.Close()
				return nil, fmt.Errorf("start transcript worker failed: %w", err)
			}
		} else {
			log.Printf("rabbitmq enabled without mysql, transcripts are queued but not persisted")
		}
	}

	a.Chat = app.NewChatService(a.RAG, historyCache, publisher, transcripts, cfg.RAG.MaxStoredTurns)
	return a, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TranscriptWorker != nil {
		a.TranscriptWorker.Close()
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
	if err := CloseGenerator(a.Generator); err != nil {
		closeErr = err
	}
	return closeErr
}

// CloseGenerator releases the client behind g, if it holds one.
func CloseGenerator(g ai.Generator) error {
	if r, ok := g.(*ai.RetryingGenerator); ok {
		g = r.Next
	}
	if c, ok := g.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
