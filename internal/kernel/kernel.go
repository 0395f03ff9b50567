// Package kernel is the composition root: it opens the infrastructure,
// builds the register and wires the background machinery around it.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/apotek/app/cart"
	"github.com/shashiranjanraj/apotek/app/history"
	"github.com/shashiranjanraj/apotek/app/jobs"
	"github.com/shashiranjanraj/apotek/app/listeners"
	"github.com/shashiranjanraj/apotek/app/outbox"
	"github.com/shashiranjanraj/apotek/app/pricing"
	"github.com/shashiranjanraj/apotek/app/receipt"
	"github.com/shashiranjanraj/apotek/app/repositories"
	"github.com/shashiranjanraj/apotek/app/services"
	"github.com/shashiranjanraj/apotek/app/settlement"
	"github.com/shashiranjanraj/apotek/config"
	"github.com/shashiranjanraj/apotek/pkg/cache"
	"github.com/shashiranjanraj/apotek/pkg/database"
	"github.com/shashiranjanraj/apotek/pkg/event"
	grpcserver "github.com/shashiranjanraj/apotek/pkg/grpc"
	"github.com/shashiranjanraj/apotek/pkg/kafka"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/middleware"
	"github.com/shashiranjanraj/apotek/pkg/money"
	"github.com/shashiranjanraj/apotek/pkg/queue"
	"github.com/shashiranjanraj/apotek/pkg/schedule"
	"github.com/shashiranjanraj/apotek/pkg/storage"
	"github.com/shashiranjanraj/apotek/pkg/workerpool"
	"gorm.io/gorm"
)

const keyPrefix = "apotek:"

// Kernel holds every long-lived component of a running process.
type Kernel struct {
	DB        *gorm.DB
	Cache     *cache.Store
	Events    *event.Bus
	Queue     *queue.Manager
	Disk      storage.Disk
	Register  *services.Register
	Auth      *services.AuthService
	Receipts  *receipt.Formatter
	Scheduler *schedule.Scheduler
	GRPC      *grpcserver.Server
	Limiter   *middleware.Limiter

	closers []func() error
}

// Boot loads config and wires the process. On error everything opened so
// far is closed again.
func Boot(ctx context.Context) (k *Kernel, err error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("kernel: load config: %w", err)
	}

	k = &Kernel{}
	defer func() {
		if err != nil {
			k.Close()
			k = nil
		}
	}()

	db, err := database.Connect()
	if err != nil {
		return k, err
	}
	k.DB = db
	k.onClose(func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	rdb, err := k.connectRedis(ctx)
	if err != nil {
		return k, err
	}
	var cmd redis.Cmdable
	if rdb != nil {
		cmd = rdb
	}
	k.Cache = cache.New(cmd, keyPrefix)

	disk, err := storage.Open(ctx)
	if err != nil {
		return k, err
	}
	k.Disk = disk

	loc := config.Location()
	calc := pricing.NewCalculator(pricing.PolicyFromConfig())
	k.Receipts = receipt.NewFormatter(money.Lookup(config.CurrencyCode(), config.CurrencyMinorUnits()), loc, calc.Policy())

	catalogRepo := repositories.NewCatalogRepository(db, k.Cache, config.CatalogCacheTTL())
	outboxRepo := repositories.NewOutboxRepository(db, config.KafkaTopic())
	txRepo := repositories.NewTransactionRepository(db, outboxRepo, catalogRepo)

	pool := workerpool.New(4, workerpool.WithPanicHandler(func(rec any) {
		logger.Error("event listener panicked", "panic", rec)
	}))
	k.onClose(func() error { pool.Shutdown(); return nil })
	k.Events = event.NewBus(pool)

	k.Register = services.NewRegister(
		cart.NewRegistry(),
		catalogRepo,
		calc,
		settlement.NewCoordinator(txRepo, calc, k.Events),
		history.NewQuery(txRepo, loc),
		k.Receipts,
	)
	k.Auth = services.NewAuthService(repositories.NewUserRepository(db))

	driver, err := queueDriver(rdb)
	if err != nil {
		return k, err
	}
	k.Queue = queue.New(driver,
		queue.WithFailedStore(queue.NewGormFailedStore(db)),
		queue.WithRetry(3, 2*time.Second),
	)
	k.Queue.Register(jobs.NewArchiveReceipt(txRepo, k.Receipts, disk, loc))
	listeners.Register(k.Events, k.Queue)

	k.Limiter = middleware.NewLimiter(config.RateLimitPerMinute(), time.Minute)
	k.Scheduler = schedule.New()
	k.Scheduler.Cron("*/5 * * * *").Name("ratelimit:sweep").Run(func(context.Context) error {
		k.Limiter.Sweep()
		return nil
	})

	if err := k.scheduleOutbox(outboxRepo); err != nil {
		return k, err
	}

	k.GRPC = grpcserver.New()
	return k, nil
}

// connectRedis dials Redis when the cache or the queue is configured to
// use it. The cache alone degrades to direct database reads.
func (k *Kernel) connectRedis(ctx context.Context) (*redis.Client, error) {
	if config.Get("CACHE_DRIVER", "redis") != "redis" && config.QueueDriver() != "redis" {
		return nil, nil
	}

	rdb, err := cache.Connect(ctx)
	if err != nil {
		if config.QueueDriver() == "redis" {
			return nil, err
		}
		logger.Warn("redis unavailable, catalog cache disabled", "error", err)
		return nil, nil
	}
	k.onClose(rdb.Close)
	return rdb, nil
}

func queueDriver(rdb *redis.Client) (queue.Driver, error) {
	switch d := config.QueueDriver(); d {
	case "memory", "sync", "":
		return queue.NewMemoryDriver(1024), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("kernel: redis queue needs REDIS_ADDR")
		}
		return queue.NewRedisDriver(rdb, keyPrefix), nil
	default:
		return nil, fmt.Errorf("kernel: unknown QUEUE_DRIVER %q", d)
	}
}

// scheduleOutbox relays sale events to Kafka. Without brokers the records
// stay pending until a relay with brokers runs.
func (k *Kernel) scheduleOutbox(source outbox.Source) error {
	client := kafka.NewClient(config.KafkaBrokers())
	if !client.Enabled() {
		logger.Info("kafka disabled, outbox relay not scheduled")
		return nil
	}

	pub, err := kafka.NewPublisher(client)
	if err != nil {
		return err
	}
	k.onClose(pub.Close)

	relay := outbox.NewRelay(source, pub, 100)
	k.Scheduler.Every(config.OutboxInterval()).Name("outbox:relay").WithoutOverlapping().Run(relay.Tick)
	return nil
}

// Ready reports whether the database answers.
func (k *Kernel) Ready(ctx context.Context) error {
	sqlDB, err := k.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Handler builds the HTTP API.
func (k *Kernel) Handler() (http.Handler, error) {
	r, err := NewRouter(k.Register, k.Auth, k.Limiter)
	if err != nil {
		return nil, err
	}
	return r.Handler(), nil
}

func (k *Kernel) onClose(fn func() error) {
	k.closers = append(k.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (k *Kernel) Close() {
	for i := len(k.closers) - 1; i >= 0; i-- {
		if err := k.closers[i](); err != nil {
			logger.Warn("kernel: close failed", "error", err)
		}
	}
	k.closers = nil
}
