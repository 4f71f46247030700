package app

import (
	"fmt"
	"net/http"

	server "github.com/admin/tg-bots/horoscope-bot/internal/adapters/primary/http"
	adminController "github.com/admin/tg-bots/horoscope-bot/internal/adapters/primary/http/controllers/admin"
	healthcheckController "github.com/admin/tg-bots/horoscope-bot/internal/adapters/primary/http/controllers/healthcheck"
	"github.com/admin/tg-bots/horoscope-bot/internal/adapters/primary/http/middlewares"
	aiAdapter "github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/ai"
	"github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/ephemeris"
	kafkaAdapter "github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/kafka"
	"github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/storage/redis"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/cache"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/service"
	adminRepo "github.com/admin/tg-bots/horoscope-bot/internal/repository/admin"
	chartRepo "github.com/admin/tg-bots/horoscope-bot/internal/repository/chart"
	compatibilityRepo "github.com/admin/tg-bots/horoscope-bot/internal/repository/compatibility"
	predictionRepo "github.com/admin/tg-bots/horoscope-bot/internal/repository/prediction"
	subscriptionRepo "github.com/admin/tg-bots/horoscope-bot/internal/repository/subscription"
	userRepo "github.com/admin/tg-bots/horoscope-bot/internal/repository/user"
	oracleUsecase "github.com/admin/tg-bots/horoscope-bot/internal/usecases/oracle"
	"github.com/gin-gonic/gin"
)

// Dependencies собранные зависимости приложения
type Dependencies struct {
	DB         persistence.Persistence
	Cache      cache.Cache            // nil если Redis выключен
	Events     service.IEventProducer // nil если Kafka выключена
	Service    *oracleUsecase.Service
	HTTPServer *http.Server
}

func (a *App) initDependencies() (*Dependencies, error) {
	db, err := a.Cfg.Postgres.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.Log.Info("postgres connected successfully")

	if err := pg.RunMigrations(db, a.Log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	persistenceLayer := pg.NewDB(db)

	var cacheClient cache.Cache
	if a.Cfg.RedisEnabled {
		rdb, err := a.Cfg.Redis.NewConnection()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cacheClient = redisAdapter.NewClient(rdb)
		a.Log.Info("redis connected successfully")
	} else {
		a.Log.Info("redis disabled, running without hot cache")
	}

	var events service.IEventProducer
	if a.Cfg.KafkaEnabled {
		events, err = kafkaAdapter.NewProducer(a.Cfg.Kafka, a.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
	} else {
		a.Log.Info("kafka disabled, running without domain events")
	}

	ephemerisClient := ephemeris.NewClient(a.Cfg.Ephemeris, a.Log)
	aiClient := aiAdapter.NewClient(a.Cfg.AI, a.Log)

	oracleService := oracleUsecase.New(
		persistenceLayer,
		userRepo.New(a.Log),
		chartRepo.New(a.Log),
		predictionRepo.New(a.Log),
		subscriptionRepo.New(a.Log),
		compatibilityRepo.New(a.Log),
		adminRepo.New(a.Log),
		cacheClient,
		ephemerisClient,
		aiClient,
		events,
		a.Log,
	)

	mws := []gin.HandlerFunc{middlewares.RecoveryLogger(a.Log)}
	if a.Cfg.Server.EnableLoggingMiddleware {
		mws = append(mws, middlewares.RequestLogger(a.Log))
	}

	httpServer := server.NewHTTPServer(
		a.Cfg.Server,
		a.Log,
		mws,
		healthcheckController.New(persistenceLayer, a.Log),
		adminController.New(oracleService, a.Log),
	)

	return &Dependencies{
		DB:         persistenceLayer,
		Cache:      cacheClient,
		Events:     events,
		Service:    oracleService,
		HTTPServer: httpServer,
	}, nil
}
