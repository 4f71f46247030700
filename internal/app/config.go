package app

import (
	server "github.com/admin/tg-bots/horoscope-bot/internal/adapters/primary/http"
	aiAdapter "github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/ai"
	"github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/ephemeris"
	kafkaAdapter "github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/kafka"
	"github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/tg-bots/horoscope-bot/internal/adapters/secondary/storage/redis"
	"github.com/admin/tg-bots/horoscope-bot/internal/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Postgres  *pg.Config           `envconfig:"POSTGRES"`
	Log       *logger.Config       `envconfig:"LOG"`
	Server    *server.Config       `envconfig:"APISERVER"`
	Redis     *redisAdapter.Config `envconfig:"REDIS"`
	Ephemeris *ephemeris.Config    `envconfig:"ASTRO_API"`
	AI        *aiAdapter.Config    `envconfig:"AI"`
	Kafka     *kafkaAdapter.Config `envconfig:"KAFKA"`

	// Вспомогательные подсистемы выключаемы: без Redis сервис работает
	// без горячего кэша, без Kafka - без событий
	RedisEnabled bool `envconfig:"REDIS_ENABLED" default:"true"`
	KafkaEnabled bool `envconfig:"KAFKA_ENABLED" default:"true"`
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
