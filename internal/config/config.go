package config

import (
	"fmt"
	"log"
	"sync"
	"time"
	"vidgate/entity"
	"vidgate/lib/validate"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type TelegramConfig struct {
	ApiKey   string           `yaml:"api_key" env:"TELEGRAM_TOKEN" env-default:"" validate:"required"`
	AdminId  int64            `yaml:"admin_id" env:"ADMIN_ID" env-default:"0"`
	Channels []entity.Channel `yaml:"channels" validate:"min=1,dive"`
}

type DownloadsConfig struct {
	Dir             string `yaml:"dir" env-default:"downloads"`
	MaxConcurrent   int    `yaml:"max_concurrent" env-default:"3" validate:"min=1"`
	DailyLimit      int    `yaml:"daily_limit" env-default:"10" validate:"min=1"`
	MaxFileSizeMb   int64  `yaml:"max_file_size_mb" env-default:"50" validate:"min=1"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec" env-default:"300" validate:"min=1"`
	TokenTtlMin     int    `yaml:"token_ttl_min" env-default:"30" validate:"min=1"`
}

type SubscriptionConfig struct {
	CacheTtlSec int `yaml:"cache_ttl_sec" env-default:"300" validate:"min=1"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"vidgate"`
}

type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Downloads    DownloadsConfig    `yaml:"downloads"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Mongo        MongoConfig        `yaml:"mongo"`
	Listen       Listen             `yaml:"listen"`
	OperatorKey  string             `yaml:"operator_key" env:"OPERATOR_KEY" env-default:""`
	Env          string             `yaml:"env" env-default:"local"`
}

func (c *Config) MaxFileSizeBytes() int64 {
	return c.Downloads.MaxFileSizeMb * 1024 * 1024
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Downloads.FetchTimeoutSec) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Subscription.CacheTtlSec) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Downloads.TokenTtlMin) * time.Minute
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = validate.Struct(instance); err != nil {
			instance = nil
			log.Fatal(fmt.Errorf("config: %s", err))
		}
	})
	return instance
}
