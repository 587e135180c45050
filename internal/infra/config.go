package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - корневая структура конфигурации сервиса дашборда.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GRPCConfig - стандартный grpc.health.v1. Пустой Addr выключает сервер.
type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub). Пустой Addr выключает трансляцию.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DashboardConfig - каденции движков и лимиты вьюх
type DashboardConfig struct {
	FeedInterval   time.Duration `mapstructure:"feed_interval"`
	FeedCapacity   int           `mapstructure:"feed_capacity"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
	MaxViews       int           `mapstructure:"max_views"`

	// Лимит на мутирующие ручки (toggle/filter/interval)
	ControlRate  float64 `mapstructure:"control_rate"`
	ControlBurst int     `mapstructure:"control_burst"`
}

// BroadcastConfig настраивает буфер и надежность публикации в Redis
type BroadcastConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	HealthTTL     time.Duration `mapstructure:"health_ttl"`
	Attempts      uint          `mapstructure:"attempts"`
	CBMaxFailures uint32        `mapstructure:"cb_max_failures"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
// paths - где искать config.yaml, по умолчанию "." и "./configs".
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Позволяет перекрывать конфиг: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет - работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// maxFeedCapacity - лента не держит больше 20 событий
const maxFeedCapacity = 20

// Validate отсекает значения, с которыми движки работать не могут
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}
	if c.Dashboard.FeedInterval <= 0 {
		errs = append(errs, errors.New("dashboard.feed_interval must be positive"))
	}
	if c.Dashboard.HealthInterval <= 0 {
		errs = append(errs, errors.New("dashboard.health_interval must be positive"))
	}
	if c.Dashboard.FeedCapacity <= 0 || c.Dashboard.FeedCapacity > maxFeedCapacity {
		errs = append(errs, fmt.Errorf("dashboard.feed_capacity must be in (0,%d], got %d", maxFeedCapacity, c.Dashboard.FeedCapacity))
	}
	if c.Dashboard.MaxViews <= 0 {
		errs = append(errs, errors.New("dashboard.max_views must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("grpc.addr", ":50052")
	v.SetDefault("redis.addr", "")
	v.SetDefault("dashboard.feed_interval", 30*time.Second)
	v.SetDefault("dashboard.feed_capacity", 20)
	v.SetDefault("dashboard.health_interval", 30*time.Second)
	v.SetDefault("dashboard.max_views", 100)
	v.SetDefault("dashboard.control_rate", 5.0)
	v.SetDefault("dashboard.control_burst", 10)
	v.SetDefault("broadcast.buffer_size", 1000)
	v.SetDefault("broadcast.batch_size", 50)
	v.SetDefault("broadcast.flush_interval", 500*time.Millisecond)
	v.SetDefault("broadcast.health_ttl", 2*time.Minute)
	v.SetDefault("broadcast.attempts", 3)
	v.SetDefault("broadcast.cb_max_failures", 5)
	v.SetDefault("broadcast.cb_timeout", 30*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
