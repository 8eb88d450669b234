// Package config загружает конфигурацию сервиса из TOML файла и переменных окружения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// ErrInvalidConfig возвращается, когда значения конфигурации несовместимы
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Redis        RedisConfig        `toml:"redis"`
	RabbitMQ     RabbitMQConfig     `toml:"rabbitmq"`
	Payment      PaymentConfig      `toml:"payment"`
	Catalog      CatalogConfig      `toml:"catalog"`
	Points       PointsConfig       `toml:"points"`
	Reservations ReservationsConfig `toml:"reservations"`
	Workers      WorkersConfig      `toml:"workers"`
}

// ServerConfig параметры HTTP сервера, таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig параметры хранилища
type DatabaseConfig struct {
	Storage         string `toml:"storage"` // postgres | memory
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	AutoMigrate     bool   `toml:"auto_migrate"`
}

// DSN строка подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig параметры логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig параметры Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RedisConfig кэш балансов
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// RabbitMQConfig шина уведомлений
type RabbitMQConfig struct {
	Enabled    bool   `toml:"enabled"`
	URL        string `toml:"url"`
	Queue      string `toml:"queue"`
	BufferSize int    `toml:"buffer_size"`
}

// PaymentConfig платёжный сервис
type PaymentConfig struct {
	URL         string `toml:"url"`
	Timeout     int    `toml:"timeout"` // секунды
	MaxRetries  uint64 `toml:"max_retries"`
	BaseDelayMs int    `toml:"base_delay_ms"`
	MaxDelayMs  int    `toml:"max_delay_ms"`
}

// CatalogConfig каталог магазинов и услуг
type CatalogConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// PointsConfig правила программы лояльности
type PointsConfig struct {
	PendingWindowDays int     `toml:"pending_window_days"`
	ExpiryDays        int     `toml:"expiry_days"` // 0 - бессрочно
	EarnRatePercent   float64 `toml:"earn_rate_percent"`
	AdminIDs          []int64 `toml:"admin_ids"`
}

// PendingWindow задержка доступности начисления
func (p PointsConfig) PendingWindow() time.Duration {
	return time.Duration(p.PendingWindowDays) * 24 * time.Hour
}

// Expiry срок жизни начисления
func (p PointsConfig) Expiry() time.Duration {
	return time.Duration(p.ExpiryDays) * 24 * time.Hour
}

// ReservationsConfig правила бронирования
type ReservationsConfig struct {
	TimeZone               string `toml:"time_zone"`
	DefaultDurationMinutes int    `toml:"default_duration_minutes"`
	FullRefundNoticeHours  int    `toml:"full_refund_notice_hours"`
	SlotStepMinutes        int    `toml:"slot_step_minutes"`
	AdvanceBookingDays     int    `toml:"advance_booking_days"`
	MaxRefundAttempts      int    `toml:"max_refund_attempts"`
}

// WorkersConfig интервалы фоновых задач в секундах, 0 отключает задачу
type WorkersConfig struct {
	ExpirySweepInterval int `toml:"expiry_sweep_interval"`
	ReconcileInterval   int `toml:"reconcile_interval"`
	RefundRetryInterval int `toml:"refund_retry_interval"`
	SweepBatchSize      int `toml:"sweep_batch_size"`
	RefundRetryLimit    int `toml:"refund_retry_limit"`
}

// Load читает конфигурацию из файла. Перед этим загружается .env, если он есть,
// и переменные окружения переопределяют значения из файла.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Storage:         StoragePostgres,
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{Path: "/metrics", ServiceName: "reservation_service"},
		Redis:   RedisConfig{TTLSeconds: 300},
		RabbitMQ: RabbitMQConfig{
			Queue:      "reservation.events",
			BufferSize: 1024,
		},
		Payment: PaymentConfig{Timeout: 5, MaxRetries: 3, BaseDelayMs: 200, MaxDelayMs: 5000},
		Catalog: CatalogConfig{Timeout: 5},
		Points: PointsConfig{
			PendingWindowDays: 7,
			ExpiryDays:        365,
			EarnRatePercent:   2.5,
		},
		Reservations: ReservationsConfig{
			TimeZone:               "UTC",
			DefaultDurationMinutes: 60,
			FullRefundNoticeHours:  24,
			SlotStepMinutes:        30,
			AdvanceBookingDays:     90,
			MaxRefundAttempts:      10,
		},
		Workers: WorkersConfig{
			ExpirySweepInterval: 3600,
			ReconcileInterval:   21600,
			RefundRetryInterval: 300,
			SweepBatchSize:      500,
			RefundRetryLimit:    100,
		},
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: DB_PORT=%q is not a number", ErrInvalidConfig, v)
		}
		c.Database.Port = port
	}
	if v := os.Getenv("STORAGE"); v != "" {
		c.Database.Storage = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("PAYMENT_URL"); v != "" {
		c.Payment.URL = v
	}
	if v := os.Getenv("CATALOG_URL"); v != "" {
		c.Catalog.URL = v
	}
	return nil
}

// Validate отклоняет невозможные значения
func (c *Config) Validate() error {
	switch {
	case c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535:
		return fmt.Errorf("%w: server.http_port=%d", ErrInvalidConfig, c.Server.HTTPPort)
	case c.Database.Storage != StoragePostgres && c.Database.Storage != StorageMemory:
		return fmt.Errorf("%w: database.storage must be %q or %q", ErrInvalidConfig, StoragePostgres, StorageMemory)
	case c.Database.Storage == StoragePostgres && c.Database.Host == "":
		return fmt.Errorf("%w: database.host is required for postgres storage", ErrInvalidConfig)
	case c.Redis.Enabled && c.Redis.Addr == "":
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	case c.RabbitMQ.Enabled && c.RabbitMQ.URL == "":
		return fmt.Errorf("%w: rabbitmq.url is required when rabbitmq is enabled", ErrInvalidConfig)
	case c.Payment.URL == "":
		return fmt.Errorf("%w: payment.url is required", ErrInvalidConfig)
	case c.Catalog.URL == "":
		return fmt.Errorf("%w: catalog.url is required", ErrInvalidConfig)
	case c.Points.PendingWindowDays < 0 || c.Points.ExpiryDays < 0:
		return fmt.Errorf("%w: points windows must not be negative", ErrInvalidConfig)
	case c.Points.ExpiryDays > 0 && c.Points.ExpiryDays <= c.Points.PendingWindowDays:
		return fmt.Errorf("%w: points.expiry_days must exceed pending_window_days", ErrInvalidConfig)
	case c.Points.EarnRatePercent < 0 || c.Points.EarnRatePercent > 100:
		return fmt.Errorf("%w: points.earn_rate_percent=%v", ErrInvalidConfig, c.Points.EarnRatePercent)
	case c.Reservations.DefaultDurationMinutes <= 0:
		return fmt.Errorf("%w: reservations.default_duration_minutes must be positive", ErrInvalidConfig)
	case c.Reservations.FullRefundNoticeHours < 0:
		return fmt.Errorf("%w: reservations.full_refund_notice_hours must not be negative", ErrInvalidConfig)
	case c.Reservations.SlotStepMinutes <= 0:
		return fmt.Errorf("%w: reservations.slot_step_minutes must be positive", ErrInvalidConfig)
	case c.Workers.ExpirySweepInterval < 0 || c.Workers.ReconcileInterval < 0 || c.Workers.RefundRetryInterval < 0:
		return fmt.Errorf("%w: worker intervals must not be negative", ErrInvalidConfig)
	}

	if _, err := time.LoadLocation(c.Reservations.TimeZone); err != nil {
		return fmt.Errorf("%w: reservations.time_zone=%q: %v", ErrInvalidConfig, c.Reservations.TimeZone, err)
	}

	return nil
}
