package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App             AppConfig
	Server          ServerConfig
	EventDatabase   DatabaseConfig // Seat inventory ledger store
	BookingDatabase DatabaseConfig // Booking state machine store
	PaymentDatabase DatabaseConfig // Payment & refund ledger store
	Redis           RedisConfig
	Kafka           KafkaConfig
	Gateway         GatewayConfig
	Saga            SagaConfig
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	LogLevel    string
	// Storage selects the persistence backend: "memory" (single process,
	// dev and tests) or "postgres"
	Storage string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka connection settings for the notification publisher
type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	ClientID          string
	NotificationTopic string
}

// GatewayConfig holds payment gateway settings
type GatewayConfig struct {
	// Type selects the gateway implementation ("mock" is the only one wired)
	Type string
	// ChargeTimeout bounds a single gateway call; timeout is treated as a
	// failed attempt with unknown outcome, never as success
	ChargeTimeout time.Duration
	// MockSuccessRate is the mock gateway's charge success probability
	MockSuccessRate float64
	// MockDelay is the mock gateway's simulated processing delay
	MockDelay time.Duration
}

// SagaConfig holds orchestrator and recovery sweep settings
type SagaConfig struct {
	// SweepInterval is how often the recovery sweeper scans the saga log
	SweepInterval time.Duration
	// StaleAfter is how long a saga may hold reserved seats without being
	// finalized before the sweeper re-issues seat compensation
	StaleAfter time.Duration
	// CompensationRetries caps seat-release retry attempts before the
	// failure is surfaced for manual intervention
	CompensationRetries int
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional, environment variables alone are fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// fall through, env vars may still be set
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := bindConfig(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "sports-ticketing")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_LOG_LEVEL", "info")
	v.SetDefault("APP_STORAGE", "memory")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Each service owns its database - no shared schema
	for _, svc := range []string{"EVENT", "BOOKING", "PAYMENT"} {
		v.SetDefault(svc+"_DATABASE_HOST", "localhost")
		v.SetDefault(svc+"_DATABASE_PORT", 5432)
		v.SetDefault(svc+"_DATABASE_USER", "postgres")
		v.SetDefault(svc+"_DATABASE_PASSWORD", "postgres")
		v.SetDefault(svc+"_DATABASE_DBNAME", strings.ToLower(svc)+"_db")
		v.SetDefault(svc+"_DATABASE_SSLMODE", "disable")
		v.SetDefault(svc+"_DATABASE_MAX_CONNS", 25)
		v.SetDefault(svc+"_DATABASE_MIN_CONNS", 5)
		v.SetDefault(svc+"_DATABASE_CONN_MAX_LIFETIME", "1h")
		v.SetDefault(svc+"_DATABASE_CONN_MAX_IDLE_TIME", "30m")
	}

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kafka defaults
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CLIENT_ID", "sports-ticketing")
	v.SetDefault("KAFKA_NOTIFICATION_TOPIC", "notifications")

	// Gateway defaults
	v.SetDefault("GATEWAY_TYPE", "mock")
	v.SetDefault("GATEWAY_CHARGE_TIMEOUT", "10s")
	v.SetDefault("GATEWAY_MOCK_SUCCESS_RATE", 0.95)
	v.SetDefault("GATEWAY_MOCK_DELAY", "100ms")

	// Saga defaults
	v.SetDefault("SAGA_SWEEP_INTERVAL", "30s")
	v.SetDefault("SAGA_STALE_AFTER", "2m")
	v.SetDefault("SAGA_COMPENSATION_RETRIES", 3)
}

func bindDatabase(v *viper.Viper, prefix string) DatabaseConfig {
	return DatabaseConfig{
		Host:            v.GetString(prefix + "_DATABASE_HOST"),
		Port:            v.GetInt(prefix + "_DATABASE_PORT"),
		User:            v.GetString(prefix + "_DATABASE_USER"),
		Password:        v.GetString(prefix + "_DATABASE_PASSWORD"),
		DBName:          v.GetString(prefix + "_DATABASE_DBNAME"),
		SSLMode:         v.GetString(prefix + "_DATABASE_SSLMODE"),
		MaxConns:        v.GetInt32(prefix + "_DATABASE_MAX_CONNS"),
		MinConns:        v.GetInt32(prefix + "_DATABASE_MIN_CONNS"),
		ConnMaxLifetime: v.GetDuration(prefix + "_DATABASE_CONN_MAX_LIFETIME"),
		ConnMaxIdleTime: v.GetDuration(prefix + "_DATABASE_CONN_MAX_IDLE_TIME"),
	}
}

func bindConfig(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENVIRONMENT"),
			LogLevel:    v.GetString("APP_LOG_LEVEL"),
			Storage:     v.GetString("APP_STORAGE"),
		},
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		EventDatabase:   bindDatabase(v, "EVENT"),
		BookingDatabase: bindDatabase(v, "BOOKING"),
		PaymentDatabase: bindDatabase(v, "PAYMENT"),
		Redis: RedisConfig{
			Host:         v.GetString("REDIS_HOST"),
			Port:         v.GetInt("REDIS_PORT"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Kafka: KafkaConfig{
			Enabled:           v.GetBool("KAFKA_ENABLED"),
			Brokers:           strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			ClientID:          v.GetString("KAFKA_CLIENT_ID"),
			NotificationTopic: v.GetString("KAFKA_NOTIFICATION_TOPIC"),
		},
		Gateway: GatewayConfig{
			Type:            v.GetString("GATEWAY_TYPE"),
			ChargeTimeout:   v.GetDuration("GATEWAY_CHARGE_TIMEOUT"),
			MockSuccessRate: v.GetFloat64("GATEWAY_MOCK_SUCCESS_RATE"),
			MockDelay:       v.GetDuration("GATEWAY_MOCK_DELAY"),
		},
		Saga: SagaConfig{
			SweepInterval:       v.GetDuration("SAGA_SWEEP_INTERVAL"),
			StaleAfter:          v.GetDuration("SAGA_STALE_AFTER"),
			CompensationRetries: v.GetInt("SAGA_COMPENSATION_RETRIES"),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.App.Storage != "memory" && c.App.Storage != "postgres" {
		return fmt.Errorf("invalid storage backend: %q", c.App.Storage)
	}
	if c.Gateway.MockSuccessRate < 0 || c.Gateway.MockSuccessRate > 1 {
		return fmt.Errorf("invalid gateway mock success rate: %f", c.Gateway.MockSuccessRate)
	}
	if c.Gateway.ChargeTimeout <= 0 {
		return fmt.Errorf("gateway charge timeout must be positive")
	}
	if c.Saga.StaleAfter <= 0 {
		return fmt.Errorf("saga stale-after window must be positive")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
