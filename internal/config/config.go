package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/riveravet/clinic-api/pkg/messaging/redis"
	"github.com/riveravet/clinic-api/pkg/worker"
)

const (
	RecordBeforePay = "record_before_pay"
	PayBeforeRecord = "pay_before_record"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Security   SecurityConfig   `mapstructure:"security"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Outbox     OutboxConfig     `mapstructure:"outbox"`
	Clinic     ClinicConfig     `mapstructure:"clinic"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Inventory  InventoryConfig  `mapstructure:"inventory"`
	Orders     OrdersConfig     `mapstructure:"orders"`
	Payment    PaymentConfig    `mapstructure:"payment"`
	Email      EmailConfig      `mapstructure:"email"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Workers    WorkersConfig    `mapstructure:"workers"`

	Secrets Secrets `mapstructure:"-"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	// FrontendURL is the base of links placed in emails and payment return URLs.
	FrontendURL string `mapstructure:"frontend_url"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL is the form golang-migrate expects.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type JWTConfig struct {
	Issuer string        `mapstructure:"issuer"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	// Chat limits are applied per client on top of the global limiter.
	ChatPerMinute int `mapstructure:"chat_per_minute"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
	MetricsPath       string `mapstructure:"metrics_path"`
	Namespace         string `mapstructure:"namespace"`
	HealthPort        int    `mapstructure:"health_port"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	Retention     time.Duration `mapstructure:"retention"`
}

type ClinicConfig struct {
	Name     string `mapstructure:"name"`
	Timezone string `mapstructure:"timezone"`
}

type SchedulerConfig struct {
	// FullyBookedThreshold is the booking count at which a date is reported fully booked.
	FullyBookedThreshold int `mapstructure:"fully_booked_threshold"`
	// RejectDoubleBooking refuses a second non-declined booking for the same date and time.
	RejectDoubleBooking bool `mapstructure:"reject_double_booking"`
	// EnforceDailyLimit refuses new bookings once a date reaches the threshold.
	EnforceDailyLimit bool          `mapstructure:"enforce_daily_limit"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

type InventoryConfig struct {
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
}

type OrdersConfig struct {
	RecordingPolicy string `mapstructure:"recording_policy"`
}

type PaymentConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	// Provider is one of smtp, sendgrid or log.
	Provider  string `mapstructure:"provider"`
	FromName  string `mapstructure:"from_name"`
	FromEmail string `mapstructure:"from_email"`
	SMTPHost  string `mapstructure:"smtp_host"`
	SMTPPort  int    `mapstructure:"smtp_port"`
	SMTPUser  string `mapstructure:"smtp_user"`
}

type StorageConfig struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
	Endpoint  string `mapstructure:"endpoint"`
}

type ChatConfig struct {
	Model       string        `mapstructure:"model"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

type WorkersConfig struct {
	LowStockInterval time.Duration `mapstructure:"low_stock_interval"`
}

// Secrets are read from the environment only.
type Secrets struct {
	JWTSecret        string `envconfig:"JWT_SECRET"`
	PayMongoSecret   string `envconfig:"PAYMONGO_SECRET_KEY"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
	SendGridAPIKey   string `envconfig:"SENDGRID_API_KEY"`
	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	GoogleClientID   string `envconfig:"GOOGLE_CLIENT_ID"`
	DatabasePassword string `envconfig:"DB_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "clinic-api")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.frontend_url", "http://localhost:5173")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_body_bytes", int64(10<<20))

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("jwt.issuer", "clinic-api")
	v.SetDefault("jwt.expiry", 24*time.Hour)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 50.0)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.chat_per_minute", 10)

	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("security.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})

	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.namespace", "clinic")
	v.SetDefault("monitoring.health_port", 8081)

	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 2*time.Second)
	v.SetDefault("outbox.retention", 7*24*time.Hour)

	v.SetDefault("clinic.name", "Rivera Veterinary Clinic and Grooming Services")
	v.SetDefault("clinic.timezone", "Asia/Manila")

	v.SetDefault("scheduler.fully_booked_threshold", 10)
	v.SetDefault("scheduler.reject_double_booking", true)
	v.SetDefault("scheduler.enforce_daily_limit", false)
	v.SetDefault("scheduler.cache_ttl", 30*time.Second)

	v.SetDefault("inventory.low_stock_threshold", 5)
	v.SetDefault("orders.recording_policy", RecordBeforePay)

	v.SetDefault("payment.base_url", "https://api.paymongo.com/v1")
	v.SetDefault("payment.timeout", 15*time.Second)

	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from_name", "Rivera Veterinary Clinic")
	v.SetDefault("email.from_email", "no-reply@riveravet.ph")
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)

	v.SetDefault("storage.region", "ap-southeast-1")

	v.SetDefault("chat.model", "gemini-1.5-flash")
	v.SetDefault("chat.max_attempts", 3)
	v.SetDefault("chat.backoff", time.Second)

	v.SetDefault("workers.low_stock_interval", time.Hour)
}

// Load reads config.yaml (optional), then CLINIC_* environment overrides,
// then secrets. A local .env file is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")

	v.SetEnvPrefix("CLINIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("CLINIC", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if cfg.Database.Password == "" {
		cfg.Database.Password = cfg.Secrets.DatabasePassword
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Secrets.JWTSecret == "" {
		return errors.New("CLINIC_JWT_SECRET is required")
	}
	switch c.Orders.RecordingPolicy {
	case RecordBeforePay, PayBeforeRecord:
	default:
		return fmt.Errorf("invalid orders.recording_policy %q", c.Orders.RecordingPolicy)
	}
	if c.Scheduler.FullyBookedThreshold <= 0 {
		return fmt.Errorf("scheduler.fully_booked_threshold must be positive")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("inventory.low_stock_threshold must not be negative")
	}
	switch c.Email.Provider {
	case "smtp", "sendgrid", "log":
	default:
		return fmt.Errorf("invalid email.provider %q", c.Email.Provider)
	}
	return nil
}

func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
