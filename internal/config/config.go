package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppName  string `env:"APP_NAME,default=socialhub"`
	Env      string `env:"APP_ENV,default=development"`
	Host     string `env:"HTTP_HOST,default=0.0.0.0"`
	Port     int    `env:"HTTP_PORT,default=8000"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	DBDriver         string `env:"DB_DRIVER,default=sqlite"`
	SQLitePath       string `env:"SQLITE_PATH,default=socialhub.db"`
	PostgresHost     string `env:"POSTGRES_HOST,default=localhost"`
	PostgresPort     string `env:"POSTGRES_PORT,default=5432"`
	PostgresUser     string `env:"POSTGRES_USER,default=postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,default=postgres"`
	PostgresDB       string `env:"POSTGRES_DB,default=socialhub"`

	JWTSecret   string `env:"JWT_SECRET,required=true"`
	CORSOrigins string `env:"CORS_ORIGINS,default=http://localhost:3000|http://localhost:5173"`

	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,default=5s"`
	DedupWindow      time.Duration `env:"DEDUP_WINDOW,default=5m"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH,default=1000"`
	SendBufferSize   int           `env:"SEND_BUFFER_SIZE,default=64"`

	// Empty disables the limiter.
	RedisAddr       string        `env:"REDIS_ADDR"`
	EventRateLimit  int64         `env:"EVENT_RATE_LIMIT,default=30"`
	EventRateWindow time.Duration `env:"EVENT_RATE_WINDOW,default=1s"`

	// Comma separated. Empty disables publishing.
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=socialhub.events"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELServiceName string `env:"OTEL_SERVICE_NAME,default=socialhub"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.Port))
	}
	if c.HandshakeTimeout <= 0 {
		errs = append(errs, errors.New("HANDSHAKE_TIMEOUT must be positive"))
	}
	if c.DedupWindow <= 0 {
		errs = append(errs, errors.New("DEDUP_WINDOW must be positive"))
	}
	if c.MaxMessageLength <= 0 {
		errs = append(errs, errors.New("MAX_MESSAGE_LENGTH must be positive"))
	}
	if c.RedisAddr != "" && (c.EventRateLimit <= 0 || c.EventRateWindow <= 0) {
		errs = append(errs, errors.New("EVENT_RATE_LIMIT and EVENT_RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%s", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) AllowedOrigins() []string {
	return split(c.CORSOrigins, "|")
}

func (c *Config) Brokers() []string {
	return split(c.KafkaBrokers, ",")
}

func split(s, sep string) []string {
	var res []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}
