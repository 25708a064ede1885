// Package config собирает конфигурацию сервиса: значения по умолчанию,
// затем YAML-файл, затем переменные окружения. Флаги CLI применяет cmd/server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
)

// DevJWTSecret - ключ для локального запуска. Годится только для in-memory хранилища.
const DevJWTSecret = "dev-secret-change-me"

// ErrDevJWTSecret - общий ключ разработки там, где токены должны быть секретны.
var ErrDevJWTSecret = errors.New("invalid configuration: JWT_SECRET must be set, the development secret is not allowed")

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Events  EventsConfig  `yaml:"events"`
	Tracing TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	Playground      bool          `yaml:"playground"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`
	KeepAlive       time.Duration `yaml:"keepAlive" validate:"gt=0"`
}

type StorageConfig struct {
	Type string `yaml:"type" validate:"oneof=in-memory postgres"`
	DSN  string `yaml:"dsn" validate:"required_if=Type postgres"`
	// Seed - заполнить in-memory хранилище демонстрационными данными.
	Seed bool `yaml:"seed"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwtSecret" validate:"required"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	TokenTTL   time.Duration `yaml:"tokenTTL" validate:"gt=0"`
	BcryptCost int           `yaml:"bcryptCost" validate:"min=4,max=31"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// EventsConfig - пересылка доменных событий в EventBridge. Пустое имя шины - выключено.
type EventsConfig struct {
	BusName string `yaml:"busName"`
	Source  string `yaml:"source"`
	Region  string `yaml:"region"`
}

// TracingConfig - пустой endpoint выключает трассировку.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"serviceName"`
	SampleRatio float64 `yaml:"sampleRatio" validate:"gte=0,lte=1"`
}

// Default возвращает конфигурацию для локального запуска.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Playground:      true,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
			KeepAlive:       10 * time.Second,
		},
		Storage: StorageConfig{Type: StorageInMemory, Seed: true},
		Auth: AuthConfig{
			JWTSecret:  DevJWTSecret,
			Issuer:     "graphql-blog-service",
			Audience:   "graphql-blog-api",
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Log:     LogConfig{Level: "info"},
		Events:  EventsConfig{Source: "graphql-blog-service"},
		Tracing: TracingConfig{ServiceName: "graphql-blog-service", SampleRatio: 1},
	}
}

// Load читает файл (если path непустой) и применяет окружение.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString("PORT", &c.Server.Port)
	setString("STORAGE", &c.Storage.Type)
	setString("DATABASE_URL", &c.Storage.DSN)
	setString("JWT_SECRET", &c.Auth.JWTSecret)
	setString("JWT_ISSUER", &c.Auth.Issuer)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("EVENT_BUS_NAME", &c.Events.BusName)
	setString("AWS_REGION", &c.Events.Region)
	setString("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Tracing.Endpoint)

	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		c.Auth.TokenTTL = d
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST %q: %w", v, err)
		}
		c.Auth.BcryptCost = n
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	return nil
}

// Validate проверяет итоговую конфигурацию. С postgres ключ разработки запрещен.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		if c.Storage.Type == StoragePostgres {
			return c.RequireJWTSecret()
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value %v)", fe.Namespace(), fe.Tag(), redact(fe)))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// RequireJWTSecret отклоняет ключ разработки. Lambda вызывает ее при любом хранилище.
func (c *Config) RequireJWTSecret() error {
	if c.Auth.JWTSecret == DevJWTSecret {
		return ErrDevJWTSecret
	}
	return nil
}

func redact(fe validator.FieldError) interface{} {
	switch fe.Field() {
	case "JWTSecret", "DSN":
		return "<redacted>"
	}
	return fe.Value()
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
