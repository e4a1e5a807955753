package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Version  string         `mapstructure:"version"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Auth providers
const (
	AuthProviderJWT    = "jwt"
	AuthProviderRemote = "remote"
)

type AuthConfig struct {
	Provider        string        `mapstructure:"provider"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	JWTAudience     string        `mapstructure:"jwt_audience"`
	JWTIssuer       string        `mapstructure:"jwt_issuer"`
	IdentityURL     string        `mapstructure:"identity_url"`
	IdentityAPIKey  string        `mapstructure:"identity_api_key"`
	IdentityTimeout time.Duration `mapstructure:"identity_timeout"`
}

type RealtimeConfig struct {
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	SendBuffer      int           `mapstructure:"send_buffer"`
}

type LimitsConfig struct {
	ChatMessages            int           `mapstructure:"chat_messages"`
	ChatWindow              time.Duration `mapstructure:"chat_window"`
	HTTPRequests            int           `mapstructure:"http_requests"`
	HTTPWindow              time.Duration `mapstructure:"http_window"`
	WhiteboardTTL           time.Duration `mapstructure:"whiteboard_ttl"`
	WhiteboardSweepInterval time.Duration `mapstructure:"whiteboard_sweep_interval"`
	SnapshotRetention       int           `mapstructure:"snapshot_retention"`
	MessagePageDefault      int           `mapstructure:"message_page_default"`
	MessagePageMax          int           `mapstructure:"message_page_max"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.Provider {
	case AuthProviderJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for the jwt provider")
		}
	case AuthProviderRemote:
		if c.Auth.IdentityURL == "" {
			return fmt.Errorf("auth.identity_url is required for the remote provider")
		}
	default:
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}
	if c.Limits.ChatMessages <= 0 || c.Limits.HTTPRequests <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.Limits.SnapshotRetention <= 0 {
		return fmt.Errorf("limits.snapshot_retention must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.middleware_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "collab")
	v.SetDefault("database.database", "collab")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "collab:room:")

	// Auth
	v.SetDefault("auth.provider", AuthProviderJWT)
	v.SetDefault("auth.jwt_audience", "authenticated")
	v.SetDefault("auth.identity_timeout", "5s")

	// Realtime
	v.SetDefault("realtime.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("realtime.max_message_bytes", 6<<20)
	v.SetDefault("realtime.write_wait", "10s")
	v.SetDefault("realtime.pong_wait", "60s")
	v.SetDefault("realtime.send_buffer", 256)

	// Limits
	v.SetDefault("limits.chat_messages", domain.DefaultChatMessages)
	v.SetDefault("limits.chat_window", domain.DefaultChatWindow)
	v.SetDefault("limits.http_requests", 600)
	v.SetDefault("limits.http_window", "60s")
	v.SetDefault("limits.whiteboard_ttl", domain.DefaultWhiteboardTTL)
	v.SetDefault("limits.whiteboard_sweep_interval", domain.DefaultWhiteboardSweep)
	v.SetDefault("limits.snapshot_retention", domain.DefaultSnapshotRetention)
	v.SetDefault("limits.message_page_default", domain.DefaultMessagePage)
	v.SetDefault("limits.message_page_max", domain.DefaultMessagePageMax)

	// CORS
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("version", "dev")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")

	// Database
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.provider", "AUTH_PROVIDER")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.identity_url", "IDENTITY_URL")
	v.BindEnv("auth.identity_api_key", "IDENTITY_API_KEY")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")

	v.BindEnv("version", "GIT_SHA")
}
