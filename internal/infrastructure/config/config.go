package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"parkwatch/internal/infrastructure/database"
	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/storage"

	"gopkg.in/yaml.v3"
)

// Environment variables that win over the file.
const (
	EnvDatabaseDSN = "PARKWATCH_DATABASE_DSN"
	EnvJWTSecret   = "PARKWATCH_JWT_SECRET"
	EnvAddr        = "PARKWATCH_ADDR"
)

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Hub      HubConfig       `yaml:"hub"`
	Database database.Config `yaml:"database"`
	Auth     AuthConfig      `yaml:"auth"`
	Storage  storage.Config  `yaml:"storage"`
	Log      logger.Config   `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

type HubConfig struct {
	SendBuffer     int           `yaml:"send_buffer"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SSEKeepAlive   time.Duration `yaml:"sse_keep_alive"`
}

func (h HubConfig) WebSocketOptions() hub.WebSocketOptions {
	return hub.WebSocketOptions{
		SendBuffer:     h.SendBuffer,
		WriteTimeout:   h.WriteTimeout,
		PongTimeout:    h.PongTimeout,
		PingInterval:   h.PingInterval,
		MaxMessageSize: h.MaxMessageSize,
	}
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

func Default() *Config {
	ws := hub.DefaultWebSocketOptions()

	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AllowedOrigins:  []string{"*"},
			MaxUploadBytes:  10 << 20,
		},
		Hub: HubConfig{
			SendBuffer:     ws.SendBuffer,
			WriteTimeout:   ws.WriteTimeout,
			PongTimeout:    ws.PongTimeout,
			PingInterval:   ws.PingInterval,
			MaxMessageSize: ws.MaxMessageSize,
			SSEKeepAlive:   30 * time.Second,
		},
		Database: database.DefaultConfig(),
		Auth: AuthConfig{
			TokenExpiry: 12 * time.Hour,
		},
		Storage: storage.DefaultConfig(),
		Log:     *logger.NewDefaultConfig(),
	}
}

// Load reads path (optional) over the defaults, expands ${VAR} references,
// applies the PARKWATCH_* overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseDSN)); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, fmt.Errorf("database.dsn is required (or set %s)", EnvDatabaseDSN))
	}
	if c.Hub.SendBuffer <= 0 {
		errs = append(errs, errors.New("hub.send_buffer must be positive"))
	}
	if c.Hub.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("hub.max_message_size must be positive"))
	}
	if c.Hub.PingInterval <= 0 || c.Hub.PingInterval >= c.Hub.PongTimeout {
		errs = append(errs, errors.New("hub.ping_interval must be positive and shorter than hub.pong_timeout"))
	}
	if c.Hub.SSEKeepAlive <= 0 {
		errs = append(errs, errors.New("hub.sse_keep_alive must be positive"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}

	return errors.Join(errs...)
}
