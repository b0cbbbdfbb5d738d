package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Gateway struct {
		PingInterval   time.Duration `yaml:"ping_interval"`
		PongTimeout    time.Duration `yaml:"pong_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		MaxMessageSize int64         `yaml:"max_message_size"`
		SendBufferSize int           `yaml:"send_buffer_size"`
	} `yaml:"gateway"`

	Coordinator struct {
		MutationTimeout  time.Duration `yaml:"mutation_timeout"`
		BackfillLimit    int           `yaml:"backfill_limit"`
		MaxCommentLength int           `yaml:"max_comment_length"`
		DedupeCapacity   int           `yaml:"dedupe_capacity"`
	} `yaml:"coordinator"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		CommentsPerSecond float64 `yaml:"comments_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Gateway
	if c.Gateway.PingInterval <= 0 {
		return fmt.Errorf("gateway.ping_interval must be > 0")
	}
	if c.Gateway.PongTimeout <= c.Gateway.PingInterval {
		return fmt.Errorf("gateway.pong_timeout must be > gateway.ping_interval")
	}
	if c.Gateway.WriteTimeout <= 0 {
		return fmt.Errorf("gateway.write_timeout must be > 0")
	}
	if c.Gateway.MaxMessageSize <= 0 {
		return fmt.Errorf("gateway.max_message_size must be > 0")
	}
	if c.Gateway.SendBufferSize <= 0 {
		return fmt.Errorf("gateway.send_buffer_size must be > 0")
	}

	// Coordinator
	if c.Coordinator.MutationTimeout <= 0 {
		return fmt.Errorf("coordinator.mutation_timeout must be > 0")
	}
	if c.Coordinator.BackfillLimit <= 0 {
		return fmt.Errorf("coordinator.backfill_limit must be > 0")
	}
	if c.Coordinator.MaxCommentLength <= 0 {
		return fmt.Errorf("coordinator.max_comment_length must be > 0")
	}
	if c.Coordinator.DedupeCapacity <= 0 {
		return fmt.Errorf("coordinator.dedupe_capacity must be > 0")
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.CommentsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.comments_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Gateway.PingInterval = 30 * time.Second
	cfg.Gateway.PongTimeout = 60 * time.Second
	cfg.Gateway.WriteTimeout = 10 * time.Second
	cfg.Gateway.MaxMessageSize = 64 * 1024
	cfg.Gateway.SendBufferSize = 256

	cfg.Coordinator.MutationTimeout = 2 * time.Second
	cfg.Coordinator.BackfillLimit = 100
	cfg.Coordinator.MaxCommentLength = 500
	cfg.Coordinator.DedupeCapacity = 256

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "livecast"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.TokenTTL = 15 * time.Minute

	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.CommentsPerSecond = 5
	cfg.RateLimiting.Burst = 10

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("LIVECAST_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if addr := os.Getenv("LIVECAST_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
		c.Redis.Enabled = true
	}
	if secret := os.Getenv("LIVECAST_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if level := os.Getenv("LIVECAST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
