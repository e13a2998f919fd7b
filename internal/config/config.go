package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location relative to the working
// directory.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                       string `yaml:"port"`
	DatabaseURL                string `yaml:"databaseURL"`
	RedisAddr                  string `yaml:"redisAddr"`
	RedisPassword              string `yaml:"redisPassword"`
	SessionStrategy            string `yaml:"sessionStrategy"`
	SessionTTL                 string `yaml:"sessionTTL"`
	JWTSecret                  string `yaml:"jwtSecret"`
	LogLevel                   string `yaml:"logLevel"`
	Environment                string `yaml:"environment"`
	CORSOrigin                 string `yaml:"corsOrigin"`
	TrustedProxies             bool   `yaml:"trustedProxies"`
	LoginRateLimitPerMinute    int    `yaml:"loginRateLimitPerMinute"`
	RegisterRateLimitPerMinute int    `yaml:"registerRateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SESSION_STRATEGY"); v != "" {
		cfg.SessionStrategy = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		cfg.SessionTTL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("REGISTER_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RegisterRateLimitPerMinute = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml)")
	}
	switch cfg.SessionStrategy {
	case "", "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis session strategy")
		}
	case "jwt":
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return errors.New("config: jwtSecret is required for the jwt session strategy (set JWT_SECRET)")
		}
	default:
		return fmt.Errorf("config: unknown sessionStrategy %q", cfg.SessionStrategy)
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.RegisterRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// ParseSessionTTL parses optional session TTL duration string.
func ParseSessionTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid sessionTTL duration: %w", err)
	}
	if dur < 0 {
		return 0, errors.New("sessionTTL must be positive")
	}
	return dur, nil
}
