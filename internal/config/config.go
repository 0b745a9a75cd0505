package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	Messages int           `mapstructure:"messages"`
	Interval time.Duration `mapstructure:"interval"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AttachmentConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type Config struct {
	Mode         string           `mapstructure:"mode"`
	Port         int              `mapstructure:"port"`
	StaticPath   string           `mapstructure:"static_path"`
	LogLevel     string           `mapstructure:"log_level"`
	ReadLimit    int64            `mapstructure:"read_limit"`
	PingPeriod   time.Duration    `mapstructure:"ping_period"`
	Secret       string           `mapstructure:"secret"`
	ExpiryWindow time.Duration    `mapstructure:"expiry_window"`
	SendBuffer   int              `mapstructure:"send_buffer"`
	JWT          JWTConfig        `mapstructure:"jwt"`
	RateLimit    RateLimitConfig  `mapstructure:"rate_limit"`
	Database     DatabaseConfig   `mapstructure:"database"`
	Attachment   AttachmentConfig `mapstructure:"attachment"`
}

// Load reads config/config.<CONFIG_ENV>.yaml (default "dev") on top of the
// defaults below. Any key can be overridden with ROOMCHAT_<KEY>, dots
// becoming underscores (ROOMCHAT_JWT_SECRET).
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("roomchat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("db", cfg.Database.Driver).Dur("expiry_window", cfg.ExpiryWindow).Msg("config ready")
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during
// Unmarshal even when the file omits it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("expiry_window", "10m")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "roomchat")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("rate_limit.messages", 10)
	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "roomchat.db")
	v.SetDefault("attachment.max_bytes", 10*1024*1024)
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.ExpiryWindow <= 0 {
		errs = append(errs, errors.New("expiry_window must be positive"))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Port <= 0 {
		errs = append(errs, errors.New("port must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
