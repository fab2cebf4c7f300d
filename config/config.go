package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "GATEWAY"

type Config struct {
	Env       string          `mapstructure:"env" validate:"required,oneof=dev development prod production"`
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

func (c *Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

type ServerConfig struct {
	// Port 0 escolhe uma porta livre.
	Port int    `mapstructure:"port" validate:"min=0,max=65535"`
	Host string `mapstructure:"host"`
}

func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

type RateLimitConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	MaxRequestsPerSec  int           `mapstructure:"max_requests_per_sec" validate:"min=1"`
	DelayMs            int           `mapstructure:"delay_ms" validate:"min=-1"`
	MaxWaitMs          int           `mapstructure:"max_wait_ms" validate:"min=0"`
	ThrottledRequests  int           `mapstructure:"throttled_requests" validate:"min=1"`
	ThrottledPerClient int           `mapstructure:"throttled_per_client" validate:"min=0"`
	RemotePort         bool          `mapstructure:"remote_port"`
	TrustXFF           bool          `mapstructure:"trust_xff"`
	RetryAfter         time.Duration `mapstructure:"retry_after" validate:"min=0"`
	AddHeaders         bool          `mapstructure:"add_headers"`
	IdleTTL            time.Duration `mapstructure:"idle_ttl" validate:"min=0"`
}

type AuthConfig struct {
	DigestEnabled   bool          `mapstructure:"digest_enabled"`
	Realm           string        `mapstructure:"realm" validate:"required"`
	CredentialsFile string        `mapstructure:"credentials_file" validate:"required_if=DigestEnabled true"`
	Roles           []string      `mapstructure:"roles" validate:"required_if=DigestEnabled true,dive,required"`
	NonceMaxAge     time.Duration `mapstructure:"nonce_max_age" validate:"min=0"`
}

type StatsConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Backend   string        `mapstructure:"backend" validate:"oneof=memory redis"`
	Redis     RedisConfig   `mapstructure:"redis"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl" validate:"min=0"`
	Bucket    string        `mapstructure:"bucket" validate:"oneof=minute none"`
	TrackKeys bool          `mapstructure:"track_keys"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

type AdminConfig struct {
	// Addr vazio desliga o listener de administração.
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" validate:"dive,required"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"required,oneof=auto text json"`
}

// flagToViperKey mapeia nomes de flags da CLI para chaves do viper.
var flagToViperKey = map[string]string{
	"port":          "server.port",
	"host":          "server.host",
	"rate":          "ratelimit.max_requests_per_sec",
	"rate-enabled":  "ratelimit.enabled",
	"delay-ms":      "ratelimit.delay_ms",
	"remote-port":   "ratelimit.remote_port",
	"digest":        "auth.digest_enabled",
	"realm":         "auth.realm",
	"credentials":   "auth.credentials_file",
	"admin-addr":    "admin.addr",
	"metrics":       "metrics.enabled",
	"log-level":     "log.level",
	"stats-enabled": "stats.enabled",
}

// bindFlags liga as flags alteradas explicitamente às chaves do viper.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToViperKey[f.Name]
		if !ok || !f.Changed {
			return
		}
		_ = v.BindPFlag(key, f)
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.max_requests_per_sec", 1)
	v.SetDefault("ratelimit.delay_ms", -1)
	v.SetDefault("ratelimit.max_wait_ms", 50)
	v.SetDefault("ratelimit.throttled_requests", 5)
	v.SetDefault("ratelimit.throttled_per_client", 0)
	v.SetDefault("ratelimit.remote_port", false)
	v.SetDefault("ratelimit.trust_xff", false)
	v.SetDefault("ratelimit.retry_after", "1s")
	v.SetDefault("ratelimit.add_headers", false)
	v.SetDefault("ratelimit.idle_ttl", "15m")

	v.SetDefault("auth.digest_enabled", false)
	v.SetDefault("auth.realm", "myrealm")
	v.SetDefault("auth.credentials_file", "myrealm.properties")
	v.SetDefault("auth.roles", []string{"user", "admin"})
	v.SetDefault("auth.nonce_max_age", "60s")

	v.SetDefault("stats.enabled", false)
	v.SetDefault("stats.backend", "memory")
	v.SetDefault("stats.redis.addr", "")
	v.SetDefault("stats.redis.password", "")
	v.SetDefault("stats.redis.db", 0)
	v.SetDefault("stats.prefix", "ratelimit:stats")
	v.SetDefault("stats.ttl", "24h")
	v.SetDefault("stats.bucket", "minute")
	v.SetDefault("stats.track_keys", false)

	v.SetDefault("admin.addr", "")
	v.SetDefault("admin.cors_origins", []string{})

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
}

// Load lê a configuração.
//
//   - configFile: caminho explícito; vazio procura ./gateway.yaml (opcional)
//   - flags: flag set do cobra (pode ser nil)
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("gateway")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate aplica as tags do validator e as regras entre campos.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Stats.Enabled && c.Stats.Backend == "redis" && strings.TrimSpace(c.Stats.Redis.Addr) == "" {
		return errors.New("validate config: stats.redis.addr is required when stats.backend=redis")
	}
	return nil
}
