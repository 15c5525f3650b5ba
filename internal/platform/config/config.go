package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pidstore/pkg/platform/secrets"
	pstrings "pidstore/pkg/platform/strings"
)

// EnvPrefix namespaces environment overrides, e.g. PIDSTORE_CROSSREF_USERNAME.
const EnvPrefix = "PIDSTORE"

// DefaultDOIPrefix is the Crossref test prefix used when none is configured.
const DefaultDOIPrefix = "10.5555"

// Config is the full process configuration.
type Config struct {
	Server   Server
	Log      Log
	Crossref Crossref
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Sync     Sync
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// AdminTokenHash is the bcrypt hash of the audit trail token. Empty
	// disables the endpoint.
	AdminTokenHash string
}

// Log selects handler format and level.
type Log struct {
	Level  string
	Format string
}

// Crossref holds the remote registration client settings.
type Crossref struct {
	Username string
	Password string
	Prefixes []string
	TestMode bool
	URL      string
	Timeout  time.Duration

	// BreakerThreshold of zero disables the circuit breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Database configures the Postgres record store. An empty URL selects the
// in-memory store.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the sync cache. An empty URL selects the in-memory cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit sink. No brokers keeps audit events in memory.
type Kafka struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Sync configures status synchronization bookkeeping.
type Sync struct {
	CacheTTL time.Duration
}

// SetDefaults registers defaults on v. Exposed so the CLI can share them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_signing_key", "dev-secret-key-change-in-production")
	v.SetDefault("server.jwt_issuer", "pidstore")
	v.SetDefault("server.jwt_audience", "pidstore-api")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("crossref.prefixes", []string{DefaultDOIPrefix})
	v.SetDefault("crossref.test_mode", false)
	v.SetDefault("crossref.timeout", 30*time.Second)
	v.SetDefault("crossref.breaker_threshold", 5)
	v.SetDefault("crossref.breaker_cooldown", 30*time.Second)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.topic", "pidstore.audit")
	v.SetDefault("kafka.client_id", "pidstore")

	v.SetDefault("sync.cache_ttl", 24*time.Hour)
}

// NewViper returns a viper instance wired for env overrides and defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the optional YAML file at path, then applies env overrides.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: Server{
			Addr:           v.GetString("server.addr"),
			JWTSigningKey:  v.GetString("server.jwt_signing_key"),
			JWTIssuer:      v.GetString("server.jwt_issuer"),
			JWTAudience:    v.GetString("server.jwt_audience"),
			AdminTokenHash: v.GetString("server.admin_token_hash"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Crossref: Crossref{
			Username: v.GetString("crossref.username"),
			Password: v.GetString("crossref.password"),
			Prefixes: splitList(v.GetStringSlice("crossref.prefixes")),
			TestMode: v.GetBool("crossref.test_mode"),
			URL:      v.GetString("crossref.url"),
			Timeout:  v.GetDuration("crossref.timeout"),

			BreakerThreshold: v.GetInt("crossref.breaker_threshold"),
			BreakerCooldown:  v.GetDuration("crossref.breaker_cooldown"),
		},
		Database: Database{
			URL:             v.GetString("database.url"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
		},
		Kafka: Kafka{
			Brokers:  splitList(v.GetStringSlice("kafka.brokers")),
			Topic:    v.GetString("kafka.topic"),
			ClientID: v.GetString("kafka.client_id"),
		},
		Sync: Sync{
			CacheTTL: v.GetDuration("sync.cache_ttl"),
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if len(c.Crossref.Prefixes) == 0 {
		errs = append(errs, errors.New("crossref.prefixes must not be empty"))
	}
	for _, p := range c.Crossref.Prefixes {
		if !strings.HasPrefix(p, "10.") {
			errs = append(errs, fmt.Errorf("crossref.prefixes: %q is not a DOI prefix", p))
		}
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Server.AdminTokenHash != "" {
		if err := secrets.ValidateHash(c.Server.AdminTokenHash); err != nil {
			errs = append(errs, fmt.Errorf("server.admin_token_hash: %w", err))
		}
	}
	if c.Crossref.BreakerThreshold < 0 {
		errs = append(errs, errors.New("crossref.breaker_threshold must not be negative"))
	}
	if c.Sync.CacheTTL <= 0 {
		errs = append(errs, errors.New("sync.cache_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// splitList flattens comma-separated env values ("a,b") that viper leaves as
// a single element.
func splitList(in []string) []string {
	return pstrings.SplitList(in)
}
