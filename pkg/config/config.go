package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = ""
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Feed          FeedConfig
	Sync          SyncConfig
	Push          PushConfig
	Notifications NotificationsConfig
	Outbox        OutboxConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLASSICOFFSET_APP_ENV" required:"true"`
	Port         string `envconfig:"CLASSICOFFSET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLASSICOFFSET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLASSICOFFSET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CLASSICOFFSET_DB_DSN"`
	Driver string `envconfig:"CLASSICOFFSET_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CLASSICOFFSET_DB_HOST"`
	Port     int    `envconfig:"CLASSICOFFSET_DB_PORT" default:"5432"`
	User     string `envconfig:"CLASSICOFFSET_DB_USER"`
	Password string `envconfig:"CLASSICOFFSET_DB_PASSWORD"`
	Name     string `envconfig:"CLASSICOFFSET_DB_NAME"`
	SSLMode  string `envconfig:"CLASSICOFFSET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLASSICOFFSET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLASSICOFFSET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLASSICOFFSET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLASSICOFFSET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("db config incomplete: dsn or host/user/name required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CLASSICOFFSET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLASSICOFFSET_REDIS_ADDR"`
	Password     string        `envconfig:"CLASSICOFFSET_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLASSICOFFSET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLASSICOFFSET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLASSICOFFSET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLASSICOFFSET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLASSICOFFSET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLASSICOFFSET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeedConfig struct {
	Transport      string        `envconfig:"CLASSICOFFSET_FEED_TRANSPORT" default:"redis"`
	ChannelPrefix  string        `envconfig:"CLASSICOFFSET_FEED_CHANNEL_PREFIX" default:"offset:feed"`
	ConnectTimeout time.Duration `envconfig:"CLASSICOFFSET_FEED_CONNECT_TIMEOUT" default:"10s"`
	BufferSize     int           `envconfig:"CLASSICOFFSET_FEED_BUFFER_SIZE" default:"256"`
}

type SyncConfig struct {
	ReconnectMaxRetries uint64        `envconfig:"CLASSICOFFSET_SYNC_RECONNECT_MAX_RETRIES" default:"8"`
	ReconnectBaseDelay  time.Duration `envconfig:"CLASSICOFFSET_SYNC_RECONNECT_BASE_DELAY" default:"500ms"`
	ReconnectMaxDelay   time.Duration `envconfig:"CLASSICOFFSET_SYNC_RECONNECT_MAX_DELAY" default:"30s"`
}

type PushConfig struct {
	Endpoint    string        `envconfig:"CLASSICOFFSET_PUSH_ENDPOINT"`
	TokenSecret string        `envconfig:"CLASSICOFFSET_PUSH_TOKEN_SECRET"`
	TokenIssuer string        `envconfig:"CLASSICOFFSET_PUSH_TOKEN_ISSUER" default:"classic-offset"`
	TokenTTL    time.Duration `envconfig:"CLASSICOFFSET_PUSH_TOKEN_TTL" default:"5m"`
	Timeout     time.Duration `envconfig:"CLASSICOFFSET_PUSH_TIMEOUT" default:"10s"`
}

// Enabled reports whether push delivery is configured at all.
func (p PushConfig) Enabled() bool {
	return strings.TrimSpace(p.Endpoint) != ""
}

type NotificationsConfig struct {
	RetentionDays  int           `envconfig:"CLASSICOFFSET_NOTIFICATIONS_RETENTION_DAYS" default:"90"`
	CleanupLockTTL time.Duration `envconfig:"CLASSICOFFSET_NOTIFICATIONS_CLEANUP_LOCK_TTL" default:"1h"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"CLASSICOFFSET_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"CLASSICOFFSET_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"CLASSICOFFSET_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CLASSICOFFSET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CLASSICOFFSET_AUTO_MIGRATE" default:"false"`
}
