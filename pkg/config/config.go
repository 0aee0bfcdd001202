package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Inventory    InventoryConfig
	Alerting     AlertingConfig
	Forecast     ForecastConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"AGRIMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRIMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGRIMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRIMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AGRIMARKET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AGRIMARKET_DB_DSN"`
	Driver string `envconfig:"AGRIMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGRIMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"AGRIMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGRIMARKET_DB_USER"`
	LegacyPassword string `envconfig:"AGRIMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGRIMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGRIMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGRIMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRIMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRIMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRIMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRIMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRIMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"AGRIMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRIMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRIMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRIMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRIMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRIMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRIMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// InventoryConfig tunes the reservation engine.
type InventoryConfig struct {
	// ConflictRetries bounds internal retries on serialization failures
	// before surfacing TRANSIENT_CONFLICT to the caller.
	ConflictRetries int `envconfig:"AGRIMARKET_INVENTORY_CONFLICT_RETRIES" default:"3"`
	// ReservationTTL is how long an active hold may sit unreleased and
	// uncommitted before the expiry job reclaims it.
	ReservationTTL time.Duration `envconfig:"AGRIMARKET_INVENTORY_RESERVATION_TTL" default:"24h"`
}

type AlertingConfig struct {
	// DefaultFrequencyHours is the per-product cool-down applied when the
	// ledger entry does not carry its own value.
	DefaultFrequencyHours int `envconfig:"AGRIMARKET_ALERT_FREQUENCY_HOURS" default:"24"`
}

type ForecastConfig struct {
	WindowDays  int `envconfig:"AGRIMARKET_FORECAST_WINDOW_DAYS" default:"30"`
	HorizonDays int `envconfig:"AGRIMARKET_FORECAST_HORIZON_DAYS" default:"14"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AGRIMARKET_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"AGRIMARKET_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AGRIMARKET_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"AGRIMARKET_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AGRIMARKET_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"AGRIMARKET_PUBSUB_NOTIFICATION_TOPIC" default:"am-inventory-alerts"`
	NotificationSubscription string `envconfig:"AGRIMARKET_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AGRIMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AGRIMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AGRIMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	// Interval is the sweep cadence. The reservation TTL job rides the
	// same ticker, so keep it well under the shortest hold TTL.
	Interval                  time.Duration `envconfig:"AGRIMARKET_CRON_INTERVAL" default:"5m"`
	ExpiryBatchSize           int           `envconfig:"AGRIMARKET_CRON_EXPIRY_BATCH_SIZE" default:"200"`
	OutboxRetentionDays       int           `envconfig:"AGRIMARKET_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	NotificationRetentionDays int           `envconfig:"AGRIMARKET_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
