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
	Store        StoreConfig
	DB           DBConfig
	Redis        RedisConfig
	Notify       NotifyConfig
	FeatureFlags FeatureFlagsConfig
	Metrics      MetricsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notify.validate(); err != nil {
		return nil, err
	}
	if cfg.NeedsDB() && !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.NeedsRedis() && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("either %s or %s is required for the redis %s", EnvRedisURL, EnvRedisAddr, cfg.redisUsage())
	}
	return &cfg, nil
}

// NeedsDB reports whether any configured component talks to the SQL database.
func (c Config) NeedsDB() bool {
	return c.Store.Driver == StoreDriverPostgres || c.Notify.Driver == NotifyDriverOutbox
}

func (c Config) NeedsRedis() bool {
	return c.Store.Driver == StoreDriverRedis || c.Notify.Driver == NotifyDriverRedis
}

func (c Config) redisUsage() string {
	if c.Store.Driver == StoreDriverRedis {
		return "store"
	}
	return "notifier"
}

type AppConfig struct {
	Env          string   `envconfig:"INVOICETRACK_APP_ENV" required:"true"`
	Port         string   `envconfig:"INVOICETRACK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"INVOICETRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"INVOICETRACK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"INVOICETRACK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"INVOICETRACK_SERVICE_KIND" default:"api"`
}

// StoreConfig selects the backend that holds current invoices and their history.
type StoreConfig struct {
	Driver       string        `envconfig:"INVOICETRACK_STORE_DRIVER" default:"postgres"`
	RetentionTTL time.Duration `envconfig:"INVOICETRACK_STORE_RETENTION_TTL" default:"8760h"`
	KeyNamespace string        `envconfig:"INVOICETRACK_STORE_KEY_NAMESPACE" default:"it"`
}

func (s StoreConfig) validate() error {
	switch s.Driver {
	case StoreDriverMemory, StoreDriverPostgres, StoreDriverRedis:
		return nil
	}
	return fmt.Errorf("%s must be one of %s|%s|%s, got %q", EnvStoreDriver, StoreDriverMemory, StoreDriverPostgres, StoreDriverRedis, s.Driver)
}

type DBConfig struct {
	DSN    string `envconfig:"INVOICETRACK_DB_DSN"`
	Driver string `envconfig:"INVOICETRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INVOICETRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"INVOICETRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INVOICETRACK_DB_USER"`
	LegacyPassword string `envconfig:"INVOICETRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"INVOICETRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"INVOICETRACK_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"INVOICETRACK_DB_SQLITE_PATH" default:"invoicetrack.db"`

	MaxOpenConns    int           `envconfig:"INVOICETRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INVOICETRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INVOICETRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INVOICETRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"INVOICETRACK_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INVOICETRACK_REDIS_URL"`
	Address      string        `envconfig:"INVOICETRACK_REDIS_ADDR"`
	Password     string        `envconfig:"INVOICETRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"INVOICETRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INVOICETRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INVOICETRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INVOICETRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INVOICETRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INVOICETRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// NotifyConfig selects where lifecycle events are delivered after a commit.
type NotifyConfig struct {
	Driver       string `envconfig:"INVOICETRACK_NOTIFY_DRIVER" default:"log"`
	RedisChannel string `envconfig:"INVOICETRACK_NOTIFY_REDIS_CHANNEL" default:"invoicetrack:invoice-events"`
}

func (n NotifyConfig) validate() error {
	switch n.Driver {
	case NotifyDriverLog, NotifyDriverRedis, NotifyDriverOutbox:
		return nil
	}
	return fmt.Errorf("%s must be one of %s|%s|%s, got %q", EnvNotifyDriver, NotifyDriverLog, NotifyDriverRedis, NotifyDriverOutbox, n.Driver)
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"INVOICETRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"INVOICETRACK_AUTO_MIGRATE" default:"false"`
}

// MetricsConfig toggles Prometheus collection. The API serves /metrics on its
// own router; workers listen on WorkerAddr.
type MetricsConfig struct {
	Enabled    bool   `envconfig:"INVOICETRACK_METRICS_ENABLED" default:"true"`
	WorkerAddr string `envconfig:"INVOICETRACK_METRICS_WORKER_ADDR" default:":9464"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"INVOICETRACK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"INVOICETRACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"INVOICETRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	InvoiceTopic        string `envconfig:"INVOICETRACK_PUBSUB_INVOICE_TOPIC" default:"it-invoice-events"`
	InvoiceSubscription string `envconfig:"INVOICETRACK_PUBSUB_INVOICE_SUBSCRIPTION"`
	EmulatorHost        string `envconfig:"INVOICETRACK_PUBSUB_EMULATOR_HOST"`
	AutoCreate          bool   `envconfig:"INVOICETRACK_PUBSUB_AUTO_CREATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"INVOICETRACK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"INVOICETRACK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"INVOICETRACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig drives the cron worker's outbox housekeeping.
type MaintenanceConfig struct {
	Interval         time.Duration `envconfig:"INVOICETRACK_MAINTENANCE_INTERVAL" default:"1h"`
	JobTimeout       time.Duration `envconfig:"INVOICETRACK_MAINTENANCE_JOB_TIMEOUT" default:"10m"`
	OutboxRetention  time.Duration `envconfig:"INVOICETRACK_MAINTENANCE_OUTBOX_RETENTION" default:"720h"`
	DLQRetention     time.Duration `envconfig:"INVOICETRACK_MAINTENANCE_DLQ_RETENTION" default:"2160h"`
	BacklogThreshold int64         `envconfig:"INVOICETRACK_MAINTENANCE_BACKLOG_THRESHOLD" default:"1000"`
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
