package config

// EnvPrefix is handed to envconfig; every field carries its full key explicitly.
const EnvPrefix = "INVOICETRACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"

	NotifyDriverLog    = "log"
	NotifyDriverRedis  = "redis"
	NotifyDriverOutbox = "outbox"
)

const (
	EnvAppEnv   = "INVOICETRACK_APP_ENV"
	EnvPort     = "INVOICETRACK_APP_PORT"
	EnvLogLevel = "INVOICETRACK_LOG_LEVEL"

	EnvStoreDriver       = "INVOICETRACK_STORE_DRIVER"
	EnvStoreRetentionTTL = "INVOICETRACK_STORE_RETENTION_TTL"

	EnvDBDSN  = "INVOICETRACK_DB_DSN"
	EnvDBHost = "INVOICETRACK_DB_HOST"
	EnvDBUser = "INVOICETRACK_DB_USER"
	EnvDBName = "INVOICETRACK_DB_NAME"

	EnvRedisURL  = "INVOICETRACK_REDIS_URL"
	EnvRedisAddr = "INVOICETRACK_REDIS_ADDR"

	EnvNotifyDriver       = "INVOICETRACK_NOTIFY_DRIVER"
	EnvNotifyRedisChannel = "INVOICETRACK_NOTIFY_REDIS_CHANNEL"

	EnvUseSQLite   = "INVOICETRACK_USE_SQLITE"
	EnvAutoMigrate = "INVOICETRACK_AUTO_MIGRATE"

	EnvGCPProjectID       = "INVOICETRACK_GCP_PROJECT_ID"
	EnvPubSubInvoiceTopic = "INVOICETRACK_PUBSUB_INVOICE_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
