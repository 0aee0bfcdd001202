package config

// EnvPrefix is passed to envconfig; individual fields carry the full
// AGRIMARKET_* names so the prefix only matters for unannotated fields.
const EnvPrefix = "AGRIMARKET"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "AGRIMARKET_APP_ENV"
	EnvPort     = "AGRIMARKET_APP_PORT"
	EnvDBDSN    = "AGRIMARKET_DB_DSN"
	EnvDBHost   = "AGRIMARKET_DB_HOST"
	EnvDBUser   = "AGRIMARKET_DB_USER"
	EnvDBName   = "AGRIMARKET_DB_NAME"
	EnvRedisURL = "AGRIMARKET_REDIS_URL"

	EnvGCPProjectID               = "AGRIMARKET_GCP_PROJECT_ID"
	EnvPubSubNotificationTopic    = "AGRIMARKET_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub      = "AGRIMARKET_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvInventoryConflictRetries   = "AGRIMARKET_INVENTORY_CONFLICT_RETRIES"
	EnvInventoryReservationTTL    = "AGRIMARKET_INVENTORY_RESERVATION_TTL"
	EnvAlertFrequencyHours        = "AGRIMARKET_ALERT_FREQUENCY_HOURS"
	EnvForecastWindowDays         = "AGRIMARKET_FORECAST_WINDOW_DAYS"
	EnvForecastHorizonDays        = "AGRIMARKET_FORECAST_HORIZON_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
