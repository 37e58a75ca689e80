package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "ORDERFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "ORDERFLOW_APP_ENV"
	EnvPort     = "ORDERFLOW_APP_PORT"
	EnvLogLevel = "ORDERFLOW_LOG_LEVEL"

	EnvDBDSN    = "ORDERFLOW_DB_DSN"
	EnvDBDriver = "ORDERFLOW_DB_DRIVER"
	EnvDBHost   = "ORDERFLOW_DB_HOST"
	EnvDBUser   = "ORDERFLOW_DB_USER"
	EnvDBName   = "ORDERFLOW_DB_NAME"
	EnvDBPass   = "ORDERFLOW_DB_PASSWORD"

	EnvRedisURL = "ORDERFLOW_REDIS_URL"

	EnvGCPProjectID = "ORDERFLOW_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic = "ORDERFLOW_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub   = "ORDERFLOW_PUBSUB_ORDERS_SUBSCRIPTION"

	EnvCronAbandonedCartDays = "ORDERFLOW_CRON_ABANDONED_CART_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
