package config

// EnvPrefix scopes every envconfig lookup.
const EnvPrefix = "AGRIBAZAAR"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "AGRIBAZAAR_APP_ENV"
	EnvPort     = "AGRIBAZAAR_APP_PORT"
	EnvDBDSN    = "AGRIBAZAAR_DB_DSN"
	EnvDBHost   = "AGRIBAZAAR_DB_HOST"
	EnvDBUser   = "AGRIBAZAAR_DB_USER"
	EnvDBName   = "AGRIBAZAAR_DB_NAME"
	EnvRedisURL = "AGRIBAZAAR_REDIS_URL"

	EnvGCPProjectID      = "AGRIBAZAAR_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "AGRIBAZAAR_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
