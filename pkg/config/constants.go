package config

const EnvPrefix = "LCC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "LCC_APP_ENV"
	EnvPort                   = "LCC_APP_PORT"
	EnvDBDSN                  = "LCC_DB_DSN"
	EnvDBHost                 = "LCC_DB_HOST"
	EnvDBUser                 = "LCC_DB_USER"
	EnvDBName                 = "LCC_DB_NAME"
	EnvUseSQLite              = "LCC_USE_SQLITE"
	EnvRedisURL               = "LCC_REDIS_URL"
	EnvJWTSecret              = "LCC_JWT_SECRET"
	EnvJWTIssuer              = "LCC_JWT_ISSUER"
	EnvJWTExpMins             = "LCC_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "LCC_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "LCC_GCP_PROJECT_ID"
	EnvPubSubDomainTopic      = "LCC_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub        = "LCC_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvCronInterval           = "LCC_CRON_INTERVAL"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
