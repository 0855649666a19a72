package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "DUKAPAY"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names, exported so tests and tooling can set them
// without repeating string literals.
const (
	EnvAppEnv   = "DUKAPAY_APP_ENV"
	EnvPort     = "DUKAPAY_APP_PORT"
	EnvLogLevel = "DUKAPAY_LOG_LEVEL"

	EnvDBDSN  = "DUKAPAY_DB_DSN"
	EnvDBHost = "DUKAPAY_DB_HOST"
	EnvDBUser = "DUKAPAY_DB_USER"
	EnvDBName = "DUKAPAY_DB_NAME"

	EnvRedisURL = "DUKAPAY_REDIS_URL"

	EnvJWTSecret  = "DUKAPAY_JWT_SECRET"
	EnvJWTIssuer  = "DUKAPAY_JWT_ISSUER"
	EnvJWTExpMins = "DUKAPAY_JWT_EXPIRATION_MINUTES"

	EnvEncryptionKey = "DUKAPAY_ENCRYPTION_KEY"

	EnvGCPProjectID = "DUKAPAY_GCP_PROJECT_ID"

	EnvPubSubPaymentsTopic = "DUKAPAY_PUBSUB_PAYMENTS_TOPIC"
	EnvPubSubPaymentsSub   = "DUKAPAY_PUBSUB_PAYMENTS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
