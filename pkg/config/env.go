package config

const (
	EnvPrefix = "ROWN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "ROWN_APP_ENV"
	EnvPort     = "ROWN_APP_PORT"
	EnvLogLevel = "ROWN_LOG_LEVEL"

	EnvDBDSN  = "ROWN_DB_DSN"
	EnvDBHost = "ROWN_DB_HOST"
	EnvDBUser = "ROWN_DB_USER"
	EnvDBName = "ROWN_DB_NAME"

	EnvRedisURL = "ROWN_REDIS_URL"

	EnvSessionSecret = "ROWN_SESSION_SECRET"
	EnvSessionTTL    = "ROWN_SESSION_TTL"

	EnvGCPProjectID      = "ROWN_GCP_PROJECT_ID"
	EnvGCSBucket         = "ROWN_GCS_BUCKET_NAME"
	EnvProofEndpoint     = "ROWN_PROOF_UPLOAD_ENDPOINT"
	EnvProofAPIKey       = "ROWN_PROOF_UPLOAD_API_KEY"
	EnvDeliveryFee       = "ROWN_CHECKOUT_DELIVERY_FEE"
	EnvMerchantNumber    = "ROWN_MESSAGING_MERCHANT_NUMBER"
	EnvPubSubOrdersTopic = "ROWN_PUBSUB_ORDERS_TOPIC"
	EnvCORSOrigins       = "ROWN_CORS_ALLOWED_ORIGINS"
)

// legacyDBEnvVars are the parts required to assemble a DSN when ROWN_DB_DSN is unset.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
