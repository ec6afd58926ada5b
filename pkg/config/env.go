package config

// EnvPrefix is applied by envconfig to fields without explicit tags.
const EnvPrefix = "hirfa"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Canonical environment variable names, shared with tests and deploy tooling.
const (
	EnvAppEnv   = "HIRFA_APP_ENV"
	EnvPort     = "HIRFA_APP_PORT"
	EnvLogLevel = "HIRFA_LOG_LEVEL"

	EnvDBDSN    = "HIRFA_DB_DSN"
	EnvDBHost   = "HIRFA_DB_HOST"
	EnvDBPort   = "HIRFA_DB_PORT"
	EnvDBUser   = "HIRFA_DB_USER"
	EnvDBName   = "HIRFA_DB_NAME"
	EnvRedisURL = "HIRFA_REDIS_URL"

	EnvGCPProjectID       = "HIRFA_GCP_PROJECT_ID"
	EnvPubSubDomainTopic  = "HIRFA_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub    = "HIRFA_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvPolicyVATRate      = "HIRFA_POLICY_VAT_RATE"
	EnvPolicyCoopFeeRate  = "HIRFA_POLICY_COOPERATIVE_FEE_RATE"
	EnvPolicyMinPayout    = "HIRFA_POLICY_MINIMUM_PAYOUT_THRESHOLD"
	EnvPolicyEscrowDays   = "HIRFA_POLICY_ESCROW_HOLD_DAYS"
	EnvPolicySurcharge    = "HIRFA_POLICY_LOGISTICS_SURCHARGE"
	EnvPolicyDeviationPct = "HIRFA_POLICY_DEVIATION_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
