package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Policy       PolicyConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	if err := cfg.Policy.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"HIRFA_APP_ENV" required:"true"`
	Port         string   `envconfig:"HIRFA_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"HIRFA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"HIRFA_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"HIRFA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HIRFA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HIRFA_DB_DSN"`
	Driver string `envconfig:"HIRFA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HIRFA_DB_HOST"`
	LegacyPort     int    `envconfig:"HIRFA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HIRFA_DB_USER"`
	LegacyPassword string `envconfig:"HIRFA_DB_PASSWORD"`
	LegacyName     string `envconfig:"HIRFA_DB_NAME"`
	LegacySSLMode  string `envconfig:"HIRFA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HIRFA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HIRFA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HIRFA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HIRFA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HIRFA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HIRFA_REDIS_ADDR"`
	Password     string        `envconfig:"HIRFA_REDIS_PASSWORD"`
	DB           int           `envconfig:"HIRFA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HIRFA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HIRFA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HIRFA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HIRFA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HIRFA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PolicyConfig carries the marketplace's financial policy constants. Every
// rate and threshold used by pricing, escrow, and payouts is sourced from
// here so deployments can retune policy without a code change.
type PolicyConfig struct {
	VATRate                decimal.Decimal `envconfig:"HIRFA_POLICY_VAT_RATE" default:"0.14"`
	CooperativeFeeRate     decimal.Decimal `envconfig:"HIRFA_POLICY_COOPERATIVE_FEE_RATE" default:"0.05"`
	LogisticsSurcharge     decimal.Decimal `envconfig:"HIRFA_POLICY_LOGISTICS_SURCHARGE" default:"10"`
	EscrowHoldDays         int             `envconfig:"HIRFA_POLICY_ESCROW_HOLD_DAYS" default:"14"`
	MinimumPayoutThreshold decimal.Decimal `envconfig:"HIRFA_POLICY_MINIMUM_PAYOUT_THRESHOLD" default:"500"`
	DeviationThreshold     decimal.Decimal `envconfig:"HIRFA_POLICY_DEVIATION_THRESHOLD" default:"0.20"`
}

func (p PolicyConfig) validate() error {
	one := decimal.NewFromInt(1)
	if p.VATRate.IsNegative() || p.VATRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("%s must be in [0, 1)", EnvPolicyVATRate)
	}
	if p.CooperativeFeeRate.IsNegative() || p.CooperativeFeeRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("%s must be in [0, 1)", EnvPolicyCoopFeeRate)
	}
	if p.LogisticsSurcharge.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvPolicySurcharge)
	}
	if p.EscrowHoldDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvPolicyEscrowDays)
	}
	if !p.MinimumPayoutThreshold.IsPositive() {
		return fmt.Errorf("%s must be positive", EnvPolicyMinPayout)
	}
	if !p.DeviationThreshold.IsPositive() {
		return fmt.Errorf("%s must be positive", EnvPolicyDeviationPct)
	}
	return nil
}

// RateLimitConfig throttles payout submissions. A window of zero disables
// the limiter entirely.
type RateLimitConfig struct {
	PayoutWindow      time.Duration `envconfig:"HIRFA_RATE_LIMIT_PAYOUT_WINDOW" default:"1m"`
	PayoutIPLimit     int           `envconfig:"HIRFA_RATE_LIMIT_PAYOUT_IP_LIMIT" default:"30"`
	PayoutVendorLimit int           `envconfig:"HIRFA_RATE_LIMIT_PAYOUT_VENDOR_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HIRFA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HIRFA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HIRFA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HIRFA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HIRFA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"HIRFA_PUBSUB_DOMAIN_TOPIC" default:"hirfa-domain-events"`
	DomainSubscription string `envconfig:"HIRFA_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HIRFA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HIRFA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HIRFA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	EscrowReleaseInterval   time.Duration `envconfig:"HIRFA_CRON_ESCROW_RELEASE_INTERVAL" default:"5m"`
	ReconciliationInterval  time.Duration `envconfig:"HIRFA_CRON_RECONCILIATION_INTERVAL" default:"1h"`
	OutboxRetentionInterval time.Duration `envconfig:"HIRFA_CRON_OUTBOX_RETENTION_INTERVAL" default:"24h"`
	JobLockTTL              time.Duration `envconfig:"HIRFA_CRON_JOB_LOCK_TTL" default:"4m"`
	ReleaseBatchSize        int           `envconfig:"HIRFA_CRON_ESCROW_RELEASE_BATCH_SIZE" default:"100"`
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
