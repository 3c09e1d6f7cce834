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
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	ProofUpload  ProofUploadConfig
	Checkout     CheckoutConfig
	Messaging    MessagingConfig
	PubSub       PubSubConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Checkout.DeliveryFee.IsNegative() {
		return nil, fmt.Errorf("%s must not be negative", EnvDeliveryFee)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ROWN_APP_ENV" required:"true"`
	Port         string `envconfig:"ROWN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ROWN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROWN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig is optional: without a DSN the catalog serves the fallback menu
// and order writes report the store as unconfigured.
type DBConfig struct {
	DSN string `envconfig:"ROWN_DB_DSN"`

	LegacyHost     string `envconfig:"ROWN_DB_HOST"`
	LegacyPort     int    `envconfig:"ROWN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ROWN_DB_USER"`
	LegacyPassword string `envconfig:"ROWN_DB_PASSWORD"`
	LegacyName     string `envconfig:"ROWN_DB_NAME"`
	LegacySSLMode  string `envconfig:"ROWN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROWN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROWN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROWN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROWN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Configured reports whether a relational store was supplied.
func (db DBConfig) Configured() bool {
	return strings.TrimSpace(db.DSN) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"ROWN_REDIS_URL"`
	Address      string        `envconfig:"ROWN_REDIS_ADDR"`
	Password     string        `envconfig:"ROWN_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROWN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROWN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROWN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROWN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROWN_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"ROWN_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// SessionConfig controls guest storefront sessions. The TTL bounds both the
// token lifetime and the cart/handoff slots kept for the session.
type SessionConfig struct {
	Secret string        `envconfig:"ROWN_SESSION_SECRET" required:"true"`
	Issuer string        `envconfig:"ROWN_SESSION_ISSUER" default:"rown-coffee"`
	TTL    time.Duration `envconfig:"ROWN_SESSION_TTL" default:"24h"`
}

type RateLimitConfig struct {
	Window          time.Duration `envconfig:"ROWN_RATE_LIMIT_WINDOW" default:"1m"`
	CheckoutIPLimit int           `envconfig:"ROWN_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"20"`
	UploadIPLimit   int           `envconfig:"ROWN_RATE_LIMIT_UPLOAD_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate  bool `envconfig:"ROWN_AUTO_MIGRATE" default:"false"`
	AtomicOrders bool `envconfig:"ROWN_ATOMIC_ORDERS" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ROWN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ROWN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ROWN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"ROWN_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"ROWN_GCS_PUBLIC_BASE_URL" default:"/payment-proof"`
}

// Configured reports whether proofs can be written to object storage.
func (g GCSConfig) Configured() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

// ProofUploadConfig selects the edge upload endpoint instead of direct object storage writes.
type ProofUploadConfig struct {
	Endpoint string        `envconfig:"ROWN_PROOF_UPLOAD_ENDPOINT"`
	APIKey   string        `envconfig:"ROWN_PROOF_UPLOAD_API_KEY"`
	Folder   string        `envconfig:"ROWN_PROOF_UPLOAD_FOLDER" default:"payment-proofs"`
	Timeout  time.Duration `envconfig:"ROWN_PROOF_UPLOAD_TIMEOUT" default:"30s"`
}

func (p ProofUploadConfig) Configured() bool {
	return strings.TrimSpace(p.Endpoint) != ""
}

type CheckoutConfig struct {
	DeliveryFee  decimal.Decimal `envconfig:"ROWN_CHECKOUT_DELIVERY_FEE" default:"0"`
	MaxRequestMB int             `envconfig:"ROWN_MAX_REQUEST_MB" default:"12"`
}

// MaxRequestBytes returns the request body cap applied to checkout and uploads.
func (c CheckoutConfig) MaxRequestBytes() int64 {
	if c.MaxRequestMB <= 0 {
		return 12 << 20
	}
	return int64(c.MaxRequestMB) << 20
}

type MessagingConfig struct {
	Host           string `envconfig:"ROWN_MESSAGING_HOST" default:"wa.me"`
	MerchantNumber string `envconfig:"ROWN_MESSAGING_MERCHANT_NUMBER" default:"6285289378734"`
	StoreName      string `envconfig:"ROWN_MESSAGING_STORE_NAME" default:"Rown Coffee"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"ROWN_PUBSUB_ORDERS_TOPIC"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ROWN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	missing := []string{}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) == len(legacyDBEnvVars) {
		return nil
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
