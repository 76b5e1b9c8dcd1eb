package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "SOKOWEAR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	FeatureFlags  FeatureFlagsConfig
	GCS           GCSConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.TaxMultiplier(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOKOWEAR_APP_ENV" required:"true"`
	Port         string `envconfig:"SOKOWEAR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SOKOWEAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOKOWEAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SOKOWEAR_DB_DSN"`
	Driver string `envconfig:"SOKOWEAR_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SOKOWEAR_DB_HOST"`
	Port     int    `envconfig:"SOKOWEAR_DB_PORT" default:"5432"`
	User     string `envconfig:"SOKOWEAR_DB_USER"`
	Password string `envconfig:"SOKOWEAR_DB_PASSWORD"`
	Name     string `envconfig:"SOKOWEAR_DB_NAME"`
	SSLMode  string `envconfig:"SOKOWEAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOKOWEAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOKOWEAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOKOWEAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOKOWEAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN derives a Postgres DSN from the discrete host settings when one is
// not provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("db config requires SOKOWEAR_DB_DSN or host/user/name settings")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SOKOWEAR_REDIS_URL"`
	Address      string        `envconfig:"SOKOWEAR_REDIS_ADDR"`
	Password     string        `envconfig:"SOKOWEAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOKOWEAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOKOWEAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOKOWEAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOKOWEAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOKOWEAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOKOWEAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SOKOWEAR_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SOKOWEAR_JWT_ISSUER" default:"sokowear"`
	ExpirationMinutes      int    `envconfig:"SOKOWEAR_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"SOKOWEAR_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SOKOWEAR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SOKOWEAR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SOKOWEAR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SOKOWEAR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SOKOWEAR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SOKOWEAR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SOKOWEAR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SOKOWEAR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SOKOWEAR_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SOKOWEAR_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SOKOWEAR_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// CheckoutConfig carries the pricing knobs shared by the cart summary and the
// order submission path. Both must read the same multiplier so the displayed
// total and the charged amount never diverge.
type CheckoutConfig struct {
	TaxRate  string `envconfig:"SOKOWEAR_CHECKOUT_TAX_RATE" default:"1.08"`
	Currency string `envconfig:"SOKOWEAR_CHECKOUT_CURRENCY" default:"KES"`
}

// TaxMultiplier parses the configured rate into a decimal multiplier.
func (c CheckoutConfig) TaxMultiplier() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate %q: %w", c.TaxRate, err)
	}
	if rate.LessThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("tax rate %q must be a multiplier >= 1", c.TaxRate)
	}
	return rate, nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SOKOWEAR_AUTO_MIGRATE" default:"false"`
}

type GCSConfig struct {
	BucketName      string `envconfig:"SOKOWEAR_GCS_BUCKET_NAME"`
	CredentialsJSON string `envconfig:"SOKOWEAR_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"SOKOWEAR_GOOGLE_APPLICATION_CREDENTIALS"`
	MaxUploadMB     int    `envconfig:"SOKOWEAR_GCS_MAX_UPLOAD_MB" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SOKOWEAR_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
