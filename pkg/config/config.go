package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "bakeshop"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "BAKESHOP_APP_ENV"
	EnvDBDSN     = "BAKESHOP_DB_DSN"
	EnvDBHost    = "BAKESHOP_DB_HOST"
	EnvDBUser    = "BAKESHOP_DB_USER"
	EnvDBName    = "BAKESHOP_DB_NAME"
	EnvRedisURL  = "BAKESHOP_REDIS_URL"
	EnvJWTSecret = "BAKESHOP_JWT_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Spoonacular   SpoonacularConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = "bakeshop.db"
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAKESHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"BAKESHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BAKESHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAKESHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BAKESHOP_DB_DSN"`
	Driver string `envconfig:"BAKESHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAKESHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"BAKESHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAKESHOP_DB_USER"`
	LegacyPassword string `envconfig:"BAKESHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAKESHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAKESHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAKESHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAKESHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAKESHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAKESHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAKESHOP_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"BAKESHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAKESHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAKESHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAKESHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAKESHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BAKESHOP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BAKESHOP_JWT_ISSUER" default:"bakeshop"`
	ExpirationMinutes      int    `envconfig:"BAKESHOP_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"BAKESHOP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAKESHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAKESHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BAKESHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BAKESHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAKESHOP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"BAKESHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"BAKESHOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"BAKESHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"BAKESHOP_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"BAKESHOP_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"BAKESHOP_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type SpoonacularConfig struct {
	APIKey  string        `envconfig:"BAKESHOP_SPOONACULAR_API_KEY"`
	BaseURL string        `envconfig:"BAKESHOP_SPOONACULAR_BASE_URL" default:"https://api.spoonacular.com"`
	Timeout time.Duration `envconfig:"BAKESHOP_SPOONACULAR_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BAKESHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BAKESHOP_AUTO_MIGRATE" default:"false"`
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
