package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ORTHODESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ORTHODESK_DB_DSN"
	EnvDBHost = "ORTHODESK_DB_HOST"
	EnvDBUser = "ORTHODESK_DB_USER"
	EnvDBName = "ORTHODESK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	GoogleMaps    GoogleMapsConfig
	Media         MediaConfig
	Social        SocialConfig
	PubSub        PubSubConfig
	Worker        WorkerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORTHODESK_APP_ENV" required:"true"`
	Port         string `envconfig:"ORTHODESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORTHODESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORTHODESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ORTHODESK_DB_DSN"`
	Driver string `envconfig:"ORTHODESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORTHODESK_DB_HOST"`
	LegacyPort     int    `envconfig:"ORTHODESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORTHODESK_DB_USER"`
	LegacyPassword string `envconfig:"ORTHODESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORTHODESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORTHODESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORTHODESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORTHODESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORTHODESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORTHODESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORTHODESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORTHODESK_REDIS_ADDR"`
	Password     string        `envconfig:"ORTHODESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORTHODESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORTHODESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORTHODESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORTHODESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORTHODESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORTHODESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ORTHODESK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ORTHODESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ORTHODESK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ORTHODESK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ORTHODESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ORTHODESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ORTHODESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ORTHODESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ORTHODESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ORTHODESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ORTHODESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ORTHODESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ORTHODESK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ORTHODESK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ORTHODESK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORTHODESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORTHODESK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ORTHODESK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ORTHODESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ORTHODESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"ORTHODESK_GOOGLE_MAPS_API_KEY"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"ORTHODESK_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"ORTHODESK_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"ORTHODESK_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type MediaConfig struct {
	MaxBatchFiles    int           `envconfig:"ORTHODESK_MEDIA_MAX_BATCH_FILES" default:"10"`
	UploadSessionTTL time.Duration `envconfig:"ORTHODESK_MEDIA_UPLOAD_SESSION_TTL" default:"30m"`
	PickerSessionTTL time.Duration `envconfig:"ORTHODESK_MEDIA_PICKER_SESSION_TTL" default:"30m"`
	MaxTagLength     int           `envconfig:"ORTHODESK_MEDIA_MAX_TAG_LENGTH" default:"40"`
}

type SocialConfig struct {
	MaxPostMedia int `envconfig:"ORTHODESK_SOCIAL_MAX_POST_MEDIA" default:"5"`
}

type PubSubConfig struct {
	PostEventsTopic        string `envconfig:"ORTHODESK_PUBSUB_POST_EVENTS_TOPIC" default:"od-post-events"`
	PostEventsSubscription string `envconfig:"ORTHODESK_PUBSUB_POST_EVENTS_SUBSCRIPTION"`
}

type WorkerConfig struct {
	PublishInterval time.Duration `envconfig:"ORTHODESK_WORKER_PUBLISH_INTERVAL" default:"1m"`
	PublishBatch    int           `envconfig:"ORTHODESK_WORKER_PUBLISH_BATCH" default:"25"`
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
