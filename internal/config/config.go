package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Record store and image host backends selectable at startup.
const (
	RecordStoreAirtable = "airtable"
	RecordStoreDynamo   = "dynamo"

	ImageHostCloudinary = "cloudinary"
	ImageHostS3         = "s3"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string        `env:"APP_PORT" env-default:"3000"`
	AppEnv         string        `env:"APP_ENV" env-default:"development"`
	LogLevel       string        `env:"LOG_LEVEL" env-default:"info"`
	PublicSiteURL  string        `env:"PUBLIC_SITE_URL" env-default:"https://utahreia.org/property-listing-page"`
	ListingFormURL string        `env:"LISTING_FORM_URL" env-default:"https://utahreia.org/property-listing-page"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	// UpstreamTimeout bounds every call to the record store, mail relay, CAPTCHA verifier and image host.
	UpstreamTimeout time.Duration `env:"HTTP_UPSTREAM_TIMEOUT" env-default:"10s"`
	// TrustProxy takes the client address from X-Forwarded-For and X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool `env:"TRUST_PROXY" env-default:"false"`

	CORS         CORS
	Verification Verification
	RecordStore  RecordStore
	Airtable     Airtable
	AWS          AWS
	DynamoTables DynamoTables
	Images       Images
	Cloudinary   Cloudinary
	S3           S3
	SMTP         SMTP
	SNS          SNS
	Captcha      Captcha
	Redis        Redis
	JWT          JWT
	Listings     Listings
}

type CORS struct {
	AllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"https://utahreia.org,https://www.utahreia.org,https://app.gohighlevel.com,http://localhost:3000,http://127.0.0.1:3000,http://localhost:5500,http://127.0.0.1:5500"`
	TrustedSuffixes []string `env:"CORS_TRUSTED_SUFFIXES" env-separator:"," env-default:".gohighlevel.com,.leadconnectorhq.com,.msgsndr.com"`
}

// Verification configures the ownership-verification token scheme.
// Exactly one of Secret or SecretKMSCiphertext must be set; see cmd/api.
type Verification struct {
	Secret              string        `env:"VERIFICATION_SECRET"`
	SecretKMSCiphertext string        `env:"VERIFICATION_SECRET_KMS_CIPHERTEXT"`
	TTL                 time.Duration `env:"VERIFICATION_TTL" env-default:"10m"`
}

type RecordStore struct {
	Backend          string `env:"RECORD_STORE" env-default:"airtable"`
	PropertiesTable  string `env:"PROPERTIES_TABLE" env-default:"Properties"`
	SubscribersTable string `env:"SUBSCRIBERS_TABLE" env-default:"Subscribers"`
	InquiriesTable   string `env:"INQUIRIES_TABLE" env-default:"Inquiries"`
}

type Airtable struct {
	APIKey  string `env:"AIRTABLE_API_KEY"`
	BaseID  string `env:"AIRTABLE_BASE_ID"`
	BaseURL string `env:"AIRTABLE_BASE_URL" env-default:"https://api.airtable.com/v0"`
}

type AWS struct {
	Region      string `env:"AWS_REGION" env-default:"us-east-1"`
	EndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	SecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
}

// DynamoTables maps logical record-store tables to DynamoDB table names.
type DynamoTables struct {
	Properties  string `env:"DYNAMO_TABLE_PROPERTIES" env-default:"properties"`
	Subscribers string `env:"DYNAMO_TABLE_SUBSCRIBERS" env-default:"subscribers"`
	Inquiries   string `env:"DYNAMO_TABLE_INQUIRIES" env-default:"inquiries"`
}

type Images struct {
	Backend  string `env:"IMAGE_HOST" env-default:"cloudinary"`
	MaxBytes int    `env:"IMAGE_MAX_BYTES" env-default:"4194304"`
}

type Cloudinary struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
	BaseURL   string `env:"CLOUDINARY_BASE_URL" env-default:"https://api.cloudinary.com/v1_1"`
}

type S3 struct {
	Bucket        string `env:"S3_BUCKET_NAME" env-default:"property-images"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

type SMTP struct {
	Host     string `env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	FromName string `env:"SMTP_FROM_NAME" env-default:"Utah REIA Property Listing"`
}

// Configured reports whether enough SMTP settings are present to deliver mail.
func (s SMTP) Configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

type SNS struct {
	TopicARN string `env:"SNS_LISTING_TOPIC_ARN"`
}

type Captcha struct {
	Secret    string `env:"CAPTCHA_SECRET"`
	VerifyURL string `env:"CAPTCHA_VERIFY_URL" env-default:"https://www.google.com/recaptcha/api/siteverify"`
}

// Redis is optional. When Addr is set, rate-limit counters are shared through Redis
// and new-listing fan-out runs on an asynq queue instead of in-process goroutines.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type JWT struct {
	PrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" env-default:"./private_key.pem"`
	PublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" env-default:"./public_key.pem"`
	Expiry         time.Duration `env:"JWT_EXPIRY" env-default:"24h"`
}

// Listings holds the lifecycle rules for published properties.
type Listings struct {
	ExpirationDays int           `env:"LISTING_EXPIRATION_DAYS" env-default:"90"`
	WarningDays    int           `env:"LISTING_WARNING_DAYS" env-default:"14"`
	DigestWindow   time.Duration `env:"DIGEST_WINDOW" env-default:"24h"`
	MaxRecords     int           `env:"LISTING_MAX_RECORDS" env-default:"50"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadJWT reads only the JWT settings, for tools that sign operator tokens
// without touching the record store.
func LoadJWT() (JWT, error) {
	var cfg JWT
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return JWT{}, fmt.Errorf("read JWT config from environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RecordStore.Backend {
	case RecordStoreAirtable:
		if c.Airtable.APIKey == "" || c.Airtable.BaseID == "" {
			return fmt.Errorf("RECORD_STORE=airtable requires AIRTABLE_API_KEY and AIRTABLE_BASE_ID")
		}
	case RecordStoreDynamo:
	default:
		return fmt.Errorf("unknown RECORD_STORE %q", c.RecordStore.Backend)
	}
	switch c.Images.Backend {
	case ImageHostCloudinary, ImageHostS3:
	default:
		return fmt.Errorf("unknown IMAGE_HOST %q", c.Images.Backend)
	}
	if c.Listings.WarningDays >= c.Listings.ExpirationDays {
		return fmt.Errorf("LISTING_WARNING_DAYS must be less than LISTING_EXPIRATION_DAYS")
	}
	return nil
}
