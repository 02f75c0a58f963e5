package config

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort     string `env:"APP_PORT" envDefault:"3000"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	GRPCAddr    string `env:"GRPC_ADDR" envDefault:":50051"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables
	S3BucketName   string `env:"S3_BUCKET_NAME" envDefault:"socfony-storage"`
	SNSRegion      string `env:"SNS_REGION" envDefault:"us-east-1"`

	JWTPrivateKeyPath  string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath   string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTExpiry          time.Duration `env:"JWT_EXPIRY" envDefault:"720h"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"2160h"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix `env:"TRUSTED_PROXIES" envSeparator:","`

	Tracing Tracing
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	Verifications string `env:"DYNAMO_TABLE_VERIFICATIONS" envDefault:"verification_codes"`
	AccessTokens  string `env:"DYNAMO_TABLE_ACCESS_TOKENS" envDefault:"access_tokens"`
	Moments       string `env:"DYNAMO_TABLE_MOMENTS" envDefault:"moments"`
	MomentLikes   string `env:"DYNAMO_TABLE_MOMENT_LIKES" envDefault:"moment_likes"`
	Comments      string `env:"DYNAMO_TABLE_COMMENTS" envDefault:"comments"`
	Storages      string `env:"DYNAMO_TABLE_STORAGES" envDefault:"storages"`
}

type Tracing struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	ServiceName  string  `env:"TRACING_SERVICE_NAME" envDefault:"socfony"`
	OTLPEndpoint string  `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure     bool    `env:"TRACING_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"1"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return nil, fmt.Errorf("TRACING_SAMPLE_RATIO must be within [0,1], got %v", cfg.Tracing.SampleRatio)
	}
	return cfg, nil
}
