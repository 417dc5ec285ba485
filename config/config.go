package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every knob the process reads from the environment. A local
// .env file is honored in development; real deployments set the variables
// directly.
type Config struct {
	APIPort     string `envconfig:"API_PORT" default:"8080"`
	Development bool   `envconfig:"DEVELOPMENT" default:"false"`

	MongoURI string `envconfig:"MONGO_URI"`
	MongoDB  string `envconfig:"MONGO_DB" default:"chatwire"`

	OIDCIssuer   string `envconfig:"OIDC_ISSUER_URL" default:"http://dex:5556/dex"`
	OIDCClientID string `envconfig:"OIDC_CLIENT_ID" default:"chatwire"`
	OIDCAudience string `envconfig:"OIDC_AUDIENCE" default:"chatwire"`

	// Firehose of persisted messages; disabled when the broker is empty.
	KafkaBroker string `envconfig:"KAFKA_BROKER"`
	KafkaTopic  string `envconfig:"KAFKA_TOPIC" default:"chat-messages"`

	// Media upload collaborator (S3 or anything S3-compatible).
	S3Region   string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket   string `envconfig:"S3_BUCKET" default:"chat-app-media"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`

	// Rate limiting on the send endpoint; disabled when the address is empty.
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RateLimit       int           `envconfig:"RATE_LIMIT" default:"30"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	MaxContentLength   int   `envconfig:"MESSAGE_MAX_LENGTH" default:"1000"`
	MaxAttachmentBytes int64 `envconfig:"MAX_ATTACHMENT_BYTES" default:"10485760"`
}

// Load reads the configuration from the environment, after loading .env when
// one is present.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
