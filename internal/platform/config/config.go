package config

import "time"

// Config is the single top-level configuration struct for the corebank
// process. Every component's settings live here; the process runs all of
// them, so there is no per-service split.
type Config struct {
	EnvName       string `env:"ENV_NAME,default=development"`
	ServerAddress string `env:"SERVER_ADDRESS,default=:8080"`

	PrimaryDBHost     string `env:"DB_HOST"`
	PrimaryDBUser     string `env:"DB_USER"`
	PrimaryDBPassword string `env:"DB_PASSWORD"`
	PrimaryDBName     string `env:"DB_NAME"`
	PrimaryDBPort     string `env:"DB_PORT,default=5432"`

	MongoHost     string `env:"MONGO_HOST"`
	MongoName     string `env:"MONGO_NAME"`
	MongoUser     string `env:"MONGO_USER"`
	MongoPassword string `env:"MONGO_PASSWORD"`
	MongoPort     string `env:"MONGO_PORT,default=27017"`

	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT,default=6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	RabbitMQHost     string `env:"RABBITMQ_HOST"`
	RabbitMQPort     string `env:"RABBITMQ_PORT_AMQP,default=5672"`
	RabbitMQUser     string `env:"RABBITMQ_DEFAULT_USER"`
	RabbitMQPass     string `env:"RABBITMQ_DEFAULT_PASS"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE,default=corebank"`

	OtelServiceName     string `env:"OTEL_RESOURCE_SERVICE_NAME,default=corebank"`
	OtelExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	JWTSecret string `env:"JWT_SECRET"`

	// Saga orchestration.
	SagaStepTimeout      time.Duration `env:"SAGA_STEP_TIMEOUT,default=30s"`
	SagaRecoveryInterval time.Duration `env:"SAGA_RECOVERY_INTERVAL,default=1m"`
	SagaStuckThreshold    time.Duration `env:"SAGA_STUCK_THRESHOLD,default=5m"`

	// AML.
	AMLFlagThreshold int `env:"AML_FLAG_THRESHOLD,default=30"`

	// SWIFT fees.
	SwiftFixedFee      string `env:"SWIFT_FIXED_FEE,default=15.00"`
	SwiftPercentageFee string `env:"SWIFT_PERCENTAGE_FEE,default=0.1"`

	// Rate limiting.
	RateLimitDefaultRPM int `env:"RATELIMIT_DEFAULT_RPM,default=100"`
	RateLimitAuthRPM    int `env:"RATELIMIT_AUTH_RPM,default=10"`

	// Identity.
	AuthFailedAttemptsLock int           `env:"AUTH_FAILED_ATTEMPTS_LOCK,default=5"`
	OTPTTL                 time.Duration `env:"OTP_TTL,default=5m"`
}

// New loads a Config from the process environment, panicking on malformed
// values; configuration errors are not recoverable at startup.
func New() *Config {
	cfg := &Config{}

	if err := LoadFromEnv(cfg); err != nil {
		panic(err)
	}

	return cfg
}
