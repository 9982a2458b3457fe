package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// StoreBackend selects the credential store: "mongo" or "redis".
	StoreBackend string `env:"STORE_BACKEND, default=mongo"`

	// Password policy.
	MinPasswordLength int `env:"MIN_PASSWORD_LENGTH, default=8"`

	// Lockout policy.
	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD, default=3"`
	LockoutWindow    time.Duration `env:"LOCKOUT_WINDOW,    default=15m"`

	// Upload policy. Extensions are listed without the leading dot.
	AllowedExtensions  []string `env:"ALLOWED_EXTENSIONS,          default=png,jpg,jpeg,gif"`
	EmployeeExtensions []string `env:"EMPLOYEE_ALLOWED_EXTENSIONS, default=pdf"`
	UploadDir          string   `env:"UPLOAD_DIR,                  default=uploads"`

	Bootstrap BootstrapConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

// BootstrapConfig holds the out-of-band initial credentials for the seeded
// admin and employee accounts. Their absence is a fatal condition for the
// bootstrap command, enforced there rather than here so other consumers can
// load configuration without them.
type BootstrapConfig struct {
	AdminPassword    string `env:"ADMIN_PASSWORD"`
	EmployeePassword string `env:"EMPLOYEE_PASSWORD"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=accountcore"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
