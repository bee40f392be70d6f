// ============================================================================
// backend/internal/shared/config.go
// Configuration loading: .env file, optional config file, environment overrides
// ============================================================================

package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// ServiceConfig holds the configuration of the tracking backend
type ServiceConfig struct {
	ServiceName string `mapstructure:"-"`

	Server    ServerConfig    `mapstructure:"server"`
	MongoDB   MongoConfig     `mapstructure:"mongo"`
	Security  SecurityConfig  `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Accounts  AccountConfig   `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP/gRPC listener settings
type ServerConfig struct {
	HTTPPort    string     `mapstructure:"port"`
	GRPCPort    string     `mapstructure:"grpc_port"`
	Environment string     `mapstructure:"environment"` // development, staging, production
	CORS        CORSConfig `mapstructure:"cors"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"` // in seconds
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BCryptCost int           `mapstructure:"bcrypt_cost"`
}

// RedisConfig configures the optional Redis used for login rate limiting.
// An empty Addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig bounds login attempts per client IP
type RateLimitConfig struct {
	LoginLimit  int           `mapstructure:"login_limit"`
	LoginWindow time.Duration `mapstructure:"login_window"`
}

// AccountConfig drives admin-created accounts
type AccountConfig struct {
	DefaultPassword    string `mapstructure:"default_password"`
	AcademicYear       string `mapstructure:"academic_year"`
	CredentialAttempts int    `mapstructure:"credential_attempts"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("%s not loaded: %w", envFile, err)
	}
	return nil
}

// LoadServiceConfig builds the configuration from defaults, an optional config
// file and the environment. Environment wins over the file, the file over defaults.
func LoadServiceConfig(serviceName, path string) (*ServiceConfig, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TRACKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short names kept for compatibility with existing .env files
	_ = v.BindEnv("mongo.uri", "TRACKING_MONGO_URI", "MONGO_URI")
	_ = v.BindEnv("mongo.database", "TRACKING_MONGO_DATABASE", "MONGO_DB_NAME")
	_ = v.BindEnv("auth.jwt_secret", "TRACKING_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("server.port", "TRACKING_SERVER_PORT", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &ServiceConfig{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	config.ServiceName = serviceName

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultHTTPPort)
	v.SetDefault("server.grpc_port", DefaultGRPCPort)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.cors.allow_credentials", true)
	v.SetDefault("server.cors.max_age", 300)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "student_tracking_system")
	v.SetDefault("mongo.connect_timeout", 20*time.Second)
	v.SetDefault("mongo.max_pool_size", 50)
	v.SetDefault("mongo.min_pool_size", 10)
	v.SetDefault("mongo.max_idle_time", 30*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 30*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ratelimit.login_limit", 10)
	v.SetDefault("ratelimit.login_window", time.Minute)

	v.SetDefault("admin.default_password", "password123")
	v.SetDefault("admin.academic_year", "2025-2026")
	v.SetDefault("admin.credential_attempts", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServiceConfig validates service configuration
func ValidateServiceConfig(config *ServiceConfig) error {
	if config.Server.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}

	if config.MongoDB.URI == "" {
		return fmt.Errorf("MongoDB URI is required")
	}

	if config.MongoDB.Database == "" {
		return fmt.Errorf("MongoDB database name is required")
	}

	if len(config.Security.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret must be at least 16 characters")
	}

	if config.Security.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	if config.Accounts.CredentialAttempts < 1 {
		return fmt.Errorf("credential attempts must be at least 1")
	}

	return nil
}

// ============================================================================
// Environment-Specific Configuration
// ============================================================================

// IsDevelopment checks if running in development environment
func IsDevelopment(config *ServiceConfig) bool {
	return config.Server.Environment == "development"
}

// IsProduction checks if running in production environment
func IsProduction(config *ServiceConfig) bool {
	return config.Server.Environment == "production"
}

// ============================================================================
// Default Ports
// ============================================================================

const (
	DefaultHTTPPort = "5000"
	DefaultGRPCPort = "50051"
)
