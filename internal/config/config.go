package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Waitlist  WaitlistConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
	Logger    LoggerConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	KeyPrefix    string
}

type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type WaitlistConfig struct {
	Backend              string
	ReferralCodeAttempts int
}

type AdminConfig struct {
	Username     string
	Password     string
	PasswordHash string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type SchedulerConfig struct {
	SnapshotSchedule  string
	SnapshotRetention int // memory and redis backends only
	JobTimeout        time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// A missing .env file is fine outside local development
	_ = godotenv.Load()

	var errs []string
	atoi := func(key, def string) int {
		n, err := strconv.Atoi(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return n
	}
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            atoi("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "mystiq_user"),
			Password:        getEnv("DB_PASSWORD", "mystiq_password"),
			DBName:          getEnv("DB_NAME", "mystiq_waitlist"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    atoi("DB_MAX_OPEN_CONNS", "25"),
			MaxIdleConns:    atoi("DB_MAX_IDLE_CONNS", "5"),
			ConnMaxLifetime: duration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
			PoolSize:     atoi("REDIS_POOL_SIZE", "10"),
			MinIdleConns: atoi("REDIS_MIN_IDLE_CONNS", "2"),
			DialTimeout:  duration("REDIS_DIAL_TIMEOUT", "5s"),
			ReadTimeout:  duration("REDIS_READ_TIMEOUT", "3s"),
			WriteTimeout: duration("REDIS_WRITE_TIMEOUT", "3s"),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "mystiq:waitlist:"),
		},
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           atoi("SERVER_PORT", "3000"),
			RequestTimeout: duration("REQUEST_TIMEOUT", "10s"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Waitlist: WaitlistConfig{
			Backend:              strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
			ReferralCodeAttempts: atoi("REFERRAL_CODE_ATTEMPTS", "5"),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			Password:     os.Getenv("ADMIN_PASSWORD"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		RateLimit: RateLimitConfig{
			Requests: atoi("RATE_LIMIT_REQUESTS", "10"),
			Window:   duration("RATE_LIMIT_WINDOW", "1m"),
		},
		Scheduler: SchedulerConfig{
			SnapshotSchedule:  getEnv("SNAPSHOT_SCHEDULE", "@every 5m"),
			SnapshotRetention: atoi("SNAPSHOT_RETENTION", "2016"),
			JobTimeout:        duration("SCHEDULER_JOB_TIMEOUT", "2m"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	switch cfg.Waitlist.Backend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND: unknown backend %q", cfg.Waitlist.Backend))
	}
	if cfg.Waitlist.ReferralCodeAttempts < 1 {
		errs = append(errs, "REFERRAL_CODE_ATTEMPTS: must be at least 1")
	}
	if cfg.Scheduler.SnapshotRetention < 1 {
		errs = append(errs, "SNAPSHOT_RETENTION: must be at least 1")
	}
	if cfg.Admin.Password == "" && cfg.Admin.PasswordHash == "" {
		errs = append(errs, "ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
