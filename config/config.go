package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Payment  PaymentConfig  `yaml:"payment"`
	Fees     FeesConfig     `yaml:"fees"`
	Booking  BookingConfig  `yaml:"booking"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address      string   `yaml:"address"`
	SwaggerDir   string   `yaml:"swagger_dir"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// MinJWTSecretLength is the shortest HS256 signing key accepted.
const MinJWTSecretLength = 32

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	EmailsTopic        string   `yaml:"emails_topic"`
	GroupID            string   `yaml:"group_id"`
}

// PaymentConfig describes the external verify-and-fund ledger service.
type PaymentConfig struct {
	BaseURL           string  `yaml:"base_url"`
	SecretKey         string  `yaml:"secret_key"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxAttempts       int     `yaml:"max_attempts"`
	IntervalSeconds   int     `yaml:"interval_seconds"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	MaxIntervalSecs   int     `yaml:"max_interval_seconds"`
}

func (p PaymentConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

func (p PaymentConfig) MaxInterval() time.Duration {
	return time.Duration(p.MaxIntervalSecs) * time.Second
}

// FeesConfig has no defaults: both fees must be present in the file, even when zero.
type FeesConfig struct {
	CleaningFee *int64 `yaml:"cleaning_fee"`
	ServiceFee  *int64 `yaml:"service_fee"`
}

type BookingConfig struct {
	ConflictFailClosed  bool `yaml:"conflict_fail_closed"`
	ApartmentCacheTTL   int  `yaml:"apartment_cache_ttl_seconds"`
	ApartmentCacheItems int  `yaml:"apartment_cache_items"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type WorkerConfig struct {
	FallbackSyncSchedule string `yaml:"fallback_sync_schedule"`
}

func LoadConfig(path string) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("PAYMENT_SECRET_KEY"); v != "" {
		c.Payment.SecretKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PAYMENT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Payment.MaxAttempts = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = 60
	}
	if c.Payment.MaxAttempts == 0 {
		c.Payment.MaxAttempts = 10
	}
	if c.Payment.IntervalSeconds == 0 {
		c.Payment.IntervalSeconds = 3
	}
	if c.Payment.TimeoutSeconds == 0 {
		c.Payment.TimeoutSeconds = 30
	}
	if c.Booking.ApartmentCacheTTL == 0 {
		c.Booking.ApartmentCacheTTL = 300
	}
	if c.Booking.ApartmentCacheItems == 0 {
		c.Booking.ApartmentCacheItems = 1000
	}
	if c.Worker.FallbackSyncSchedule == "" {
		c.Worker.FallbackSyncSchedule = "@every 1m"
	}
}

// Validate rejects configurations the booking workflow cannot run with.
func (c *Config) Validate() error {
	if c.Fees.CleaningFee == nil || c.Fees.ServiceFee == nil {
		return errors.New("fees.cleaning_fee and fees.service_fee must both be set explicitly")
	}
	if *c.Fees.CleaningFee < 0 || *c.Fees.ServiceFee < 0 {
		return errors.New("fees must not be negative")
	}
	if c.Payment.MaxAttempts < 1 {
		return errors.New("payment.max_attempts must be at least 1")
	}
	if c.Payment.BackoffMultiplier != 0 && c.Payment.BackoffMultiplier < 1 {
		return errors.New("payment.backoff_multiplier must be >= 1")
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters (set JWT_SECRET)", MinJWTSecretLength)
	}
	return nil
}
