package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver          string `yaml:"db_driver"`
	DBHost            string `yaml:"db_host"`
	DBPort            string `yaml:"db_port"`
	DBUser            string `yaml:"db_user"`
	DBPassword        string `yaml:"db_password"`
	DBName            string `yaml:"db_name"`
	DBSSLMode         string `yaml:"db_sslmode"`
	SQLitePath        string `yaml:"sqlite_path"`
	MigrationsEnabled bool   `yaml:"migrations_enabled"`

	ServerPort string `yaml:"server_port"`

	JWTSecret  string        `yaml:"jwt_secret"`
	JWTExpiry  time.Duration `yaml:"jwt_expiry"`
	SessionTTL time.Duration `yaml:"session_ttl"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	LogLevel    string `yaml:"log_level"`
	LogEncoding string `yaml:"log_encoding"`

	TimeZone      string `yaml:"time_zone"`
	DefaultLocale string `yaml:"default_locale"`
}

// Load reads configuration in three layers: built-in defaults, the optional
// YAML file named by CONFIG_FILE, then environment variables (.env included).
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", cfg.TimeZone, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DBDriver:          "postgres",
		DBHost:            "localhost",
		DBPort:            "5432",
		DBUser:            "tasklist_user",
		DBPassword:        "tasklist_pass",
		DBName:            "tasklist_db",
		DBSSLMode:         "disable",
		SQLitePath:        "data/tasklist.db",
		MigrationsEnabled: true,
		ServerPort:        "8080",
		JWTSecret:         "supersecretkey",
		JWTExpiry:         24 * time.Hour,
		SessionTTL:        14 * 24 * time.Hour,
		RedisAddr:         "localhost:6379",
		LogLevel:          "info",
		LogEncoding:       "json",
		TimeZone:          "UTC",
		DefaultLocale:     "en",
	}
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.DBSSLMode = getEnv("DB_SSLMODE", c.DBSSLMode)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogEncoding = getEnv("LOG_ENCODING", c.LogEncoding)
	c.TimeZone = getEnv("TIME_ZONE", c.TimeZone)
	c.DefaultLocale = getEnv("DEFAULT_LOCALE", c.DefaultLocale)

	var err error
	if c.MigrationsEnabled, err = getBool("MIGRATIONS_ENABLED", c.MigrationsEnabled); err != nil {
		return err
	}
	if c.RedisDB, err = getInt("REDIS_DB", c.RedisDB); err != nil {
		return err
	}
	if c.JWTExpiry, err = getDuration("JWT_EXPIRY", c.JWTExpiry); err != nil {
		return err
	}
	if c.SessionTTL, err = getDuration("SESSION_TTL", c.SessionTTL); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone; calendar-day filters are evaluated in it.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// PostgresDSN builds the key/value DSN used by the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) (bool, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getInt(key string, defaultVal int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
