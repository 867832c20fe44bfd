package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultRunAddress      = "localhost:8080"
	defaultJWTSecret       = "default-secret-change-in-production"
	defaultTokenExpiration = 24 * time.Hour
	defaultMaxActive       = 5
	defaultLocation        = "main"
	defaultLogLevel        = "info"
	defaultSyncBuffer      = 256
)

// Config содержит конфигурацию приложения.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	BrokerURL       string
	RedisAddr       string
	JWTSecret       string
	TokenExpiration time.Duration
	// Timezone - пояс зрителя для разбиения статистики по дням.
	Timezone        string
	MaxActive       int
	DefaultLocation string
	LogLevel        string
	SyncBuffer      int
	ConfigFile      string
}

// fileConfig - формат YAML-файла конфигурации. Пустые поля не переопределяют значения.
type fileConfig struct {
	RunAddress      string `yaml:"run_address"`
	DatabaseURI     string `yaml:"database_uri"`
	BrokerURL       string `yaml:"broker_url"`
	RedisAddr       string `yaml:"redis_addr"`
	JWTSecret       string `yaml:"jwt_secret"`
	TokenExpiration string `yaml:"token_expiration"`
	Timezone        string `yaml:"timezone"`
	MaxActive       int    `yaml:"max_active"`
	DefaultLocation string `yaml:"default_location"`
	LogLevel        string `yaml:"log_level"`
	SyncBuffer      int    `yaml:"sync_buffer"`
}

func defaults() *Config {
	return &Config{
		RunAddress:      defaultRunAddress,
		JWTSecret:       defaultJWTSecret,
		TokenExpiration: defaultTokenExpiration,
		Timezone:        "Local",
		MaxActive:       defaultMaxActive,
		DefaultLocation: defaultLocation,
		LogLevel:        defaultLogLevel,
		SyncBuffer:      defaultSyncBuffer,
	}
}

// Load загружает конфигурацию из файла, флагов командной строки и переменных окружения.
// Приоритет: переменные окружения > флаги > файл > значения по умолчанию.
func Load() (*Config, error) {
	cfg := defaults()

	var (
		runAddress, databaseURI, brokerURL, redisAddr string
		timezone, configFile                          string
		tokenExpiration                               time.Duration
	)
	flag.StringVar(&runAddress, "a", defaultRunAddress, "адрес и порт запуска сервиса")
	flag.StringVar(&databaseURI, "d", "", "строка подключения к PostgreSQL или путь к файлу SQLite")
	flag.StringVar(&brokerURL, "b", "", "адрес брокера событий (amqp:// или kafka://)")
	flag.StringVar(&redisAddr, "r", "", "адрес Redis для ключей идемпотентности")
	flag.DurationVar(&tokenExpiration, "t", defaultTokenExpiration, "время жизни токена")
	flag.StringVar(&timezone, "z", "Local", "часовой пояс для статистики по дням")
	flag.StringVar(&configFile, "c", "", "путь к YAML-файлу конфигурации")
	flag.Parse()

	if envFile := os.Getenv("CONFIG_FILE"); envFile != "" {
		configFile = envFile
	}
	if configFile != "" {
		if err := cfg.applyFile(configFile); err != nil {
			return nil, err
		}
		cfg.ConfigFile = configFile
	}

	// флаги применяются, только если заданы явно, иначе значения файла потерялись бы
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.RunAddress = runAddress
		case "d":
			cfg.DatabaseURI = databaseURI
		case "b":
			cfg.BrokerURL = brokerURL
		case "r":
			cfg.RedisAddr = redisAddr
		case "t":
			cfg.TokenExpiration = tokenExpiration
		case "z":
			cfg.Timezone = timezone
		}
	})

	cfg.applyEnv()

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.RunAddress, fc.RunAddress)
	setString(&c.DatabaseURI, fc.DatabaseURI)
	setString(&c.BrokerURL, fc.BrokerURL)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.JWTSecret, fc.JWTSecret)
	setString(&c.Timezone, fc.Timezone)
	setString(&c.DefaultLocation, fc.DefaultLocation)
	setString(&c.LogLevel, fc.LogLevel)
	if fc.TokenExpiration != "" {
		d, err := time.ParseDuration(fc.TokenExpiration)
		if err != nil {
			return fmt.Errorf("invalid token_expiration: %w", err)
		}
		c.TokenExpiration = d
	}
	if fc.MaxActive > 0 {
		c.MaxActive = fc.MaxActive
	}
	if fc.SyncBuffer > 0 {
		c.SyncBuffer = fc.SyncBuffer
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.RunAddress, os.Getenv("RUN_ADDRESS"))
	setString(&c.DatabaseURI, os.Getenv("DATABASE_URI"))
	setString(&c.BrokerURL, os.Getenv("BROKER_URL"))
	setString(&c.RedisAddr, os.Getenv("REDIS_ADDR"))
	setString(&c.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&c.Timezone, os.Getenv("TIMEZONE"))
	setString(&c.DefaultLocation, os.Getenv("DEFAULT_LOCATION"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))

	// Некорректные значения игнорируются
	if v := os.Getenv("TOKEN_EXPIRATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TokenExpiration = d
		}
	}
	if v := os.Getenv("MAX_ACTIVE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxActive = n
		}
	}
	if v := os.Getenv("SYNC_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SyncBuffer = n
		}
	}
}

// Location возвращает часовой пояс статистики.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("invalid timezone %q", c.Timezone), err)
	}
	return loc, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
