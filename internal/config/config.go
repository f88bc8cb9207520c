package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Session  SessionConfig
	Postal   PostalConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type SessionConfig struct {
	CookieName         string
	CookieExpiryDays   int
	RevalidateInterval time.Duration
	RevalidateTimeout  time.Duration
}

type PostalConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() *Config {
	// .env file is optional; real deployments set the environment directly
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("SESSION_COOKIE_NAME", "ehsaas_admin_user")
	viper.SetDefault("SESSION_COOKIE_EXPIRY_DAYS", 7)
	viper.SetDefault("SESSION_REVALIDATE_INTERVAL", "10m")
	viper.SetDefault("SESSION_REVALIDATE_TIMEOUT", "8s")
	viper.SetDefault("POSTAL_TIMEOUT", "5s")
	viper.SetDefault("POSTAL_CACHE_TTL", "24h")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"https://ehsaasjewels.com"})

	if viper.GetString("JWT_SECRET") == "" {
		log.Printf("Warning: JWT_SECRET is not set")
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Session: SessionConfig{
			CookieName:         viper.GetString("SESSION_COOKIE_NAME"),
			CookieExpiryDays:   viper.GetInt("SESSION_COOKIE_EXPIRY_DAYS"),
			RevalidateInterval: viper.GetDuration("SESSION_REVALIDATE_INTERVAL"),
			RevalidateTimeout:  viper.GetDuration("SESSION_REVALIDATE_TIMEOUT"),
		},
		Postal: PostalConfig{
			BaseURL:  viper.GetString("POSTAL_BASE_URL"),
			Timeout:  viper.GetDuration("POSTAL_TIMEOUT"),
			CacheTTL: viper.GetDuration("POSTAL_CACHE_TTL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
		},
	}
}
