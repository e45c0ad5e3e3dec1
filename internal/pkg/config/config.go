package config

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration tree.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	App      AppConfig      `mapstructure:"app"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Mpesa    MpesaConfig    `mapstructure:"mpesa"`
	KopoKopo KopoKopoConfig `mapstructure:"kopokopo"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	Mode         string   `mapstructure:"mode"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int64  `mapstructure:"expire"` // hours
}

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type SMTPConfig struct {
	Address    string `mapstructure:"address"` // host:port
	Host       string `mapstructure:"host"`
	FromEmail  string `mapstructure:"from_email"`
	Password   string `mapstructure:"password"`
	AdminEmail string `mapstructure:"admin_email"`
}

// MpesaConfig holds Safaricom Daraja credentials.
type MpesaConfig struct {
	Shortcode      string `mapstructure:"shortcode"`
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	Passkey        string `mapstructure:"passkey"`
	AccessTokenURL string `mapstructure:"access_token_url"`
	STKPushURL     string `mapstructure:"stk_push_url"`
	CallbackURL    string `mapstructure:"callback_url"`
}

// KopoKopoConfig holds KopoKopo (K2) credentials.
type KopoKopoConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	TillNumber   string `mapstructure:"till_number"`
	CallbackURL  string `mapstructure:"callback_url"`
}

var GlobalConfig Config

// Validate checks the configuration for obviously unusable values.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.Secret == "your_super_secret_key" {
		return errors.New("please set a secure JWT secret in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret should be at least 32 characters")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return errors.New("database configuration is incomplete")
	}

	if c.Redis.Addr == "" {
		return errors.New("redis address is required")
	}

	return nil
}

// LoadConfig reads the YAML configuration for the current environment and
// applies environment variable overrides.
func LoadConfig() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	configName := "config"
	if env != "" && env != "dev" {
		configName = "config." + env
	}

	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("jwt.expire", 24)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("app.env", "dev")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("mpesa.access_token_url", "https://sandbox.safaricom.co.ke/oauth/v1/generate?grant_type=client_credentials")
	viper.SetDefault("mpesa.stk_push_url", "https://sandbox.safaricom.co.ke/mpesa/stkpush/v1/processrequest")
	viper.SetDefault("kopokopo.base_url", "https://sandbox.kopokopo.com")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults or env vars: %v", err)
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}

	// Manual overrides for deployment environments that only inject env vars.
	if host := os.Getenv("DB_HOST"); host != "" {
		GlobalConfig.Database.Host = host
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		GlobalConfig.Redis.Addr = redisAddr
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		GlobalConfig.JWT.Secret = jwtSecret
	}
	if key := os.Getenv("SAF_CONSUMER_KEY"); key != "" {
		GlobalConfig.Mpesa.ConsumerKey = key
	}
	if secret := os.Getenv("SAF_CONSUMER_SECRET"); secret != "" {
		GlobalConfig.Mpesa.ConsumerSecret = secret
	}

	if err := GlobalConfig.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Configuration loaded and validated successfully. Environment: %s", GlobalConfig.App.Env)
}
