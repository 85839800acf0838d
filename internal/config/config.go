package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/pricing"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Log     LogConfig
	Metrics MetricsConfig
	Studio  StudioConfig
	Pricing PricingConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name           string `envconfig:"DB_NAME" default:"tattoo_studio"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns       int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns       int    `envconfig:"DB_MIN_CONNS" default:"5"`
	ConnectRetries int    `envconfig:"DB_CONNECT_RETRIES" default:"5"`
	AutoMigrate    bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// MetricsConfig holds prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"METRICS_PATH" default:"/metrics"`
}

// StudioConfig holds the presentation defaults for studios without saved settings.
type StudioConfig struct {
	Name     string `envconfig:"STUDIO_NAME"`
	Currency string `envconfig:"STUDIO_CURRENCY" default:"USD"`
}

// PricingConfig holds the default calculator configuration.
// Maps are written as key:value pairs separated by commas.
type PricingConfig struct {
	NeedlePerCm2        float64            `envconfig:"PRICING_NEEDLE_PER_CM2" default:"0.05"`
	InkPerCm2           float64            `envconfig:"PRICING_INK_PER_CM2" default:"0.10"`
	FilmPerCm2          float64            `envconfig:"PRICING_FILM_PER_CM2" default:"0.02"`
	OintmentPerCm2      float64            `envconfig:"PRICING_OINTMENT_PER_CM2" default:"0.03"`
	GlovePerPair        float64            `envconfig:"PRICING_GLOVE_PER_PAIR" default:"2.5"`
	OtherFlat           float64            `envconfig:"PRICING_OTHER_FLAT" default:"5"`
	HourlyRate          float64            `envconfig:"PRICING_HOURLY_RATE" default:"150"`
	ProfitMarginPercent float64            `envconfig:"PRICING_PROFIT_MARGIN_PERCENT" default:"30"`
	Complexities        map[string]float64 `envconfig:"PRICING_COMPLEXITIES" default:"simple:1.0,medium:1.3,complex:1.6,realism:2.0"`
	BodyParts           map[string]float64 `envconfig:"PRICING_BODY_PARTS" default:"arm:1.0,forearm:1.0,leg:1.0,back:1.1,chest:1.2,hand:1.4,foot:1.3,ribs:1.4,neck:1.5"`
}

// Calculator converts the env representation into a calculator config.
func (p PricingConfig) Calculator() pricing.Config {
	return pricing.Config{
		Materials: pricing.MaterialRates{
			NeedlePerCm2:   p.NeedlePerCm2,
			InkPerCm2:      p.InkPerCm2,
			FilmPerCm2:     p.FilmPerCm2,
			OintmentPerCm2: p.OintmentPerCm2,
			GlovePerPair:   p.GlovePerPair,
			OtherFlat:      p.OtherFlat,
		},
		Complexities:        p.Complexities,
		BodyParts:           p.BodyParts,
		HourlyRate:          p.HourlyRate,
		ProfitMarginPercent: p.ProfitMarginPercent,
	}
}

// DefaultSettings returns the settings served to owners who never saved their own.
func (c *Config) DefaultSettings() model.StudioSettings {
	return model.StudioSettings{
		StudioName: c.Studio.Name,
		Currency:   c.Studio.Currency,
		Pricing:    c.Pricing.Calculator(),
	}
}

// Load parses environment variables into the Config struct.
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.Calculator().Validate(); err != nil {
		return nil, fmt.Errorf("default pricing: %w", err)
	}
	return &cfg, nil
}
