package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	// DefaultSeedPassword is only acceptable outside production.
	DefaultSeedPassword = "doctor123"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	StoreDriver    string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	MongoURL       string        `mapstructure:"MONGO_URL"`
	MongoDBName    string        `mapstructure:"MONGO_DB_NAME"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTTTL         time.Duration `mapstructure:"JWT_TTL"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`

	SeedUsername    string `mapstructure:"SEED_USERNAME"`
	SeedPassword    string `mapstructure:"SEED_PASSWORD"`
	SeedDisplayName string `mapstructure:"SEED_DISPLAY_NAME"`

	DocumentVariant  string `mapstructure:"DOCUMENT_VARIANT"`
	DocumentFontPath string `mapstructure:"DOCUMENT_FONT_PATH"`

	LetterheadLeftName         string `mapstructure:"LETTERHEAD_LEFT_NAME"`
	LetterheadLeftCredentials  string `mapstructure:"LETTERHEAD_LEFT_CREDENTIALS"`
	LetterheadRightName        string `mapstructure:"LETTERHEAD_RIGHT_NAME"`
	LetterheadRightCredentials string `mapstructure:"LETTERHEAD_RIGHT_CREDENTIALS"`
	LetterheadInstitution      string `mapstructure:"LETTERHEAD_INSTITUTION"`
	LetterheadFooter           string `mapstructure:"LETTERHEAD_FOOTER"`
}

var envKeys = []string{
	"PORT", "ENV", "STORE_DRIVER", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"MONGO_URL", "MONGO_DB_NAME", "JWT_SECRET", "JWT_TTL", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT",
	"SEED_USERNAME", "SEED_PASSWORD", "SEED_DISPLAY_NAME",
	"DOCUMENT_VARIANT", "DOCUMENT_FONT_PATH",
	"LETTERHEAD_LEFT_NAME", "LETTERHEAD_LEFT_CREDENTIALS",
	"LETTERHEAD_RIGHT_NAME", "LETTERHEAD_RIGHT_CREDENTIALS",
	"LETTERHEAD_INSTITUTION", "LETTERHEAD_FOOTER",
}

// Load reads configuration from the environment and an optional .env file in
// the working directory. Any envFiles are loaded into the process environment
// first; variables already set are not overridden.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("MONGO_DB_NAME", "rxpad")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("SEED_USERNAME", "doctor")
	v.SetDefault("SEED_PASSWORD", DefaultSeedPassword)
	v.SetDefault("SEED_DISPLAY_NAME", "Dr. Sanjiv Maheshwari")
	v.SetDefault("DOCUMENT_VARIANT", "preprinted")
	v.SetDefault("DOCUMENT_FONT_PATH", "fonts/nakula.ttf")
	v.SetDefault("LETTERHEAD_LEFT_NAME", "Dr. Sanjiv Maheshwari")
	v.SetDefault("LETTERHEAD_LEFT_CREDENTIALS", "M.B.B.S., M.D. (Medicine)")
	v.SetDefault("LETTERHEAD_RIGHT_NAME", "डॉ. संजीव माहेश्वरी")
	v.SetDefault("LETTERHEAD_RIGHT_CREDENTIALS", "एम.बी.बी.एस., एम.डी. (मेडिसिन)")
	v.SetDefault("LETTERHEAD_INSTITUTION", "Consultant Physician")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if cfg.IsDev() && cfg.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set; using an insecure development secret.")
		cfg.JWTSecret = "development-secret-change-me"
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is usable for the selected store
// and, in production, that no development credentials remain in place.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", StorePostgres)
		}
	case StoreMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("MONGO_URL is required when STORE_DRIVER is %q", StoreMongo)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMongo, c.StoreDriver)
	}

	if c.DocumentVariant != "preprinted" && c.DocumentVariant != "letterhead" {
		return fmt.Errorf("DOCUMENT_VARIANT must be \"preprinted\" or \"letterhead\", got %q", c.DocumentVariant)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.SeedUsername == "" || c.SeedPassword == "" {
		return fmt.Errorf("SEED_USERNAME and SEED_PASSWORD are required")
	}

	if c.IsProduction() && c.SeedPassword == DefaultSeedPassword {
		return fmt.Errorf("SEED_PASSWORD must be changed from the default in production")
	}

	return nil
}
