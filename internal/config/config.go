package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Port                  string        `mapstructure:"PORT"`
	Env                   string        `mapstructure:"ENV"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`
	CORSOrigins           []string      `mapstructure:"CORS_ORIGINS"`
	DatabaseURL           string        `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32         `mapstructure:"DB_MIN_CONNS"`
	RosterFile            string        `mapstructure:"ROSTER_FILE"`
	DefaultDoctorCapacity int           `mapstructure:"DEFAULT_DOCTOR_CAPACITY"`
	DefaultRoomCapacity   int           `mapstructure:"DEFAULT_ROOM_CAPACITY"`
	AppointmentLeadTime   time.Duration `mapstructure:"APPOINTMENT_LEAD_TIME"`
	MetricsEnabled        bool          `mapstructure:"METRICS_ENABLED"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"CORS_ORIGINS",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"ROSTER_FILE",
	"DEFAULT_DOCTOR_CAPACITY",
	"DEFAULT_ROOM_CAPACITY",
	"APPOINTMENT_LEAD_TIME",
	"METRICS_ENABLED",
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. Environment variables win.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_MAX_CONNS", 5)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DEFAULT_DOCTOR_CAPACITY", 10)
	v.SetDefault("DEFAULT_ROOM_CAPACITY", 1)
	v.SetDefault("APPOINTMENT_LEAD_TIME", "1h")
	v.SetDefault("METRICS_ENABLED", true)

	// Unmarshal only sees env vars that are bound explicitly.
	for _, k := range envKeys {
		v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Viper splits on commas but keeps surrounding spaces.
	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// JournalEnabled reports whether admission events are written to Postgres.
func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}

// Level parses LOG_LEVEL, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.DefaultDoctorCapacity <= 0 {
		return fmt.Errorf("DEFAULT_DOCTOR_CAPACITY must be positive, got %d", c.DefaultDoctorCapacity)
	}
	if c.DefaultRoomCapacity <= 0 {
		return fmt.Errorf("DEFAULT_ROOM_CAPACITY must be positive, got %d", c.DefaultRoomCapacity)
	}
	if c.AppointmentLeadTime <= 0 {
		return fmt.Errorf("APPOINTMENT_LEAD_TIME must be positive, got %s", c.AppointmentLeadTime)
	}
	if c.JournalEnabled() {
		if c.DBMaxConns <= 0 {
			return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
		}
		if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.DBMinConns)
		}
	}
	return nil
}
