package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Listen struct {
	BindIP string `env:"BIND_IP" env-default:"0.0.0.0"`
	Port   string `env:"PORT" env-default:"8080"`
	// RequestTimeout bounds every API request
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"5s"`
}

type Store struct {
	Driver string `env:"STORE_DRIVER" env-default:"file" env-description:"file, sqlite or postgres"`
	Path   string `env:"STORE_PATH" env-default:"data/attendees.json"`
	DSN    string `env:"DATABASE_URL"`
}

type Phone struct {
	CountryCode      string `env:"PHONE_COUNTRY_CODE" env-default:"62"`
	SubscriberPrefix string `env:"PHONE_SUBSCRIBER_PREFIX" env-default:"8"`
}

type Event struct {
	Name       string `env:"EVENT_NAME" env-default:"Graduation Ceremony"`
	Schedule   string `env:"EVENT_SCHEDULE" env-default:"Schedule TBD"`
	Venue      string `env:"EVENT_VENUE" env-default:"Venue TBD"`
	Address    string `env:"EVENT_ADDRESS"`
	Gate       string `env:"EVENT_GATE"`
	LinkPrefix string `env:"INVITE_LINK_PREFIX" env-default:"http://localhost:8080/invite"`
}

type WhatsApp struct {
	Enabled bool   `env:"WHATSAPP_ENABLED" env-default:"false"`
	DataDir string `env:"WHATSAPP_DATA_DIR" env-default:"data"`
}

type Scan struct {
	Window time.Duration `env:"SCAN_WINDOW" env-default:"800ms"`
}

type Import struct {
	DefaultProgram string `env:"IMPORT_DEFAULT_PROGRAM" env-default:"Lainnya"`
	DefaultSeat    string `env:"IMPORT_DEFAULT_SEAT" env-default:"-"`
}

// Config holds the application configuration
type Config struct {
	Env      string `env:"ENV" env-default:"local"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	Listen   Listen
	Store    Store
	Phone    Phone
	Event    Event
	WhatsApp WhatsApp
	Scan     Scan
	Import   Import
}

// Load reads the environment, after applying envFile when it exists
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("config: %w; %s", err, desc)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Phone.CountryCode == "" {
		return errors.New("config: PHONE_COUNTRY_CODE must not be empty")
	}
	return nil
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return c.Listen.BindIP + ":" + c.Listen.Port
}
