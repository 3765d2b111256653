package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port          string `env:"PORT"           env-default:"50051"`
	MetricsPort   string `env:"METRICS_PORT"   env-default:"9092"`
	LogLevel      string `env:"LOG_LEVEL"      env-default:"info"`
	TracingStdout bool   `env:"TRACING_STDOUT" env-default:"false"`

	Postgres Postgres
	Redis    Redis
	Booking  Booking
}

type Postgres struct {
	Host     string `env:"PGHOST"     env-default:"localhost"`
	Port     string `env:"PGPORT"     env-default:"5432"`
	User     string `env:"PGUSER"     env-default:"postgres"`
	Password string `env:"PGPASSWORD" env-default:"postgres"`
	Database string `env:"PGDATABASE" env-default:"bookings"`
	SSLMode  string `env:"PGSSLMODE"  env-default:"disable"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Redis is optional, an empty Addr disables the catalog cache.
type Redis struct {
	Addr       string        `env:"REDIS_ADDR"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB"          env-default:"0"`
	CatalogTTL time.Duration `env:"CATALOG_CACHE_TTL" env-default:"5m"`
}

// Booking holds the operator's deployment constants used when pricing a
// booking and formatting the handoff summary.
type Booking struct {
	DepositPercent int64  `env:"DEPOSIT_PERCENT" env-default:"50"`
	CurrencySymbol string `env:"CURRENCY_SYMBOL" env-default:"$"`
	Paybill        string `env:"MPESA_PAYBILL"   env-default:"222111"`
	AccountNumber  string `env:"MPESA_ACCOUNT"   env-default:"2321644"`
	WhatsAppNumber string `env:"WHATSAPP_NUMBER" env-default:"+254702612666"`
}

func (b Booking) Validate() error {
	if b.DepositPercent < 0 || b.DepositPercent > 100 {
		return fmt.Errorf("deposit percent %d out of range 0-100", b.DepositPercent)
	}
	if b.Paybill == "" || b.AccountNumber == "" {
		return errors.New("payment paybill and account number must be set")
	}
	return nil
}

// Load reads an optional dotenv file and then the process environment.
// Variables already present in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Booking.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}
