package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/frontdesk/internal/engine"
)

// Config captures environment driven configuration values for the front-desk service.
type Config struct {
	HTTPPort int
	DBPath   string
	// TariffPath and RoomsPath are optional JSON files. Without a tariff the
	// built-in four-period schedule applies; without rooms the catalog is
	// left as stored.
	TariffPath string
	RoomsPath  string

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisChannel  string
	// Origin tags change notifications published by this process.
	Origin string

	Pricing        engine.PricingRules
	CommitAttempts int
	SnapshotTTL    time.Duration
	MaxStayNights  int
	LogLevel       slog.Level
}

// RedisEnabled reports whether changes are fanned out through Redis.
func (c Config) RedisEnabled() bool {
	return c.RedisAddress != ""
}

// Load reads an optional .env file from the working directory and then
// parses configuration values from the process environment.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom loads the given .env files before parsing the environment.
// Variables already present in the environment win over file values and
// missing files are ignored.
//
// The loader applies defaults for optional fields while validating values,
// and reports every missing or invalid entry in a single error.
func LoadFrom(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	cfg := Config{
		HTTPPort:       8080,
		DBPath:         "frontdesk.db",
		RedisChannel:   "frontdesk:changes",
		Pricing:        engine.DefaultPricingRules(),
		CommitAttempts: 3,
		SnapshotTTL:    30 * time.Second,
		MaxStayNights:  365,
		LogLevel:       slog.LevelInfo,
	}
	if host, err := os.Hostname(); err == nil {
		cfg.Origin = host
	}

	p := &parser{}

	p.positiveInt("FRONTDESK_HTTP_PORT", &cfg.HTTPPort)
	p.str("FRONTDESK_DB_PATH", &cfg.DBPath)
	p.str("FRONTDESK_TARIFF_FILE", &cfg.TariffPath)
	p.str("FRONTDESK_ROOMS_FILE", &cfg.RoomsPath)
	p.str("FRONTDESK_NODE_ID", &cfg.Origin)

	p.str("FRONTDESK_REDIS_ADDR", &cfg.RedisAddress)
	p.str("FRONTDESK_REDIS_PASSWORD", &cfg.RedisPassword)
	p.nonNegativeInt("FRONTDESK_REDIS_DB", &cfg.RedisDB)
	p.str("FRONTDESK_REDIS_CHANNEL", &cfg.RedisChannel)
	if cfg.RedisAddress == "" && (lookup("FRONTDESK_REDIS_PASSWORD") != "" || lookup("FRONTDESK_REDIS_DB") != "") {
		p.missing = append(p.missing, "FRONTDESK_REDIS_ADDR")
	}

	rules := &cfg.Pricing
	if basis := lookup("FRONTDESK_RATE_BASIS"); basis != "" {
		switch engine.RateBasis(basis) {
		case engine.RatePerPerson, engine.RatePerRoom:
			rules.RateBasis = engine.RateBasis(basis)
		default:
			p.invalid = append(p.invalid, "FRONTDESK_RATE_BASIS")
		}
	}
	p.nonNegativeInt("FRONTDESK_CHILD_FREE_AGE", &rules.ChildFreeAge)
	p.nonNegativeInt("FRONTDESK_CHILD_DISCOUNT_AGE", &rules.ChildDiscountAge)
	p.percent("FRONTDESK_CHILD_DISCOUNT_PERCENT", &rules.ChildDiscountPercent)
	p.nonNegativeInt("FRONTDESK_TOURISM_TAX_CHILD_AGE", &rules.TourismTaxChildAge)
	p.nonNegativeFloat("FRONTDESK_PREMIUM_SURCHARGE_PERCENT", &rules.PremiumSurchargePercent)
	p.nonNegativeFloat("FRONTDESK_PARKING_FEE", &rules.ParkingFee)
	p.nonNegativeFloat("FRONTDESK_PET_FEE", &rules.PetFee)
	p.nonNegativeFloat("FRONTDESK_TOWEL_FEE", &rules.TowelFee)
	p.nonNegativeFloat("FRONTDESK_VAT_RATE", &rules.VATRate)
	p.boolean("FRONTDESK_VAT_INCLUDED", &rules.VATIncluded)

	p.positiveInt("FRONTDESK_COMMIT_ATTEMPTS", &cfg.CommitAttempts)
	p.positiveInt("FRONTDESK_MAX_STAY_NIGHTS", &cfg.MaxStayNights)
	p.duration("FRONTDESK_SNAPSHOT_TTL", &cfg.SnapshotTTL)
	if level := lookup("FRONTDESK_LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			p.invalid = append(p.invalid, "FRONTDESK_LOG_LEVEL")
		}
	}

	if len(p.missing) > 0 {
		return Config{}, fmt.Errorf("config: required environment variables are not set: %s", strings.Join(p.missing, ", "))
	}
	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid environment values: %s", strings.Join(p.invalid, ", "))
	}
	if err := cfg.Pricing.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// parser collects the names of missing and malformed variables so that
// every problem is reported at once.
type parser struct {
	missing []string
	invalid []string
}

func (p *parser) str(key string, dst *string) {
	if value := lookup(key); value != "" {
		*dst = value
	}
}

func (p *parser) positiveInt(key string, dst *int) {
	p.integer(key, dst, 1)
}

func (p *parser) nonNegativeInt(key string, dst *int) {
	p.integer(key, dst, 0)
}

func (p *parser) integer(key string, dst *int, least int) {
	value := lookup(key)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < least {
		p.invalid = append(p.invalid, key)
		return
	}
	*dst = n
}

func (p *parser) nonNegativeFloat(key string, dst *float64) {
	value := lookup(key)
	if value == "" {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		p.invalid = append(p.invalid, key)
		return
	}
	*dst = f
}

func (p *parser) percent(key string, dst *float64) {
	value := lookup(key)
	if value == "" {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || f > 100 {
		p.invalid = append(p.invalid, key)
		return
	}
	*dst = f
}

func (p *parser) boolean(key string, dst *bool) {
	value := lookup(key)
	if value == "" {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.invalid = append(p.invalid, key)
		return
	}
	*dst = b
}

func (p *parser) duration(key string, dst *time.Duration) {
	value := lookup(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		p.invalid = append(p.invalid, key)
		return
	}
	*dst = d
}
