// Package config loads weekcal settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/lululau/weekcal/internal/calendar"
	"github.com/lululau/weekcal/internal/indicators"
)

// Config is the user configuration. File values are overridden by WEEKCAL_*
// environment variables, which are overridden by command line flags.
type Config struct {
	// WeekStart is the first day of the week: a weekday name ("sunday",
	// "mon", ...) or a number 1..7 with 1 = Sunday.
	WeekStart string `yaml:"week_start" env:"WEEKCAL_WEEK_START"`

	// Timezone is an IANA zone such as "Asia/Shanghai". Empty means local.
	Timezone string `yaml:"timezone" env:"WEEKCAL_TIMEZONE"`

	// Locale selects weekday labels, e.g. "zh-CN" or "en".
	Locale string `yaml:"locale" env:"WEEKCAL_LOCALE"`

	// WeekPolicy is "all" or "anchor-month".
	WeekPolicy string `yaml:"week_policy" env:"WEEKCAL_WEEK_POLICY"`

	// Indicators lists dot indicator files (.yaml, .json, .ics).
	Indicators []string `yaml:"indicators" env:"WEEKCAL_INDICATORS" envSeparator:","`

	// HolidaysURL is where -update-holidays fetches the holiday data.
	HolidaysURL string `yaml:"holidays_url" env:"WEEKCAL_HOLIDAYS_URL"`

	LogLevel  string `yaml:"log_level" env:"WEEKCAL_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"WEEKCAL_LOG_FORMAT"`
	NoColor   bool   `yaml:"no_color" env:"WEEKCAL_NO_COLOR"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		WeekStart:   "sunday",
		Locale:      "zh",
		WeekPolicy:  calendar.PolicyAll.String(),
		Indicators:  []string{},
		HolidaysURL: indicators.DefaultHolidaysURL,
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// Normalize fills in empty values. Unknown week starts and time zones are
// kept as-is; the calendar degrades on them instead of failing.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if strings.TrimSpace(c.WeekStart) == "" {
		c.WeekStart = d.WeekStart
	}
	if c.Locale == "" {
		c.Locale = d.Locale
	}
	if c.WeekPolicy == "" {
		c.WeekPolicy = d.WeekPolicy
	}
	if c.Indicators == nil {
		c.Indicators = []string{}
	}
	if c.HolidaysURL == "" {
		c.HolidaysURL = d.HolidaysURL
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
}

// DefaultPath returns config.yaml under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "weekcal", "config.yaml"), nil
}

// Load reads the YAML file at path and applies environment overrides.
//
// A missing file is created with the defaults (0600). An empty path skips
// the file entirely.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, fmt.Errorf("write default config: %w", err)
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// ApplyEnv overlays WEEKCAL_* variables, reading a .env file in the working
// directory first when one exists.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load()
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

var weekdayNames = map[string]int{
	"sunday": 1, "sun": 1,
	"monday": 2, "mon": 2,
	"tuesday": 3, "tue": 3,
	"wednesday": 4, "wed": 4,
	"thursday": 5, "thu": 5,
	"friday": 6, "fri": 6,
	"saturday": 7, "sat": 7,
}

// ParseWeekStart converts a weekday name or number to 1 = Sunday ... 7.
func ParseWeekStart(value string) (int, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if n, ok := weekdayNames[value]; ok {
		return n, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > calendar.DaysPerWeek {
		return 0, fmt.Errorf("invalid week start %q", value)
	}
	return n, nil
}

// Calendar builds the calendar system. Problems are reported in warnings but
// never prevent a Config from being returned: an unusable week start or time
// zone yields a degraded calendar.
func (c *Config) Calendar() (cal calendar.Config, warnings []error) {
	firstDay, err := ParseWeekStart(c.WeekStart)
	if err != nil {
		warnings = append(warnings, err)
	}

	locale, err := language.Parse(c.Locale)
	if err != nil {
		warnings = append(warnings, fmt.Errorf("invalid locale %q: %w", c.Locale, err))
		locale = language.English
	}

	policy, err := calendar.ParseWeekPolicy(c.WeekPolicy)
	if err != nil {
		warnings = append(warnings, err)
	}

	cal = calendar.NewConfig(firstDay, c.Timezone,
		calendar.WithLocale(locale),
		calendar.WithWeekPolicy(policy),
	)
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			warnings = append(warnings, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
		}
	}
	return cal, warnings
}
