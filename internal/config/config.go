package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"suncal/internal/astro"
	"suncal/internal/suncal"
)

// FeedConfig describes one calendar feed served by `suncal serve`.
type FeedConfig struct {
	// ID is the URL segment: /calendar/{id}.ics.
	ID string `yaml:"id" json:"id"`
	// Name is the calendar name written as X-WR-CALNAME.
	Name string `yaml:"name" json:"name"`
	// Event is one of the event kinds, e.g. "sunrise" or "golden-hour-evening".
	Event string `yaml:"event" json:"event"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the feed server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// GoogleConfig tunes the Google Calendar export.
type GoogleConfig struct {
	// CredentialsFile is a service account or OAuth client JSON. Empty means
	// Application Default Credentials.
	CredentialsFile string  `yaml:"credentials_file" json:"credentials_file"`
	BatchSize       int     `yaml:"batch_size" json:"batch_size"`
	Concurrency     int     `yaml:"concurrency" json:"concurrency"`
	RatePerSec      float64 `yaml:"rate_per_sec" json:"rate_per_sec"`
	Retries         uint    `yaml:"retries" json:"retries"`
}

// LogConfig selects the log level and an optional rotated log file.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

var errEmptyPath = errors.New("empty config path")

// Config is everything `suncal serve` reads from its YAML file; the export
// commands use it for defaults.
type Config struct {
	// Listen is the HTTP listen address of the feed server.
	Listen string `yaml:"listen" json:"listen"`

	// Location is the observer; Timezone also cuts the calendar days.
	Location astro.Location `yaml:"location" json:"location"`

	// CalendarTitle names exported calendars (Google and .ics files).
	CalendarTitle string `yaml:"calendar_title" json:"calendar_title"`

	// RefreshCron is a cron schedule (e.g. "0 * * * *") on which the feed
	// cache is dropped.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of days from today a feed covers.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// BackfillDays is the number of past days a feed keeps.
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// BasicAuth guards every route but /health when set.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Google GoogleConfig `yaml:"google" json:"google"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

func defaultFeeds() []FeedConfig {
	return []FeedConfig{
		{ID: "sunrise", Name: "Sunrise", Event: string(suncal.Sunrise)},
		{ID: "sunset", Name: "Sunset", Event: string(suncal.Sunset)},
		{ID: "moonphase", Name: "Moon phases", Event: string(suncal.MoonPhase)},
	}
}

// DefaultConfig returns the configuration written on first run: Berlin, the
// sunrise, sunset and moon phase feeds, and an hourly refresh.
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:8080",
		Location: astro.Location{
			Timezone:  "Europe/Berlin",
			Latitude:  52.520008,
			Longitude: 13.404954,
		},
		CalendarTitle: "Sonne",
		RefreshCron:   "0 * * * *",
		HorizonDays:   30,
		BackfillDays:  0,
		Feeds:         defaultFeeds(),
		BasicAuth:     nil,
		Google: GoogleConfig{
			BatchSize:   1000,
			Concurrency: 4,
			RatePerSec:  5,
			Retries:     3,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Normalize replaces zero values with the defaults, so a file may list only
// the settings it changes.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Location.Timezone == "" {
		c.Location.Timezone = def.Location.Timezone
	}
	if c.CalendarTitle == "" {
		c.CalendarTitle = def.CalendarTitle
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.Feeds == nil {
		c.Feeds = def.Feeds
	}
	for i := range c.Feeds {
		if c.Feeds[i].ID == "" {
			c.Feeds[i].ID = c.Feeds[i].Event
		}
		if c.Feeds[i].Name == "" {
			c.Feeds[i].Name = c.CalendarTitle
		}
	}
	if c.Google.BatchSize <= 0 {
		c.Google.BatchSize = def.Google.BatchSize
	}
	if c.Google.Concurrency <= 0 {
		c.Google.Concurrency = def.Google.Concurrency
	}
	if c.Google.RatePerSec <= 0 {
		c.Google.RatePerSec = def.Google.RatePerSec
	}
	if c.Google.Retries == 0 {
		c.Google.Retries = def.Google.Retries
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate checks what Normalize cannot repair: the location, the refresh
// schedule, and that every feed has a known event kind and a unique ID.
func (c *Config) Validate() error {
	if err := c.Location.Validate(); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("refresh %q: %w", c.RefreshCron, err)
	}
	seen := make(map[string]bool, len(c.Feeds))
	for _, f := range c.Feeds {
		if _, err := suncal.ParseEventKind(f.Event); err != nil {
			return fmt.Errorf("feed %q: %w", f.ID, err)
		}
		if seen[f.ID] {
			return fmt.Errorf("feed %q: duplicate id", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

// Feed returns the feed with the given ID.
func (c *Config) Feed(id string) (FeedConfig, bool) {
	for _, f := range c.Feeds {
		if f.ID == id {
			return f, true
		}
	}
	return FeedConfig{}, false
}

// Load reads the YAML file at path. On first run, when the file does not
// exist yet, the defaults are written there (mode 0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errEmptyPath
	}

	cfg, err := read(path)
	if !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	cfg = DefaultConfig()
	// The defaults are usable even when they could not be persisted.
	return cfg, Save(path, cfg)
}

func read(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save normalizes cfg and writes it to path as YAML. The file is replaced
// atomically through a temp file in the same directory and ends up 0600;
// missing parent directories are created 0700.
func Save(path string, cfg *Config) error {
	switch {
	case path == "":
		return errEmptyPath
	case cfg == nil:
		return errors.New("nil config")
	}

	cfg.Normalize()
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return writeFileAtomic(dir, path, out)
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".suncal-config-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o600)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

// Save writes c to path; see the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
