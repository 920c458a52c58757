package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"daycount/internal/calendar"
)

// ICSConfig describes a single ICS subscription whose events are merged
// into the day cells.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls PNG snapshots of the rendered page.
type CaptureConfig struct {
	// Output is where snapshots are written.
	Output string `yaml:"output" json:"output"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
	// TimeoutSeconds bounds a single capture.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// Daily re-captures the page right after midnight.
	Daily bool `yaml:"daily" json:"daily"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone decides what "today" is. Offsets themselves are computed on
	// plain calendar dates.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// EventsFile is a YAML or JSON file with an `events` list.
	EventsFile string `yaml:"events_file" json:"events_file"`

	// CacheDir holds the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// RefreshCron is a cron-style schedule for reloading event sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	MonthsBefore      int `yaml:"months_before" json:"months_before"`
	MonthsAfter       int `yaml:"months_after" json:"months_after"`
	MilestoneInterval int `yaml:"milestone_interval" json:"milestone_interval"`

	// EventCollapseThreshold is the event count at which a cell shows a
	// single indicator instead of listing events.
	EventCollapseThreshold int `yaml:"event_collapse_threshold" json:"event_collapse_threshold"`

	ICS []ICSConfig `yaml:"ics" json:"ics"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Local"
	defaultLogLevel    = "info"
	defaultEventsFile  = "events.yaml"
	defaultCacheDir    = "./var/ics-cache"
	defaultRefreshCron = "*/30 * * * *"
	defaultCaptureOut  = "./var/preview.png"
	defaultCaptureW    = 1600
	defaultCaptureH    = 2400
	defaultCaptureSecs = 30
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults so partially filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.EventsFile == "" {
		c.EventsFile = defaultEventsFile
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.MonthsBefore <= 0 {
		c.MonthsBefore = calendar.DefaultMonthsBefore
	}
	if c.MonthsAfter <= 0 {
		c.MonthsAfter = calendar.DefaultMonthsAfter
	}
	if c.MilestoneInterval <= 0 {
		c.MilestoneInterval = calendar.DefaultMilestoneInterval
	}
	if c.EventCollapseThreshold <= 0 {
		c.EventCollapseThreshold = calendar.DefaultCollapseThreshold
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Capture.Output == "" {
		c.Capture.Output = defaultCaptureOut
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = defaultCaptureW
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = defaultCaptureH
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = defaultCaptureSecs
	}
}

// CalendarOptions maps the view-related settings onto calendar.Options.
func (c *Config) CalendarOptions() calendar.Options {
	return calendar.Options{
		MonthsBefore:      c.MonthsBefore,
		MonthsAfter:       c.MonthsAfter,
		MilestoneInterval: c.MilestoneInterval,
		CollapseAt:        c.EventCollapseThreshold,
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
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

	tmp, err := os.CreateTemp(dir, ".daycount-config-*.tmp")
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

func (c *Config) Save(path string) error {
	return Save(path, c)
}
