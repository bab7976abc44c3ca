package game

import (
	"encoding/json"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/util"
)

// Config holds the client pipeline settings.
type Config struct {
	TickRate       int    `json:"tick_rate"`
	MeshWorkers    int    `json:"mesh_workers"`
	LogLevel       string `json:"log_level"`
	LogCategories  string `json:"log_categories"` // comma separated, "all" for everything
	RenderDistance int    `json:"render_distance"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TickRate:       20,
		MeshWorkers:    runtime.NumCPU(),
		LogLevel:       "info",
		LogCategories:  "all",
		RenderDistance: 8,
	}
}

// LoadConfig reads a JSON file on top of the defaults.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", filename)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", filename)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", filename)
	}
	return cfg, nil
}

// Merge copies the settings read from a config file into cfg. A setting
// whose flag name is in explicitFlags keeps the command line value.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["tick-rate"] {
		cfg.TickRate = fromFile.TickRate
	}
	if !explicitFlags["workers"] {
		cfg.MeshWorkers = fromFile.MeshWorkers
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	if !explicitFlags["log-categories"] {
		cfg.LogCategories = fromFile.LogCategories
	}
	if !explicitFlags["render-distance"] {
		cfg.RenderDistance = fromFile.RenderDistance
	}
}

func (c *Config) Validate() error {
	if c.TickRate <= 0 {
		return errors.Errorf("tick rate must be positive, got %d", c.TickRate)
	}
	if c.MeshWorkers <= 0 {
		return errors.Errorf("mesh workers must be positive, got %d", c.MeshWorkers)
	}
	if c.RenderDistance < 0 {
		return errors.Errorf("render distance must not be negative, got %d", c.RenderDistance)
	}
	if _, ok := util.ParseLogLevel(c.LogLevel); !ok {
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}
	if _, err := c.Categories(); err != nil {
		return err
	}
	return nil
}

// Categories parses LogCategories into a mask.
func (c *Config) Categories() (util.LogCategory, error) {
	var mask util.LogCategory
	for _, name := range strings.Split(c.LogCategories, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		category, ok := util.ParseLogCategory(name)
		if !ok {
			return 0, errors.Errorf("unknown log category %q", name)
		}
		mask |= category
	}
	return mask, nil
}

// ApplyLogging configures the global logger gates.
func (c *Config) ApplyLogging() error {
	level, ok := util.ParseLogLevel(c.LogLevel)
	if !ok {
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}
	categories, err := c.Categories()
	if err != nil {
		return err
	}
	util.SetLogLevel(level)
	util.SetLogCategories(categories)
	return nil
}
