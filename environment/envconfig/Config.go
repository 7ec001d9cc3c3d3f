// Package envconfig provides JSON serializable configurations which
// build a ready-to-run intersection environment on a Box2D junction.
package envconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/drivelearn/environment/box2d/junction"
	"github.com/samuelfneumann/drivelearn/environment/intersection"
	ts "github.com/samuelfneumann/drivelearn/timestep"
)

// maxFileSize is the largest configuration file that Load will read
const maxFileSize = 1 * 1024 * 1024

// Config implements a configuration of the intersection environment
// and the junction it drives in
type Config struct {
	Environment intersection.Config `json:"environment"`
	Layout      junction.Layout     `json:"layout"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Environment: intersection.DefaultConfig(),
		Layout:      junction.DefaultLayout(),
	}
}

// Load reads a Config from a JSON file. Fields omitted from the file
// keep their default values.
func Load(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("load: config file must have .json "+
			"extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("load: config file too large: %d bytes "+
			"(max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}

	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: could not parse %v: %w", cleanPath,
			err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Save writes the Config to path as indented JSON
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Validate returns an error if either the environment or the layout
// configuration is invalid
func (c Config) Validate() error {
	if err := c.Environment.Validate(); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %v", intersection.ErrInvalidConfig, err)
	}
	return nil
}

// Create returns the environment described by the Config, the junction
// it drives in and the first timestep of the environment
func (c Config) Create(seed uint64) (*intersection.Intersection,
	*junction.Junction, ts.TimeStep, error) {
	j, err := junction.Build(c.Layout)
	if err != nil {
		return nil, nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	env, step, err := intersection.New(j, c.Environment, seed)
	if err != nil {
		return nil, nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	return env, j, step, nil
}
