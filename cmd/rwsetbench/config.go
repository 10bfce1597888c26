package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/notorious-go/rwset/rwlock"
)

// Config describes one benchmark run.
type Config struct {
	// Styles to compare, by name, or "all".
	Style string `json:"style"`

	Readers int `json:"readers"`
	Writers int `json:"writers"`

	// Ops is the number of operations performed by every goroutine.
	Ops int `json:"ops"`

	// Keys is the size of the key space. The set starts with every even key.
	Keys int `json:"keys"`

	// Batch is the number of keys inserted by one bulk insert.
	Batch int `json:"batch"`

	// Parallel caps how many readers and writers run at once. Zero runs them
	// all together.
	Parallel int `json:"parallel"`

	Seed    uint64 `json:"seed"`
	Verbose bool   `json:"verbose"`
}

// DefaultConfig returns a config with a read-mostly workload.
func DefaultConfig() *Config {
	return &Config{
		Style:   "all",
		Readers: 8,
		Writers: 2,
		Ops:     20000,
		Keys:    4096,
		Batch:   16,
		Seed:    1,
	}
}

// LoadConfig reads a JSON config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// RegisterFlags binds the config fields to flags of fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Style, "style", c.Style, "lock styles to compare: all, writer, reader or fair (comma-separated)")
	fs.IntVar(&c.Readers, "readers", c.Readers, "number of reading goroutines")
	fs.IntVar(&c.Writers, "writers", c.Writers, "number of writing goroutines")
	fs.IntVar(&c.Ops, "ops", c.Ops, "operations per goroutine")
	fs.IntVar(&c.Keys, "keys", c.Keys, "size of the key space")
	fs.IntVar(&c.Batch, "batch", c.Batch, "keys per bulk insert")
	fs.IntVar(&c.Parallel, "parallel", c.Parallel, "maximum goroutines running at once (0 for no limit)")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "log progress at debug level")
}

// Validate reports the first field that cannot produce a meaningful run.
func (c *Config) Validate() error {
	switch {
	case c.Readers < 0 || c.Writers < 0:
		return errors.New("readers and writers must not be negative")
	case c.Readers+c.Writers == 0:
		return errors.New("at least one reader or writer is required")
	case c.Ops <= 0:
		return errors.New("ops must be positive")
	case c.Keys <= 0:
		return errors.New("keys must be positive")
	case c.Keys < c.Writers:
		return errors.New("keys must be at least the number of writers")
	case c.Batch <= 0:
		return errors.New("batch must be positive")
	case c.Parallel < 0:
		return errors.New("parallel must not be negative")
	}
	_, err := c.Styles()
	return err
}

// Styles returns the lock styles selected by c.Style.
func (c *Config) Styles() ([]rwlock.Style, error) {
	if c.Style == "" || strings.EqualFold(c.Style, "all") {
		return rwlock.Styles, nil
	}
	var styles []rwlock.Style
	for _, name := range strings.Split(c.Style, ",") {
		s, err := rwlock.ParseStyle(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		styles = append(styles, s)
	}
	return styles, nil
}
