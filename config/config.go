// Package config holds the process-level configuration for cmd/snapshotd,
// loaded from an optional YAML file and overridable by CLI flags, with
// flags always taking precedence over file values.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs cmd/snapshotd needs to wire the core,
// watcher, and HTTP server together.
type Config struct {
	// DataDir holds the bbolt data file (and the instance lock). Empty
	// means "ephemeral," using kv/boltkv.OpenTemp.
	DataDir string `yaml:"data_dir"`
	// WatchDir is the directory watcher.Watcher observes for
	// "<tag>-snapshot.json" files.
	WatchDir string `yaml:"watch_dir"`
	// ListenAddr is the HTTP server's bind address, e.g. ":8080".
	ListenAddr string `yaml:"listen_addr"`
	// ReaderRoot and UpdateRoot are the path prefixes the two filter
	// groups are mounted under.
	ReaderRoot string `yaml:"reader_root"`
	UpdateRoot string `yaml:"update_root"`
	// Debounce is the watcher's minimum reload interval per tag.
	Debounce time.Duration `yaml:"debounce"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// ReadPoolSize bounds concurrent blocking-task-pool reads; 0 means
	// unbounded.
	ReadPoolSize int `yaml:"read_pool_size"`
}

// Default returns a Config usable out of the box for local development: an
// ephemeral store, watching ./snapshots, listening on :8080, reads mounted
// at "/" and writes at "/admin" so the two filter groups never collide on
// the same chi.Router mount point.
func Default() Config {
	return Config{
		DataDir:      "",
		WatchDir:     "./snapshots",
		ListenAddr:   ":8080",
		ReaderRoot:   "/",
		UpdateRoot:   "/admin",
		Debounce:     100 * time.Millisecond,
		LogLevel:     "info",
		ReadPoolSize: 64,
	}
}

// Load reads a YAML file at path over the defaults. A non-existent path is
// not an error: Load simply returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(err, "config: read file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: parse yaml")
	}
	return cfg, nil
}
