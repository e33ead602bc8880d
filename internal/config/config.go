package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/deployboard/internal/model"
)

// DefaultDir is the directory under the user home where the config lives.
const DefaultDir = ".deployboard"

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(homedir.HomeDir(), DefaultDir, "config.yaml")
}

// Config is the user configuration of deployboard. Zero values mean the
// component defaults are used.
type Config struct {
	BackendURL      string
	Timeout         time.Duration
	PollInterval    time.Duration
	StoreCapacity   int
	AbortReason     string
	TaskFeedLimit   int
	GlobalFeedLimit int
}

// YAMLRepository loads the configuration from YAML files.
type YAMLRepository struct {
	fs fs.FS
}

// NewYAMLRepository creates a new YAML config repository.
func NewYAMLRepository(filesystem fs.FS) *YAMLRepository {
	return &YAMLRepository{fs: filesystem}
}

// GetConfig loads the configuration from a YAML file. A missing file returns
// an error wrapping fs.ErrNotExist.
func (r *YAMLRepository) GetConfig(ctx context.Context, path string) (Config, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return Config{}, ctx.Err()
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing YAML: %w", err)
	}

	cfg, err := f.toConfig()
	if err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w: %w", model.ErrNotValid, err)
	}

	return cfg, nil
}

// File represents the YAML structure of the config file.
type File struct {
	Backend BackendFile `yaml:"backend"`
	Watch   WatchFile   `yaml:"watch"`
}

// BackendFile represents the YAML structure of the backend connection.
type BackendFile struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// WatchFile represents the YAML structure of the dashboard settings.
type WatchFile struct {
	PollInterval    string `yaml:"poll_interval"`
	StoreCapacity   int    `yaml:"store_capacity"`
	AbortReason     string `yaml:"abort_reason"`
	TaskFeedLimit   int    `yaml:"task_feed_limit"`
	GlobalFeedLimit int    `yaml:"global_feed_limit"`
}

func (f File) toConfig() (Config, error) {
	timeout, err := parseDuration("backend.timeout", f.Backend.Timeout)
	if err != nil {
		return Config{}, err
	}

	interval, err := parseDuration("watch.poll_interval", f.Watch.PollInterval)
	if err != nil {
		return Config{}, err
	}

	for name, v := range map[string]int{
		"watch.store_capacity":    f.Watch.StoreCapacity,
		"watch.task_feed_limit":   f.Watch.TaskFeedLimit,
		"watch.global_feed_limit": f.Watch.GlobalFeedLimit,
	} {
		if v < 0 {
			return Config{}, fmt.Errorf("%s can't be negative, got: %d", name, v)
		}
	}

	return Config{
		BackendURL:      f.Backend.URL,
		Timeout:         timeout,
		PollInterval:    interval,
		StoreCapacity:   f.Watch.StoreCapacity,
		AbortReason:     f.Watch.AbortReason,
		TaskFeedLimit:   f.Watch.TaskFeedLimit,
		GlobalFeedLimit: f.Watch.GlobalFeedLimit,
	}, nil
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s can't be negative, got: %s", name, s)
	}

	return d, nil
}
