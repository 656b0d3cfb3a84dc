package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/renovation-forecast/internal/config"
	"github.com/iwvelando/renovation-forecast/internal/logging"
	"github.com/iwvelando/renovation-forecast/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address       string `yaml:"address"`
	MaxUploadSize string `yaml:"maxUploadSize"`
	// Concurrency bounds how many projects of one batch request are
	// simulated at once.
	Concurrency int `yaml:"concurrency"`
	// RegulationFile optionally names a project configuration whose
	// regulation section replaces the built-in vintage.
	RegulationFile  string               `yaml:"regulationFile"`
	Logging         config.LoggingConfig `yaml:"logging"`
	uploadSizeBytes int64
}

// sizeUnits maps the accepted maxUploadSize suffixes to byte multipliers.
var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Address:         constants.DefaultServerAddress,
		MaxUploadSize:   strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10),
		Concurrency:     constants.DefaultBatchConcurrency,
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}
}

// LoadConfig reads the server YAML at path. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("error reading server config %s, %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to decode server config %s, %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config %s, %w", path, err)
	}
	return cfg, nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size. Non-positive
// sizes are ignored.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size <= 0 {
		return
	}
	c.uploadSizeBytes = size
	c.MaxUploadSize = strconv.FormatInt(size, 10)
}

// Validate fills unset fields with defaults and reports every invalid
// setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		errs = append(errs, fmt.Errorf("address %q: %w", c.Address, err))
	}

	switch {
	case c.Concurrency == 0:
		c.Concurrency = constants.DefaultBatchConcurrency
	case c.Concurrency < 0 || c.Concurrency > constants.MaxBatchConcurrency:
		errs = append(errs, fmt.Errorf("concurrency %d outside 1..%d", c.Concurrency, constants.MaxBatchConcurrency))
	}

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("maxUploadSize: %w", err))
	} else {
		c.uploadSizeBytes = size
	}

	if c.Logging.Level != "" {
		if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ParseSize converts a size such as "256K" or "2MB" into bytes. Blank input
// selects the default upload size.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	digits := strings.TrimRight(trimmed, "BKM ")
	unit := strings.TrimSpace(trimmed[len(digits):])
	multiplier, ok := sizeUnits[unit]
	if !ok || digits == "" {
		return 0, fmt.Errorf("size %q must be a number followed by B, K or M", value)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(digits), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("size %q must be a positive number", value)
	}
	if n > constants.UploadSizeLimitBytes/multiplier {
		return 0, fmt.Errorf("size %q exceeds the %d byte limit", value, constants.UploadSizeLimitBytes)
	}
	return n * multiplier, nil
}
