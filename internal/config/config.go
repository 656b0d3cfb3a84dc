// Package config defines the data structures related to configuration and
// includes functions for loading and checking it.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/renovation-forecast/pkg/datetime"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
	"github.com/iwvelando/renovation-forecast/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for renovation-forecast.
type Configuration struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
	// ReferenceDate anchors the compliance timeline (YYYY-MM-DD). Empty
	// means today.
	ReferenceDate string `mapstructure:"referenceDate"`
	// Concurrency bounds how many projects are simulated at once.
	Concurrency int `mapstructure:"concurrency"`
	// Regulation holds overrides merged over the built-in vintage.
	Regulation regulation.Config `mapstructure:"regulation"`
	Projects   []Project         `mapstructure:"projects"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// Project is one renovation project to simulate. Inactive projects are
// skipped.
type Project struct {
	Active              bool `mapstructure:"active"`
	validation.RawInput `mapstructure:",squash"`
}

// regulationListKeys are replaced wholesale rather than merged element by
// element when a configuration sets them.
var regulationListKeys = map[string]func(*regulation.Config){
	"regulation.grant.povertyBands":    func(c *regulation.Config) { c.Grant.PovertyBands = nil },
	"regulation.inaction.erosionBands": func(c *regulation.Config) { c.Inaction.ErosionBands = nil },
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return LoadConfigurationFromReader(bytes.NewReader(data))
}

// LoadConfigurationFromReader loads a YAML configuration from r. Regulation
// values absent from the document keep their built-in defaults.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	configuration := Configuration{Regulation: regulation.Default()}
	for key, reset := range regulationListKeys {
		if v.IsSet(key) {
			reset(&configuration.Regulation)
		}
	}

	err := v.Unmarshal(&configuration, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.Regulation.Validate(); err != nil {
		return nil, err
	}
	if _, err := configuration.Reference(time.Now()); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// Reference returns the configured reference date, or the calendar day of
// now when none is set.
func (c *Configuration) Reference(now time.Time) (time.Time, error) {
	if strings.TrimSpace(c.ReferenceDate) == "" {
		return datetime.Truncate(now), nil
	}
	t, err := datetime.ParseDate(c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid referenceDate: %w", err)
	}
	return t, nil
}

// ActiveProjects returns the raw input of every active project, in order.
func (c *Configuration) ActiveProjects() []validation.RawInput {
	var projects []validation.RawInput
	for _, p := range c.Projects {
		if p.Active {
			projects = append(projects, p.RawInput)
		}
	}
	return projects
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.Projects) == 0 {
		warnings = append(warnings, "no projects configured")
	} else if len(c.ActiveProjects()) == 0 {
		warnings = append(warnings, "no active projects, nothing will be simulated")
	}

	seen := make(map[string]bool)
	for i, p := range c.Projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			warnings = append(warnings, fmt.Sprintf("project %d has no name", i+1))
			continue
		}
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("project name '%s' is used more than once", name))
		}
		seen[name] = true
	}

	reference, err := c.Reference(time.Now())
	if err == nil {
		if cutoff, cutoffErr := c.Regulation.QuoteCutoffDate(); cutoffErr == nil && reference.After(cutoff) {
			for _, p := range c.Projects {
				if p.Active && p.QuoteValidated {
					warnings = append(warnings, fmt.Sprintf(
						"project '%s' claims a quote validated before %s but the reference date is %s",
						p.Name, c.Regulation.Deduction.QuoteCutoff, reference.Format(datetime.DateLayout)))
				}
			}
		}
	}

	if c.Concurrency < 0 {
		warnings = append(warnings, fmt.Sprintf("concurrency %d is negative, the default will be used", c.Concurrency))
	}

	return warnings
}
