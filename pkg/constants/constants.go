// Package constants provides shared constants for the renovation-forecast application.
package constants

// DateLayout is the format expected in config files for calendar dates and is
// also the output date format.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is used to express day counts as years in reports
	DaysPerYear = 365

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Input domain bounds
const (
	// MinUnits is the smallest building the engine accepts
	MinUnits = 1

	// MaxUnits is the largest building the engine accepts
	MaxUnits = 500
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// UploadSizeLimitBytes is the largest maxUploadSize a server config may set (16 MB)
	UploadSizeLimitBytes int64 = 16 * 1024 * 1024
)

// Batch defaults
const (
	// DefaultBatchConcurrency bounds how many projects are simulated at once
	DefaultBatchConcurrency = 8

	// MaxBatchConcurrency is the largest concurrency a configuration may request
	MaxBatchConcurrency = 64
)
