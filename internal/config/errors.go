package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and by the file loader.
// Callers match them with errors.Is(); Validate wraps some of them with the
// offending value.
var (
	// ErrNoSeeds is returned when no seed title is given on the command line
	// or in the selected profile.
	ErrNoSeeds = errors.New("no seed titles specified: provide titles as arguments or set seeds in the config file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxDepth is returned when the max depth is negative.
	// Depth 0 is valid and fetches the seeds only.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the max pages budget is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidBaseURL is returned when the archive URL is not an absolute
	// http or https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidProxyAddress is returned when the proxy is not in host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrProfileNotFound is returned when the selected profile is not in the config file.
	ErrProfileNotFound = errors.New("profile not found in configuration file")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
