package config

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/kiwicrawl/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "kiwicrawl"

	// DefaultBaseURL is where kiwix-serve listens when started with
	// "kiwix-serve --port 8080".
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds a single page fetch, body included.
	// A local archive answers in milliseconds, so 10 seconds only trips
	// when the server is stuck.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxDepth expands the seeds and their direct links.
	DefaultMaxDepth = model.DefaultMaxDepth

	// DefaultMaxPages keeps an unattended crawl small.
	DefaultMaxPages = model.DefaultMaxPages

	// DefaultOutputDir is the artifact directory, relative to the working directory.
	DefaultOutputDir = "crawl_output"

	// DefaultUserAgent identifies kiwicrawl in HTTP requests.
	DefaultUserAgent = "kiwicrawl/1.0 (+https://github.com/nao1215/kiwicrawl)"

	// DefaultMaxBodySize limits the response body size to read.
	// Long encyclopedia articles stay well below 10MB.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Config holds all configuration options for a kiwicrawl run.
// It is populated from the config file and CLI flags and passed through the
// application rather than kept in global state.
type Config struct {
	// BaseURL is the root URL of the archive server, e.g. "http://localhost:8080".
	BaseURL string

	// Seeds are the titles the crawl starts from, in order.
	Seeds []string

	// Timeout bounds each page fetch.
	Timeout time.Duration

	// MaxDepth is the deepest level that is fetched. Seeds are depth 0.
	MaxDepth int

	// MaxPages is the maximum number of pages fetched in one crawl.
	MaxPages int

	// OutputDir is the directory the artifacts are written to.
	OutputDir string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// A larger body fails the fetch.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// Empty means a direct connection.
	ProxyAddress string

	// IgnoreTitles are glob patterns of titles that are never queued,
	// e.g. "Special:*".
	IgnoreTitles []string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the default locations are searched.
	ConfigFilePath string

	// Profile is the name of the profile selected from the config file.
	// Empty means the file's defaults only.
	Profile string

	// Verbose enables the event trace on stderr using slog.LevelDebug.
	Verbose bool

	// LogJSON switches the stderr log to JSON lines.
	LogJSON bool

	// MarkdownSummary also writes summary.md into OutputDir.
	MarkdownSummary bool

	// SaveToDB stores the run in the history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/kiwicrawl on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		MaxDepth:    DefaultMaxDepth,
		MaxPages:    DefaultMaxPages,
		OutputDir:   DefaultOutputDir,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for kiwicrawl.
// On Linux: ~/.local/share/kiwicrawl
// On macOS: ~/Library/Application Support/kiwicrawl
// On Windows: %LOCALAPPDATA%\kiwicrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for kiwicrawl.
// On Linux: ~/.config/kiwicrawl
// On macOS: ~/Library/Application Support/kiwicrawl
// On Windows: %APPDATA%\kiwicrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// CrawlSettings returns the crawl budgets of the configuration.
func (c *Config) CrawlSettings() model.CrawlSettings {
	return model.CrawlSettings{
		MaxDepth: c.MaxDepth,
		MaxPages: c.MaxPages,
	}
}

// ApplyProfile copies every value set in p over the configuration.
// Unset profile fields leave the configuration untouched.
func (c *Config) ApplyProfile(p Profile) {
	if p.BaseURL != "" {
		c.BaseURL = p.BaseURL
	}
	if p.Timeout != 0 {
		c.Timeout = p.Timeout
	}
	if p.MaxDepth != nil {
		c.MaxDepth = *p.MaxDepth
	}
	if p.MaxPages != 0 {
		c.MaxPages = p.MaxPages
	}
	if len(p.Seeds) > 0 {
		c.Seeds = append([]string(nil), p.Seeds...)
	}
	if p.UserAgent != "" {
		c.UserAgent = p.UserAgent
	}
	if p.Proxy != "" {
		c.ProxyAddress = p.Proxy
	}
	if len(p.IgnoreTitles) > 0 {
		c.IgnoreTitles = append([]string(nil), p.IgnoreTitles...)
	}
	if p.OutputDir != "" {
		c.OutputDir = p.OutputDir
	}
}

// Validate checks if the configuration is valid and returns the first
// problem found. It is called once after flags and the config file are
// merged, before anything touches the network.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}

	if !isValidBaseURL(c.BaseURL) {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, c.MaxDepth)
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxPages, c.MaxPages)
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ProxyAddress != "" && !isValidHostPort(c.ProxyAddress) {
		return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, c.ProxyAddress)
	}

	return nil
}

func isValidBaseURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isValidHostPort(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n > 0 && n <= 65535
}
