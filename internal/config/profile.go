package config

import (
	"fmt"
	"time"
)

// Profile holds crawl settings for one archive or one recurring crawl.
// Zero values mean "not set" so profiles can be layered over defaults.
type Profile struct {
	// BaseURL is the archive server root.
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout bounds each page fetch, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxDepth is a pointer because 0 is a meaningful depth.
	MaxDepth *int `yaml:"max_depth,omitempty"`

	// MaxPages is the page budget.
	MaxPages int `yaml:"max_pages,omitempty"`

	// Seeds are used when no titles are given on the command line.
	Seeds []string `yaml:"seeds,omitempty"`

	UserAgent string `yaml:"user_agent,omitempty"`

	// Proxy is a SOCKS5 proxy address in host:port form.
	Proxy string `yaml:"proxy,omitempty"`

	// IgnoreTitles are glob patterns of titles that are never queued.
	IgnoreTitles []string `yaml:"ignore_titles,omitempty"`

	// OutputDir is the artifact directory.
	OutputDir string `yaml:"output_dir,omitempty"`
}

// File represents the structure of the .kiwicrawl configuration file.
type File struct {
	// Defaults apply to every crawl unless a profile overrides them.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Profiles maps profile names to their settings.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// GetProfile returns the named profile merged over the defaults.
// An empty name returns the defaults alone.
func (cf *File) GetProfile(name string) (Profile, error) {
	result := cf.Defaults
	if name == "" {
		return result, nil
	}

	p, ok := cf.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return result.merge(p), nil
}

// ProfileNames returns the names of all profiles in the file.
func (cf *File) ProfileNames() []string {
	names := make([]string, 0, len(cf.Profiles))
	for name := range cf.Profiles {
		names = append(names, name)
	}
	return names
}

// merge returns p with every set field of override applied.
func (p Profile) merge(override Profile) Profile {
	result := p

	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Timeout != 0 {
		result.Timeout = override.Timeout
	}
	if override.MaxDepth != nil {
		result.MaxDepth = override.MaxDepth
	}
	if override.MaxPages != 0 {
		result.MaxPages = override.MaxPages
	}
	if len(override.Seeds) > 0 {
		result.Seeds = override.Seeds
	}
	if override.UserAgent != "" {
		result.UserAgent = override.UserAgent
	}
	if override.Proxy != "" {
		result.Proxy = override.Proxy
	}
	if len(override.IgnoreTitles) > 0 {
		result.IgnoreTitles = override.IgnoreTitles
	}
	if override.OutputDir != "" {
		result.OutputDir = override.OutputDir
	}

	return result
}
