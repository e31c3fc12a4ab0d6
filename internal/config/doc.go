// Package config provides configuration structures and utilities for kiwicrawl.
// It defines the archive location, crawl budgets, fetch limits, and output
// preferences, and loads named crawl profiles from a YAML file.
package config
