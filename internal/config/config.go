package config

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	DataDir string
	DBPath  string

	// Scraper invocation
	ScraperCommand string
	DelayFlag      string

	// Log settings
	LogLevel zerolog.Level
}

// ArchiveTarget is a data directory and the extension of the files
// archived from it.
type ArchiveTarget struct {
	Dir string
	Ext string
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		DataDir:        DefaultDataDir,
		DBPath:         DefaultDBPath,
		ScraperCommand: DefaultScraperCommand,
		DelayFlag:      DefaultDelayFlag,
		LogLevel:       logLevel,
	}
}

// ArchiveTargets returns the known directory/extension pairs under the data
// directory, in the order they are archived.
func (c *Config) ArchiveTargets() []ArchiveTarget {
	return []ArchiveTarget{
		{Dir: filepath.Join(c.DataDir, FighterDetailsDir), Ext: JSONExt},
		{Dir: filepath.Join(c.DataDir, FightersListDir), Ext: JSONExt},
		{Dir: filepath.Join(c.DataDir, FighterLinksDir), Ext: TextExt},
	}
}

// FightersListPath returns the directory holding the scraped fighters lists.
func (c *Config) FightersListPath() string {
	return filepath.Join(c.DataDir, FightersListDir)
}

// FighterLinksPath returns the directory holding the scraped fighter links.
func (c *Config) FighterLinksPath() string {
	return filepath.Join(c.DataDir, FighterLinksDir)
}

// ScraperArgv splits the scraper command line into the program and its
// leading arguments.
func (c *Config) ScraperArgv() []string {
	return strings.Fields(c.ScraperCommand)
}
