package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufcstats-scraper/fightertools/internal/config"
	"ufcstats-scraper/fightertools/internal/process"
)

func TestScrapeArgs(t *testing.T) {
	tests := []struct {
		name       string
		positional []string
		delayOpt   string
		wantKeys   []string
		wantDelay  string
		wantErr    string
	}{
		{name: "defaults", wantKeys: process.DefaultKeys},
		{name: "keys only", positional: []string{"abc"}, wantKeys: []string{"a", "b", "c"}},
		{name: "keys and delay", positional: []string{"xy", "15"}, wantKeys: []string{"x", "y"}, wantDelay: "15"},
		{name: "delay flag", positional: []string{"q"}, delayOpt: "2.5", wantKeys: []string{"q"}, wantDelay: "2.5"},
		{name: "delay twice", positional: []string{"q", "10"}, delayOpt: "5", wantErr: "delay given both"},
		{name: "flag after keys", positional: []string{"abc", "-delay", "5"}, wantErr: "must come before"},
		{name: "long flag after keys", positional: []string{"abc", "--log-level=debug"}, wantErr: "must come before"},
		{name: "too many", positional: []string{"a", "1", "2"}, wantErr: "at most two"},
		{name: "bad delay", positional: []string{"a", "soon"}, wantErr: "not a number"},
		{name: "negative delay", positional: []string{"a", "-1"}, wantErr: "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, delay, err := scrapeArgs(tt.positional, tt.delayOpt)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, keys)
			assert.Equal(t, tt.wantDelay, delay)
		})
	}
}

func TestNewFlagSetLogLevelFromEnv(t *testing.T) {
	t.Setenv("FIGHTERTOOLS_LOG_LEVEL", "warn")

	cfg := config.DefaultConfig()
	fs, logLevel := newFlagSet("links", cfg)
	require.NoError(t, fs.Parse(nil))

	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, "warn", *logLevel)
}
