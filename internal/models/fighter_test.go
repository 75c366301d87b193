package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFighterValidate(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		fName   string
		wantErr bool
	}{
		{"valid", "http://ufcstats.com/fighter-details/abc", "Jon Jones", false},
		{"empty link", "", "Jon Jones", true},
		{"link at limit", strings.Repeat("l", MaxLinkLength), "", false},
		{"link too long", strings.Repeat("l", MaxLinkLength+1), "", true},
		{"name too long", "x", strings.Repeat("n", MaxNameLength+1), true},
		{"multibyte name at limit", "x", strings.Repeat("é", MaxNameLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFighter(tt.link, tt.fName).Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewFighterDefaults(t *testing.T) {
	f := NewFighter("link", "name")
	assert.False(t, f.Scraped)
	assert.False(t, f.Success.Valid)
	assert.Equal(t, f.CreatedAt, f.UpdatedAt)
}

func TestParseLinkSelection(t *testing.T) {
	for _, s := range []string{"all", "unscraped", "failed"} {
		sel, err := ParseLinkSelection(s)
		require.NoError(t, err)
		assert.Equal(t, LinkSelection(s), sel)
	}

	_, err := ParseLinkSelection("untried")
	assert.Error(t, err)
}
