package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Column limits of the 'fighter' table
const (
	MaxLinkLength = 80
	MaxNameLength = 40
)

// Fighter represents a row in the 'fighter' table: the scrape state of one
// fighter link.
type Fighter struct {
	ID        int64        `db:"id"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
	Link      string       `db:"link"`
	Name      string       `db:"name"`
	Scraped   bool         `db:"scraped"`
	Success   sql.NullBool `db:"success"` // NULL until a scrape attempt was evaluated
}

// NewFighter creates a new unscraped Fighter with default values
func NewFighter(link, name string) *Fighter {
	now := time.Now().UTC()
	return &Fighter{
		Link:      link,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the link and name against the column limits.
func (f *Fighter) Validate() error {
	switch {
	case f.Link == "":
		return fmt.Errorf("link is empty")
	case len([]rune(f.Link)) > MaxLinkLength:
		return fmt.Errorf("link longer than %d characters: %q", MaxLinkLength, f.Link)
	case len([]rune(f.Name)) > MaxNameLength:
		return fmt.Errorf("name longer than %d characters: %q", MaxNameLength, f.Name)
	}
	return nil
}

// LinkSelection filters fighter rows by scrape state.
type LinkSelection string

const (
	SelectAll       LinkSelection = "all"
	SelectUnscraped LinkSelection = "unscraped"
	SelectFailed    LinkSelection = "failed"
)

// ParseLinkSelection converts a command line value into a LinkSelection.
func ParseLinkSelection(s string) (LinkSelection, error) {
	switch sel := LinkSelection(s); sel {
	case SelectAll, SelectUnscraped, SelectFailed:
		return sel, nil
	}
	return "", fmt.Errorf("invalid link selection %q (want all, unscraped or failed)", s)
}
