package importfighters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"ufcstats-scraper/fightertools/internal/models"
	"ufcstats-scraper/fightertools/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// listedFighter is one entry of a fighters list JSON file in the format
// written by src/fighters_list.py, which keeps the link of every fighter.
// Only the fields needed for the links table are decoded.
type listedFighter struct {
	Link      string `json:"link"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (f listedFighter) fullName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}

// Summary counts the outcome of an import.
type Summary struct {
	Files    int
	Read     int
	Inserted int
	Skipped  []string
}

// Importer loads scraped fighter lists into the links table.
type Importer struct {
	repo storage.FighterRepository
}

// NewImporter creates a new fighters importer
func NewImporter(repo storage.FighterRepository) *Importer {
	return &Importer{repo: repo}
}

// ImportDirs imports every .json and .txt file directly inside each of dirs,
// in name order. A missing directory contributes no files.
func (i *Importer) ImportDirs(ctx context.Context, dirs ...string) (*Summary, error) {
	var paths []string
	for _, dir := range dirs {
		var found []string
		for _, pattern := range []string{"*.json", "*.txt"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			found = append(found, matches...)
		}
		sort.Strings(found)

		log.Info().Str("dir", dir).Int("files", len(found)).Msg("Found fighter files")
		paths = append(paths, found...)
	}

	return i.ImportFiles(ctx, paths)
}

// ImportFiles imports the given files. Files ending in .txt hold one fighter
// link per line; any other file is a fighters list in JSON. Links already
// stored are left untouched. Entries that cannot be stored are skipped and
// listed in the summary.
func (i *Importer) ImportFiles(ctx context.Context, paths []string) (*Summary, error) {
	summary := &Summary{}

	for _, path := range paths {
		fighters, skipped, err := readFile(path)
		if err != nil {
			return summary, err
		}
		summary.Files++
		summary.Read += len(fighters) + len(skipped)
		summary.Skipped = append(summary.Skipped, skipped...)

		n, err := i.repo.InsertNew(ctx, fighters)
		if err != nil {
			return summary, fmt.Errorf("failed to import %s: %w", path, err)
		}
		summary.Inserted += n

		log.Debug().
			Str("file", path).
			Int("fighters", len(fighters)).
			Int("inserted", n).
			Msg("Imported fighters list")
	}

	log.Info().
		Int("files", summary.Files).
		Int("total", summary.Read).
		Int("inserted", summary.Inserted).
		Int("skipped", len(summary.Skipped)).
		Msg("Import summary")

	return summary, nil
}

func readFile(path string) ([]*models.Fighter, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var listed []listedFighter
	if filepath.Ext(path) == ".txt" {
		listed = parseLinks(data)
	} else if err := json.Unmarshal(data, &listed); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var fighters []*models.Fighter
	var skipped []string
	seen := make(map[string]bool, len(listed))

	for n, lf := range listed {
		logger := log.With().Str("file", path).Int("entry", n).Str("link", lf.Link).Logger()

		f := models.NewFighter(strings.TrimSpace(lf.Link), lf.fullName())
		if err := f.Validate(); err != nil {
			logger.Warn().Err(err).Msg("Skipping fighter")
			skipped = append(skipped, fmt.Sprintf("%s entry %d: %v", filepath.Base(path), n, err))
			continue
		}
		if seen[f.Link] {
			logger.Debug().Msg("Duplicate link in file")
			continue
		}
		seen[f.Link] = true
		fighters = append(fighters, f)
	}

	return fighters, skipped, nil
}

// parseLinks reads one link per line, ignoring blank lines and # comments.
// Names are not part of a links file.
func parseLinks(data []byte) []listedFighter {
	var listed []listedFighter
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		listed = append(listed, listedFighter{Link: line})
	}
	return listed
}
