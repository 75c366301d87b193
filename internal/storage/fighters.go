package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"ufcstats-scraper/fightertools/internal/database"
	"ufcstats-scraper/fightertools/internal/models"
)

var (
	// ErrDuplicateLink is returned by Insert when the link is already stored.
	ErrDuplicateLink = errors.New("fighter link already exists")
	// ErrNotFound is returned when no fighter has the requested link.
	ErrNotFound = errors.New("fighter not found")
	// ErrInvalidRecord is returned when a link or name breaks the column limits.
	ErrInvalidRecord = errors.New("invalid fighter record")
)

// FighterRepository defines operations on the scrape state of fighter links.
type FighterRepository interface {
	Insert(ctx context.Context, f *models.Fighter) error
	InsertNew(ctx context.Context, fighters []*models.Fighter) (int, error)
	GetByLink(ctx context.Context, link string) (*models.Fighter, error)
	List(ctx context.Context, sel models.LinkSelection, limit int) ([]models.Fighter, error)
	RecordAttempt(ctx context.Context, link, name string, success bool) (*models.Fighter, error)
	Count(ctx context.Context) (int64, error)
}

// sqlxRepository implements FighterRepository using sqlx.
type sqlxRepository struct {
	db *database.DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *database.DB) FighterRepository {
	return &sqlxRepository{db: db}
}

const insertFighter = `
	INSERT INTO fighter (link, name, scraped, success, created_at, updated_at)
	VALUES (:link, :name, :scraped, :success, :created_at, :updated_at)`

// Insert stores a new fighter. A link that is already stored is rejected
// with ErrDuplicateLink and the existing row is left as it is.
func (r *sqlxRepository) Insert(ctx context.Context, f *models.Fighter) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	res, err := r.db.NamedExecContext(ctx, insertFighter, f)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateLink, f.Link)
		}
		return fmt.Errorf("failed to insert fighter: %w", err)
	}

	f.ID, err = res.LastInsertId()
	return err
}

// InsertNew stores every fighter whose link is not known yet, in a single
// transaction, and returns how many were inserted.
func (r *sqlxRepository) InsertNew(ctx context.Context, fighters []*models.Fighter) (inserted int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	for _, f := range fighters {
		if err = f.Validate(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}

		var exists bool
		err = tx.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM fighter WHERE link = ?)", f.Link)
		if err != nil {
			return 0, fmt.Errorf("failed to look up link %s: %w", f.Link, err)
		}
		if exists {
			log.Debug().Str("link", f.Link).Msg("Fighter already known")
			continue
		}

		res, err := tx.NamedExecContext(ctx, insertFighter, f)
		if err != nil {
			return 0, fmt.Errorf("failed to insert fighter %s: %w", f.Link, err)
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return 0, err
		}

		log.Debug().Str("link", f.Link).Str("name", f.Name).Msg("New fighter")
		inserted++
	}

	return inserted, nil
}

// GetByLink returns the fighter stored under link.
func (r *sqlxRepository) GetByLink(ctx context.Context, link string) (*models.Fighter, error) {
	var f models.Fighter
	err := r.db.GetContext(ctx, &f, `SELECT * FROM fighter WHERE link = ?`, link)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, link)
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &f, nil
}

// List returns the fighters matching sel ordered by id. A limit of zero or
// less returns all of them.
func (r *sqlxRepository) List(ctx context.Context, sel models.LinkSelection, limit int) ([]models.Fighter, error) {
	query := `SELECT * FROM fighter`
	switch sel {
	case models.SelectUnscraped:
		query += ` WHERE scraped = 0`
	case models.SelectFailed:
		query += ` WHERE success = 0`
	case models.SelectAll:
	default:
		return nil, fmt.Errorf("unknown link selection %q", sel)
	}
	query += ` ORDER BY id ASC`

	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	fighters := []models.Fighter{}
	if err := r.db.SelectContext(ctx, &fighters, query, args...); err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	log.Debug().Str("selection", string(sel)).Int("count", len(fighters)).Msg("Read fighters")
	return fighters, nil
}

// RecordAttempt marks link as scraped with the given outcome. The fighter is
// created first when the link is not stored yet; both steps share one
// transaction.
func (r *sqlxRepository) RecordAttempt(ctx context.Context, link, name string, success bool) (f *models.Fighter, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	f = &models.Fighter{}
	err = tx.GetContext(ctx, f, `SELECT * FROM fighter WHERE link = ?`, link)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		f = models.NewFighter(link, name)
		if err = f.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}

		res, err := tx.NamedExecContext(ctx, insertFighter, f)
		if err != nil {
			return nil, fmt.Errorf("failed to insert fighter %s: %w", link, err)
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up link %s: %w", link, err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE fighter SET scraped = 1, success = ?, updated_at = ? WHERE id = ?`,
		success, now, f.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update fighter %s: %w", link, err)
	}

	f.Scraped = true
	f.Success = sql.NullBool{Bool: success, Valid: true}
	f.UpdatedAt = now

	log.Debug().
		Int64("id", f.ID).
		Str("link", link).
		Bool("success", success).
		Msg("Recorded scrape attempt")

	return f, nil
}

// Count returns the number of stored fighters.
func (r *sqlxRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(id) FROM fighter`); err != nil {
		return 0, fmt.Errorf("database query failed: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
