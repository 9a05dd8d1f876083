// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/content-engine/internal/logger"
	"github.com/pdiddy/content-engine/pkg/types"
)

const dbFile = "content.db"

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps one row per item in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteStore opens or creates dataDir/content.db and ensures the schema.
func NewSQLiteStore(dataDir string, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS content_items (
			id TEXT PRIMARY KEY,
			hook TEXT NOT NULL,
			stage TEXT NOT NULL,
			dev_step TEXT NOT NULL DEFAULT '',
			strategy TEXT,
			research TEXT,
			insights TEXT,
			outline TEXT,
			draft_text TEXT NOT NULL DEFAULT '',
			archived INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_content_items_stage ON content_items(stage)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

const selectColumns = `id, hook, stage, dev_step, strategy, research, insights, outline,
	draft_text, archived, created_at, updated_at`

// Create inserts a new item.
func (s *SQLiteStore) Create(ctx context.Context, item types.ContentItem) (types.ContentItem, error) {
	item = prepareNew(item)

	strategy, strategyOK, err := encodeStrategy(item.Strategy)
	if err != nil {
		return types.ContentItem{}, err
	}
	lists := make([]sql.NullString, 3)
	for i, points := range [][]types.ResearchPoint{item.Research, item.Insights, item.Outline} {
		data, ok, err := encodePoints(points)
		if err != nil {
			return types.ContentItem{}, err
		}
		lists[i] = sql.NullString{String: data, Valid: ok}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO content_items (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Hook, string(item.Stage), string(item.DevStep),
		sql.NullString{String: strategy, Valid: strategyOK},
		lists[0], lists[1], lists[2],
		item.DraftText, boolToInt(item.Archived),
		item.CreatedAt.Format(timeLayout), item.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("inserting item %s: %w", item.ID, err)
	}
	s.log.Debug("item created", logger.ItemID(item.ID))
	return item, nil
}

// Get loads one item.
func (s *SQLiteStore) Get(ctx context.Context, id string) (types.ContentItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM content_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ContentItem{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("loading item %s: %w", id, err)
	}
	return item, nil
}

// Update writes only the columns the patch sets, plus updated_at.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch types.Patch) (types.ContentItem, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.Hook != nil {
		set("hook", *patch.Hook)
	}
	if patch.Stage != nil {
		set("stage", string(*patch.Stage))
	}
	if patch.DevStep != nil {
		set("dev_step", string(*patch.DevStep))
	}
	if patch.Strategy != nil {
		data, ok, err := encodeStrategy(patch.Strategy)
		if err != nil {
			return types.ContentItem{}, err
		}
		set("strategy", sql.NullString{String: data, Valid: ok})
	}
	for _, f := range []struct {
		col    string
		points *[]types.ResearchPoint
	}{
		{"research", patch.Research},
		{"insights", patch.Insights},
		{"outline", patch.Outline},
	} {
		if f.points == nil {
			continue
		}
		data, ok, err := encodePoints(*f.points)
		if err != nil {
			return types.ContentItem{}, err
		}
		set(f.col, sql.NullString{String: data, Valid: ok})
	}
	if patch.DraftText != nil {
		set("draft_text", *patch.DraftText)
	}
	if patch.Archived != nil {
		set("archived", boolToInt(*patch.Archived))
	}
	set("updated_at", now().Format(timeLayout))

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE content_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("updating item %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ContentItem{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	s.log.Debug("item updated", logger.ItemID(id), logger.Strings("fields", patch.Fields()))
	return s.Get(ctx, id)
}

// List returns every item ordered by creation time.
func (s *SQLiteStore) List(ctx context.Context) ([]types.ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM content_items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []types.ContentItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes an item.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	s.log.Debug("item deleted", logger.ItemID(id))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (types.ContentItem, error) {
	var (
		item                        types.ContentItem
		stage, devStep              string
		strategy                    sql.NullString
		research, insights, outline sql.NullString
		archived                    int
		createdAt, updatedAt        string
	)
	if err := row.Scan(&item.ID, &item.Hook, &stage, &devStep, &strategy,
		&research, &insights, &outline, &item.DraftText, &archived,
		&createdAt, &updatedAt); err != nil {
		return types.ContentItem{}, err
	}

	item.Stage = types.Stage(stage)
	item.DevStep = types.DevStep(devStep)
	item.Archived = archived != 0

	var err error
	if item.Strategy, err = decodeStrategy(strategy.String, strategy.Valid); err != nil {
		return types.ContentItem{}, err
	}
	if item.Research, err = decodePoints(research.String, research.Valid); err != nil {
		return types.ContentItem{}, err
	}
	if item.Insights, err = decodePoints(insights.String, insights.Valid); err != nil {
		return types.ContentItem{}, err
	}
	if item.Outline, err = decodePoints(outline.String, outline.Valid); err != nil {
		return types.ContentItem{}, err
	}
	item.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	item.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return item, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
