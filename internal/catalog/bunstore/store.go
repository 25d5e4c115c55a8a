package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"

	"mdsum/internal/catalog"
)

const savedAtKey = "saved_at"

type documentRow struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID         string    `bun:",pk"`
	Position   int       `bun:",notnull"`
	Content    string    `bun:",notnull"`
	FilePath   string    `bun:",nullzero"`
	AddedAt    time.Time `bun:",notnull"`
	Summary    string    `bun:",nullzero"`
	Summarized bool      `bun:",notnull"`
	SummaryErr string    `bun:",nullzero"`
}

type metaRow struct {
	bun.BaseModel `bun:"table:catalog_meta,alias:m"`

	Name  string `bun:",pk"`
	Value string `bun:",notnull"`
}

// Store keeps the catalog in SQLite: one row per document plus a meta row
// recording when it was last saved.
type Store struct {
	db *bun.DB
}

// Open opens (or creates) a SQLite database at path.
func Open(path string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	sqldb.SetMaxOpenConns(1)
	return New(sqldb, sqlitedialect.New())
}

// New wraps an existing database handle and creates the tables if needed.
func New(db *sql.DB, dialect schema.Dialect) (*Store, error) {
	bunDB := bun.NewDB(db, dialect)
	ctx := context.Background()
	if _, err := bunDB.NewCreateTable().Model((*documentRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	if _, err := bunDB.NewCreateTable().Model((*metaRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create catalog_meta table: %w", err)
	}
	return &Store{db: bunDB}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces every stored document with the snapshot in one transaction.
func (s *Store) Save(ctx context.Context, snap catalog.Snapshot) error {
	rows := make([]documentRow, len(snap.Records))
	for i, r := range snap.Records {
		rows[i] = documentRow{
			ID:         r.ID,
			Position:   i,
			Content:    r.Content,
			FilePath:   r.FilePath,
			AddedAt:    r.AddedAt.UTC(),
			Summary:    r.Summary,
			Summarized: r.Summarized,
			SummaryErr: r.SummaryErr,
		}
	}
	meta := metaRow{Name: savedAtKey, Value: snap.SavedAt.UTC().Format(time.RFC3339Nano)}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*documentRow)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return err
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return err
			}
		}
		if _, err := tx.NewDelete().Model((*metaRow)(nil)).Where("name = ?", savedAtKey).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&meta).Exec(ctx)
		return err
	})
}

// Load returns catalog.ErrStateMissing until Save has run once.
func (s *Store) Load(ctx context.Context) (catalog.Snapshot, error) {
	meta := new(metaRow)
	if err := s.db.NewSelect().Model(meta).Where("name = ?", savedAtKey).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Snapshot{}, catalog.ErrStateMissing
		}
		return catalog.Snapshot{}, err
	}
	savedAt, err := time.Parse(time.RFC3339Nano, meta.Value)
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("%w: saved_at %q", catalog.ErrCorruptState, meta.Value)
	}

	var rows []documentRow
	if err := s.db.NewSelect().Model(&rows).Order("position ASC").Scan(ctx); err != nil {
		return catalog.Snapshot{}, err
	}
	snap := catalog.Snapshot{Records: make([]catalog.Record, len(rows)), SavedAt: savedAt}
	for i, r := range rows {
		snap.Records[i] = catalog.Record{
			ID:         r.ID,
			Content:    r.Content,
			FilePath:   r.FilePath,
			AddedAt:    r.AddedAt,
			Summary:    r.Summary,
			Summarized: r.Summarized,
			SummaryErr: r.SummaryErr,
		}
	}
	return snap, nil
}
