package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/homescore/homescore-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id          TEXT PRIMARY KEY,
	data        TEXT NOT NULL,
	annotations TEXT,
	scraped_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scores (
	listing_id TEXT PRIMARY KEY REFERENCES listings(id),
	total      INTEGER NOT NULL,
	tier       TEXT NOT NULL,
	data       TEXT NOT NULL,
	scored_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_scraped_at ON listings(scraped_at);
CREATE INDEX IF NOT EXISTS idx_scores_total ON scores(total DESC);
CREATE INDEX IF NOT EXISTS idx_scores_tier ON scores(tier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveListing(ctx context.Context, listing *model.Listing) error {
	data, ann, err := marshalListing(listing)
	if err != nil {
		return err
	}

	// A re-fetch without annotations must not erase an earlier analysis.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO listings (id, data, annotations, scraped_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			data        = excluded.data,
			annotations = COALESCE(excluded.annotations, listings.annotations),
			updated_at  = excluded.updated_at`,
		listing.ID, data, ann, listing.ScrapedAt.UTC(), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save listing %s", listing.ID)
}

func (s *SQLiteStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data, annotations FROM listings WHERE id = ?`,
		id,
	)
	return scanListing(row)
}

func (s *SQLiteStore) ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error) {
	query := `SELECT data, annotations FROM listings WHERE 1=1`
	var args []any

	if filter.Neighborhood != "" {
		query += ` AND json_extract(data, '$.neighborhood') = ?`
		args = append(args, filter.Neighborhood)
	}
	query += ` ORDER BY scraped_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list listings")
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, eris.Wrap(rows.Err(), "sqlite: list listings iterate")
}

func (s *SQLiteStore) SaveAnnotations(ctx context.Context, listingID string, ann *model.Annotations) error {
	annJSON, err := json.Marshal(ann)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal annotations")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE listings SET annotations = ?, updated_at = ? WHERE id = ?`,
		string(annJSON), time.Now().UTC(), listingID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save annotations %s", listingID)
	}
	return checkRowsAffected(res, "listing", listingID)
}

func (s *SQLiteStore) SaveScore(ctx context.Context, score *model.CompositeScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal score")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (listing_id, total, tier, data, scored_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(listing_id) DO UPDATE SET
			total     = excluded.total,
			tier      = excluded.tier,
			data      = excluded.data,
			scored_at = excluded.scored_at`,
		score.ListingID, score.Total, string(score.Tier), string(data), score.ScoredAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save score %s", score.ListingID)
}

func (s *SQLiteStore) GetScore(ctx context.Context, listingID string) (*model.CompositeScore, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM scores WHERE listing_id = ?`,
		listingID,
	)
	return scanScore(row)
}

func (s *SQLiteStore) ListScores(ctx context.Context, limit int) ([]model.CompositeScore, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM scores ORDER BY total DESC, listing_id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scores")
	}
	defer rows.Close()

	var scores []model.CompositeScore
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *sc)
	}
	return scores, eris.Wrap(rows.Err(), "sqlite: list scores iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// marshalListing serializes a listing for storage. Annotations live in their
// own column so they can be written independently of a re-fetch.
func marshalListing(l *model.Listing) (string, any, error) {
	stripped := *l
	stripped.Annotations = nil
	data, err := json.Marshal(&stripped)
	if err != nil {
		return "", nil, eris.Wrap(err, "marshal listing")
	}

	var ann any
	if l.Annotations != nil {
		b, err := json.Marshal(l.Annotations)
		if err != nil {
			return "", nil, eris.Wrap(err, "marshal annotations")
		}
		ann = string(b)
	}
	return string(data), ann, nil
}

func scanListing(row scannable) (*model.Listing, error) {
	var data string
	var ann sql.NullString

	err := row.Scan(&data, &ann)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "get listing")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan listing")
	}

	var l model.Listing
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, eris.Wrap(err, "unmarshal listing")
	}
	if ann.Valid {
		var a model.Annotations
		if err := json.Unmarshal([]byte(ann.String), &a); err != nil {
			return nil, eris.Wrap(err, "unmarshal annotations")
		}
		l.Annotations = &a
	}
	return &l, nil
}

func scanScore(row scannable) (*model.CompositeScore, error) {
	var data string

	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "get score")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan score")
	}

	var sc model.CompositeScore
	if err := json.Unmarshal([]byte(data), &sc); err != nil {
		return nil, eris.Wrap(err, "unmarshal score")
	}
	return &sc, nil
}
