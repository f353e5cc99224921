package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/homescore/homescore-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which keeps the Postgres store unit-testable without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"save_listing": `INSERT INTO listings (id, data, annotations, scraped_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, annotations = COALESCE(excluded.annotations, listings.annotations), updated_at = excluded.updated_at`,
	"get_listing":      `SELECT data, annotations FROM listings WHERE id = $1`,
	"save_annotations": `UPDATE listings SET annotations = $1, updated_at = $2 WHERE id = $3`,
	"save_score": `INSERT INTO scores (listing_id, total, tier, data, scored_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (listing_id) DO UPDATE SET total = excluded.total, tier = excluded.tier, data = excluded.data, scored_at = excluded.scored_at`,
	"get_score":   `SELECT data FROM scores WHERE listing_id = $1`,
	"list_scores": `SELECT data FROM scores ORDER BY total DESC, listing_id ASC LIMIT $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id          TEXT PRIMARY KEY,
	data        JSONB NOT NULL,
	annotations JSONB,
	scraped_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scores (
	listing_id TEXT PRIMARY KEY REFERENCES listings(id),
	total      INTEGER NOT NULL,
	tier       TEXT NOT NULL,
	data       JSONB NOT NULL,
	scored_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_scraped_at ON listings(scraped_at DESC);
CREATE INDEX IF NOT EXISTS idx_listings_neighborhood ON listings((data->>'neighborhood'));
CREATE INDEX IF NOT EXISTS idx_scores_total ON scores(total DESC);
CREATE INDEX IF NOT EXISTS idx_scores_tier ON scores(tier);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveListing(ctx context.Context, listing *model.Listing) error {
	data, ann, err := marshalListing(listing)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO listings (id, data, annotations, scraped_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
			data        = excluded.data,
			annotations = COALESCE(excluded.annotations, listings.annotations),
			updated_at  = excluded.updated_at`,
		listing.ID, data, ann, listing.ScrapedAt.UTC(), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save listing %s", listing.ID)
}

func (s *PostgresStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data, annotations FROM listings WHERE id = $1`,
		id,
	)
	return scanPgListing(row)
}

func (s *PostgresStore) ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error) {
	query := `SELECT data, annotations FROM listings WHERE 1=1`
	var args []any

	if filter.Neighborhood != "" {
		args = append(args, filter.Neighborhood)
		query += ` AND data->>'neighborhood' = $1`
	}
	query += ` ORDER BY scraped_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list listings")
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanPgListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, eris.Wrap(rows.Err(), "postgres: list listings iterate")
}

func (s *PostgresStore) SaveAnnotations(ctx context.Context, listingID string, ann *model.Annotations) error {
	annJSON, err := json.Marshal(ann)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal annotations")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE listings SET annotations = $1, updated_at = $2 WHERE id = $3`,
		string(annJSON), time.Now().UTC(), listingID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save annotations %s", listingID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("listing not found: %s", listingID)
	}
	return nil
}

func (s *PostgresStore) SaveScore(ctx context.Context, score *model.CompositeScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal score")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scores (listing_id, total, tier, data, scored_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (listing_id) DO UPDATE SET
			total     = excluded.total,
			tier      = excluded.tier,
			data      = excluded.data,
			scored_at = excluded.scored_at`,
		score.ListingID, score.Total, string(score.Tier), string(data), score.ScoredAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save score %s", score.ListingID)
}

func (s *PostgresStore) GetScore(ctx context.Context, listingID string) (*model.CompositeScore, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data FROM scores WHERE listing_id = $1`,
		listingID,
	)
	return scanPgScore(row)
}

func (s *PostgresStore) ListScores(ctx context.Context, limit int) ([]model.CompositeScore, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT data FROM scores ORDER BY total DESC, listing_id ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scores")
	}
	defer rows.Close()

	var scores []model.CompositeScore
	for rows.Next() {
		sc, err := scanPgScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *sc)
	}
	return scores, eris.Wrap(rows.Err(), "postgres: list scores iterate")
}

func scanPgListing(row scannable) (*model.Listing, error) {
	var data []byte
	var ann []byte

	err := row.Scan(&data, &ann)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "get listing")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan listing")
	}

	var l model.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, eris.Wrap(err, "unmarshal listing")
	}
	if len(ann) > 0 {
		var a model.Annotations
		if err := json.Unmarshal(ann, &a); err != nil {
			return nil, eris.Wrap(err, "unmarshal annotations")
		}
		l.Annotations = &a
	}
	return &l, nil
}

func scanPgScore(row scannable) (*model.CompositeScore, error) {
	var data []byte

	err := row.Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "get score")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan score")
	}

	var sc model.CompositeScore
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, eris.Wrap(err, "unmarshal score")
	}
	return &sc, nil
}
