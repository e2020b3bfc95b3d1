package ownership

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ownershipSchema = `
CREATE TABLE IF NOT EXISTS object_ownership (
	object_id   TEXT PRIMARY KEY,
	wallet      TEXT NOT NULL,
	credited_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS object_ownership_wallet_idx ON object_ownership (wallet);
`

// querier is the subset of pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps associations in a table keyed by object ID; the primary
// key makes the conditional insert atomic.
type PostgresStore struct {
	db querier
}

// ConnectPostgres creates a connection pool to PostgreSQL.
func ConnectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MinConns = 1
	config.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// NewPostgresStore wraps a pool (or any compatible querier).
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ownership table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, ownershipSchema); err != nil {
		return fmt.Errorf("create ownership schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByObjectIDs(ctx context.Context, objectIDs []string) ([]Association, error) {
	rows, err := s.db.Query(ctx,
		`SELECT wallet, object_id FROM object_ownership WHERE object_id = ANY($1)`, objectIDs)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	byWallet := make(map[string][]string)
	for rows.Next() {
		var wallet, id string
		if err := rows.Scan(&wallet, &id); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		byWallet[wallet] = append(byWallet[wallet], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}

	return groupSorted(byWallet), nil
}

// UpsertAssociation inserts unowned objects and then reports the ones held by
// another wallet. The owner read is a separate statement so it observes rows
// committed by a concurrent insert that won the conflict.
func (s *PostgresStore) UpsertAssociation(ctx context.Context, wallet string, objectIDs []string) ([]string, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO object_ownership (object_id, wallet)
		SELECT unnest($1::text[]), $2
		ON CONFLICT (object_id) DO NOTHING`, objectIDs, wallet); err != nil {
		return nil, fmt.Errorf("insert ownership: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT object_id FROM object_ownership WHERE object_id = ANY($1) AND wallet <> $2`, objectIDs, wallet)
	if err != nil {
		return nil, fmt.Errorf("query rejected: %w", err)
	}
	defer rows.Close()

	var rejected []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan rejected: %w", err)
		}
		rejected = append(rejected, id)
	}
	return rejected, rows.Err()
}
