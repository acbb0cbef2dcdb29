// Package postgres persists domain records as JSONB documents. Every table
// follows the same shape: the document id, the DID columns listing is done
// by, and the full record as a jsonb doc. The document is the source of
// truth; columns exist for lookups only.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx pool shared by the entity stores.
type DB struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and applies the schema. The DDL is idempotent so
// every instance can run it at startup.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// Health reports connectivity for readiness probes.
func (db *DB) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		id          TEXT PRIMARY KEY,
		owner_did   TEXT NOT NULL,
		issuer_did  TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		doc         JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS credentials_owner_idx ON credentials (owner_did)`,
	`CREATE INDEX IF NOT EXISTS credentials_issuer_idx ON credentials (issuer_did)`,

	`CREATE TABLE IF NOT EXISTS presentations (
		id           TEXT PRIMARY KEY,
		prover_did   TEXT NOT NULL,
		verifier_did TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		doc          JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS presentations_prover_idx ON presentations (prover_did)`,
	`CREATE INDEX IF NOT EXISTS presentations_verifier_idx ON presentations (verifier_did)`,

	`CREATE TABLE IF NOT EXISTS presentation_requests (
		id           TEXT PRIMARY KEY,
		verifier_did TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		doc          JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS presentation_requests_verifier_idx ON presentation_requests (verifier_did)`,

	`CREATE TABLE IF NOT EXISTS credential_requests (
		id         TEXT PRIMARY KEY,
		user_did   TEXT NOT NULL,
		issuer_did TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		doc        JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS credential_requests_user_idx ON credential_requests (user_did)`,
	`CREATE INDEX IF NOT EXISTS credential_requests_issuer_idx ON credential_requests (issuer_did)`,

	`CREATE TABLE IF NOT EXISTS schemas (
		id         TEXT PRIMARY KEY,
		issuer_did TEXT NOT NULL,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		doc        JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS schemas_issuer_idx ON schemas (issuer_did)`,

	`CREATE TABLE IF NOT EXISTS consent_records (
		id           TEXT PRIMARY KEY,
		user_did     TEXT NOT NULL,
		verifier_did TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		doc          JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS consent_records_user_idx ON consent_records (user_did)`,
	`CREATE INDEX IF NOT EXISTS consent_records_verifier_idx ON consent_records (verifier_did)`,

	`CREATE TABLE IF NOT EXISTS users (
		did        TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		doc        JSONB NOT NULL
	)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range ddl {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
