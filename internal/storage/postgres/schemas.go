package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/blckdfly/sphyre/internal/schema"
)

// SchemaStore implements schema.Store.
type SchemaStore struct {
	db *DB
}

func NewSchemaStore(db *DB) *SchemaStore {
	return &SchemaStore{db: db}
}

func (s *SchemaStore) Save(ctx context.Context, sc schema.Schema) error {
	doc, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO schemas (id, issuer_did, name, created_at, doc)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		sc.ID, sc.IssuerDID, sc.Name, sc.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}

func (s *SchemaStore) FindByID(ctx context.Context, id string) (schema.Schema, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx, `SELECT doc FROM schemas WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schema.Schema{}, schema.ErrNotFound
		}
		return schema.Schema{}, fmt.Errorf("find schema: %w", err)
	}
	var sc schema.Schema
	if err := json.Unmarshal(doc, &sc); err != nil {
		return schema.Schema{}, fmt.Errorf("unmarshal schema: %w", err)
	}
	return sc, nil
}

func (s *SchemaStore) ListByIssuer(ctx context.Context, issuerDID string) ([]schema.Schema, error) {
	return s.list(ctx,
		`SELECT doc FROM schemas WHERE issuer_did = $1 ORDER BY created_at DESC`, issuerDID)
}

func (s *SchemaStore) Search(ctx context.Context, name string) ([]schema.Schema, error) {
	return s.list(ctx,
		`SELECT doc FROM schemas WHERE name ILIKE '%' || $1 || '%' ORDER BY created_at DESC`, name)
}

func (s *SchemaStore) list(ctx context.Context, query, arg string) ([]schema.Schema, error) {
	rows, err := s.db.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	defer rows.Close()

	var out []schema.Schema
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan schema: %w", err)
		}
		var sc schema.Schema
		if err := json.Unmarshal(doc, &sc); err != nil {
			return nil, fmt.Errorf("unmarshal schema: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
