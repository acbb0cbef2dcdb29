package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/blckdfly/sphyre/internal/issuer"
)

// CredentialRequestStore implements issuer.Store.
type CredentialRequestStore struct {
	db *DB
}

func NewCredentialRequestStore(db *DB) *CredentialRequestStore {
	return &CredentialRequestStore{db: db}
}

func (s *CredentialRequestStore) Save(ctx context.Context, req issuer.CredentialRequest) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal credential request: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO credential_requests (id, user_did, issuer_did, created_at, doc)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		req.ID, req.UserDID, req.IssuerDID, req.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("save credential request: %w", err)
	}
	return nil
}

func (s *CredentialRequestStore) FindByID(ctx context.Context, id string) (issuer.CredentialRequest, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT doc FROM credential_requests WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return issuer.CredentialRequest{}, issuer.ErrNotFound
		}
		return issuer.CredentialRequest{}, fmt.Errorf("find credential request: %w", err)
	}
	var req issuer.CredentialRequest
	if err := json.Unmarshal(doc, &req); err != nil {
		return issuer.CredentialRequest{}, fmt.Errorf("unmarshal credential request: %w", err)
	}
	return req, nil
}

func (s *CredentialRequestStore) ListByIssuer(ctx context.Context, issuerDID string) ([]issuer.CredentialRequest, error) {
	return s.list(ctx,
		`SELECT doc FROM credential_requests WHERE issuer_did = $1 ORDER BY created_at DESC`, issuerDID)
}

func (s *CredentialRequestStore) ListByUser(ctx context.Context, userDID string) ([]issuer.CredentialRequest, error) {
	return s.list(ctx,
		`SELECT doc FROM credential_requests WHERE user_did = $1 ORDER BY created_at DESC`, userDID)
}

func (s *CredentialRequestStore) list(ctx context.Context, query, arg string) ([]issuer.CredentialRequest, error) {
	rows, err := s.db.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list credential requests: %w", err)
	}
	defer rows.Close()

	var out []issuer.CredentialRequest
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan credential request: %w", err)
		}
		var req issuer.CredentialRequest
		if err := json.Unmarshal(doc, &req); err != nil {
			return nil, fmt.Errorf("unmarshal credential request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
