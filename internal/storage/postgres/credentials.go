package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/blckdfly/sphyre/internal/credential"
)

// CredentialStore implements credential.Store over the credentials table.
type CredentialStore struct {
	db *DB
}

func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) Save(ctx context.Context, cred credential.Credential) error {
	doc, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO credentials (id, owner_did, issuer_did, created_at, doc)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		cred.ID, cred.OwnerDID, cred.IssuerDID, cred.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (credential.Credential, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT doc FROM credentials WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return credential.Credential{}, credential.ErrNotFound
		}
		return credential.Credential{}, fmt.Errorf("find credential: %w", err)
	}
	return decodeCredential(doc)
}

func (s *CredentialStore) ListByOwner(ctx context.Context, ownerDID string) ([]credential.Credential, error) {
	return s.list(ctx,
		`SELECT doc FROM credentials WHERE owner_did = $1 ORDER BY created_at DESC`, ownerDID)
}

func (s *CredentialStore) ListByIssuer(ctx context.Context, issuerDID string) ([]credential.Credential, error) {
	return s.list(ctx,
		`SELECT doc FROM credentials WHERE issuer_did = $1 ORDER BY created_at DESC`, issuerDID)
}

func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.pool.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return credential.ErrNotFound
	}
	return nil
}

func (s *CredentialStore) list(ctx context.Context, query, arg string) ([]credential.Credential, error) {
	rows, err := s.db.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []credential.Credential
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		cred, err := decodeCredential(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

func decodeCredential(doc []byte) (credential.Credential, error) {
	var cred credential.Credential
	if err := json.Unmarshal(doc, &cred); err != nil {
		return credential.Credential{}, fmt.Errorf("unmarshal credential: %w", err)
	}
	return cred, nil
}
