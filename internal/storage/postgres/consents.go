package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/blckdfly/sphyre/internal/consent"
)

// ConsentStore implements consent.Store.
type ConsentStore struct {
	db *DB
}

func NewConsentStore(db *DB) *ConsentStore {
	return &ConsentStore{db: db}
}

func (s *ConsentStore) Save(ctx context.Context, record consent.Record) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal consent record: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO consent_records (id, user_did, verifier_did, created_at, doc)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		record.ID, record.UserDID, record.VerifierDID, record.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("save consent record: %w", err)
	}
	return nil
}

func (s *ConsentStore) FindByID(ctx context.Context, id string) (consent.Record, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT doc FROM consent_records WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return consent.Record{}, consent.ErrNotFound
		}
		return consent.Record{}, fmt.Errorf("find consent record: %w", err)
	}
	var record consent.Record
	if err := json.Unmarshal(doc, &record); err != nil {
		return consent.Record{}, fmt.Errorf("unmarshal consent record: %w", err)
	}
	return record, nil
}

func (s *ConsentStore) ListByUser(ctx context.Context, userDID string) ([]consent.Record, error) {
	return s.list(ctx,
		`SELECT doc FROM consent_records WHERE user_did = $1 ORDER BY created_at DESC`, userDID)
}

func (s *ConsentStore) ListByVerifier(ctx context.Context, verifierDID string) ([]consent.Record, error) {
	return s.list(ctx,
		`SELECT doc FROM consent_records WHERE verifier_did = $1 ORDER BY created_at DESC`, verifierDID)
}

func (s *ConsentStore) list(ctx context.Context, query, arg string) ([]consent.Record, error) {
	rows, err := s.db.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list consent records: %w", err)
	}
	defer rows.Close()

	var out []consent.Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan consent record: %w", err)
		}
		var record consent.Record
		if err := json.Unmarshal(doc, &record); err != nil {
			return nil, fmt.Errorf("unmarshal consent record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
