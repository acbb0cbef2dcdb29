package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/blckdfly/sphyre/internal/presentation"
)

// PresentationStore implements presentation.Store.
type PresentationStore struct {
	db *DB
}

func NewPresentationStore(db *DB) *PresentationStore {
	return &PresentationStore{db: db}
}

func (s *PresentationStore) Save(ctx context.Context, pres presentation.Presentation) error {
	doc, err := json.Marshal(pres)
	if err != nil {
		return fmt.Errorf("marshal presentation: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO presentations (id, prover_did, verifier_did, created_at, doc)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		pres.ID, pres.ProverDID, pres.VerifierDID, pres.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("save presentation: %w", err)
	}
	return nil
}

func (s *PresentationStore) FindByID(ctx context.Context, id string) (presentation.Presentation, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT doc FROM presentations WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return presentation.Presentation{}, presentation.ErrNotFound
		}
		return presentation.Presentation{}, fmt.Errorf("find presentation: %w", err)
	}
	var pres presentation.Presentation
	if err := json.Unmarshal(doc, &pres); err != nil {
		return presentation.Presentation{}, fmt.Errorf("unmarshal presentation: %w", err)
	}
	return pres, nil
}

func (s *PresentationStore) ListByProver(ctx context.Context, proverDID string) ([]presentation.Presentation, error) {
	return s.list(ctx,
		`SELECT doc FROM presentations WHERE prover_did = $1 ORDER BY created_at DESC`, proverDID)
}

func (s *PresentationStore) ListByVerifier(ctx context.Context, verifierDID string) ([]presentation.Presentation, error) {
	return s.list(ctx,
		`SELECT doc FROM presentations WHERE verifier_did = $1 ORDER BY created_at DESC`, verifierDID)
}

func (s *PresentationStore) list(ctx context.Context, query, arg string) ([]presentation.Presentation, error) {
	rows, err := s.db.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	defer rows.Close()

	var out []presentation.Presentation
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan presentation: %w", err)
		}
		var pres presentation.Presentation
		if err := json.Unmarshal(doc, &pres); err != nil {
			return nil, fmt.Errorf("unmarshal presentation: %w", err)
		}
		out = append(out, pres)
	}
	return out, rows.Err()
}

// PresentationRequestStore implements presentation.RequestStore.
type PresentationRequestStore struct {
	db *DB
}

func NewPresentationRequestStore(db *DB) *PresentationRequestStore {
	return &PresentationRequestStore{db: db}
}

func (s *PresentationRequestStore) Save(ctx context.Context, req presentation.Request) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal presentation request: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO presentation_requests (id, verifier_did, created_at, doc)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		req.ID, req.VerifierDID, req.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("save presentation request: %w", err)
	}
	return nil
}

func (s *PresentationRequestStore) FindByID(ctx context.Context, id string) (presentation.Request, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT doc FROM presentation_requests WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return presentation.Request{}, presentation.ErrRequestNotFound
		}
		return presentation.Request{}, fmt.Errorf("find presentation request: %w", err)
	}
	var req presentation.Request
	if err := json.Unmarshal(doc, &req); err != nil {
		return presentation.Request{}, fmt.Errorf("unmarshal presentation request: %w", err)
	}
	return req, nil
}

func (s *PresentationRequestStore) ListByVerifier(ctx context.Context, verifierDID string) ([]presentation.Request, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT doc FROM presentation_requests WHERE verifier_did = $1 ORDER BY created_at DESC`, verifierDID)
	if err != nil {
		return nil, fmt.Errorf("list presentation requests: %w", err)
	}
	defer rows.Close()

	var out []presentation.Request
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan presentation request: %w", err)
		}
		var req presentation.Request
		if err := json.Unmarshal(doc, &req); err != nil {
			return nil, fmt.Errorf("unmarshal presentation request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
