package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/blckdfly/sphyre/internal/auth"
)

// UserStore implements auth.UserStore.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Save(ctx context.Context, user auth.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO users (did, created_at, doc)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (did) DO UPDATE SET doc = EXCLUDED.doc`,
		user.DID, user.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *UserStore) FindByDID(ctx context.Context, did string) (auth.User, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx, `SELECT doc FROM users WHERE did = $1`, did).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("find user: %w", err)
	}
	var user auth.User
	if err := json.Unmarshal(doc, &user); err != nil {
		return auth.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return user, nil
}
