package auth

import (
	"context"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var ErrUserNotFound = dErrors.New(dErrors.CodeNotFound, "user not found")

type UserStore interface {
	Save(ctx context.Context, user User) error
	FindByDID(ctx context.Context, did string) (User, error)
}

// ChallengeStore holds pending login nonces. Take consumes: a nonce can be
// redeemed at most once and only before it expires.
type ChallengeStore interface {
	Put(ctx context.Context, challenge Challenge) error
	Take(ctx context.Context, did, nonce string) (bool, error)
}
