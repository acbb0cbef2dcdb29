package auth

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/blckdfly/sphyre/internal/platform/redis"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// RedisChallengeStore keeps login nonces in redis so challenges survive
// process restarts and are shared across instances. Expiry is delegated to
// the key TTL.
type RedisChallengeStore struct {
	client *redis.Client
}

func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func redisChallengeKey(did, nonce string) string {
	return "auth:challenge:" + did + ":" + nonce
}

func (s *RedisChallengeStore) Put(ctx context.Context, challenge Challenge) error {
	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return dErrors.New(dErrors.CodeValidation, "challenge is already expired")
	}
	key := redisChallengeKey(challenge.DID, challenge.Nonce)
	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "store challenge")
	}
	return nil
}

func (s *RedisChallengeStore) Take(ctx context.Context, did, nonce string) (bool, error) {
	key := redisChallengeKey(did, nonce)
	if err := s.client.GetDel(ctx, key).Err(); err != nil {
		if err == goredis.Nil {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeStorage, "consume challenge")
	}
	return true, nil
}
