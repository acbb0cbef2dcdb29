package registry

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	contract "github.com/blckdfly/sphyre/contracts/registry"
	"github.com/blckdfly/sphyre/internal/platform/config"
	"github.com/blckdfly/sphyre/internal/platform/redis"
)

// Cached wraps a registry contract with a Redis read-through cache for
// validity lookups. Only positive answers are cached, and revocation
// invalidates the entry immediately, so a revoked credential is never
// reported valid longer than the cache TTL on other nodes.
type Cached struct {
	next   contract.Contract
	redis  *redis.Client
	logger *slog.Logger
}

func NewCached(next contract.Contract, client *redis.Client, logger *slog.Logger) *Cached {
	return &Cached{next: next, redis: client, logger: logger}
}

func validityKey(did, credentialHash string) string {
	return "registry:valid:" + did + ":" + credentialHash
}

func (c *Cached) IsCredentialValid(ctx context.Context, did, credentialHash string) (bool, error) {
	key := validityKey(did, credentialHash)
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		return cached == "1", nil
	}
	if err != goredis.Nil {
		c.logger.WarnContext(ctx, "registry cache read failed", "error", err)
	}

	valid, err := c.next.IsCredentialValid(ctx, did, credentialHash)
	if err != nil {
		return false, err
	}
	if valid {
		if err := c.redis.Set(ctx, key, "1", config.RegistryCacheTTL).Err(); err != nil {
			c.logger.WarnContext(ctx, "registry cache write failed", "error", err)
		}
	}
	return valid, nil
}

func (c *Cached) RevokeCredential(ctx context.Context, did, credentialHash string) (contract.Receipt, error) {
	receipt, err := c.next.RevokeCredential(ctx, did, credentialHash)
	if err != nil {
		return contract.Receipt{}, err
	}
	if err := c.redis.Del(ctx, validityKey(did, credentialHash)).Err(); err != nil {
		c.logger.WarnContext(ctx, "registry cache invalidation failed", "error", err)
	}
	return receipt, nil
}

func (c *Cached) RegisterCredential(ctx context.Context, did, credentialHash, metadataRef string) (contract.Receipt, error) {
	return c.next.RegisterCredential(ctx, did, credentialHash, metadataRef)
}

func (c *Cached) RegisterSchema(ctx context.Context, schemaID, schemaHash string) (contract.Receipt, error) {
	return c.next.RegisterSchema(ctx, schemaID, schemaHash)
}

func (c *Cached) IsSchemaRegistered(ctx context.Context, schemaID string) (bool, error) {
	return c.next.IsSchemaRegistered(ctx, schemaID)
}
