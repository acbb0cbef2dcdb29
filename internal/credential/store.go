package credential

import (
	"context"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across in-memory and
// database-backed implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "credential not found")

type Store interface {
	Save(ctx context.Context, credential Credential) error
	FindByID(ctx context.Context, id string) (Credential, error)
	ListByOwner(ctx context.Context, ownerDID string) ([]Credential, error)
	ListByIssuer(ctx context.Context, issuerDID string) ([]Credential, error)
	Delete(ctx context.Context, id string) error
}
