package consent

import (
	"context"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "consent record not found")

type Store interface {
	Save(ctx context.Context, record Record) error
	FindByID(ctx context.Context, id string) (Record, error)
	ListByUser(ctx context.Context, userDID string) ([]Record, error)
	ListByVerifier(ctx context.Context, verifierDID string) ([]Record, error)
}
