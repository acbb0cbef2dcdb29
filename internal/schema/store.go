package schema

import (
	"context"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "schema not found")

type Store interface {
	Save(ctx context.Context, schema Schema) error
	FindByID(ctx context.Context, id string) (Schema, error)
	ListByIssuer(ctx context.Context, issuerDID string) ([]Schema, error)
	Search(ctx context.Context, name string) ([]Schema, error)
}
