package presentation

import (
	"context"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var (
	ErrNotFound        = dErrors.New(dErrors.CodeNotFound, "presentation not found")
	ErrRequestNotFound = dErrors.New(dErrors.CodeNotFound, "presentation request not found")
)

type Store interface {
	Save(ctx context.Context, presentation Presentation) error
	FindByID(ctx context.Context, id string) (Presentation, error)
	ListByProver(ctx context.Context, proverDID string) ([]Presentation, error)
	ListByVerifier(ctx context.Context, verifierDID string) ([]Presentation, error)
}

type RequestStore interface {
	Save(ctx context.Context, request Request) error
	FindByID(ctx context.Context, id string) (Request, error)
	ListByVerifier(ctx context.Context, verifierDID string) ([]Request, error)
}
