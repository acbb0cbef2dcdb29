package issuer

import (
	"context"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "credential request not found")

type Store interface {
	Save(ctx context.Context, request CredentialRequest) error
	FindByID(ctx context.Context, id string) (CredentialRequest, error)
	ListByIssuer(ctx context.Context, issuerDID string) ([]CredentialRequest, error)
	ListByUser(ctx context.Context, userDID string) ([]CredentialRequest, error)
}
