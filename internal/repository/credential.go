package repository

import (
	"context"
	"errors"

	"github.com/soochol/flowmart/internal/flowmart"
)

// ErrCredentialNotFound is returned when a (user, site) pair has no stored credential.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialRepository stores sealed site credentials keyed by owner and site.
type CredentialRepository interface {
	Save(ctx context.Context, cred *flowmart.SiteCredential) error
	Get(ctx context.Context, userID, siteName string) (*flowmart.SiteCredential, error)
	List(ctx context.Context, userID string) ([]*flowmart.SiteCredential, error)
	Delete(ctx context.Context, userID, siteName string) error
}
