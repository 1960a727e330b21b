package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/soochol/flowmart/internal/db"
	"github.com/soochol/flowmart/internal/flowmart"
)

// credentialStore is the subset of *db.DB used by PersistentCredentialRepository.
type credentialStore interface {
	UpsertCredential(ctx context.Context, c *flowmart.SiteCredential) error
	GetCredential(ctx context.Context, userID, siteName string) (*flowmart.SiteCredential, error)
	ListCredentials(ctx context.Context, userID string) ([]*flowmart.SiteCredential, error)
	DeleteCredential(ctx context.Context, userID, siteName string) error
}

var _ credentialStore = (*db.DB)(nil)

// PersistentCredentialRepository reads and writes PostgreSQL on every call.
// Credentials are never held between requests, so a rotation or delete made
// by another instance is seen on the next read.
type PersistentCredentialRepository struct {
	db credentialStore
}

func NewPersistentCredentialRepository(database credentialStore) *PersistentCredentialRepository {
	return &PersistentCredentialRepository{db: database}
}

func (r *PersistentCredentialRepository) Save(ctx context.Context, cred *flowmart.SiteCredential) error {
	return r.db.UpsertCredential(ctx, cred)
}

func (r *PersistentCredentialRepository) Get(ctx context.Context, userID, siteName string) (*flowmart.SiteCredential, error) {
	c, err := r.db.GetCredential(ctx, userID, siteName)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("site %q: %w", siteName, ErrCredentialNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func (r *PersistentCredentialRepository) List(ctx context.Context, userID string) ([]*flowmart.SiteCredential, error) {
	creds, err := r.db.ListCredentials(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return creds, nil
}

func (r *PersistentCredentialRepository) Delete(ctx context.Context, userID, siteName string) error {
	err := r.db.DeleteCredential(ctx, userID, siteName)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("site %q: %w", siteName, ErrCredentialNotFound)
	}
	return err
}
