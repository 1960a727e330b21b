package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/soochol/flowmart/internal/flowmart"
	memstore "github.com/soochol/flowmart/internal/repository/memory"
)

// MemoryCredentialRepository is a thread-safe in-memory credential store.
type MemoryCredentialRepository struct {
	store *memstore.Store[*flowmart.SiteCredential]
}

func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{
		store: memstore.New((*flowmart.SiteCredential).Key),
	}
}

func (r *MemoryCredentialRepository) Save(ctx context.Context, cred *flowmart.SiteCredential) error {
	if existing, err := r.store.Get(ctx, cred.Key()); err == nil {
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
	}
	return r.store.Set(ctx, cred)
}

func (r *MemoryCredentialRepository) Get(ctx context.Context, userID, siteName string) (*flowmart.SiteCredential, error) {
	c, err := r.store.Get(ctx, flowmart.CredentialKey(userID, siteName))
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, fmt.Errorf("site %q: %w", siteName, ErrCredentialNotFound)
	}
	return c, err
}

func (r *MemoryCredentialRepository) List(ctx context.Context, userID string) ([]*flowmart.SiteCredential, error) {
	creds, err := r.store.Filter(ctx, func(c *flowmart.SiteCredential) bool { return c.UserID == userID })
	if err != nil {
		return nil, err
	}
	slices.SortFunc(creds, func(a, b *flowmart.SiteCredential) int {
		return strings.Compare(a.SiteName, b.SiteName)
	})
	return creds, nil
}

func (r *MemoryCredentialRepository) Delete(ctx context.Context, userID, siteName string) error {
	err := r.store.Delete(ctx, flowmart.CredentialKey(userID, siteName))
	if errors.Is(err, memstore.ErrNotFound) {
		return fmt.Errorf("site %q: %w", siteName, ErrCredentialNotFound)
	}
	return err
}
