package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/soochol/flowmart/internal/crypto"
	"github.com/soochol/flowmart/internal/flowmart"
	"github.com/soochol/flowmart/internal/repository"
)

// ErrNotConfigured means the caller has not stored credentials for the site.
// It is an expected outcome, not a fault.
var ErrNotConfigured = errors.New("site credentials not configured")

// ErrInvalidWebhook is returned by Save when the bundle's webhook is missing or
// not an absolute http(s) URL.
var ErrInvalidWebhook = errors.New("webhook must be an absolute http(s) URL")

// CredentialService manages per-tenant site credentials, sealing them at rest.
type CredentialService struct {
	repo repository.CredentialRepository
	enc  *crypto.Encryptor
	now  func() time.Time
}

func NewCredentialService(repo repository.CredentialRepository, enc *crypto.Encryptor) *CredentialService {
	return &CredentialService{repo: repo, enc: enc, now: time.Now}
}

// Save seals and stores the bundle for (userID, siteName), replacing any
// previous bundle.
func (s *CredentialService) Save(ctx context.Context, userID, siteName string, bundle flowmart.Bundle) (flowmart.SiteCredentialSafe, error) {
	if err := validateWebhook(bundle.Webhook()); err != nil {
		return flowmart.SiteCredentialSafe{}, err
	}
	sealed, err := s.enc.SealBundle(bundle)
	if err != nil {
		return flowmart.SiteCredentialSafe{}, err
	}

	now := s.now().UTC()
	cred := &flowmart.SiteCredential{
		ID:        flowmart.GenerateID("cred"),
		UserID:    userID,
		SiteName:  siteName,
		Secret:    sealed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.repo.Get(ctx, userID, siteName); err == nil {
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
	}
	if err := s.repo.Save(ctx, cred); err != nil {
		return flowmart.SiteCredentialSafe{}, fmt.Errorf("save credentials for %q: %w", siteName, err)
	}
	return safeView(cred, bundle), nil
}

// Resolve returns the decrypted bundle for (userID, siteName), or
// ErrNotConfigured when nothing is stored.
func (s *CredentialService) Resolve(ctx context.Context, userID, siteName string) (flowmart.Bundle, error) {
	cred, err := s.repo.Get(ctx, userID, siteName)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials for %q: %w", siteName, err)
	}
	bundle, err := s.enc.OpenBundle(cred.Secret)
	if err != nil {
		return nil, fmt.Errorf("open credentials for %q: %w", siteName, err)
	}
	return bundle, nil
}

// List returns the caller's configured sites with key names only.
func (s *CredentialService) List(ctx context.Context, userID string) ([]flowmart.SiteCredentialSafe, error) {
	creds, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]flowmart.SiteCredentialSafe, 0, len(creds))
	for _, c := range creds {
		bundle, err := s.enc.OpenBundle(c.Secret)
		if err != nil {
			return nil, fmt.Errorf("open credentials for %q: %w", c.SiteName, err)
		}
		out = append(out, safeView(c, bundle))
	}
	return out, nil
}

// Delete removes the bundle for (userID, siteName).
func (s *CredentialService) Delete(ctx context.Context, userID, siteName string) error {
	err := s.repo.Delete(ctx, userID, siteName)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return ErrNotConfigured
	}
	return err
}

func safeView(c *flowmart.SiteCredential, b flowmart.Bundle) flowmart.SiteCredentialSafe {
	return flowmart.SiteCredentialSafe{
		SiteName:   c.SiteName,
		Keys:       b.Keys(),
		HasWebhook: b.Webhook() != "",
		UpdatedAt:  c.UpdatedAt,
	}
}

func validateWebhook(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrInvalidWebhook
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidWebhook
	}
	return nil
}
