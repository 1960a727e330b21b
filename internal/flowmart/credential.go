// Package flowmart holds the domain types shared across the marketplace
// services.
package flowmart

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// WebhookKey is the bundle key holding the tenant's forwarding target.
const WebhookKey = "webhook"

// Bundle is a tenant's credential set for one site. Apart from WebhookKey the
// keys are opaque and forwarded verbatim.
type Bundle map[string]any

// Webhook returns the forwarding target, or "" when absent or not a string.
func (b Bundle) Webhook() string {
	s, _ := b[WebhookKey].(string)
	return s
}

// WithoutWebhook returns a copy of the bundle minus the forwarding target.
func (b Bundle) WithoutWebhook() Bundle {
	out := make(Bundle, len(b))
	for k, v := range b {
		if k == WebhookKey {
			continue
		}
		out[k] = v
	}
	return out
}

// Keys returns the bundle's key names in sorted order.
func (b Bundle) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SiteCredential is the stored form of a Bundle: one per (user, site) pair.
type SiteCredential struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SiteName  string    `json:"site_name"`
	Secret    string    `json:"-"` // encrypted JSON bundle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key identifies a credential by owner and site.
func (c *SiteCredential) Key() string {
	return CredentialKey(c.UserID, c.SiteName)
}

// CredentialKey builds the lookup key for a (user, site) pair.
func CredentialKey(userID, siteName string) string {
	return userID + "/" + siteName
}

// SiteCredentialSafe is the API-safe view of a SiteCredential: key names only.
type SiteCredentialSafe struct {
	SiteName   string    `json:"site_name"`
	Keys       []string  `json:"keys"`
	HasWebhook bool      `json:"has_webhook"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GenerateID returns a prefixed random identifier.
func GenerateID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
