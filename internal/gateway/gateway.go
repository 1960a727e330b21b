package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soochol/flowmart/internal/flowmart"
)

// ErrWebhookMissing means credentials exist for the site but carry no
// webhook to forward to.
var ErrWebhookMissing = errors.New("webhook url not configured")

// Resolver looks up a caller's credential bundle for a site. A caller with
// nothing stored gets an error the transport layer can recognize.
type Resolver interface {
	Resolve(ctx context.Context, userID, siteName string) (flowmart.Bundle, error)
}

// Gateway resolves credentials and forwards one request per call.
type Gateway struct {
	resolver  Resolver
	forwarder *Forwarder
	now       func() time.Time
}

func New(resolver Resolver, forwarder *Forwarder) *Gateway {
	return &Gateway{resolver: resolver, forwarder: forwarder, now: time.Now}
}

// Dispatch forwards p to the caller's webhook for siteName and wraps the
// reply. Resolver errors are returned as is; a bundle with no webhook
// yields ErrWebhookMissing; a non-2xx webhook yields *WebhookStatusError.
func (g *Gateway) Dispatch(ctx context.Context, userID, siteName string, p Payload) (Response, error) {
	bundle, err := g.resolver.Resolve(ctx, userID, siteName)
	if err != nil {
		return Response{}, err
	}
	if bundle.Webhook() == "" {
		return Response{}, ErrWebhookMissing
	}

	slog.Info("forwarding to site webhook", "site", siteName, "user", userID, "kind", p.Kind)
	reply, err := g.forwarder.Forward(ctx, p, bundle, Target{SiteName: siteName, UserID: userID})
	if err != nil {
		return Response{}, err
	}
	return NormalizeReply(reply, siteName, g.now()), nil
}
