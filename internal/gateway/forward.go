package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/soochol/flowmart/internal/flowmart"
)

// Envelope field names added to every forwarded request.
const (
	FieldCredentials = "user_credentials"
	FieldSiteName    = "site_name"
	FieldUserID      = "user_id"
	FieldTimestamp   = "timestamp"
)

// timestampLayout renders UTC ISO-8601 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t the way envelopes carry it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// WebhookStatusError reports a non-2xx answer from the tenant's webhook.
type WebhookStatusError struct {
	Status     int
	StatusText string
}

func (e *WebhookStatusError) Error() string {
	return fmt.Sprintf("webhook returned %d %s", e.Status, e.StatusText)
}

// Reply is a successful webhook response, fully read.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// Target identifies who a forward is made for.
type Target struct {
	SiteName string
	UserID   string
}

// Forwarder posts enriched payloads to tenant webhooks. It holds no
// per-request state and is safe for concurrent use.
type Forwarder struct {
	client *http.Client
	now    func() time.Time
}

// NewForwarder creates a Forwarder. A nil client uses a fresh http.Client
// with the given timeout; zero means no timeout.
func NewForwarder(client *http.Client, timeout time.Duration) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Forwarder{client: client, now: time.Now}
}

// Forward sends p to the bundle's webhook with the bundle's other keys
// attached as user_credentials. The webhook itself is never forwarded.
func (f *Forwarder) Forward(ctx context.Context, p Payload, bundle flowmart.Bundle, target Target) (*Reply, error) {
	webhookURL := bundle.Webhook()
	creds := bundle.WithoutWebhook()

	var (
		body        []byte
		contentType string
		err         error
	)
	switch p.Kind {
	case KindMultipart:
		body, contentType, err = multipartEnvelope(p.Form, creds, target)
	case KindJSON:
		body, err = json.Marshal(jsonEnvelope(p.Fields, creds, target, f.now()))
		contentType = "application/json"
	default:
		err = fmt.Errorf("unknown payload kind %d", p.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s envelope: %w", p.Kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(middleware.RequestIDHeader, requestID(ctx))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &WebhookStatusError{Status: resp.StatusCode, StatusText: statusText(resp)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	return &Reply{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// jsonEnvelope spreads the caller's fields and then sets the envelope
// fields, which win on collision.
func jsonEnvelope(fields map[string]any, creds flowmart.Bundle, target Target, now time.Time) map[string]any {
	out := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldCredentials] = creds
	out[FieldSiteName] = target.SiteName
	out[FieldUserID] = target.UserID
	out[FieldTimestamp] = FormatTimestamp(now)
	return out
}

// multipartEnvelope copies every field and file verbatim and appends the
// envelope fields. The returned content type carries the boundary.
func multipartEnvelope(form *multipart.Form, creds flowmart.Bundle, target Target) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, key := range sortedKeys(form.Value) {
		for _, v := range form.Value[key] {
			if err := mw.WriteField(key, v); err != nil {
				return nil, "", err
			}
		}
	}
	for _, key := range sortedKeys(form.File) {
		for _, fh := range form.File[key] {
			if err := copyFile(mw, fh); err != nil {
				return nil, "", fmt.Errorf("copy file %q: %w", fh.Filename, err)
			}
		}
	}

	encoded, err := json.Marshal(creds)
	if err != nil {
		return nil, "", err
	}
	for _, kv := range [][2]string{
		{FieldCredentials, string(encoded)},
		{FieldSiteName, target.SiteName},
		{FieldUserID, target.UserID},
	} {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func copyFile(mw *multipart.Writer, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	part, err := mw.CreatePart(fh.Header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// requestID carries the inbound request id to the tenant, or mints one.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// statusText is the reason phrase the webhook sent, falling back to the
// standard text for the code.
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
