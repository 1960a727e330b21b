// Package gateway forwards caller requests to a tenant's own webhook,
// injecting the tenant's stored site credentials on the way out.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// ErrUnsupportedContentType rejects bodies that are neither JSON nor
// multipart form data.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// ErrInvalidBody means the body matched its declared content type but could
// not be parsed.
var ErrInvalidBody = errors.New("invalid request body")

// Kind is the encoding family of an inbound payload. The outbound envelope
// uses the same family.
type Kind int

const (
	KindJSON Kind = iota + 1
	KindMultipart
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindMultipart:
		return "multipart"
	default:
		return "unknown"
	}
}

// Payload is a parsed inbound body. Exactly one of Fields or Form is set,
// according to Kind.
type Payload struct {
	Kind   Kind
	Fields map[string]any
	Form   *multipart.Form
}

// JSONPayload wraps an already decoded JSON object.
func JSONPayload(fields map[string]any) Payload {
	if fields == nil {
		fields = map[string]any{}
	}
	return Payload{Kind: KindJSON, Fields: fields}
}

// MultipartPayload wraps a parsed multipart form.
func MultipartPayload(form *multipart.Form) Payload {
	if form == nil {
		form = &multipart.Form{}
	}
	return Payload{Kind: KindMultipart, Form: form}
}

// Negotiate picks the payload kind from the Content-Type header and parses
// the body. It must run before any credential work so that unsupported
// bodies never reach the forwarder. maxBytes bounds the body size.
func Negotiate(w http.ResponseWriter, r *http.Request, maxBytes int64) (Payload, error) {
	kind := contentKind(r.Header.Get("Content-Type"))
	if kind == 0 {
		return Payload{}, ErrUnsupportedContentType
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	switch kind {
	case KindMultipart:
		if err := r.ParseMultipartForm(formMemory(maxBytes)); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return MultipartPayload(r.MultipartForm), nil
	default:
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return JSONPayload(fields), nil
	}
}

// formMemory is how much of a multipart body is held in memory; larger
// files spill to temporary files.
func formMemory(maxBytes int64) int64 {
	if maxBytes <= 0 || maxBytes > defaultFormMemory {
		return defaultFormMemory
	}
	return maxBytes
}

const defaultFormMemory = 32 << 20

// contentKind returns 0 for anything other than JSON or multipart.
func contentKind(header string) Kind {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(header))
	}
	switch {
	case strings.HasPrefix(mediaType, "multipart/form-data"):
		return KindMultipart
	case strings.HasPrefix(mediaType, "application/json"):
		return KindJSON
	default:
		return 0
	}
}
