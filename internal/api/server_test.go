package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/soochol/flowmart/internal/auth"
	"github.com/soochol/flowmart/internal/crypto"
	"github.com/soochol/flowmart/internal/flowmart"
	"github.com/soochol/flowmart/internal/gateway"
	"github.com/soochol/flowmart/internal/repository"
	"github.com/soochol/flowmart/internal/services"
)

var testSecret = []byte("test-secret")

// countingResolver records how often the gateway asked for credentials.
type countingResolver struct {
	bundle flowmart.Bundle
	err    error
	calls  int
}

func (c *countingResolver) Resolve(_ context.Context, _, _ string) (flowmart.Bundle, error) {
	c.calls++
	return c.bundle, c.err
}

type testEnv struct {
	server   *Server
	resolver *countingResolver
	tokens   *auth.JWTAuthenticator
}

func newTestEnv(t *testing.T, resolver *countingResolver) *testEnv {
	t.Helper()
	enc, err := crypto.NewEncryptor(nil)
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	creds := services.NewCredentialService(repository.NewMemoryCredentialRepository(), enc)
	authn := auth.NewJWTAuthenticator(testSecret, "")
	gw := gateway.New(resolver, gateway.NewForwarder(nil, 5*time.Second))
	return &testEnv{server: NewServer(gw, creds, authn), resolver: resolver, tokens: authn}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.tokens.Issue(userID, userID+"@example.com", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

// portfolio posts body to /api/portfolio/{site}. An empty userID sends no token.
func (e *testEnv) portfolio(t *testing.T, site, contentType string, body io.Reader, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/"+site, body)
	req.Header.Set("Content-Type", contentType)
	if userID != "" {
		req.Header.Set("Authorization", e.token(t, userID))
	}
	return e.do(req)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return m
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func expectBody(t *testing.T, w *httptest.ResponseRecorder, want map[string]any) {
	t.Helper()
	if got := decodeBody(t, w); !reflect.DeepEqual(got, want) {
		t.Errorf("expected body %v, got %v", want, got)
	}
}

func expectNoResolve(t *testing.T, env *testEnv) {
	t.Helper()
	if env.resolver.calls != 0 {
		t.Errorf("expected no credential lookup, got %d", env.resolver.calls)
	}
}

func TestPortfolio_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, &countingResolver{bundle: flowmart.Bundle{"webhook": "http://unused"}})

	w := env.portfolio(t, "chatbot", "application/json", strings.NewReader(`{}`), "")

	expectStatus(t, w, http.StatusUnauthorized)
	expectBody(t, w, map[string]any{"error": "Authentication required"})
	expectNoResolve(t, env)
}

func TestPortfolio_BadTokenIsUnauthenticated(t *testing.T) {
	env := newTestEnv(t, &countingResolver{})
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/chatbot", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	expectStatus(t, env.do(req), http.StatusUnauthorized)
	expectNoResolve(t, env)
}

func TestPortfolio_UnsupportedContentType(t *testing.T) {
	env := newTestEnv(t, &countingResolver{bundle: flowmart.Bundle{"webhook": "http://unused"}})

	w := env.portfolio(t, "chatbot", "text/plain", strings.NewReader("hello"), "u1")

	expectStatus(t, w, http.StatusBadRequest)
	expectBody(t, w, map[string]any{"error": "Unsupported content type. Use application/json or multipart/form-data"})
	expectNoResolve(t, env)
}

func TestPortfolio_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, &countingResolver{})

	w := env.portfolio(t, "chatbot", "application/json", strings.NewReader("{oops"), "u1")

	expectStatus(t, w, http.StatusBadRequest)
	expectNoResolve(t, env)
}

func TestPortfolio_NeedsSetup(t *testing.T) {
	env := newTestEnv(t, &countingResolver{err: services.ErrNotConfigured})

	w := env.portfolio(t, "chatbot", "application/json", strings.NewReader(`{"message":"hi"}`), "u1")

	expectStatus(t, w, http.StatusBadRequest)
	expectBody(t, w, map[string]any{"error": "Credentials not configured for this site", "needsSetup": true})
	if env.resolver.calls != 1 {
		t.Errorf("expected 1 credential lookup, got %d", env.resolver.calls)
	}
}

func TestPortfolio_WebhookMissing(t *testing.T) {
	env := newTestEnv(t, &countingResolver{bundle: flowmart.Bundle{"apiKey": "k"}})

	w := env.portfolio(t, "chatbot", "application/json", strings.NewReader(`{}`), "u1")

	expectStatus(t, w, http.StatusBadRequest)
	expectBody(t, w, map[string]any{"error": "Webhook URL not configured for this site"})
}

func TestPortfolio_WebhookFailure(t *testing.T) {
	tenant := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer tenant.Close()
	env := newTestEnv(t, &countingResolver{bundle: flowmart.Bundle{"webhook": tenant.URL}})

	w := env.portfolio(t, "chatbot", "application/json", strings.NewReader(`{}`), "u1")

	expectStatus(t, w, http.StatusInternalServerError)
	expectBody(t, w, map[string]any{
		"error":         "Webhook request failed",
		"webhookStatus": float64(503),
		"webhookError":  "Service Unavailable",
	})
}

func TestPortfolio_InternalError(t *testing.T) {
	env := newTestEnv(t, &countingResolver{err: errors.New("store offline")})

	w := env.portfolio(t, "chatbot", "application/json", strings.NewReader(`{}`), "u1")

	expectStatus(t, w, http.StatusInternalServerError)
	expectBody(t, w, map[string]any{
		"error":    "Internal server error",
		"message":  "store offline",
		"siteName": "chatbot",
	})
}

func TestPortfolio_EndToEnd(t *testing.T) {
	var outbound map[string]any
	var requestID string
	tenant := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		json.NewDecoder(r.Body).Decode(&outbound)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply":"hello"}`))
	}))
	defer tenant.Close()
	env := newTestEnv(t, &countingResolver{bundle: flowmart.Bundle{"webhook": tenant.URL, "apiKey": "secret"}})

	w := env.portfolio(t, "chatbot", "application/json", strings.NewReader(`{"message":"hi"}`), "u1")

	expectStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("expected success, got %v", body["success"])
	}
	if body["message"] != "chatbot request processed successfully" {
		t.Errorf("unexpected message %v", body["message"])
	}
	if !reflect.DeepEqual(body["data"], map[string]any{"reply": "hello"}) {
		t.Errorf("unexpected data %v", body["data"])
	}
	if body["siteName"] != "chatbot" {
		t.Errorf("unexpected siteName %v", body["siteName"])
	}
	ts, _ := body["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("timestamp %q is not ISO-8601: %v", ts, err)
	}

	if outbound["message"] != "hi" || outbound["user_id"] != "u1" {
		t.Errorf("unexpected outbound envelope %v", outbound)
	}
	if !reflect.DeepEqual(outbound["user_credentials"], map[string]any{"apiKey": "secret"}) {
		t.Errorf("unexpected user_credentials %v", outbound["user_credentials"])
	}
	for _, key := range []string{"apiKey", "webhook"} {
		if _, ok := outbound[key]; ok {
			t.Errorf("outbound envelope must not carry %s at the top level", key)
		}
	}
	if requestID == "" {
		t.Error("expected a request id on the outbound call")
	}
}

func TestPortfolio_Multipart(t *testing.T) {
	var fields map[string][]string
	tenant := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		} else {
			fields = r.MultipartForm.Value
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("queued"))
	}))
	defer tenant.Close()
	env := newTestEnv(t, &countingResolver{bundle: flowmart.Bundle{"webhook": tenant.URL, "token": "abc"}})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("prompt", "draw")
	mw.Close()

	w := env.portfolio(t, "art", mw.FormDataContentType(), &buf, "u9")

	expectStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	if want := map[string]any{"response": "queued", "contentType": "text/plain"}; !reflect.DeepEqual(body["data"], want) {
		t.Errorf("expected data %v, got %v", want, body["data"])
	}
	for key, want := range map[string][]string{"prompt": {"draw"}, "site_name": {"art"}, "user_id": {"u9"}} {
		if !slices.Equal(fields[key], want) {
			t.Errorf("field %s = %q, want %q", key, fields[key], want)
		}
	}
	if len(fields["user_credentials"]) != 1 {
		t.Fatalf("expected one user_credentials field, got %q", fields["user_credentials"])
	}
	var creds map[string]any
	if err := json.Unmarshal([]byte(fields["user_credentials"][0]), &creds); err != nil {
		t.Fatalf("user_credentials is not json: %v", err)
	}
	if !reflect.DeepEqual(creds, map[string]any{"token": "abc"}) {
		t.Errorf("unexpected user_credentials %v", creds)
	}
}
