package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/soochol/flowmart/internal/flowmart"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
}

func jsonEqual(t *testing.T, want, got string) {
	t.Helper()
	var w, g any
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("bad expected json %q: %v", want, err)
	}
	if err := json.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("bad json %q: %v", got, err)
	}
	if !reflect.DeepEqual(w, g) {
		t.Errorf("expected json %s, got %s", want, got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	for _, ts := range []time.Time{fixedNow(), fixedNow().In(loc)} {
		if got := FormatTimestamp(ts); got != "2026-03-14T09:26:53.589Z" {
			t.Errorf("FormatTimestamp(%v) = %q", ts, got)
		}
	}
}

func TestForward_JSONEnvelope(t *testing.T) {
	var got map[string]any
	var contentType, reqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		reqID = r.Header.Get(middleware.RequestIDHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode envelope: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply":"hello"}`))
	}))
	defer srv.Close()

	f := NewForwarder(srv.Client(), 0)
	f.now = fixedNow

	bundle := flowmart.Bundle{"webhook": srv.URL, "apiKey": "secret"}
	payload := JSONPayload(map[string]any{"message": "hi", "site_name": "spoofed"})
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	reply, err := f.Forward(ctx, payload, bundle, Target{SiteName: "chatbot", UserID: "u1"})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("unexpected content type %q", contentType)
	}
	if reqID != "req-42" {
		t.Errorf("expected request id to be carried, got %q", reqID)
	}
	for key, want := range map[string]any{
		"message":   "hi",
		"site_name": "chatbot",
		"user_id":   "u1",
		"timestamp": "2026-03-14T09:26:53.589Z",
	} {
		if got[key] != want {
			t.Errorf("envelope %s = %v, want %v", key, got[key], want)
		}
	}
	if creds := got["user_credentials"]; !reflect.DeepEqual(creds, map[string]any{"apiKey": "secret"}) {
		t.Errorf("unexpected user_credentials %v", creds)
	}
	if _, ok := got["webhook"]; ok {
		t.Error("webhook must never be forwarded")
	}

	if reply.Status != http.StatusOK || reply.ContentType != "application/json" {
		t.Errorf("unexpected reply %d %q", reply.Status, reply.ContentType)
	}
	jsonEqual(t, `{"reply":"hello"}`, string(reply.Body))

	if bundle.Webhook() != srv.URL {
		t.Error("bundle must not be mutated")
	}
}

func TestForward_MintsRequestID(t *testing.T) {
	var reqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID = r.Header.Get(middleware.RequestIDHeader)
	}))
	defer srv.Close()

	_, err := NewForwarder(srv.Client(), 0).Forward(context.Background(),
		JSONPayload(nil), flowmart.Bundle{"webhook": srv.URL}, Target{SiteName: "s", UserID: "u"})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if reqID == "" {
		t.Error("expected a request id to be minted")
	}
}

func TestForward_MultipartEnvelope(t *testing.T) {
	var (
		values      map[string][]string
		fileName    string
		fileType    string
		fileContent []byte
		boundary    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("unexpected content type %q: %v", mediaType, err)
			return
		}
		boundary = params["boundary"]

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		values = r.MultipartForm.Value
		fh := r.MultipartForm.File["image"][0]
		fileName = fh.Filename
		fileType = fh.Header.Get("Content-Type")
		src, err := fh.Open()
		if err != nil {
			t.Errorf("open file: %v", err)
			return
		}
		fileContent, _ = io.ReadAll(src)
		src.Close()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("prompt", "a cat")
	mw.WriteField("tags", "one")
	mw.WriteField("tags", "two")
	fw, _ := mw.CreateFormFile("image", "cat.png")
	fw.Write([]byte("PNGDATA"))
	mw.Close()
	inbound := httptest.NewRequest(http.MethodPost, "/", &buf)
	inbound.Header.Set("Content-Type", mw.FormDataContentType())
	p, err := Negotiate(httptest.NewRecorder(), inbound, 1<<20)
	if err != nil {
		t.Fatalf("negotiate: %v", err)
	}

	bundle := flowmart.Bundle{"webhook": srv.URL, "token": "t0k"}
	if _, err := NewForwarder(srv.Client(), 0).Forward(context.Background(), p, bundle, Target{SiteName: "art", UserID: "u2"}); err != nil {
		t.Fatalf("forward: %v", err)
	}

	if boundary == "" {
		t.Error("expected a boundary in the outbound content type")
	}
	for key, want := range map[string][]string{
		"prompt":    {"a cat"},
		"tags":      {"one", "two"},
		"site_name": {"art"},
		"user_id":   {"u2"},
	} {
		if !slices.Equal(values[key], want) {
			t.Errorf("field %s = %q, want %q", key, values[key], want)
		}
	}
	if _, ok := values["timestamp"]; ok {
		t.Error("multipart envelopes carry no timestamp")
	}
	if len(values["user_credentials"]) != 1 {
		t.Fatalf("expected one user_credentials field, got %q", values["user_credentials"])
	}
	jsonEqual(t, `{"token":"t0k"}`, values["user_credentials"][0])

	if fileName != "cat.png" {
		t.Errorf("expected cat.png, got %q", fileName)
	}
	if fileType != "application/octet-stream" {
		t.Errorf("expected original part content type, got %q", fileType)
	}
	if !bytes.Equal(fileContent, []byte("PNGDATA")) {
		t.Errorf("file content changed: %q", fileContent)
	}
}

func TestForward_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := NewForwarder(srv.Client(), 0).Forward(context.Background(),
		JSONPayload(nil), flowmart.Bundle{"webhook": srv.URL}, Target{SiteName: "s", UserID: "u"})

	var statusErr *WebhookStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *WebhookStatusError, got %v", err)
	}
	if statusErr.Status != http.StatusBadGateway || statusErr.StatusText != "Bad Gateway" {
		t.Errorf("unexpected status error %d %q", statusErr.Status, statusErr.StatusText)
	}
}

func TestForward_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewForwarder(nil, time.Second).Forward(context.Background(),
		JSONPayload(nil), flowmart.Bundle{"webhook": url}, Target{SiteName: "s", UserID: "u"})
	if err == nil {
		t.Fatal("expected transport error")
	}
	var statusErr *WebhookStatusError
	if errors.As(err, &statusErr) {
		t.Error("transport failures are not status errors")
	}
}

func TestForward_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewForwarder(nil, 20*time.Millisecond).Forward(context.Background(),
		JSONPayload(nil), flowmart.Bundle{"webhook": srv.URL}, Target{SiteName: "s", UserID: "u"})
	if err == nil {
		t.Error("expected timeout error")
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		resp *http.Response
		want string
	}{
		{&http.Response{StatusCode: 418, Status: "418 Teapot Says No"}, "Teapot Says No"},
		{&http.Response{StatusCode: 404, Status: "404"}, "Not Found"},
		{&http.Response{StatusCode: 500}, "Internal Server Error"},
	}
	for _, tt := range tests {
		if got := statusText(tt.resp); got != tt.want {
			t.Errorf("statusText(%q) = %q, want %q", tt.resp.Status, got, tt.want)
		}
	}
}
