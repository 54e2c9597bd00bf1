package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arcweave/gatewire/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:   srv.URL,
		Token:     "test-token",
		UserAgent: "gatewire-test/0.0",
	})
	return c, srv
}

func TestHTTPClient_GetDecodesBody(t *testing.T) {
	type member struct {
		Nick string `json:"nick"`
	}

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bot test-token" {
			t.Errorf("Authorization header = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "gatewire-test/0.0" {
			t.Errorf("User-Agent header = %q", got)
		}
		if got := r.Header.Get("X-Request-Id"); got == "" {
			t.Error("expected a non-empty X-Request-Id header")
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(member{Nick: "ringo"})
	})

	var out member
	if err := c.Get(context.Background(), "GET /guilds/:id/members/:uid", "/guilds/1/members/2", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Nick != "ringo" {
		t.Errorf("out.Nick = %q, want ringo", out.Nick)
	}
}

func TestHTTPClient_PostSendsJSONBody(t *testing.T) {
	type createMessage struct {
		Content string `json:"content"`
	}

	var gotContentType, gotBody string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Post(context.Background(), "POST /channels/:id/messages", "/channels/1/messages",
		createMessage{Content: "hi"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if !strings.Contains(gotBody, `"content":"hi"`) {
		t.Errorf("body = %q, want to contain content=hi", gotBody)
	}
}

func TestHTTPClient_ClassifiesNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(apiErrorBody{Code: 10003, Message: "Unknown Channel"})
	})

	err := c.Get(context.Background(), "GET /channels/:id", "/channels/999", nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err type = %T, want *APIError", err)
	}
	if apiErr.Kind != KindNotFound {
		t.Errorf("Kind = %v, want KindNotFound", apiErr.Kind)
	}
	if apiErr.Code != 10003 || apiErr.Message != "Unknown Channel" {
		t.Errorf("Code/Message = %d/%q", apiErr.Code, apiErr.Message)
	}
	if !IsNotFound(err) {
		t.Error("expected IsNotFound=true")
	}
}

func TestHTTPClient_ClassifiesRateLimited(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.Delete(context.Background(), "DELETE /channels/:id", "/channels/1")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err type = %T, want *APIError", err)
	}
	if apiErr.Kind != KindRateLimited {
		t.Errorf("Kind = %v, want KindRateLimited", apiErr.Kind)
	}
}

func TestHTTPClient_PostMultipartUploadsAttachment(t *testing.T) {
	var sawFilePart, sawPayloadPart bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if r.MultipartForm.Value["payload_json"] != nil {
			sawPayloadPart = true
		}
		if fhs := r.MultipartForm.File["file"]; len(fhs) == 1 && fhs[0].Filename == "clip.opus" {
			sawFilePart = true
		}
		w.WriteHeader(http.StatusOK)
	})

	type payload struct {
		Content string `json:"content"`
	}
	att := []Attachment{{Name: "file", FileName: "clip.opus", Reader: strings.NewReader("opus-bytes")}}
	err := c.PostMultipart(context.Background(), "POST /channels/:id/messages", "/channels/1/messages",
		payload{Content: "voice clip"}, att, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawPayloadPart {
		t.Error("expected a payload_json part")
	}
	if !sawFilePart {
		t.Error("expected a file part named clip.opus")
	}
}

func TestHTTPClient_PerBucketCircuitBreakerOpensIndependently(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/failing" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	c.cbConfig.MaxFailures = 1

	for i := 0; i < 2; i++ {
		_ = c.Get(context.Background(), "GET /failing", "/failing", nil)
	}
	// The failing bucket's breaker should now be open.
	if c.breaker("GET /failing").State() != resilience.StateOpen {
		t.Error("expected the failing bucket's breaker to be open")
	}
	// A different bucket must be unaffected.
	if err := c.Get(context.Background(), "GET /ok", "/ok", nil); err != nil {
		t.Errorf("unrelated bucket should still succeed: %v", err)
	}
}
