package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edpulse_backend/platform/config"
)

func testClient(url string) *Client {
	cfg := &config.Config{
		PabblyWebhookURL:    url,
		PabblyTimeout:       2 * time.Second,
		RelayDefaultTimeout: 2 * time.Second,
	}
	return NewClient(NewRegistry(cfg), cfg, nil)
}

func TestPostSuccessStoresResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"accepted":true}`))
	}))
	defer srv.Close()

	result := testClient(srv.URL).Post(context.Background(), EndpointPabbly, map[string]string{"k": "v"})
	if result.Error {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", result.Status)
	}
	if result.Data != `{"accepted":true}` {
		t.Fatalf("expected response body captured, got %q", result.Data)
	}
}

func TestPostNon2xxIsFailureWithStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := testClient(srv.URL).Post(context.Background(), EndpointPabbly, map[string]string{})
	if !result.Error {
		t.Fatalf("expected failure for a 500 response")
	}
	if result.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", result.Status)
	}
	if !strings.Contains(result.Message, "500") {
		t.Fatalf("expected status in message, got %q", result.Message)
	}
}

func TestPostTransportFailureHasZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	result := testClient(srv.URL).Post(context.Background(), EndpointPabbly, map[string]string{})
	if !result.Error {
		t.Fatalf("expected failure when the webhook is unreachable")
	}
	if result.Status != 0 {
		t.Fatalf("expected zero status for a transport failure, got %d", result.Status)
	}
	if !strings.HasPrefix(result.Message, "no response from webhook") {
		t.Fatalf("expected transport classification, got %q", result.Message)
	}
}

func TestPostUnknownEndpointName(t *testing.T) {
	result := testClient("http://example.invalid").Post(context.Background(), "nope", nil)
	if !result.Error {
		t.Fatalf("expected failure for an unregistered webhook name")
	}
}

func TestResultSerializeRoundTrip(t *testing.T) {
	serialized := Result{Error: true, Message: "webhook responded with status 503", Status: 503}.Serialize()
	for _, want := range []string{`"error":true`, `"status":503`, "503"} {
		if !strings.Contains(serialized, want) {
			t.Fatalf("expected %q in serialized result, got %s", want, serialized)
		}
	}
}
