package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTransportPublishSuccess(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("Content-Type = %s", ct)
		}
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	holder := resolveHolder(t, nil, []map[string]string{{"url": srv.URL}})

	tr := newHTTPTransport(nil)
	if err := tr.Initialize(context.Background(), StreamSchema{ID: "readings"}, holder); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := tr.Publish(context.Background(), []byte(`{"v":1}`), selectContext(holder, 0)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if string(body) != `{"v":1}` {
		t.Fatalf("server received %q", body)
	}
}

func TestHTTPTransportClientErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	holder := resolveHolder(t, nil, []map[string]string{{"url": srv.URL}})

	tr := newHTTPTransport(nil)
	if err := tr.Initialize(context.Background(), StreamSchema{}, holder); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	err := tr.Publish(context.Background(), []byte("x"), selectContext(holder, 0))
	if err == nil {
		t.Fatalf("expected error on 4xx response")
	}
	if errors.Is(err, ErrConnectionUnavailable) {
		t.Fatalf("4xx must not be treated as connection unavailable: %v", err)
	}
}

func TestHTTPTransportServerErrorIsConnectionUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	holder := resolveHolder(t, nil, []map[string]string{{"url": srv.URL}})

	tr := newHTTPTransport(nil)
	if err := tr.Initialize(context.Background(), StreamSchema{}, holder); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	err := tr.Publish(context.Background(), []byte("x"), selectContext(holder, 0))
	if !errors.Is(err, ErrConnectionUnavailable) {
		t.Fatalf("error = %v, want ErrConnectionUnavailable", err)
	}
}

func TestHTTPTransportInitializeRejectsBadTimeout(t *testing.T) {
	holder := resolveHolder(t, map[string]string{"timeout.seconds": "zero"}, []map[string]string{{"url": "https://example.com"}})

	tr := newHTTPTransport(nil)
	if err := tr.Initialize(context.Background(), StreamSchema{}, holder); err == nil {
		t.Fatalf("expected error for non-numeric timeout")
	}
}
