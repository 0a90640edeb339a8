package photo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHTTPFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, 0)
	b, err := f.Fetch(context.Background(), srv.URL+"/photo.jpg")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(b) != "jpeg-bytes" {
		t.Errorf("expected body 'jpeg-bytes', got %q", b)
	}
}

func TestHTTPFetcher_AcceptsAny2xx(t *testing.T) {
	for _, code := range []int{http.StatusCreated, http.StatusNonAuthoritativeInfo, http.StatusPartialContent} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			w.Write([]byte("cached-jpeg"))
		}))

		b, err := NewHTTPFetcher(time.Second, 0).Fetch(context.Background(), srv.URL+"/photo.jpg")
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: Fetch failed: %v", code, err)
		}
		if string(b) != "cached-jpeg" {
			t.Errorf("status %d: unexpected body %q", code, b)
		}
	}
}

func TestHTTPFetcher_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/large":
			w.Write(make([]byte, 64))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte("late"))
		case "/empty":
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(50*time.Millisecond, 32)

	tests := []struct {
		name string
		url  string
	}{
		{"not found", srv.URL + "/missing"},
		{"too large", srv.URL + "/large"},
		{"timeout", srv.URL + "/slow"},
		{"empty", srv.URL + "/empty"},
		{"unsupported scheme", "ftp://example.com/photo.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), tt.url)
			if !errors.Is(err, ErrFetchFailure) {
				t.Errorf("expected ErrFetchFailure, got %v", err)
			}
		})
	}
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("local"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f := &FileFetcher{}
	for _, url := range []string{path, "file://" + path} {
		b, err := f.Fetch(context.Background(), url)
		if err != nil {
			t.Fatalf("Fetch(%s) failed: %v", url, err)
		}
		if string(b) != "local" {
			t.Errorf("expected 'local', got %q", b)
		}
	}

	if _, err := f.Fetch(context.Background(), filepath.Join(dir, "nope.jpg")); !errors.Is(err, ErrFetchFailure) {
		t.Errorf("expected ErrFetchFailure for missing file, got %v", err)
	}
	if _, err := f.Fetch(context.Background(), "https://example.com/a.jpg"); !errors.Is(err, ErrFetchFailure) {
		t.Errorf("expected ErrFetchFailure without http fetcher, got %v", err)
	}
}
