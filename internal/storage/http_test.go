package storage_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cardcap/internal/storage"
)

type memoryServer struct {
	mu       sync.Mutex
	files    map[string][]byte
	types    map[string]string
	modified time.Time
	secret   string
}

func (m *memoryServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch r.Method {
	case http.MethodHead, http.MethodGet:
		if r.URL.Path == "/broken.png" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		data, ok := m.files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Last-Modified", m.modified.UTC().Format(http.TimeFormat))
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodPut:
		if r.Header.Get(storage.SecretHeader) != m.secret {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("bad secret"))
			return
		}
		data, _ := io.ReadAll(r.Body)
		m.files[r.URL.Path] = data
		m.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newMemoryServer(t *testing.T, secret string) (*memoryServer, *httptest.Server) {
	t.Helper()
	mem := &memoryServer{
		files:    map[string][]byte{},
		types:    map[string]string{},
		modified: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		secret:   secret,
	}
	server := httptest.NewServer(mem)
	t.Cleanup(server.Close)
	return mem, server
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem, server := newMemoryServer(t, "s3cret")
	store, err := storage.NewHTTPStore(server.URL+"/", "s3cret")
	if err != nil {
		t.Fatalf("NewHTTPStore: %v", err)
	}

	info, err := store.Exists(ctx, "output/island_lea_288.png")
	if err != nil || info.Exists {
		t.Fatalf("expected absent, got %+v err %v", info, err)
	}
	if err := store.Put(ctx, "output/island_lea_288.png", []byte("png"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if mem.types["/output/island_lea_288.png"] != "image/png" {
		t.Fatalf("content type not sent: %v", mem.types)
	}
	info, err = store.Exists(ctx, "output/island_lea_288.png")
	if err != nil || !info.Exists {
		t.Fatalf("expected present, got %+v err %v", info, err)
	}
	if !info.LastModified.Equal(mem.modified) {
		t.Fatalf("Last-Modified = %v, want %v", info.LastModified, mem.modified)
	}
	data, err := store.Get(ctx, "output/island_lea_288.png")
	if err != nil || string(data) != "png" {
		t.Fatalf("Get = %q, %v", data, err)
	}
	if got := store.URL("art/sol ring.png"); got != server.URL+"/art/sol%20ring.png" {
		t.Fatalf("unexpected URL %q", got)
	}
}

func TestHTTPStorePutStatusError(t *testing.T) {
	_, server := newMemoryServer(t, "expected")
	store, _ := storage.NewHTTPStore(server.URL, "wrong")

	err := store.Put(context.Background(), "x.png", []byte("png"), "image/png")
	var se *storage.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusForbidden || se.Body != "bad secret" {
		t.Fatalf("unexpected status error %+v", se)
	}
	if !storage.IsStatus(err, http.StatusForbidden) {
		t.Fatal("IsStatus should match 403")
	}
}

func TestHTTPStoreUnexpectedHeadIsAbsent(t *testing.T) {
	_, server := newMemoryServer(t, "")
	store, _ := storage.NewHTTPStore(server.URL, "")
	info, err := store.Exists(context.Background(), "broken.png")
	if err != nil || info.Exists {
		t.Fatalf("expected absent without error, got %+v err %v", info, err)
	}
	if _, err := store.Get(context.Background(), "missing.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewHTTPStoreRequiresAbsoluteURL(t *testing.T) {
	if _, err := storage.NewHTTPStore("/relative", ""); err == nil {
		t.Fatal("expected error for relative url")
	}
}
