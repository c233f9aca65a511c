package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// Info describes an existing key.
type Info struct {
	Exists       bool
	LastModified time.Time
}

// Store is the storage collaborator used by the art pipeline and capture.
type Store interface {
	Exists(ctx context.Context, key string) (Info, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(key string) string
}

// StatusError reports a non-2xx response from an HTTP store.
type StatusError struct {
	Method string
	Key    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Key, e.Code, body)
}

// Join builds a key from slash-separated parts, ignoring empty ones.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

type prefixed struct {
	store  Store
	prefix string
}

// Prefixed scopes every key of store under prefix. An empty prefix returns
// store unchanged.
func Prefixed(store Store, prefix string) Store {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return store
	}
	return &prefixed{store: store, prefix: prefix}
}

func (p *prefixed) Exists(ctx context.Context, key string) (Info, error) {
	return p.store.Exists(ctx, Join(p.prefix, key))
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.store.Get(ctx, Join(p.prefix, key))
}

func (p *prefixed) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return p.store.Put(ctx, Join(p.prefix, key), data, contentType)
}

func (p *prefixed) URL(key string) string {
	return p.store.URL(Join(p.prefix, key))
}
