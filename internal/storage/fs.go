package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cardcap/internal/fileutil"
)

// FSStore stores keys as files under a root directory.
type FSStore struct {
	root      string
	publicURL string
}

var _ Store = (*FSStore)(nil)

// NewFSStore returns a store rooted at root. When publicURL is set, URL
// returns publicURL/<key> instead of the absolute file path, which lets a
// renderer load files served from root over HTTP.
func NewFSStore(root, publicURL string) (*FSStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FSStore{root: root, publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/")}, nil
}

// Root returns the backing directory.
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) Exists(_ context.Context, key string) (Info, error) {
	path, err := fileutil.ResolveKey(s.root, key)
	if err != nil {
		return Info{}, err
	}
	stat, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("stat %s: %w", key, err)
	}
	if stat.IsDir() {
		return Info{}, nil
	}
	return Info{Exists: true, LastModified: stat.ModTime()}, nil
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := fileutil.ResolveKey(s.root, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes atomically; contentType is not recorded on disk.
func (s *FSStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path, err := fileutil.ResolveKey(s.root, key)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o644)
}

func (s *FSStore) URL(key string) string {
	cleaned, err := fileutil.CleanKey(key)
	if err != nil {
		return ""
	}
	if s.publicURL != "" {
		return s.publicURL + "/" + cleaned
	}
	path, _ := fileutil.ResolveKey(s.root, cleaned)
	return path
}
