package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cardcap/internal/fileutil"
	"cardcap/internal/logging"
)

// SecretHeader carries the shared upload secret.
const SecretHeader = "X-Upload-Secret"

// HTTPStore stores keys on an image server addressed as baseURL/<key>.
type HTTPStore struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Store = (*HTTPStore)(nil)

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithLogger attaches a logger for unexpected HEAD responses.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(s *HTTPStore) {
		s.logger = logging.NewComponentLogger(logger, "storage")
	}
}

// NewHTTPStore returns a store backed by an image server. secret is sent as
// X-Upload-Secret when non-empty.
func NewHTTPStore(baseURL, secret string, opts ...HTTPOption) (*HTTPStore, error) {
	baseURL = strings.TrimSpace(baseURL)
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse storage url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("storage url %q must be absolute", baseURL)
	}
	store := &HTTPStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     strings.TrimSpace(secret),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewComponentLogger(nil, "storage"),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Exists issues a HEAD request. 404 means absent; any other non-200 status is
// logged and also treated as absent.
func (s *HTTPStore) Exists(ctx context.Context, key string) (Info, error) {
	resp, err := s.do(ctx, http.MethodHead, key, nil, "")
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		info := Info{Exists: true}
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			if parsed, err := http.ParseTime(lm); err == nil {
				info.LastModified = parsed
			}
		}
		return info, nil
	case http.StatusNotFound:
		return Info{}, nil
	default:
		s.logger.Warn("unexpected status probing key",
			logging.String("key", key),
			logging.Int("status", resp.StatusCode),
			logging.String(logging.FieldEventType, "storage_probe_status"),
		)
		return Info{}, nil
	}
}

func (s *HTTPStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, key, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(http.MethodGet, key, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *HTTPStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := s.do(ctx, http.MethodPut, key, data, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(http.MethodPut, key, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *HTTPStore) URL(key string) string {
	cleaned, err := fileutil.CleanKey(key)
	if err != nil {
		return ""
	}
	return s.baseURL + "/" + escapeKey(cleaned)
}

func (s *HTTPStore) do(ctx context.Context, method, key string, body []byte, contentType string) (*http.Response, error) {
	target := s.URL(key)
	if target == "" {
		return nil, fmt.Errorf("%w: %q", fileutil.ErrUnsafeKey, key)
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.secret != "" {
		req.Header.Set(SecretHeader, s.secret)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, key, err)
	}
	return resp, nil
}

func statusError(method, key string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Method: method, Key: key, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
