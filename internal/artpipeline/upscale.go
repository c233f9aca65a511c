package artpipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGradioPrefix = "/gradio_api"
	realesrganEndpoint  = "realesrgan"
	denoiseStrength     = 0.5
	maxEventLine        = 1 << 20
)

// GradioUpscaler drives a Real-ESRGAN gradio app (such as the Ilaria
// upscaler) through the gradio HTTP API: the image is uploaded, /realesrgan
// is queued with the model and scale, the event stream is read until the job
// completes and the result file is downloaded.
type GradioUpscaler struct {
	base   *url.URL
	prefix string
	client *http.Client
}

// GradioOption customizes a GradioUpscaler.
type GradioOption func(*GradioUpscaler)

// WithAPIPrefix overrides the API mount point. Gradio 5 apps use /gradio_api;
// gradio 4 apps serve the API at the root, selected with "/". An empty value
// keeps the default.
func WithAPIPrefix(prefix string) GradioOption {
	return func(u *GradioUpscaler) {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			return
		}
		u.prefix = strings.TrimRight(prefix, "/")
	}
}

// WithUpscalerClient replaces the HTTP client.
func WithUpscalerClient(client *http.Client) GradioOption {
	return func(u *GradioUpscaler) {
		if client != nil {
			u.client = client
		}
	}
}

// NewGradioUpscaler returns an upscaler for the gradio app at baseURL.
func NewGradioUpscaler(baseURL string, timeout time.Duration, opts ...GradioOption) (*GradioUpscaler, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("upscaler url %q must be absolute", baseURL)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	u := &GradioUpscaler{base: parsed, prefix: defaultGradioPrefix, client: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u, nil
}

// gradioFile is the FileData payload gradio exchanges for file components.
type gradioFile struct {
	Path string         `json:"path"`
	URL  string         `json:"url,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

func (u *GradioUpscaler) Upscale(ctx context.Context, img []byte, model string, factor int) ([]byte, error) {
	uploaded, err := u.upload(ctx, img)
	if err != nil {
		return nil, err
	}
	eventID, err := u.queue(ctx, uploaded, model, factor)
	if err != nil {
		return nil, err
	}
	result, err := u.await(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return u.download(ctx, result)
}

func (u *GradioUpscaler) endpoint(parts ...string) string {
	target := *u.base
	target.Path = target.Path + u.prefix + "/" + strings.Join(parts, "/")
	return target.String()
}

func (u *GradioUpscaler) upload(ctx context.Context, img []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	ext, _ := sniff(img, ".png")
	part, err := form.CreateFormFile("files", "art"+ext)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	var paths []string
	if err := u.doJSON(ctx, http.MethodPost, u.endpoint("upload"), form.FormDataContentType(), &body, &paths); err != nil {
		return "", fmt.Errorf("upload art: %w", err)
	}
	if len(paths) == 0 || paths[0] == "" {
		return "", errors.New("upload art: no file path returned")
	}
	return paths[0], nil
}

func (u *GradioUpscaler) queue(ctx context.Context, uploaded, model string, factor int) (string, error) {
	payload := map[string]any{
		"data": []any{
			gradioFile{Path: uploaded, Meta: map[string]any{"_type": "gradio.FileData"}},
			model,
			denoiseStrength,
			false,
			factor,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode upscale request: %w", err)
	}
	var queued struct {
		EventID string `json:"event_id"`
	}
	if err := u.doJSON(ctx, http.MethodPost, u.endpoint("call", realesrganEndpoint), "application/json", bytes.NewReader(encoded), &queued); err != nil {
		return "", fmt.Errorf("queue upscale: %w", err)
	}
	if queued.EventID == "" {
		return "", errors.New("queue upscale: no event id returned")
	}
	return queued.EventID, nil
}

// await reads the server-sent event stream of a queued call until it
// completes or errors.
func (u *GradioUpscaler) await(ctx context.Context, eventID string) (gradioFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.endpoint("call", realesrganEndpoint, eventID), nil)
	if err != nil {
		return gradioFile{}, fmt.Errorf("build result request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := u.client.Do(req)
	if err != nil {
		return gradioFile{}, fmt.Errorf("await upscale: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return gradioFile{}, fmt.Errorf("await upscale: %w", statusErr(resp))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "complete":
				return parseGradioResult(data)
			case "error":
				return gradioFile{}, fmt.Errorf("upscale failed: %s", data)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return gradioFile{}, fmt.Errorf("read upscale events: %w", err)
	}
	return gradioFile{}, errors.New("upscale event stream ended without a result")
}

// parseGradioResult extracts the first output file. Apps that return a
// tuple or gallery wrap it in a nested list.
func parseGradioResult(data string) (gradioFile, error) {
	var outputs []json.RawMessage
	if err := json.Unmarshal([]byte(data), &outputs); err != nil {
		return gradioFile{}, fmt.Errorf("decode upscale result: %w", err)
	}
	for len(outputs) > 0 {
		first := bytes.TrimSpace(outputs[0])
		if len(first) > 0 && first[0] == '[' {
			outputs = nil
			if err := json.Unmarshal(first, &outputs); err != nil {
				return gradioFile{}, fmt.Errorf("decode upscale result: %w", err)
			}
			continue
		}
		var file gradioFile
		if err := json.Unmarshal(first, &file); err != nil {
			return gradioFile{}, fmt.Errorf("decode upscale result: %w", err)
		}
		if file.URL == "" && file.Path == "" {
			break
		}
		return file, nil
	}
	return gradioFile{}, errors.New("upscale result carries no file")
}

func (u *GradioUpscaler) download(ctx context.Context, file gradioFile) ([]byte, error) {
	target := file.URL
	if target == "" {
		target = u.endpoint("file=" + file.Path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download upscaled image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download upscaled image: %w", statusErr(resp))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read upscaled image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("download upscaled image: empty body")
	}
	return data, nil
}

func (u *GradioUpscaler) doJSON(ctx context.Context, method, target, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusErr(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusErr(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
