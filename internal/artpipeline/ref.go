package artpipeline

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"cardcap/internal/textutil"
)

// Stage names the two asset stages.
type Stage string

const (
	StageOriginal Stage = "original"
	StageUpscaled Stage = "upscaled"
)

// DefaultExtensions is the probe order for original art.
var DefaultExtensions = []string{".jpg", ".png", ".jpeg", ".webp", ".gif"}

// Ref is the logical identity of one print's art.
type Ref struct {
	CardName        string
	SetCode         string
	CollectorNumber string
}

// FileStem is the deterministic base name shared by every stage of ref.
func FileStem(ref Ref) string {
	return textutil.Stem(ref.CardName, ref.SetCode, ref.CollectorNumber)
}

// UpscaledDir is the sub-directory for a model and scale factor, e.g.
// "realesrgan_x2plus-4x".
func UpscaledDir(model string, factor int) string {
	return textutil.Normalize(model) + "-" + strconv.Itoa(factor) + "x"
}

// OriginalKey is the store key of the original art with the given extension.
func OriginalKey(artPath string, ref Ref, ext string) string {
	return joinKey(artPath, string(StageOriginal), FileStem(ref)+ext)
}

// UpscaledKey is the store key of the upscaled art.
func UpscaledKey(artPath string, ref Ref, model string, factor int) string {
	return joinKey(artPath, UpscaledDir(model, factor), FileStem(ref)+".png")
}

// probeExtensions returns the extension order for a source URL: its own
// extension first when recognised, then the defaults.
func probeExtensions(sourceURL string) []string {
	guess := guessExtension(sourceURL)
	out := make([]string, 0, len(DefaultExtensions)+1)
	if guess != "" {
		out = append(out, guess)
	}
	for _, ext := range DefaultExtensions {
		if ext != guess {
			out = append(out, ext)
		}
	}
	return out
}

func guessExtension(sourceURL string) string {
	if sourceURL == "" {
		return ""
	}
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	for _, known := range DefaultExtensions {
		if ext == known {
			return ext
		}
	}
	return ""
}

func joinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// TrimForRenderer rewrites artURL for a renderer served from the same host as
// the image server: the renderer then wants a path relative to its own root,
// without the leading slash and without its local_art/ prefix. Other URLs are
// returned unchanged.
func TrimForRenderer(artURL, imageServerURL, rendererURL string) string {
	if artURL == "" || imageServerURL == "" || rendererURL == "" {
		return artURL
	}
	server, err := url.Parse(imageServerURL)
	if err != nil {
		return artURL
	}
	app, err := url.Parse(rendererURL)
	if err != nil || server.Host == "" || server.Host != app.Host {
		return artURL
	}
	parsed, err := url.Parse(artURL)
	if err != nil {
		return artURL
	}
	trimmed := strings.TrimLeft(parsed.Path, "/")
	return strings.TrimPrefix(trimmed, "local_art/")
}
