package artpipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"cardcap/internal/logging"
	"cardcap/internal/services"
	"cardcap/internal/storage"
)

// Options configures a Pipeline.
type Options struct {
	// ArtPath is the key prefix for art assets, e.g. "local_art/art".
	ArtPath string
	Upscale bool
	Model   string
	Factor  int
}

// Hint carries art metadata already known to the caller, typically from the
// external search record, so Prepare can skip the per-print lookup.
type Hint struct {
	ArtURL   string
	TypeLine string
}

// Result is the outcome of Prepare. An empty URL means no custom art.
type Result struct {
	URL      string
	Stage    Stage
	TypeLine string
	// Remote is set when URL is the raw source because nothing was stored.
	Remote bool
}

// Pipeline prepares art assets against a store.
type Pipeline struct {
	store    storage.Store
	source   ArtSource
	fetcher  Fetcher
	upscaler Upscaler
	opts     Options
	logger   *slog.Logger
}

// New constructs a pipeline. source may be nil when every call carries a
// Hint; upscaler may be nil when upscaling is disabled.
func New(store storage.Store, source ArtSource, fetcher Fetcher, upscaler Upscaler, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Factor <= 0 {
		opts.Factor = 4
	}
	if upscaler == nil {
		opts.Upscale = false
	}
	return &Pipeline{
		store:    store,
		source:   source,
		fetcher:  fetcher,
		upscaler: upscaler,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "artpipeline"),
	}
}

// prepareState holds what one Prepare call has learned so far.
type prepareState struct {
	ref         Ref
	sourceURL   string
	typeLine    string
	looked      bool
	originalKey string
	upscaledKey string
	data        []byte
}

// Prepare resolves the art URL for ref. It never returns an error: network
// and store failures are logged and degrade to a less preferred URL, or to an
// empty Result when no art could be located at all.
func (p *Pipeline) Prepare(ctx context.Context, ref Ref, hint *Hint) Result {
	logger := logging.WithContext(ctx, p.logger).With(
		logging.String(logging.FieldSetCode, ref.SetCode),
		logging.String(logging.FieldCollectorNumber, ref.CollectorNumber),
	)
	st := &prepareState{ref: ref}
	if hint != nil {
		st.sourceURL = strings.TrimSpace(hint.ArtURL)
		st.typeLine = hint.TypeLine
		st.looked = st.sourceURL != ""
	}

	st.originalKey = p.probeOriginal(ctx, logger, st.sourceURL, ref)
	if p.opts.Upscale {
		key := UpscaledKey(p.opts.ArtPath, ref, p.opts.Model, p.opts.Factor)
		if p.exists(ctx, logger, key) {
			st.upscaledKey = key
		}
	}

	needOriginal := st.originalKey == ""
	needUpscaled := p.opts.Upscale && st.upscaledKey == ""
	if !needOriginal && !needUpscaled {
		return p.resolve(st)
	}

	if needOriginal {
		if err := p.fetchSource(ctx, logger, st); err != nil {
			p.warnNetwork(logger, "fetch art", err)
			return Result{}
		}
		if st.data == nil {
			return Result{}
		}
		p.persistOriginal(ctx, logger, st)
	}

	if needUpscaled {
		p.upscale(ctx, logger, st)
	}
	return p.resolve(st)
}

func (p *Pipeline) probeOriginal(ctx context.Context, logger *slog.Logger, sourceURL string, ref Ref) string {
	for _, ext := range probeExtensions(sourceURL) {
		key := OriginalKey(p.opts.ArtPath, ref, ext)
		if p.exists(ctx, logger, key) {
			logger.Debug("original art cached", logging.String("key", key))
			return key
		}
	}
	return ""
}

func (p *Pipeline) exists(ctx context.Context, logger *slog.Logger, key string) bool {
	info, err := p.store.Exists(ctx, key)
	if err != nil {
		logger.Warn("art probe failed", logging.String("key", key), logging.Error(err))
		return false
	}
	return info.Exists
}

// lookup resolves the source URL through the ArtSource when no hint supplied one.
func (p *Pipeline) lookup(ctx context.Context, st *prepareState) error {
	if st.looked {
		return nil
	}
	st.looked = true
	if p.source == nil || strings.TrimSpace(st.ref.SetCode) == "" || strings.TrimSpace(st.ref.CollectorNumber) == "" {
		return nil
	}
	artURL, typeLine, err := p.source.ArtForPrint(ctx, st.ref.SetCode, st.ref.CollectorNumber)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "art", "lookup", "resolve art for print", err)
	}
	st.sourceURL = strings.TrimSpace(artURL)
	if st.typeLine == "" {
		st.typeLine = typeLine
	}
	return nil
}

func (p *Pipeline) fetchSource(ctx context.Context, logger *slog.Logger, st *prepareState) error {
	if err := p.lookup(ctx, st); err != nil {
		return err
	}
	if st.sourceURL == "" {
		logger.Info("no art source for print, keeping default art")
		return nil
	}
	if p.fetcher == nil {
		return services.Wrap(services.ErrNetwork, "art", "fetch", "no fetcher configured", errors.New("fetcher is nil"))
	}
	data, err := p.fetcher.Fetch(ctx, st.sourceURL)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "art", "fetch", "download "+st.sourceURL, err)
	}
	st.data = data
	logger.Debug("fetched source art", logging.String("url", st.sourceURL), logging.Int("bytes", len(data)))
	return nil
}

func (p *Pipeline) persistOriginal(ctx context.Context, logger *slog.Logger, st *prepareState) {
	ext, contentType := sniff(st.data, guessExtension(st.sourceURL))
	key := OriginalKey(p.opts.ArtPath, st.ref, ext)
	if err := p.store.Put(ctx, key, st.data, contentType); err != nil {
		p.warnStore(logger, key, err)
		return
	}
	st.originalKey = key
	logger.Info("stored original art", logging.String("key", key), logging.String("content_type", contentType))
}

// originalBytes returns the original image, preferring bytes fetched in this
// call, then the stored copy, then a fresh download.
func (p *Pipeline) originalBytes(ctx context.Context, logger *slog.Logger, st *prepareState) []byte {
	if st.data != nil {
		return st.data
	}
	if st.originalKey != "" {
		data, err := p.store.Get(ctx, st.originalKey)
		if err == nil {
			st.data = data
			return data
		}
		logger.Warn("read stored original failed", logging.String("key", st.originalKey), logging.Error(err))
	}
	if err := p.fetchSource(ctx, logger, st); err != nil {
		p.warnNetwork(logger, "fetch art for upscale", err)
		return nil
	}
	return st.data
}

func (p *Pipeline) upscale(ctx context.Context, logger *slog.Logger, st *prepareState) {
	original := p.originalBytes(ctx, logger, st)
	if original == nil {
		return
	}
	upscaled, err := p.upscaler.Upscale(ctx, original, p.opts.Model, p.opts.Factor)
	if err != nil {
		p.warnNetwork(logger, "upscale art", services.Wrap(services.ErrNetwork, "art", "upscale", "upscale original", err))
		return
	}
	key := UpscaledKey(p.opts.ArtPath, st.ref, p.opts.Model, p.opts.Factor)
	_, contentType := sniff(upscaled, ".png")
	if err := p.store.Put(ctx, key, upscaled, contentType); err != nil {
		p.warnStore(logger, key, err)
		return
	}
	st.upscaledKey = key
	logger.Info("stored upscaled art",
		logging.String("key", key),
		logging.String("model", p.opts.Model),
		logging.Int("factor", p.opts.Factor),
	)
}

func (p *Pipeline) resolve(st *prepareState) Result {
	switch {
	case st.upscaledKey != "":
		return Result{URL: p.store.URL(st.upscaledKey), Stage: StageUpscaled, TypeLine: st.typeLine}
	case st.originalKey != "":
		return Result{URL: p.store.URL(st.originalKey), Stage: StageOriginal, TypeLine: st.typeLine}
	case st.sourceURL != "":
		return Result{URL: st.sourceURL, Stage: StageOriginal, TypeLine: st.typeLine, Remote: true}
	default:
		return Result{TypeLine: st.typeLine}
	}
}

func (p *Pipeline) warnNetwork(logger *slog.Logger, op string, err error) {
	logging.WarnWithContext(logger, op+" failed", "art_network_error",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check connectivity to the art source and upscaler"),
		logging.String(logging.FieldImpact, "print keeps its default art"),
	)
}

func (p *Pipeline) warnStore(logger *slog.Logger, key string, err error) {
	attrs := []logging.Attr{logging.String("key", key), logging.Error(err)}
	var se *storage.StatusError
	if errors.As(err, &se) {
		attrs = append(attrs, logging.Int("status", se.Code), logging.String("body", se.Body))
	}
	attrs = append(attrs, logging.String(logging.FieldImpact, "asset will be fetched again next run"))
	logging.WarnWithContext(logger, "store art failed", "art_store_error", attrs...)
}

// sniff detects the image type of data. Non-image payloads keep the fallback
// extension.
func sniff(data []byte, fallbackExt string) (ext, contentType string) {
	mt := mimetype.Detect(data)
	if strings.HasPrefix(mt.String(), "image/") && mt.Extension() != "" {
		return mt.Extension(), mt.String()
	}
	if fallbackExt == "" {
		fallbackExt = ".jpg"
	}
	return fallbackExt, mimeForExt(fallbackExt)
}

func mimeForExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
