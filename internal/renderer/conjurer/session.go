package conjurer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"cardcap/internal/logging"
	"cardcap/internal/prints"
	"cardcap/internal/renderer"
	"cardcap/internal/services"
	"cardcap/internal/stabilize"
)

const (
	menuTabs     = `#creator-menu-tabs`
	tabFrame     = `//*[@id="creator-menu-tabs"]/h3[text()='Frame']`
	tabText      = `//*[@id="creator-menu-tabs"]/h3[2]`
	tabArt       = `//*[@id="creator-menu-tabs"]/h3[3]`
	tabBottom    = `//*[@id="creator-menu-tabs"]/h3[6]`
	tabImport    = `//*[@id="creator-menu-tabs"]/h3[7]`
	artURLInput  = `//h5[contains(text(), 'Choose/upload your art')]/following-sibling::div//input[@type='url']`
	whiteBorder  = `//div[@id='frame-picker']//img[contains(@src, '/whiteThumb.png')]`
	textEditor   = `#text-editor`
	importName   = `#import-name`
	autoFrame    = `#autoFrame`
	pngDataURL   = "data:image/png;base64,"
	clickSettle  = 200 * time.Millisecond
	searchSettle = 500 * time.Millisecond
)

// Options configures a browser session.
type Options struct {
	URL            string
	ChromePath     string
	Headless       bool
	WindowWidth    int
	WindowHeight   int
	ElementTimeout time.Duration
}

// Session is one Chrome tab running the renderer.
type Session struct {
	opts        Options
	browser     context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *slog.Logger
}

var _ renderer.Renderer = (*Session)(nil)

// Open starts Chrome, loads the renderer and waits for its menu. Any failure
// here is fatal to the run.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, services.Wrap(services.ErrFatalSetup, "setup", "open renderer", "renderer url required", nil)
	}
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = 1200
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = 900
	}
	if opts.ElementTimeout <= 0 {
		opts.ElementTimeout = 15 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	componentLogger := logging.NewComponentLogger(logger, "renderer")
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browser, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		componentLogger.Debug(fmt.Sprintf(format, args...))
	}))

	s := &Session{opts: opts, browser: browser, cancel: cancel, allocCancel: allocCancel, logger: componentLogger}

	// The first Run owns the browser process, so it must not carry a deadline.
	if err := chromedp.Run(browser); err != nil {
		_ = s.Close()
		return nil, services.Wrap(services.ErrFatalSetup, "setup", "open renderer", "start chrome", err)
	}
	loadCtx, loadCancel := s.scope(ctx, 2*opts.ElementTimeout)
	defer loadCancel()
	if err := chromedp.Run(loadCtx,
		chromedp.Navigate(opts.URL),
		chromedp.WaitReady(menuTabs, chromedp.ByQuery),
	); err != nil {
		_ = s.Close()
		return nil, services.Wrap(services.ErrFatalSetup, "setup", "open renderer", "load "+opts.URL, err)
	}
	componentLogger.Info("renderer session ready",
		logging.String("url", opts.URL),
		logging.Bool("headless", opts.Headless),
	)
	return s, nil
}

// scope derives an action context from the browser context that also ends
// when ctx does.
func (s *Session) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	actCtx, cancel := context.WithTimeout(s.browser, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return actCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	actCtx, cancel := s.scope(ctx, s.opts.ElementTimeout)
	defer cancel()
	if err := chromedp.Run(actCtx, actions...); err != nil {
		return classify(ctx, op, err)
	}
	return nil
}

// classify marks element timeouts as transient.
func classify(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return errors.Join(fmt.Errorf("%s: %w", op, err), ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%s: %w", op, renderer.ErrNotReady)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Session) evalBool(ctx context.Context, op, script string) error {
	var ok bool
	if err := s.run(ctx, op, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, renderer.ErrNotReady)
	}
	return nil
}

func clickTab(xpath string) chromedp.Action {
	return chromedp.Tasks{
		chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible),
		chromedp.Sleep(clickSettle),
	}
}

// Fingerprint hashes the canvas data URL in the page. An unready canvas
// yields an empty fingerprint.
func (s *Session) Fingerprint(ctx context.Context) (stabilize.Fingerprint, error) {
	var hash string
	if err := s.run(ctx, "fingerprint", chromedp.Evaluate(fingerprintScript, &hash)); err != nil {
		return "", err
	}
	return stabilize.Fingerprint(hash), nil
}

// Bitmap returns the canvas as PNG bytes.
func (s *Session) Bitmap(ctx context.Context) ([]byte, error) {
	var dataURL string
	if err := s.run(ctx, "capture canvas", chromedp.Evaluate(bitmapScript, &dataURL)); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(dataURL, pngDataURL) {
		return nil, fmt.Errorf("capture canvas: %w", renderer.ErrNotReady)
	}
	data, err := base64.StdEncoding.DecodeString(dataURL[len(pngDataURL):])
	if err != nil {
		return nil, fmt.Errorf("decode canvas: %w", err)
	}
	return data, nil
}

type importOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// SearchPrints imports name and reads the repopulated print selector.
func (s *Session) SearchPrints(ctx context.Context, name string) ([]prints.Option, error) {
	var marked bool
	if err := s.run(ctx, "search prints",
		clickTab(tabImport),
		chromedp.WaitReady(importName, chromedp.ByQuery),
		chromedp.Evaluate(markStaleOptionsScript, &marked),
		chromedp.Clear(importName, chromedp.ByQuery),
		chromedp.Sleep(clickSettle),
		chromedp.SendKeys(importName, name+kb.Enter, chromedp.ByQuery),
		chromedp.Sleep(searchSettle),
	); err != nil {
		return nil, err
	}

	var raw []importOption
	if err := s.run(ctx, "read print options",
		chromedp.Poll(importOptionsScript, &raw, chromedp.WithPollingInterval(100*time.Millisecond)),
	); err != nil {
		return nil, err
	}
	options := make([]prints.Option, 0, len(raw))
	for _, opt := range raw {
		options = append(options, prints.Option{Text: opt.Text, Token: opt.Value})
	}
	s.logger.Debug("print options loaded", logging.Int("options", len(options)))
	return options, nil
}

func (s *Session) SelectPrint(ctx context.Context, token string) error {
	return s.evalBool(ctx, "select print", selectImportScript(token))
}

// ApplyArt types url into the custom art input and submits it.
func (s *Session) ApplyArt(ctx context.Context, url string) error {
	return s.run(ctx, "apply art",
		clickTab(tabArt),
		chromedp.WaitReady(artURLInput, chromedp.BySearch),
		chromedp.Clear(artURLInput, chromedp.BySearch),
		chromedp.SendKeys(artURLInput, url+kb.Enter, chromedp.BySearch),
	)
}

func fieldButton(field string) string {
	return fmt.Sprintf(`//h4[text()='%s']`, field)
}

// ReadField opens field in the text editor and returns its raw markup.
func (s *Session) ReadField(ctx context.Context, field string) (string, error) {
	var value string
	err := s.run(ctx, "read field "+field,
		clickTab(tabText),
		chromedp.Click(fieldButton(field), chromedp.BySearch, chromedp.NodeVisible),
		chromedp.Sleep(clickSettle),
		chromedp.WaitReady(textEditor, chromedp.ByQuery),
		chromedp.Value(textEditor, &value, chromedp.ByQuery),
	)
	return value, err
}

// EditField replaces the raw markup of field.
func (s *Session) EditField(ctx context.Context, field, raw string) error {
	if err := s.run(ctx, "open field "+field,
		clickTab(tabText),
		chromedp.Click(fieldButton(field), chromedp.BySearch, chromedp.NodeVisible),
		chromedp.Sleep(clickSettle),
		chromedp.WaitReady(textEditor, chromedp.ByQuery),
	); err != nil {
		return err
	}
	return s.evalBool(ctx, "edit field "+field, setInputScript("text-editor", raw))
}

// SetFrame selects frame in the art tab's frame list.
func (s *Session) SetFrame(ctx context.Context, frame string) error {
	var outcome string
	if err := s.run(ctx, "set frame",
		clickTab(tabArt),
		chromedp.WaitReady(autoFrame, chromedp.ByQuery),
		chromedp.Evaluate(selectFrameScript(frame), &outcome),
	); err != nil {
		return err
	}
	switch outcome {
	case "changed", "unchanged":
		s.logger.Info("frame selected", logging.String("frame", frame), logging.String("outcome", outcome))
		return nil
	case "unknown":
		return fmt.Errorf("set frame: renderer has no frame %q", frame)
	default:
		return fmt.Errorf("set frame: %w", renderer.ErrNotReady)
	}
}

// SetWhiteBorder picks the white border thumbnail in the frame picker.
func (s *Session) SetWhiteBorder(ctx context.Context) error {
	if err := s.run(ctx, "open frame picker",
		clickTab(tabFrame),
		chromedp.WaitVisible(whiteBorder, chromedp.BySearch),
	); err != nil {
		return err
	}
	return s.evalBool(ctx, "apply white border", clickXPathTwiceScript(whiteBorder))
}

// SetCheckbox sets one of the global toggles.
func (s *Session) SetCheckbox(ctx context.Context, box renderer.Checkbox, enabled bool) error {
	var (
		tab   string
		ids   []string
		label string
	)
	switch box {
	case renderer.CheckboxAutofitArt:
		tab, ids, label = tabArt, []string{"art-update-autofit"}, "autofit"
	case renderer.CheckboxHideReminderText:
		tab, ids, label = tabText, []string{"hide-reminder-text", "text-hide-reminder"}, "reminder text"
	default:
		return fmt.Errorf("unknown checkbox %q", box)
	}

	var outcome string
	if err := s.run(ctx, "set "+string(box),
		clickTab(tab),
		chromedp.Evaluate(checkboxScript(ids, label, enabled), &outcome),
	); err != nil {
		return err
	}
	switch outcome {
	case "changed", "unchanged":
		s.logger.Info("checkbox set", logging.String("checkbox", string(box)), logging.Bool("enabled", enabled), logging.String("outcome", outcome))
		return nil
	case "missing":
		return fmt.Errorf("set %s: %w", box, renderer.ErrNotReady)
	default:
		return fmt.Errorf("set %s: checkbox did not toggle", box)
	}
}

// SetCollectorInfo fills the set code and collector number inputs.
func (s *Session) SetCollectorInfo(ctx context.Context, info renderer.CollectorInfo) error {
	if err := s.run(ctx, "open collector info",
		clickTab(tabBottom),
		chromedp.WaitVisible(`#info-set`, chromedp.ByQuery),
	); err != nil {
		return err
	}
	if info.SetCode != "" {
		if err := s.evalBool(ctx, "set collector set", setInputScript("info-set", info.SetCode)); err != nil {
			return err
		}
	}
	if info.CollectorNumber != "" {
		if err := s.evalBool(ctx, "set collector number", setInputScript("info-number", info.CollectorNumber)); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}
