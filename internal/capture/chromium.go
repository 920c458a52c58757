package capture

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"daycount/internal/calendar"
	"daycount/internal/config"
)

const (
	DefaultWidth   = 1600
	DefaultHeight  = 2400
	DefaultTimeout = 30 * time.Second

	// readySelector is set on the page container once all months are in the DOM.
	readySelector = `[data-ready="true"]`
)

// Options defines a single Chromium screenshot of the calendar page.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/?date=2024-03-15".
	URL string

	// OutputPath is where the PNG is written.
	OutputPath string

	Width   int
	Height  int
	Timeout time.Duration
}

// OptionsFromConfig builds capture options for anchor against a server
// listening on cfg.Listen.
func OptionsFromConfig(cfg *config.Config, anchor calendar.Date) (Options, error) {
	pageURL, err := PageURL("http://"+dialAddr(cfg.Listen), anchor)
	if err != nil {
		return Options{}, err
	}
	return Options{
		URL:        pageURL,
		OutputPath: cfg.Capture.Output,
		Width:      cfg.Capture.Width,
		Height:     cfg.Capture.Height,
		Timeout:    time.Duration(cfg.Capture.TimeoutSeconds) * time.Second,
	}, nil
}

// dialAddr turns a listen address into one a browser can reach. Wildcard
// hosts are replaced with the loopback address.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

// PageURL is the calendar page URL for anchor under base.
func PageURL(base string, anchor calendar.Date) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("capture: bad base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("capture: base URL %q needs scheme and host", base)
	}
	u.Path = "/"
	q := u.Query()
	q.Set("date", anchor.Key())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (o Options) withDefaults() (Options, error) {
	if o.URL == "" {
		return o, fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return o, fmt.Errorf("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o, nil
}

// CapturePNG opens opts.URL in headless Chromium, waits for the page to
// mark itself ready and writes a full-page PNG to opts.OutputPath.
func CapturePNG(parentCtx context.Context, opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
