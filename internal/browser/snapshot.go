// Package browser captures rendered dashboards with headless Chrome
package browser

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// completedSelector appears once the dashboard has finished rendering
const completedSelector = `#completed`

// Options controls the browser session
type Options struct {
	Visible bool
	Timeout time.Duration
	Width   int64
	Height  int64
	Quality int // PNG when 100, JPEG otherwise
}

// Capture loads target (a URL or a local HTML file) and returns a full page
// screenshot
func Capture(ctx context.Context, target string, opts Options) ([]byte, error) {
	pageURL, err := ToURL(target)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 960
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 100
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Visible),
		chromedp.Flag("no-sandbox", true),            // Required for running as root on Linux
		chromedp.Flag("disable-gpu", true),           // Recommended for headless Linux
		chromedp.Flag("disable-dev-shm-usage", true), // Avoid /dev/shm issues on Linux
		chromedp.WindowSize(int(opts.Width), int(opts.Height)),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(browserCtx,
		emulation.SetDeviceMetricsOverride(opts.Width, opts.Height, 1, false),
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(completedSelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, opts.Quality),
	); err != nil {
		return nil, fmt.Errorf("capturing %s: %w", pageURL, err)
	}

	return buf, nil
}

// ToURL turns a local path into a file:// URL and passes http(s) and file
// URLs through
func ToURL(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("no page to capture")
	}
	if u, err := url.Parse(target); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
			return target, nil
		}
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", target, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("report not found: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
