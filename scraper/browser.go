package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"carscan/utils"
)

// ChromeBrowser renders marketplace pages with a headless Chrome instance and
// evaluates strategy scripts against the live DOM. One allocator is shared by
// every adapter; each ExtractCards call runs in a fresh tab.
type ChromeBrowser struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	retry       *utils.RetryConfig
	logger      *utils.Logger
}

// NewChromeBrowser sets up the shared Chrome allocator. chromeBin may be empty,
// in which case the binary is located on PATH or in the usual install spots.
func NewChromeBrowser(chromeBin string, maxRetries int, logger *utils.Logger) *ChromeBrowser {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "es-CO"),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if maxRetries < 1 {
		maxRetries = 1
	}

	return &ChromeBrowser{
		allocCtx:    silentCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelSilent,
		retry:       &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second, Logger: logger},
		logger:      logger,
	}
}

// ExtractCards navigates to pageURL in a new tab, lets the page settle and
// evaluates the strategy script, which must return an array of card objects.
// Transient navigation failures are retried with back-off; cancellation and
// blocked responses are not.
func (b *ChromeBrowser) ExtractCards(ctx context.Context, pageURL, script string) ([]Card, error) {
	var cards []Card
	var blocked bool
	err := b.retry.Do("extract "+pageURL, func() error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var attemptErr error
		cards, attemptErr = b.extractOnce(ctx, pageURL, script)
		if errors.Is(attemptErr, ErrBlocked) {
			blocked = true
			return nil
		}
		return attemptErr
	})
	if blocked {
		return nil, ErrBlocked
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return cards, nil
}

func (b *ChromeBrowser) extractOnce(ctx context.Context, pageURL, script string) ([]Card, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 90*time.Second)
	defer cancelTimeout()

	// Propagate orchestrator cancellation into the tab.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pageText string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(5*time.Second),
		chromedp.Evaluate(`document.title + ' ' + (document.body ? document.body.innerText.slice(0, 600) : '')`, &pageText),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("chromedp navigate: %w", err)
	}
	if isBlockedPage(pageText) {
		b.logger.Warn("[browser] %s served a blocked/challenge page", pageURL)
		return nil, ErrBlocked
	}

	var cards []Card
	err = chromedp.Run(tabCtx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(script, &cards),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("chromedp extract: %w", err)
	}

	return cards, nil
}

// blockMarkers are the phrases MercadoLibre-family sites render on 403/429
// and bot-challenge interstitials.
var blockMarkers = []string{
	"access denied",
	"request blocked",
	"403 forbidden",
	"too many requests",
	"captcha",
	"pausa, por favor",
	"verifica que no eres un robot",
}

// isBlockedPage reports whether the rendered page is a block or challenge
// interstitial rather than a results page.
func isBlockedPage(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Close tears down the shared Chrome allocator.
func (b *ChromeBrowser) Close() {
	b.cancelTab()
	b.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
