package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	challengePollInterval = 1 * time.Second
	challengeWaitCap      = 20 * time.Second
)

// fetchHeadless drives a scoped browser session. The allocator and the
// browser context are created per call and cancelled on every exit path.
func (c *Client) fetchHeadless(ctx context.Context, pageURL string, opts Options) (string, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(browserHeaders()["User-Agent"]),
	)
	if c.chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.chromeBin))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	reqCtx, reqCancel := context.WithTimeout(browserCtx, opts.Timeout+challengeWaitCap)
	defer reqCancel()

	if err := chromedp.Run(reqCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500*time.Millisecond),
	); err != nil {
		return "", err
	}

	html, err := c.waitChallenge(reqCtx)
	if err != nil {
		return "", err
	}

	if opts.Scroll {
		_ = chromedp.Run(reqCtx,
			chromedp.EvaluateAsDevTools(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(1200*time.Millisecond),
			chromedp.EvaluateAsDevTools(`window.scrollTo(0, 0)`, nil),
			chromedp.Sleep(500*time.Millisecond),
		)
		if err := chromedp.Run(reqCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return "", err
		}
	}

	if len(html) < c.minBodySize {
		return "", fmt.Errorf("body too small (%d bytes)", len(html))
	}
	return html, nil
}

// waitChallenge polls the rendered page until the anti-bot interstitial
// clears or the cap expires.
func (c *Client) waitChallenge(ctx context.Context) (string, error) {
	deadline := time.Now().Add(challengeWaitCap)
	for {
		var html string
		if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return "", err
		}
		marker := findChallengeMarker(html)
		if marker == "" {
			return html, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("bot challenge not cleared (%q)", marker)
		}
		if err := chromedp.Run(ctx, chromedp.Sleep(challengePollInterval)); err != nil {
			return "", err
		}
	}
}
