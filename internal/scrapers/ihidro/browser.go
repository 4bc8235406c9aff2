package ihidro

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const report_browser_submit = "browser.submit"

// BrowserOptions configures BrowserStrategy, zero values fall back to defaults.
//
// The selectors are css selectors evaluated by the browser.
type BrowserOptions struct {
	// ExecPath is the chrome binary, found through $PATH if empty.
	ExecPath string `json:"exec_path"`
	Headful  bool   `json:"headful"`

	ReadingInput  string `json:"reading_input"`
	FirstConfirm  string `json:"first_confirm"`
	SecondConfirm string `json:"second_confirm"`
	// Confirmation is waited on after the second confirmation when it is set, the
	// submission counts as rejected if it never becomes visible.
	Confirmation string `json:"confirmation"`

	// SettleDelayMs is how long to wait between the two confirmations.
	SettleDelayMs int `json:"settle_delay_ms"`
	// ConfirmationTimeoutMs bounds the wait for Confirmation.
	ConfirmationTimeoutMs int `json:"confirmation_timeout_ms"`
}

const (
	defaultReadingInput          = `input[type="text"][id*="meterread" i]`
	defaultFirstConfirm          = `[id*="btnSubmit" i]`
	defaultSecondConfirm         = `[id*="btnConfirm" i]`
	defaultSettleDelayMs         = 2000
	defaultConfirmationTimeoutMs = 15000
)

func (o BrowserOptions) withDefaults() BrowserOptions {
	if o.ReadingInput == "" {
		o.ReadingInput = defaultReadingInput
	}
	if o.FirstConfirm == "" {
		o.FirstConfirm = defaultFirstConfirm
	}
	if o.SecondConfirm == "" {
		o.SecondConfirm = defaultSecondConfirm
	}
	if o.SettleDelayMs <= 0 {
		o.SettleDelayMs = defaultSettleDelayMs
	}
	if o.ConfirmationTimeoutMs <= 0 {
		o.ConfirmationTimeoutMs = defaultConfirmationTimeoutMs
	}
	return o
}

// BrowserStrategy submits by driving the portal's form in headless chrome, it
// continues the client's session by copying its cookies into the browser.
type BrowserStrategy struct {
	Options BrowserOptions
}

func (BrowserStrategy) Name() string {
	return "browser"
}

func (BrowserStrategy) check(*Client) error {
	return nil
}

func (b BrowserStrategy) submit(ctx context.Context, c *Client, value string) error {
	opts := b.Options.withDefaults()

	httpClient, err := c.ensureSession()
	if err != nil {
		return err
	}
	cookies := cookieParams(httpClient.GetClient().Jar.Cookies(c.baseUrl), c.baseUrl)
	pageUrl := c.baseUrl.JoinPath(selfMeterPath).String()

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", !opts.Headful),
		chromedp.UserAgent(userAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		c.tel.ReportDebug(report_browser_submit, fmt.Sprintf(format, args...))
	}))
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, 2*requestTimeout)
	defer cancelTimeout()

	err = chromedp.Run(
		timeoutCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookies(cookies).Do(ctx)
		}),
		chromedp.Navigate(pageUrl),
		chromedp.WaitVisible(opts.ReadingInput, chromedp.ByQuery),
		chromedp.Clear(opts.ReadingInput, chromedp.ByQuery),
		chromedp.SendKeys(opts.ReadingInput, value, chromedp.ByQuery),
		chromedp.Click(opts.FirstConfirm, chromedp.ByQuery),
		chromedp.Sleep(time.Duration(opts.SettleDelayMs)*time.Millisecond),
		chromedp.Click(opts.SecondConfirm, chromedp.ByQuery),
	)
	if err != nil {
		return transportError("browser submission", err)
	}

	if opts.Confirmation == "" {
		return nil
	}
	confirmCtx, cancelConfirm := context.WithTimeout(
		timeoutCtx,
		time.Duration(opts.ConfirmationTimeoutMs)*time.Millisecond,
	)
	defer cancelConfirm()
	err = chromedp.Run(confirmCtx, chromedp.WaitVisible(opts.Confirmation, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s never appeared", ErrSubmissionRejected, opts.Confirmation)
	}
	if err != nil {
		return transportError("browser confirmation", err)
	}
	return nil
}

func cookieParams(cookies []*http.Cookie, baseUrl *url.URL) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, cookie := range cookies {
		params = append(params, &network.CookieParam{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: baseUrl.Hostname(),
			Path:   "/",
			Secure: baseUrl.Scheme == "https",
		})
	}
	return params
}
