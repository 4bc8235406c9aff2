package ihidro

import (
	"context"
	"fmt"
	"ihidro-assist/internal/components/assert"
	"ihidro-assist/internal/components/chrono"
	"ihidro-assist/internal/components/telemetry"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	report_client_session      = "client.session"
	report_client_login        = "client.login"
	report_client_fetch_status = "client.fetch-status"
	report_client_prerequisite = "client.prerequisites"
	report_client_submit       = "client.submit"
)

const (
	DefaultBaseUrl     = "https://ihidro.ro"
	DefaultDistributor = "E-Distributie Muntenia Nord"

	portalPath         = "/portal/default.aspx"
	selfMeterPath      = "/portal/SelfMeterReading.aspx"
	meterValuePath     = "/portal/SelfMeterReading.aspx/GetMeterValueRequest"
	loginUsernameField = "txtLogin"
	loginPasswordField = "txtpwd"
	// present only on pages served to an authenticated user
	loginMarker        = "titleRR2"

	requestTimeout = time.Minute
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
)

var tracer = otel.Tracer("ihidro-assist/internal/scrapers/ihidro")

// ClientOptions configures a Client, only Credentials is required.
type ClientOptions struct {
	Credentials Credentials
	Account     Account
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Strategy defaults to HTTPStrategy.
	Strategy SubmitStrategy
	// CloudflareBypass wraps the session transport with cloudflare-bp.
	CloudflareBypass bool
	// RequestsPerSecond defaults to 2.
	RequestsPerSecond float64
	// Output receives a dump of every http exchange if it is set.
	Output telemetry.InstrumentOutput
}

// Client is an authenticated session against the portal for one account.
//
// Operations on a client are serialized, it is safe to share one between goroutines
// but they will wait on each other.
type Client struct {
	baseUrl  *url.URL
	creds    Credentials
	account  Account
	strategy SubmitStrategy
	opts     ClientOptions

	tel  telemetry.API
	time chrono.TimeAPI

	mu     sync.Mutex
	http   *resty.Client
	state  AuthState
	closed bool
}

func NewClient(opts ClientOptions, tel telemetry.API, clock chrono.TimeAPI) (*Client, error) {
	assert.NotNil(tel)
	assert.NotNil(clock)
	assert.NotEmptyStr(opts.Credentials.Username)

	tel = telemetry.NewScopedAPI("ihidro_scraper", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseUrl)
	}

	if opts.Strategy == nil {
		opts.Strategy = HTTPStrategy{}
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	account := opts.Account
	if account.Distributor == "" {
		account.Distributor = DefaultDistributor
	}

	return &Client{
		baseUrl:  baseUrl,
		creds:    opts.Credentials,
		account:  account,
		strategy: opts.Strategy,
		opts:     opts,
		tel:      tel,
		time:     clock,
	}, nil
}

// State returns the current login state.
func (c *Client) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Strategy returns the submission strategy in use.
func (c *Client) Strategy() SubmitStrategy {
	return c.strategy
}

// Close releases the session, it is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.state = LoggedOut
	if c.http != nil {
		c.http.GetClient().CloseIdleConnections()
		c.http = nil
	}
	return nil
}

// ensureSession returns the live session, creating it if there is none yet.
// c.mu must be held.
func (c *Client) ensureSession() (*resty.Client, error) {
	if c.closed {
		return nil, ErrClientClosed
	}
	if c.http != nil {
		return c.http, nil
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(c.baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		c.tel.ReportBroken(report_client_session, fmt.Errorf("create cookie jar: %w", err))
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if c.opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()))
	httpClient.SetTimeout(requestTimeout)

	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(c.opts.RequestsPerSecond), 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, c.tel, c.opts.Output)

	c.http = httpClient
	return httpClient, nil
}

// Login submits the credentials, a client that is already logged in logs in again.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "client:Login")
	defer func() { endSpan(span, err) }()

	httpClient, err := c.ensureSession()
	if err != nil {
		return err
	}

	c.tel.ReportDebug(report_client_login, c.creds.Username)

	res, err := httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			loginUsernameField: c.creds.Username,
			loginPasswordField: c.creds.Password,
		}).
		Post(portalPath)
	err = checkResponse("login", res, err)
	if err != nil {
		c.state = LoggedOut
		c.tel.ReportBroken(report_client_login, err)
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if !strings.Contains(res.String(), loginMarker) {
		c.state = LoggedOut
		c.tel.ReportWarning(report_client_login, ErrAuthFailed, c.creds.Username)
		return fmt.Errorf("%w: %w", ErrLoginFailed, ErrAuthFailed)
	}

	c.state = LoggedIn
	return nil
}

// ensureLoggedIn logs in if the client is not already logged in. c.mu must be held.
func (c *Client) ensureLoggedIn(ctx context.Context) error {
	if c.closed {
		return ErrClientClosed
	}
	if c.state == LoggedIn {
		return nil
	}
	return c.login(ctx)
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("username", c.creds.Username),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
