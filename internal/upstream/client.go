package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	derr "github.com/username/podroznik/internal/domain/errors"
)

const (
	defaultConnectTimeout = 12 * time.Second
	defaultRequestTimeout = 35 * time.Second
	defaultMaxRedirects   = 10

	// DefaultUserAgent mimics a desktop Chrome
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	acceptHeader         = "text/html,application/json;q=0.9,*/*;q=0.8"
	acceptLanguageHeader = "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7"
)

// initCandidates are the pages tried, in order, when looking for a fresh tabToken
var initCandidates = []string{
	"/",
	"/public/seoIndexMainPage.do",
	"/rozklad-jazdy",
}

// Options configures the upstream client. Zero values fall back to production defaults.
type Options struct {
	Target               Target
	ConnectTimeout       time.Duration
	RequestTimeout       time.Duration
	MaxRedirects         int
	UserAgent            string
	BrowserImpersonation bool

	Store      SessionStore
	Limiter    RateLimiter
	Extractors []TokenExtractor

	// OnInitFailure is called when no candidate page yielded a token
	OnInitFailure func(err error)
}

// Client is a browser-like session against e-podroznik.pl.
// It owns one cookie jar and one tabToken; a single Client must not serve two users.
type Client struct {
	target        Target
	http          *resty.Client
	store         SessionStore
	limiter       RateLimiter
	extractors    []TokenExtractor
	onInitFailure func(err error)
	logger        *zap.Logger

	mu    sync.Mutex
	jar   http.CookieJar
	token string
}

// NewClient creates a client and resumes the stored session when it is complete
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if opts.Target == (Target{}) {
		opts.Target = DefaultTarget
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Store == nil {
		opts.Store = NewMemorySessionStore()
	}
	if opts.Limiter == nil {
		opts.Limiter = NoopRateLimiter{}
	}
	if len(opts.Extractors) == 0 {
		opts.Extractors = DefaultTokenExtractors()
	}

	jar, err := newJar()
	if err != nil {
		return nil, err
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if opts.BrowserImpersonation {
		transport = cloudflarebp.AddCloudFlareByPass(transport)
	}

	httpClient := resty.New()
	httpClient.SetTransport(transport)
	httpClient.SetCookieJar(jar)
	httpClient.SetTimeout(opts.RequestTimeout)
	httpClient.SetRedirectPolicy(resty.RedirectPolicyFunc(opts.Target.redirectPolicy(opts.MaxRedirects)))
	httpClient.SetHeader("User-Agent", opts.UserAgent)
	httpClient.SetHeader("Accept", acceptHeader)
	httpClient.SetHeader("Accept-Language", acceptLanguageHeader)

	c := &Client{
		target:        opts.Target,
		http:          httpClient,
		store:         opts.Store,
		limiter:       opts.Limiter,
		extractors:    opts.Extractors,
		onInitFailure: opts.OnInitFailure,
		logger:        logger,
		jar:           jar,
	}

	c.resume()

	return c, nil
}

func newJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}

func (c *Client) resume() {
	s, err := c.store.Load()
	if err != nil {
		c.logger.Warn("Failed to load upstream session, starting fresh", zap.Error(err))
		return
	}
	if !s.Usable() {
		return
	}

	c.mu.Lock()
	c.jar.SetCookies(c.target.baseURL(), s.Cookies)
	c.token = s.Token
	c.mu.Unlock()

	c.logger.Debug("Resumed upstream session", zap.Int("cookies", len(s.Cookies)))
}

// Token returns the current tabToken, empty when the session is not initialized
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Target returns the origin this client is bound to
func (c *Client) Target() Target {
	return c.target
}

// EnsureInitialized acquires a tabToken unless one is already held.
// Candidate pages are tried in order; an abuse block stops the attempt at once.
func (c *Client) EnsureInitialized(ctx context.Context) error {
	if c.Token() != "" {
		return nil
	}

	var lastErr error
	for _, path := range initCandidates {
		body, err := c.Request(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			if errors.Is(err, derr.ErrUpstreamBlocked) || ctx.Err() != nil {
				return err
			}
			c.logger.Warn("Token candidate page failed",
				zap.String("path", path),
				zap.Error(err))
			lastErr = err
			continue
		}

		token, strategy, ok := extractToken(c.extractors, body)
		if !ok {
			c.logger.Debug("No tabToken on candidate page", zap.String("path", path))
			lastErr = fmt.Errorf("no tabToken on %s", path)
			continue
		}

		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
		c.saveSession()

		c.logger.Info("Upstream session initialized",
			zap.String("path", path),
			zap.String("strategy", strategy))
		return nil
	}

	err := fmt.Errorf("%w: %v", derr.ErrInitializationFailed, lastErr)
	c.logger.Warn("All tabToken strategies failed",
		zap.Int("candidates", len(initCandidates)),
		zap.Int("strategies", len(c.extractors)),
		zap.Error(lastErr))
	if c.onInitFailure != nil {
		c.onInitFailure(err)
	}
	return err
}

// ResetSession discards the cookie jar and the token
func (c *Client) ResetSession() error {
	jar, err := newJar()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.jar = jar
	c.token = ""
	c.http.SetCookieJar(jar)
	c.mu.Unlock()

	if err := c.store.Save(&Session{}); err != nil {
		c.logger.Warn("Failed to clear stored upstream session", zap.Error(err))
	}

	c.logger.Info("Upstream session reset")
	return nil
}

// renew resets the session and acquires a new token
func (c *Client) renew(ctx context.Context) error {
	if err := c.ResetSession(); err != nil {
		return err
	}
	return c.EnsureInitialized(ctx)
}

func (c *Client) saveSession() {
	c.mu.Lock()
	s := &Session{
		Token:   c.token,
		Cookies: c.jar.Cookies(c.target.baseURL()),
	}
	c.mu.Unlock()

	if err := c.store.Save(s); err != nil {
		c.logger.Warn("Failed to store upstream session", zap.Error(err))
	}
}

// Request performs one call against the allowlisted origin and returns the body.
// form is sent url-encoded for POST and ignored otherwise.
func (c *Client) Request(ctx context.Context, method, pathOrURL string, form url.Values, headers map[string]string) (string, error) {
	target, err := c.target.Resolve(pathOrURL)
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req := c.http.R().SetContext(ctx).SetHeaders(headers)
	if method == http.MethodPost && form != nil {
		req.SetFormDataFromValues(form)
	}

	started := time.Now()
	resp, err := req.Execute(method, target)
	if err != nil {
		if errors.Is(err, derr.ErrInvalidTarget) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s %s: %v", derr.ErrConnection, method, target, err)
	}

	c.logger.Debug("Upstream response",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode() >= 400 {
		return "", &derr.HTTPError{StatusCode: resp.StatusCode(), URL: target}
	}

	body := resp.String()
	if err := detectBlockPage(body); err != nil {
		c.logger.Warn("Upstream served an error page",
			zap.String("url", target),
			zap.Error(err))
		return "", err
	}

	// The upstream rotates cookies on ordinary responses too
	if c.Token() != "" {
		c.saveSession()
	}

	return body, nil
}

// detectBlockPage classifies abuse-detection and generic failure pages
func detectBlockPage(body string) error {
	t := strings.ToLower(body)

	if strings.Contains(t, "denial of service") && strings.Contains(t, "blacklist") {
		return fmt.Errorf("%w: denial-of-service blacklist", derr.ErrUpstreamBlocked)
	}
	if strings.Contains(t, "dos") && strings.Contains(t, "attack") && strings.Contains(t, "detected") {
		return fmt.Errorf("%w: DoS attack detected", derr.ErrUpstreamBlocked)
	}
	for _, marker := range []string{"page-unhalted", "nieoczekiwany błąd", "nieobsłużony wyjątek"} {
		if strings.Contains(t, marker) {
			return fmt.Errorf("%w: %q", derr.ErrUpstreamFault, marker)
		}
	}
	return nil
}

func isEmpty(body string) bool {
	return strings.TrimSpace(body) == ""
}
