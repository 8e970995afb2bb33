package upstream

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	derr "github.com/username/podroznik/internal/domain/errors"
)

// Target is the only origin the client may talk to
type Target struct {
	Scheme string
	Host   string
	Port   string
}

// DefaultTarget is the production e-podroznik.pl origin
var DefaultTarget = Target{Scheme: "https", Host: "www.e-podroznik.pl", Port: "443"}

// ParseTarget builds a Target from a base URL such as "https://www.e-podroznik.pl"
func ParseTarget(base string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", derr.ErrInvalidTarget, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return Target{}, fmt.Errorf("%w: unsupported scheme %q", derr.ErrInvalidTarget, u.Scheme)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", derr.ErrInvalidTarget, base)
	}

	port := u.Port()
	if port == "" {
		port = defaultPort(u.Scheme)
	}
	return Target{Scheme: u.Scheme, Host: strings.ToLower(u.Hostname()), Port: port}, nil
}

// BaseURL returns scheme://host[:port] without a trailing slash
func (t Target) BaseURL() string {
	if t.Port == "" || t.Port == defaultPort(t.Scheme) {
		return t.Scheme + "://" + t.Host
	}
	return t.Scheme + "://" + t.Host + ":" + t.Port
}

func (t Target) baseURL() *url.URL {
	u, _ := url.Parse(t.BaseURL() + "/")
	return u
}

// Allows reports whether the URL points at this origin
func (t Target) Allows(u *url.URL) bool {
	if !strings.EqualFold(u.Scheme, t.Scheme) {
		return false
	}
	if !strings.EqualFold(u.Hostname(), t.Host) {
		return false
	}
	port := u.Port()
	if port == "" {
		port = defaultPort(strings.ToLower(u.Scheme))
	}
	want := t.Port
	if want == "" {
		want = defaultPort(t.Scheme)
	}
	return port == want
}

// Resolve turns an absolute path or an absolute URL into a URL on this origin.
// Protocol-relative URLs ("//host/path") are rejected outright.
func (t Target) Resolve(pathOrURL string) (string, error) {
	candidate := strings.TrimSpace(pathOrURL)
	if candidate == "" {
		return "", fmt.Errorf("%w: empty URL", derr.ErrInvalidTarget)
	}

	if strings.HasPrefix(candidate, "//") {
		return "", fmt.Errorf("%w: protocol-relative URL %q", derr.ErrInvalidTarget, candidate)
	}
	if strings.HasPrefix(candidate, "/") {
		return t.BaseURL() + candidate, nil
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", derr.ErrInvalidTarget, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute URL", derr.ErrInvalidTarget, candidate)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: credentials in URL", derr.ErrInvalidTarget)
	}
	if !t.Allows(u) {
		return "", fmt.Errorf("%w: %s is outside %s", derr.ErrInvalidTarget, u.Redacted(), t.BaseURL())
	}
	return candidate, nil
}

// redirectPolicy re-validates every redirect hop against the allowlist
func (t Target) redirectPolicy(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if !t.Allows(req.URL) {
			return fmt.Errorf("%w: redirect to %s", derr.ErrInvalidTarget, req.URL.Redacted())
		}
		return nil
	}
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	}
	return ""
}
