package wsclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/logging"
)

const (
	// AuthCookieName is the cookie carrying the session token issued by the sign-in endpoint
	AuthCookieName = "LWSSO_COOKIE_KEY"

	// SignInPath is the path of the sign-in endpoint, relative to the endpoint host
	SignInPath = "/authentication/sign_in"

	// DefaultLoginTimeout is the default timeout of one login request
	DefaultLoginTimeout = 10 * time.Second
)

// AuthToken is the opaque session token obtained by Login
type AuthToken struct {
	Name  string
	Value string
}

// Cookie renders the token as a cookie for the upgrade request
func (t *AuthToken) Cookie() *http.Cookie {
	return &http.Cookie{Name: t.Name, Value: t.Value}
}

// String returns the cookie header form of the token
func (t *AuthToken) String() string {
	return t.Name + "=" + t.Value
}

// Masked returns the token with its value masked, for display
func (t *AuthToken) Masked() string {
	return t.Name + "=" + maskSecret(t.Value)
}

type signInRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Login signs in with the context's credentials and returns the session token
func Login(ctx context.Context, cc *ClientContext) (*AuthToken, error) {
	return LoginWithClient(ctx, cc, nil)
}

// LoginWithClient signs in using the given HTTP client. A nil client means a
// default client honouring the context's proxy settings. Redirects are never
// followed.
func LoginWithClient(ctx context.Context, cc *ClientContext, httpClient *http.Client) (*AuthToken, error) {
	if cc == nil {
		return nil, NewConfigurationError("client context must not be nil")
	}

	signInURL, err := loginURL(cc.Endpoint())
	if err != nil {
		return nil, NewAuthenticationError("failed to build sign-in URL", err)
	}

	body, err := json.Marshal(signInRequest{ClientID: cc.Client(), ClientSecret: cc.Secret()})
	if err != nil {
		return nil, NewAuthenticationError("failed to encode sign-in request", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultLoginTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signInURL, bytes.NewReader(body))
	if err != nil {
		return nil, NewAuthenticationError("failed to create sign-in request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := loginHTTPClient(cc, httpClient)

	logging.Debug("Signing in",
		zap.String("url", signInURL),
		zap.String("client", cc.Client()))

	resp, err := client.Do(req)
	if err != nil {
		return nil, NewAuthenticationError(fmt.Sprintf("sign-in request to %s failed", signInURL), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, NewLoginStatusError(resp.StatusCode, signInURL)
	}

	token, ok := findAuthCookie(resp.Header.Values("Set-Cookie"))
	if !ok {
		return nil, NewAuthenticationError(fmt.Sprintf("sign-in response did not set the %s cookie", AuthCookieName), nil)
	}

	logging.Info("Signed in", zap.String("url", signInURL), zap.String("client", cc.Client()))
	return token, nil
}

// loginURL maps the endpoint onto the sign-in URL on the same host and port
func loginURL(endpoint *url.URL) (string, error) {
	var scheme string
	switch strings.ToLower(endpoint.Scheme) {
	case SchemeWS:
		scheme = "http"
	case SchemeWSS:
		scheme = "https"
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", endpoint.Scheme)
	}

	u := url.URL{Scheme: scheme, Host: endpoint.Host, Path: SignInPath}
	return u.String(), nil
}

// findAuthCookie scans Set-Cookie values for the auth cookie. The first
// well-formed match wins; malformed pairs are skipped.
func findAuthCookie(setCookies []string) (*AuthToken, bool) {
	for _, header := range setCookies {
		for _, part := range strings.Split(header, ";") {
			key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			if key == "" || value == "" {
				continue
			}
			if key == AuthCookieName {
				return &AuthToken{Name: key, Value: value}, true
			}
		}
	}
	return nil, false
}

func loginHTTPClient(cc *ClientContext, httpClient *http.Client) *http.Client {
	if httpClient == nil {
		httpClient = NewLoginClient(cc, nil)
	}

	c := *httpClient
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}

// NewLoginClient returns an HTTP client for Login that honours the context's
// proxy settings. A nil tlsConfig keeps the system defaults.
func NewLoginClient(cc *ClientContext, tlsConfig *tls.Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxyFunc(cc)
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig
	}
	return &http.Client{Transport: transport}
}

// proxyURL resolves the context's proxy settings. It returns nil for a
// direct connection.
func proxyURL(cc *ClientContext) *url.URL {
	raw := cc.ProxyURL()
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		logging.Warn("Ignoring invalid proxy URL, connecting directly",
			zap.String("proxy", raw),
			zap.Error(err))
		return nil
	}

	if cc.ProxyUsername() != "" {
		u.User = url.UserPassword(cc.ProxyUsername(), cc.ProxyPassword())
	}
	return u
}

// proxyFunc adapts the context's proxy settings to http.Transport.Proxy
// and websocket.Dialer.Proxy
func proxyFunc(cc *ClientContext) func(*http.Request) (*url.URL, error) {
	u := proxyURL(cc)
	return func(*http.Request) (*url.URL, error) {
		return u, nil
	}
}
