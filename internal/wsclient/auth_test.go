package wsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func contextFor(t *testing.T, serverURL string, secret string) *ClientContext {
	t.Helper()
	endpoint := "ws" + strings.TrimPrefix(serverURL, "http") + "/messaging/test"
	cc, err := NewBuilder().SetEndpointURL(endpoint).SetClient("client").SetSecret(secret).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return cc
}

func TestLogin_Success(t *testing.T) {
	var got signInRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != SignInPath {
			t.Errorf("path = %s, want %s", r.URL.Path, SignInPath)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Add("Set-Cookie", "NON_RELEVANT_COOKIE=non_relevant_data;LWSSO_COOKIE_KEY=some_fake_token")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	token, err := Login(context.Background(), contextFor(t, server.URL, `se"cret`))
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if token.Name != AuthCookieName || token.Value != "some_fake_token" {
		t.Errorf("token = %+v", token)
	}
	if token.String() != "LWSSO_COOKIE_KEY=some_fake_token" {
		t.Errorf("String() = %s", token.String())
	}
	if token.Cookie().Value != "some_fake_token" {
		t.Errorf("Cookie().Value = %s", token.Cookie().Value)
	}
	if got.ClientID != "client" || got.ClientSecret != `se"cret` {
		t.Errorf("request = %+v", got)
	}
}

func TestLogin_CookieInSecondHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "JSESSIONID=abc; Path=/")
		w.Header().Add("Set-Cookie", "LWSSO_COOKIE_KEY=token==; Path=/; HttpOnly")
	}))
	defer server.Close()

	token, err := Login(context.Background(), contextFor(t, server.URL, ""))
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token.Value != "token==" {
		t.Errorf("token value = %s, want token==", token.Value)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "redirect is not followed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == SignInPath {
					http.Redirect(w, r, "/elsewhere", http.StatusFound)
					return
				}
				w.Header().Add("Set-Cookie", "LWSSO_COOKIE_KEY=redirected")
			},
			wantStatus: http.StatusFound,
		},
		{
			name: "no auth cookie",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("Set-Cookie", "OTHER=value")
			},
		},
		{
			name: "malformed cookie pairs only",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("Set-Cookie", "LWSSO_COOKIE_KEY; =value; LWSSO_COOKIE_KEY=")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := Login(context.Background(), contextFor(t, server.URL, "secret"))
			if !IsAuthenticationError(err) {
				t.Fatalf("Login() error = %v, want authentication error", err)
			}
			ce := err.(*ClientError)
			if ce.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", ce.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestLogin_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	_, err := Login(context.Background(), contextFor(t, serverURL, "secret"))
	if !IsAuthenticationError(err) {
		t.Fatalf("Login() error = %v, want authentication error", err)
	}
	if err.(*ClientError).Err == nil {
		t.Error("expected the I/O cause to be wrapped")
	}
}

func TestLogin_NilContext(t *testing.T) {
	if _, err := Login(context.Background(), nil); !IsConfigurationError(err) {
		t.Errorf("Login(nil) error = %v, want configuration error", err)
	}
}

func TestLoginURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"ws://localhost:8080/messaging/test", "http://localhost:8080/authentication/sign_in"},
		{"wss://octane.example.com/messaging/x?a=b", "https://octane.example.com/authentication/sign_in"},
		{"wss://[::1]:8443/m", "https://[::1]:8443/authentication/sign_in"},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.endpoint)
		if err != nil {
			t.Fatal(err)
		}
		got, err := loginURL(u)
		if err != nil {
			t.Fatalf("loginURL(%s) error = %v", tt.endpoint, err)
		}
		if got != tt.want {
			t.Errorf("loginURL(%s) = %s, want %s", tt.endpoint, got, tt.want)
		}
	}

	if _, err := loginURL(&url.URL{Scheme: "http", Host: "x"}); err == nil {
		t.Error("expected error for http scheme")
	}
}

func TestFindAuthCookie(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    string
		found   bool
	}{
		{"none", nil, "", false},
		{"first match wins", []string{"LWSSO_COOKIE_KEY=one", "LWSSO_COOKIE_KEY=two"}, "one", true},
		{"spaces trimmed", []string{"a=b ;  LWSSO_COOKIE_KEY = tok ; Path=/"}, "tok", true},
		{"empty value skipped", []string{"LWSSO_COOKIE_KEY=;LWSSO_COOKIE_KEY=real"}, "real", true},
		{"case sensitive name", []string{"lwsso_cookie_key=tok"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, found := findAuthCookie(tt.headers)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if found && token.Value != tt.want {
				t.Errorf("value = %s, want %s", token.Value, tt.want)
			}
		})
	}
}

func TestProxyURL(t *testing.T) {
	build := func(proxy, user, pass string) *ClientContext {
		cc, err := validBuilder().SetProxy(proxy, user, pass).Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		return cc
	}

	if u := proxyURL(build("", "", "")); u != nil {
		t.Errorf("proxyURL() = %v, want direct", u)
	}
	if u := proxyURL(build("proxy-without-scheme", "", "")); u != nil {
		t.Errorf("proxyURL() = %v, want direct for host-less URL", u)
	}
	if u := proxyURL(build("http://%zz", "", "")); u != nil {
		t.Errorf("proxyURL() = %v, want direct for unparsable URL", u)
	}

	u := proxyURL(build("http://proxy:3128", "user", "p@ss"))
	if u == nil || u.Host != "proxy:3128" {
		t.Fatalf("proxyURL() = %v", u)
	}
	if pass, _ := u.User.Password(); u.User.Username() != "user" || pass != "p@ss" {
		t.Errorf("proxy user = %v", u.User)
	}

	u = proxyURL(build("http://proxy:3128", "", "ignored"))
	if u == nil || u.User != nil {
		t.Errorf("proxyURL() = %v, want no credentials", u)
	}
}

func TestAuthToken_Masked(t *testing.T) {
	token := &AuthToken{Name: AuthCookieName, Value: "abcdef"}
	if got := token.Masked(); got != "LWSSO_COOKIE_KEY=a...f" {
		t.Errorf("Masked() = %s", got)
	}
}
