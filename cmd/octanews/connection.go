package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/octanews/internal/config"
	"github.com/muurk/octanews/internal/wsclient"
)

// Connection flags shared by login, send and connect
var (
	endpointURL   string
	clientID      string
	clientSecret  string
	askSecret     bool
	proxyURL      string
	proxyUser     string
	proxyPassword string
	headerFlags   []string
	insecure      bool
)

func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&endpointURL, "endpoint", "", "WebSocket endpoint URL (ws:// or wss://)")
	cmd.Flags().StringVar(&clientID, "client", "", "Client ID used to sign in")
	cmd.Flags().StringVar(&clientSecret, "secret", "", "Client secret (prefer --ask-secret or "+config.SecretEnvVar+")")
	cmd.Flags().BoolVar(&askSecret, "ask-secret", false, "Prompt for the client secret")
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "HTTP proxy URL for sign-in and upgrade")
	cmd.Flags().StringVar(&proxyUser, "proxy-user", "", "Proxy username")
	cmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification (for 'simulate --tls')")
	cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Extra upgrade header as key=value (repeatable)")
}

// applyConnectionFlags overrides file settings with the flags the user set
func applyConnectionFlags(cmd *cobra.Command, f *config.File) error {
	flags := cmd.Flags()

	if flags.Changed("endpoint") {
		f.Endpoint = endpointURL
	}
	if flags.Changed("client") {
		f.Client = clientID
	}
	if flags.Changed("secret") {
		f.Secret = clientSecret
	}
	if flags.Changed("proxy") || flags.Changed("proxy-user") || flags.Changed("proxy-password") {
		if f.Proxy == nil {
			f.Proxy = &config.Proxy{}
		}
		if flags.Changed("proxy") {
			f.Proxy.URL = proxyURL
		}
		if flags.Changed("proxy-user") {
			f.Proxy.Username = proxyUser
		}
		if flags.Changed("proxy-password") {
			f.Proxy.Password = proxyPassword
		}
	}

	if len(headerFlags) > 0 {
		headers, err := parseHeaders(headerFlags)
		if err != nil {
			return err
		}
		if f.Headers == nil {
			f.Headers = make(map[string]string)
		}
		for k, v := range headers {
			f.Headers[k] = v
		}
	}
	return nil
}

// parseHeaders parses key=value pairs
func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q: expected key=value", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

func promptSecret() (string, error) {
	fmt.Fprint(os.Stderr, "Client secret: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return string(secret), nil
}

// clientContext merges flags into the loaded settings and builds the context
func clientContext(cmd *cobra.Command) (*wsclient.ClientContext, error) {
	if err := applyConnectionFlags(cmd, settings); err != nil {
		return nil, err
	}
	if askSecret {
		secret, err := promptSecret()
		if err != nil {
			return nil, err
		}
		settings.Secret = secret
	}
	return settings.ClientContext()
}

// clientOptions returns the keep-alive settings plus the TLS override
func clientOptions() []wsclient.ClientOption {
	opts := settings.ClientOptions()
	if insecure {
		opts = append(opts, wsclient.WithLoginTLSConfig(insecureTLSConfig()))
	}
	return opts
}

// login signs in, skipping certificate verification with --insecure
func login(ctx context.Context, cc *wsclient.ClientContext) (*wsclient.AuthToken, error) {
	if insecure {
		return wsclient.LoginWithClient(ctx, cc, wsclient.NewLoginClient(cc, insecureTLSConfig()))
	}
	return wsclient.Login(ctx, cc)
}

// newService returns the shared service, or a dedicated one skipping
// certificate verification
func newService() *wsclient.Service {
	if insecure {
		return wsclient.NewService(wsclient.WithTLSConfig(insecureTLSConfig()))
	}
	return wsclient.Default()
}

func insecureTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
}
