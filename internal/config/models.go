package config

import "time"

// CurrentVersion is the configuration schema version written by Save
const CurrentVersion = 1

// File represents the entire configuration file
type File struct {
	Version   int               `yaml:"version"`
	Endpoint  string            `yaml:"endpoint,omitempty"`   // ws:// or wss:// messaging URL
	Client    string            `yaml:"client,omitempty"`     // Client ID used to sign in
	Secret    string            `yaml:"secret,omitempty"`     // Client secret (file is 0600)
	Proxy     *Proxy            `yaml:"proxy,omitempty"`      // Optional HTTP proxy
	Headers   map[string]string `yaml:"headers,omitempty"`    // Extra upgrade request headers
	KeepAlive *KeepAlive        `yaml:"keep_alive,omitempty"` // Keep-alive policy
	LogLevel  string            `yaml:"log_level,omitempty"`  // debug, info, warn, error
}

// Proxy holds the proxy used for sign-in and upgrade
type Proxy struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// KeepAlive holds the keep-alive loop policy
type KeepAlive struct {
	Interval             time.Duration `yaml:"interval"`               // Time between pings
	RetryBackoff         time.Duration `yaml:"retry_backoff"`          // Pause after a failed ping or reconnect
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"` // 0 = never give up
}

// Default returns a configuration with default keep-alive values and no endpoint
func Default() *File {
	return &File{
		Version: CurrentVersion,
		Headers: make(map[string]string),
		KeepAlive: &KeepAlive{
			Interval:     1 * time.Second,
			RetryBackoff: 3 * time.Second,
		},
	}
}

// Example returns a starter configuration for `config init`
func Example() *File {
	f := Default()
	f.Endpoint = "wss://octane.example.com/messaging/shared_spaces/1001/webhooks"
	f.Client = "api_client_id"
	f.LogLevel = "info"
	return f
}
