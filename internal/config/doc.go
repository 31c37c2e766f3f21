// Package config manages the octanews YAML configuration file.
//
// The file describes one messaging endpoint: its URL, the client
// credentials, an optional proxy, custom upgrade headers and the keep-alive
// policy. CLI flags override values loaded from the file.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/octanews/config.yaml or $HOME/.config/octanews/config.yaml
//   - macOS: $HOME/.config/octanews/config.yaml
//   - Windows: %LOCALAPPDATA%\octanews\config.yaml
//
// # Example
//
//	version: 1
//	endpoint: wss://octane.example.com/messaging/shared_spaces/1001/webhooks
//	client: api_client_id
//	secret: api_client_secret
//	proxy:
//	  url: http://proxy.example.com:3128
//	headers:
//	  X-Tenant: "1001"
//	keep_alive:
//	  interval: 1s
//	  retry_backoff: 3s
//	  max_reconnect_attempts: 0
//	log_level: info
//
// # Security
//
// The file may hold the client secret, so it is written with 0600
// permissions. The secret can also be supplied through OCTANEWS_SECRET.
package config
