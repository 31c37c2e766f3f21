package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muurk/octanews/internal/wsclient"
)

const (
	appName    = "octanews"
	configFile = "config.yaml"

	// SecretEnvVar overrides the secret stored in the file
	SecretEnvVar = "OCTANEWS_SECRET"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/octanews or $HOME/.config/octanews
//   - macOS: $HOME/.config/octanews
//   - Windows: %LOCALAPPDATA%\octanews
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration file at path. An empty path means the
// default location. A missing file yields Default().
func Load(path string) (*File, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return withEnv(Default()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if f.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", f.Version, CurrentVersion)
	}
	if f.Headers == nil {
		f.Headers = make(map[string]string)
	}
	if f.KeepAlive == nil {
		f.KeepAlive = Default().KeepAlive
	}

	return withEnv(f), nil
}

func withEnv(f *File) *File {
	if secret := os.Getenv(SecretEnvVar); secret != "" {
		f.Secret = secret
	}
	return f
}

// Save writes the configuration to path (empty means the default location).
// Performs an atomic write to prevent corruption on crash.
func (f *File) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if f.Version == 0 {
		f.Version = CurrentVersion
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# octanews configuration file
# Describes the messaging endpoint, client credentials and keep-alive policy.
#
# Security Note: this file may contain the client secret. Keep it private,
# or leave the secret out and set ` + SecretEnvVar + ` instead.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// ClientContext builds the connection configuration described by the file
func (f *File) ClientContext() (*wsclient.ClientContext, error) {
	b := wsclient.NewBuilder().
		SetEndpointURL(f.Endpoint).
		SetClient(f.Client).
		SetSecret(f.Secret)

	if f.Proxy != nil && f.Proxy.URL != "" {
		b.SetProxy(f.Proxy.URL, f.Proxy.Username, f.Proxy.Password)
	}
	if f.Headers != nil {
		b.SetCustomHeaders(f.Headers)
	}

	return b.Build()
}

// ClientOptions returns the keep-alive options described by the file
func (f *File) ClientOptions() []wsclient.ClientOption {
	if f.KeepAlive == nil {
		return nil
	}
	return []wsclient.ClientOption{
		wsclient.WithKeepAliveInterval(f.KeepAlive.Interval),
		wsclient.WithRetryBackoff(f.KeepAlive.RetryBackoff),
		wsclient.WithMaxReconnectAttempts(f.KeepAlive.MaxReconnectAttempts),
	}
}
