package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "checkout"
	configFile = "config.yaml"
)

// Environment variables that override the file.
const (
	EnvSDKURL    = "CHECKOUT_SDK_URL"
	EnvPublicKey = "CHECKOUT_PUBLIC_KEY"
	EnvOrderID   = "CHECKOUT_ORDER_ID"
	EnvNonce     = "CHECKOUT_NONCE"
)

// ErrUnknownKey is returned by Get and Set for keys that do not exist.
var ErrUnknownKey = errors.New("unknown settings key")

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the default settings file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// resolvePath returns path, or the default path when path is empty.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	p, err := GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return p, nil
}

// Load reads settings from path (the default location when empty).
// A missing file yields default settings.
func Load(path string) (*Settings, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	settings := NewSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if settings.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", settings.Version, CurrentVersion)
	}
	settings.fillDefaults()

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return settings, nil
}

// ApplyEnv overrides settings from the environment. Pass os.LookupEnv.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSDKURL); ok {
		s.SDK.URL = v
	}
	if v, ok := lookup(EnvPublicKey); ok {
		s.SDK.PublicKey = v
	}
	if v, ok := lookup(EnvOrderID); ok {
		s.Session.OrderID = v
	}
	if v, ok := lookup(EnvNonce); ok {
		s.Session.Nonce = v
	}
}

// Validate checks values that would fail later in a confusing way. Missing
// session values are not an error here; the checkout reports them.
func (s *Settings) Validate() error {
	if s.SDK.URL != "" {
		u, err := url.Parse(s.SDK.URL)
		if err != nil {
			return fmt.Errorf("sdk.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("sdk.url: scheme must be ws or wss, got %q", u.Scheme)
		}
	}
	if s.UI.NoticeDuration < 0 {
		return fmt.Errorf("ui.notice_duration must not be negative")
	}
	if s.Discovery.Timeout < 0 {
		return fmt.Errorf("discovery.timeout must not be negative")
	}
	return nil
}

// Save writes the settings to path (the default location when empty).
// Performs an atomic write to prevent corruption on crash.
func (s *Settings) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	path, err := resolvePath(path)
	if err != nil {
		return err
	}

	// User-only permissions: the file may hold a session nonce
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Checkout Configuration File
# sdk:      where the payment SDK gateway lives and the merchant public key
# session:  order id and nonce of the current checkout (optional)
# widgets:  mount regions for the card, Apple Pay and Google Pay widgets
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// field binds a dotted key to a settings value.
type field struct {
	get func(s *Settings) string
	set func(s *Settings, v string) error
}

func stringField(p func(s *Settings) *string) field {
	return field{
		get: func(s *Settings) string { return *p(s) },
		set: func(s *Settings, v string) error { *p(s) = v; return nil },
	}
}

func durationField(p func(s *Settings) *time.Duration) field {
	return field{
		get: func(s *Settings) string { return p(s).String() },
		set: func(s *Settings, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*p(s) = d
			return nil
		},
	}
}

var fields = map[string]field{
	"sdk.url":            stringField(func(s *Settings) *string { return &s.SDK.URL }),
	"sdk.public_key":     stringField(func(s *Settings) *string { return &s.SDK.PublicKey }),
	"session.order_id":   stringField(func(s *Settings) *string { return &s.Session.OrderID }),
	"session.nonce":      stringField(func(s *Settings) *string { return &s.Session.Nonce }),
	"widgets.card":       stringField(func(s *Settings) *string { return &s.Widgets.Card }),
	"widgets.apple_pay":  stringField(func(s *Settings) *string { return &s.Widgets.ApplePay }),
	"widgets.google_pay": stringField(func(s *Settings) *string { return &s.Widgets.GooglePay }),
	"ui.log_file":        stringField(func(s *Settings) *string { return &s.UI.LogFile }),
	"ui.notice_duration": durationField(func(s *Settings) *time.Duration { return &s.UI.NoticeDuration }),
	"discovery.timeout":  durationField(func(s *Settings) *time.Duration { return &s.Discovery.Timeout }),
	"discovery.auto": {
		get: func(s *Settings) string { return strconv.FormatBool(s.Discovery.Auto) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			s.Discovery.Auto = b
			return nil
		},
	},
}

// Keys returns every settable key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a dotted key such as "sdk.url".
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(s), nil
}

// Set assigns a dotted key and validates the result. On error the settings
// are left unchanged.
func (s *Settings) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	candidate := *s
	if err := f.set(&candidate, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := candidate.Validate(); err != nil {
		return err
	}
	*s = candidate
	return nil
}
