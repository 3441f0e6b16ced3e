package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/checkout/internal/checkout"
	"github.com/muurk/checkout/internal/sdk"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is only used on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg-test", "checkout") {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg-test/checkout", configDir)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewSettings(t *testing.T) {
	s := NewSettings()

	if s.Version != CurrentVersion {
		t.Errorf("Version = %v, want %v", s.Version, CurrentVersion)
	}
	if s.Widgets != sdk.DefaultMountTargets() {
		t.Errorf("Widgets = %+v, want defaults", s.Widgets)
	}
	if s.UI.NoticeDuration != checkout.NoticeDuration {
		t.Errorf("UI.NoticeDuration = %v, want %v", s.UI.NoticeDuration, checkout.NoticeDuration)
	}
	if !s.Discovery.Auto {
		t.Error("Discovery.Auto should be true by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Version != CurrentVersion || s.SDK.URL != "" {
		t.Errorf("Load() of a missing file = %+v, want defaults", s)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := NewSettings()
	s.SDK.URL = "ws://127.0.0.1:8787/sdk"
	s.SDK.PublicKey = "pk_test_123"
	s.Session.OrderID = "ord_1"
	s.UI.NoticeDuration = 3 * time.Second

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temporary file should not remain after Save()")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# Checkout Configuration File") {
		t.Error("saved file should start with the header comment")
	}
	if !strings.Contains(string(data), "notice_duration: 3s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.SDK != s.SDK || loaded.Session != s.Session || loaded.UI != s.UI || loaded.Widgets != s.Widgets {
		t.Errorf("Load() = %+v, want %+v", loaded, s)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "version: [", "failed to parse"},
		{"wrong version", "version: 2\n", "unsupported config version"},
		{"bad url scheme", "version: 1\nsdk:\n  url: http://localhost/sdk\n", "scheme must be ws or wss"},
		{"negative duration", "version: 1\nui:\n  notice_duration: -1s\n", "notice_duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\nwidgets:\n  card: my-card\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := sdk.MountTargets{Card: "my-card", ApplePay: sdk.ApplePayWidgetID, GooglePay: sdk.GooglePayWidgetID}
	if s.Widgets != want {
		t.Errorf("Widgets = %+v, want %+v", s.Widgets, want)
	}
	if s.UI.NoticeDuration != checkout.NoticeDuration {
		t.Errorf("UI.NoticeDuration = %v, want default", s.UI.NoticeDuration)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvSDKURL:  "ws://gateway:8787/sdk",
		EnvOrderID: "ord_env",
		EnvNonce:   "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	s := NewSettings()
	s.SDK.PublicKey = "pk_file"
	s.Session.Nonce = "nonce_file"
	s.ApplyEnv(lookup)

	if s.SDK.URL != "ws://gateway:8787/sdk" {
		t.Errorf("SDK.URL = %q", s.SDK.URL)
	}
	if s.SDK.PublicKey != "pk_file" {
		t.Errorf("SDK.PublicKey = %q, unset variables must not override", s.SDK.PublicKey)
	}
	if s.Session.OrderID != "ord_env" {
		t.Errorf("Session.OrderID = %q", s.Session.OrderID)
	}
	if s.Session.Nonce != "" {
		t.Errorf("Session.Nonce = %q, a set but empty variable overrides", s.Session.Nonce)
	}
}

func TestSettings_GetSet(t *testing.T) {
	s := NewSettings()

	tests := []struct {
		key   string
		value string
	}{
		{"sdk.url", "wss://pay.example.com/sdk"},
		{"sdk.public_key", "pk_live"},
		{"session.order_id", "ord_9"},
		{"session.nonce", "abc"},
		{"widgets.card", "card-slot"},
		{"ui.notice_duration", "2s"},
		{"discovery.auto", "false"},
		{"discovery.timeout", "1s"},
	}

	for _, tt := range tests {
		if err := s.Set(tt.key, tt.value); err != nil {
			t.Fatalf("Set(%s) error = %v", tt.key, err)
		}
		got, err := s.Get(tt.key)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", tt.key, err)
		}
		if got != tt.value {
			t.Errorf("Get(%s) = %q, want %q", tt.key, got, tt.value)
		}
	}
}

func TestSettings_SetErrors(t *testing.T) {
	s := NewSettings()

	if err := s.Set("nope", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(nope) error = %v, want ErrUnknownKey", err)
	}
	if _, err := s.Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(nope) error = %v, want ErrUnknownKey", err)
	}
	if err := s.Set("ui.notice_duration", "soon"); err == nil {
		t.Error("Set() with a bad duration should fail")
	}
	if err := s.Set("sdk.url", "ftp://x"); err == nil {
		t.Error("Set() with a bad URL should fail")
	}
	if s.SDK.URL != "" {
		t.Errorf("a failed Set() must leave settings unchanged, SDK.URL = %q", s.SDK.URL)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != len(fields) {
		t.Fatalf("Keys() has %d entries, want %d", len(keys), len(fields))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Errorf("Keys() not sorted at %d: %v", i, keys)
		}
	}
}

func TestCheckoutConfig(t *testing.T) {
	s := NewSettings()
	s.SDK.PublicKey = "pk"
	s.Session = SessionSettings{OrderID: "o", Nonce: "n"}

	cfg := s.CheckoutConfig()
	if cfg.Session != (checkout.Session{PublicKey: "pk", OrderID: "o", Nonce: "n"}) {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Targets != s.Widgets || cfg.NoticeDuration != s.UI.NoticeDuration {
		t.Errorf("CheckoutConfig() = %+v", cfg)
	}
}
