package config

import (
	"time"

	"github.com/muurk/checkout/internal/checkout"
	"github.com/muurk/checkout/internal/sdk"
)

// CurrentVersion is the settings file format version
const CurrentVersion = 1

// Settings represents the entire settings file.
type Settings struct {
	Version   int               `yaml:"version"`
	SDK       SDKSettings       `yaml:"sdk"`
	Session   SessionSettings   `yaml:"session,omitempty"`
	Widgets   sdk.MountTargets  `yaml:"widgets"`
	UI        UISettings        `yaml:"ui"`
	Discovery DiscoverySettings `yaml:"discovery"`
}

// SDKSettings locate the payment SDK gateway.
type SDKSettings struct {
	URL       string `yaml:"url,omitempty"`        // Gateway websocket URL (ws:// or wss://)
	PublicKey string `yaml:"public_key,omitempty"` // Merchant public key
}

// SessionSettings identify one checkout session.
type SessionSettings struct {
	OrderID string `yaml:"order_id,omitempty"`
	Nonce   string `yaml:"nonce,omitempty"`
}

// UISettings tune the terminal checkout.
type UISettings struct {
	NoticeDuration time.Duration `yaml:"notice_duration"`    // How long transient error notices stay visible
	LogFile        string        `yaml:"log_file,omitempty"` // Where zap writes while the TUI owns the terminal
}

// DiscoverySettings control mDNS gateway lookup.
type DiscoverySettings struct {
	Auto    bool          `yaml:"auto"`    // Look up a gateway when no URL is configured
	Timeout time.Duration `yaml:"timeout"` // mDNS browse timeout
}

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: CurrentVersion,
		Widgets: sdk.DefaultMountTargets(),
		UI: UISettings{
			NoticeDuration: checkout.NoticeDuration,
		},
		Discovery: DiscoverySettings{
			Auto:    true,
			Timeout: 3 * time.Second,
		},
	}
}

// CheckoutConfig converts the settings into a checkout configuration.
func (s *Settings) CheckoutConfig() checkout.Config {
	return checkout.Config{
		Session: checkout.Session{
			PublicKey: s.SDK.PublicKey,
			OrderID:   s.Session.OrderID,
			Nonce:     s.Session.Nonce,
		},
		Targets:        s.Widgets,
		NoticeDuration: s.UI.NoticeDuration,
	}
}

// fillDefaults replaces zero values that have a default.
func (s *Settings) fillDefaults() {
	def := NewSettings()
	if s.Widgets.Card == "" {
		s.Widgets.Card = def.Widgets.Card
	}
	if s.Widgets.ApplePay == "" {
		s.Widgets.ApplePay = def.Widgets.ApplePay
	}
	if s.Widgets.GooglePay == "" {
		s.Widgets.GooglePay = def.Widgets.GooglePay
	}
	if s.UI.NoticeDuration == 0 {
		s.UI.NoticeDuration = def.UI.NoticeDuration
	}
	if s.Discovery.Timeout == 0 {
		s.Discovery.Timeout = def.Discovery.Timeout
	}
}
