// Checkout is a terminal checkout form driven by a remote payment SDK.
//
// It loads the SDK from a gateway over a websocket, initializes it for one
// order, mounts the card, Apple Pay and Google Pay widgets and lets the
// customer pay by card or Klarna. Every SDK event is shown in an on-screen
// log that can be copied to the clipboard.
//
// Usage:
//
//	checkout [flags]
//	checkout [command]
//
// Running without a command launches the interactive checkout.
// See 'checkout --help' for available commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/config"
	"github.com/muurk/checkout/internal/discovery"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/sdk"
	"github.com/muurk/checkout/internal/sdk/remote"
	"github.com/muurk/checkout/internal/tui"
	"github.com/muurk/checkout/internal/ui"
	"github.com/muurk/checkout/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Root flags
var (
	configPath string
	sdkURL     string
	publicKey  string
	orderID    string
	nonce      string
	discover   bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Terminal checkout for the online payments SDK",
	Long: `A terminal checkout form for the online payments SDK.

The SDK is loaded from a gateway (ws:// or wss://). Once it is ready the
checkout initializes it with the merchant public key, order id and nonce,
mounts the payment widgets and enables Pay with Card and Pay with Klarna.

Settings come from the config file, then CHECKOUT_* environment variables,
then flags. If no gateway URL is set, --discover scans the local network
for one.`,
	Example: `  # Check out against a local sandbox
  checkout --sdk-url ws://127.0.0.1:8787/sdk --public-key pk_test --order-id o-1 --nonce n-1

  # Find the gateway over mDNS
  checkout --discover --order-id o-1 --nonce n-1

  # Write debug logs to a file while the form is open
  checkout --log-level debug`,
	Version:      version.Version,
	SilenceUsage: true,
	RunE:         runCheckout,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/checkout/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")

	rootCmd.Flags().StringVar(&sdkURL, "sdk-url", "", "SDK gateway URL (ws:// or wss://)")
	rootCmd.Flags().StringVar(&publicKey, "public-key", "", "Merchant public key")
	rootCmd.Flags().StringVar(&orderID, "order-id", "", "Order id of this checkout session")
	rootCmd.Flags().StringVar(&nonce, "nonce", "", "Nonce of this checkout session")
	rootCmd.Flags().BoolVar(&discover, "discover", false, "Scan for a gateway when no SDK URL is set")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Details("checkout"))
	},
}

// loadSettings merges the config file, the environment and changed flags.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	settings.ApplyEnv(os.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("sdk-url") {
		settings.SDK.URL = sdkURL
	}
	if flags.Changed("public-key") {
		settings.SDK.PublicKey = publicKey
	}
	if flags.Changed("order-id") {
		settings.Session.OrderID = orderID
	}
	if flags.Changed("nonce") {
		settings.Session.Nonce = nonce
	}
	if flags.Changed("discover") {
		settings.Discovery.Auto = discover
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// logFilePath returns where zap writes while the TUI owns the terminal.
func logFilePath(settings *config.Settings) string {
	if settings.UI.LogFile != "" {
		return settings.UI.LogFile
	}
	if p := os.Getenv(logging.LogFileEnvVar); p != "" {
		return p
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return os.DevNull
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return os.DevNull
	}
	return filepath.Join(dir, "checkout.log")
}

func runCheckout(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if err := logging.InitializeToFile(logLevel, logFilePath(settings)); err != nil {
		return err
	}
	defer logging.Sync()

	if !ui.IsTerminal() {
		return fmt.Errorf("checkout needs an interactive terminal")
	}

	logging.Info("Starting checkout",
		zap.String("version", version.Full()),
		zap.String("sdk_url", settings.SDK.URL),
		zap.Bool("discover", settings.Discovery.Auto),
	)

	key := settings.SDK.PublicKey
	return tui.Run(tui.Options{
		Checkout:    settings.CheckoutConfig(),
		GatewayURL:  settings.SDK.URL,
		Discover:    settings.Discovery.Auto,
		Finder:      &discovery.Scanner{Timeout: settings.Discovery.Timeout},
		ScanTimeout: settings.Discovery.Timeout,
		NewLoader: func(url string) sdk.Loader {
			return remote.NewLoader(url, key)
		},
	})
}
