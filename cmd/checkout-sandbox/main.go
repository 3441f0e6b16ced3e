// Checkout-sandbox emulates a payment SDK gateway for local development.
//
// It speaks the same websocket protocol as a real gateway: it initializes an
// order, mounts widgets, accepts customer information and answers payment
// requests with status events after a short delay. Orders whose id starts
// with "fail-" are declined. The sandbox can advertise itself over mDNS so
// 'checkout --discover' finds it without a URL.
//
// Usage:
//
//	checkout-sandbox serve [flags]
//
// See 'checkout-sandbox serve --help' for available options.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/checkout/internal/discovery"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/sandbox"
	"github.com/muurk/checkout/internal/ui"
	"github.com/muurk/checkout/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "checkout-sandbox",
	Short: "Payment SDK gateway sandbox",
	Long: `A local stand-in for the payment SDK gateway.

Point 'checkout --sdk-url' at it, or start it with --advertise and let
'checkout --discover' find it on the local network.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command flags
var (
	host        string
	port        int
	path        string
	publicKey   string
	certPath    string
	keyPath     string
	captureDir  string
	advertise   bool
	instance    string
	statusDelay time.Duration
	logLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sandbox gateway",
	Long: `Start the sandbox gateway and serve until interrupted.

Payments complete after --status-delay. An order id starting with "fail-"
makes every payment fail with a decline message, and a Klarna payment fails
when no customer information was added first.

To record the websocket traffic for later inspection, pass --capture-dir; one
JSON object per frame is written to a capture-*.jsonl file.`,
	Example: `  # Plain websocket on the default port
  checkout-sandbox serve

  # Require a public key and advertise over mDNS
  checkout-sandbox serve --public-key pk_test --advertise

  # Serve wss:// with your own certificate and capture traffic
  checkout-sandbox serve --cert cert.pem --key key.pem --capture-dir ./captures`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", sandbox.DefaultPort, "Listen port")
	serveCmd.Flags().StringVar(&path, "path", discovery.DefaultPath, "Websocket endpoint path")
	serveCmd.Flags().StringVar(&publicKey, "public-key", "", "Reject clients that do not present this public key")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "TLS certificate file (serves wss:// with --key)")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "TLS private key file")
	serveCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Directory to write frame captures (disabled if not specified)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the sandbox over mDNS")
	serveCmd.Flags().StringVar(&instance, "instance", sandbox.DefaultInstance, "mDNS instance name")
	serveCmd.Flags().DurationVar(&statusDelay, "status-delay", sandbox.DefaultStatusDelay, "Delay before the final payment status")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if (certPath == "") != (keyPath == "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}

	if captureDir != "" {
		info, err := os.Stat(captureDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("capture directory does not exist: %s", captureDir)
		}
		if err != nil {
			return fmt.Errorf("cannot access capture directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("capture path is not a directory: %s", captureDir)
		}
	}

	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	srv, err := sandbox.New(&sandbox.Config{
		Host:        host,
		Port:        port,
		Path:        path,
		PublicKey:   publicKey,
		CertPath:    certPath,
		KeyPath:     keyPath,
		CaptureDir:  captureDir,
		Advertise:   advertise,
		Instance:    instance,
		StatusDelay: statusDelay,
	})
	if err != nil {
		return fmt.Errorf("failed to create sandbox: %w", err)
	}

	scheme := "ws"
	if certPath != "" {
		scheme = "wss"
	}
	listen := net.JoinHostPort(host, strconv.Itoa(port))
	capture := "off"
	if captureDir != "" {
		capture = captureDir
	}
	mdns := "off"
	if advertise {
		mdns = instance + "." + discovery.ServiceType
	}
	fmt.Println(ui.NewHeader("Sandbox", "checkout-sandbox serve",
		ui.Param{Key: "URL", Value: scheme + "://" + listen + path},
		ui.Param{Key: "Public key", Value: orNone(publicKey)},
		ui.Param{Key: "Status delay", Value: statusDelay.String()},
		ui.Param{Key: "Capture", Value: capture},
		ui.Param{Key: "mDNS", Value: mdns},
	).Render())

	return srv.Start()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Details("checkout-sandbox"))
	},
}
