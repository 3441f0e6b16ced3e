package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/checkout/internal/config"
	"github.com/muurk/checkout/internal/discovery"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/ui"
)

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd, configGetCmd, configSetCmd)
	sdkCmd.AddCommand(sdkDiscoverCmd)
	rootCmd.AddCommand(configCmd, sdkCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the checkout config file",
}

var forceInit bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Example: `  # Create the default config file
  checkout config init

  # Replace an existing file without asking
  checkout config init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFile()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("%s exists. Overwrite?", path)) {
				return nil
			}
		}

		if err := config.NewSettings().Save(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.NewSuccessResult("Config written",
			ui.Param{Key: "Path", Value: path},
		).Render())
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings (file plus environment)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFile()
		if err != nil {
			return err
		}
		settings, err := config.Load(path)
		if err != nil {
			return err
		}
		settings.ApplyEnv(os.LookupEnv)

		params := make([]ui.Param, 0, len(config.Keys()))
		for _, key := range config.Keys() {
			value, _ := settings.Get(key)
			if value == "" {
				value = "(unset)"
			}
			params = append(params, ui.Param{Key: key, Value: value})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.NewHeader("Settings", path, params...).Render())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFile()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Print one setting",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(configPath)
		if err != nil {
			return err
		}
		value, err := settings.Get(args[0])
		if err != nil {
			return unknownKey(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save the file",
	Example: `  checkout config set sdk.url ws://127.0.0.1:8787/sdk
  checkout config set sdk.public_key pk_test
  checkout config set ui.notice_duration 8s`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFile()
		if err != nil {
			return err
		}
		settings, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := settings.Set(args[0], args[1]); err != nil {
			return unknownKey(err)
		}
		if err := settings.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

func configFile() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func unknownKey(err error) error {
	if errors.Is(err, config.ErrUnknownKey) {
		return fmt.Errorf("%w (known keys: %v)", err, config.Keys())
	}
	return err
}

var sdkCmd = &cobra.Command{
	Use:   "sdk",
	Short: "Inspect payment SDK gateways",
}

var (
	discoverTimeout time.Duration
	discoverSave    bool
)

var sdkDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan the local network for SDK gateways",
	Long: `Scan for SDK gateways advertised over mDNS (_checkout-sdk._tcp).

A sandbox started with 'checkout-sandbox serve --advertise' shows up here.
With --save the first gateway found becomes sdk.url in the config file.`,
	Example: `  checkout sdk discover
  checkout sdk discover --timeout 10s --save`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	sdkDiscoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for answers")
	sdkDiscoverCmd.Flags().BoolVar(&discoverSave, "save", false, "Save the first gateway as sdk.url")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning for SDK gateways (timeout: %s)...\n\n", discoverTimeout)

	scanner := &discovery.Scanner{Timeout: discoverTimeout}
	gateways, err := scanner.FindGateways(context.Background())
	if err != nil {
		fmt.Fprintln(out, ui.NewFailureResult("Gateway scan failed", err,
			"Check that multicast traffic is allowed on this network",
			"Pass the gateway with --sdk-url instead",
		).Render())
		return err
	}

	if len(gateways) == 0 {
		fmt.Fprintln(out, ui.NewWarningResult("No gateways found").Render())
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Start a sandbox with 'checkout-sandbox serve --advertise'")
		fmt.Fprintln(out, "  - Try increasing --timeout for slower networks")
		return nil
	}

	for _, g := range gateways {
		r := ui.NewSuccessResult(g.Instance,
			ui.Param{Key: "URL", Value: g.URL()},
			ui.Param{Key: "Host", Value: g.Host},
		)
		if v := g.GetMetadata("version"); v != "" {
			r.AddDetail("Version", v)
		}
		if env := g.GetMetadata("env"); env != "" {
			r.AddDetail("Environment", env)
		}
		fmt.Fprintln(out, r.Render())
	}

	if !discoverSave {
		return nil
	}

	path, err := configFile()
	if err != nil {
		return err
	}
	settings, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := settings.Set("sdk.url", gateways[0].URL()); err != nil {
		return err
	}
	if err := settings.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSaved sdk.url = %s to %s\n", gateways[0].URL(), path)
	return nil
}
