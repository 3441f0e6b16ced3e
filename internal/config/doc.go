// Package config manages the checkout settings file.
//
// Settings are stored as YAML and follow OS-specific conventions for storage
// location:
//   - Linux: $XDG_CONFIG_HOME/checkout/config.yaml or $HOME/.config/checkout/config.yaml
//   - macOS: $HOME/.config/checkout/config.yaml
//   - Windows: %LOCALAPPDATA%\checkout\config.yaml
//
// Values are resolved in three layers: the file, then environment variables
// (CHECKOUT_SDK_URL, CHECKOUT_PUBLIC_KEY, CHECKOUT_ORDER_ID, CHECKOUT_NONCE),
// then command line flags applied by the caller.
//
// # Sessions
//
// The order id and nonce belong to one checkout session. They are only
// written to the file by an explicit `checkout config set`.
//
// # Usage Example
//
//	settings, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	settings.ApplyEnv(os.LookupEnv)
//	c := checkout.New(settings.CheckoutConfig())
package config
