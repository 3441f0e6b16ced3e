// Package sdk describes the online payments SDK the checkout drives and wraps
// it in a narrow, typed adapter.
//
// The SDK itself is an external collaborator. Handle is its native surface
// (callback registration, initialiseOnlineSDK, mount, and the order API),
// and Loader produces a Handle once the SDK is available. Everything the
// checkout needs goes through Adapter:
//
//	adapter := sdk.NewAdapter(handle)
//	adapter.RegisterErrorCallback(relay.HandleError)
//	adapter.RegisterStatusCallback(relay.HandleStatus)
//	if err := adapter.Initialize(ctx, cfg); err != nil { ... }
//	if err := adapter.Mount(sdk.DefaultMountTargets()); err != nil { ... }
//
// The adapter does not track readiness. Call ordering is the lifecycle
// controller's job (package checkout); the real SDK exposes no introspection
// the adapter could check against.
package sdk
