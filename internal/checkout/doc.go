// Package checkout drives a payment SDK from "script loaded" to "ready to
// accept payment" and relays what the SDK reports back to the customer.
//
// # Components
//
//   - Controller: the one-time lifecycle. On the ready signal it registers
//     the relay's callbacks, initializes the SDK, then mounts the widgets,
//     each step awaited before the next. It is the only code that calls
//     Initialize or Mount.
//   - Relay: turns SDK error and payment status events into the visible
//     state (error notice, payment outcome) and the event log.
//   - Submitter: shapes customer details into the SDK payload and starts
//     payments.
//
// Checkout bundles the three with an event log:
//
//	co := checkout.New(checkout.Config{Session: session, Targets: sdk.DefaultMountTargets()})
//	defer co.Close()
//	co.Start(ctx, remote.NewLoader(url, publicKey))
//	co.Submitter.InitiatePayment(sdk.MethodCard)
//
// # Readiness
//
//	NotLoaded -> Loaded -> Initializing -> Initialized
//	    |                       |
//	    +-----> MountFailed <---+
//
// Transitions only move forward. MountFailed is terminal for the process;
// later ready signals are ignored.
package checkout
