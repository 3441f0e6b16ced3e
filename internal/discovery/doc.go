// Package discovery finds payment SDK gateways on the local network with
// multicast DNS and lets a gateway announce itself.
//
// Gateways advertise the "_checkout-sdk._tcp" service type. The websocket
// path is carried in the "path" TXT record; other TXT records are exposed as
// metadata.
//
// # Usage Example
//
//	gateways, err := discovery.NewScanner().FindGateways(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, gw := range gateways {
//	    fmt.Println(gw.Instance, gw.URL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Gateways must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
