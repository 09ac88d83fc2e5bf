// Package discovery finds Plugwise Smile gateways on the local network via mDNS.
//
// Gateways advertise the "_plugwise._tcp" service with a hostname of the form
// "smileXXXXXX.local", where XXXXXX is the hex Smile ID. The password of an
// Anna gateway is the 8-character Smile ID printed on its label, which is
// longer than the hostname suffix, so discovery never yields credentials.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 5 * time.Second
//	gateways, err := scanner.ScanForGatewaysWithContext(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, gw := range gateways {
//	    fmt.Printf("Found %s (%s %s)\n", gw, gw.Product(), gw.Version())
//	}
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Gateways must be on the same local network segment
//   - Firewall must allow mDNS (UDP port 5353)
package discovery
