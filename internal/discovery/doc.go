// Package discovery locates messaging endpoints on the local network via mDNS.
//
// Endpoints advertise themselves with the "_octane-ws._tcp" service type.
// TXT records carry the messaging path ("path=/messaging/test") and the
// WebSocket scheme ("scheme=ws" or "scheme=wss"), so a browser can build the
// endpoint URL without further configuration. The simulate command advertises
// the local simulator this way; the discover command lists what it finds.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 3 * time.Second
//	endpoints, err := scanner.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, ep := range endpoints {
//	    fmt.Println(ep.Instance, ep.URL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Endpoints must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
