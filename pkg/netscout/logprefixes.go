// Package netscout: Log prefix constants for consistent log tagging.
// Consumers can use them in their SetDebugLogger callback, but are free to
// use their own.
package netscout

// Format follows [Component] or [Component:Subcomponent].
const (
	LogPrefixScout  = "[Scout]"
	LogPrefixICMP   = "[Scout:ICMP]"
	LogPrefixIfaces = "[Scout:Ifaces]"
	LogPrefixARP    = "[Scout:ARP]"
	LogPrefixOUI    = "[Scout:OUI]"
	LogPrefixDNS    = "[Scout:DNS]"

	// Debug prefix - use as "[DEBUG][Scout:*]" format
	LogPrefixDebug = "[DEBUG]"
)

// ComponentToPrefix returns the log prefix for a component.
func ComponentToPrefix(c Component) string {
	switch c {
	case ComponentICMP:
		return LogPrefixICMP
	case ComponentIfaces:
		return LogPrefixIfaces
	case ComponentARP:
		return LogPrefixARP
	case ComponentVendor:
		return LogPrefixOUI
	case ComponentDNS:
		return LogPrefixDNS
	default:
		return LogPrefixScout
	}
}
