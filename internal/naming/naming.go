// Package naming provides naming conventions shared by the deployment
// workflow: address formatting for connection hints and temp-file patterns.
package naming

import (
	"fmt"
	"net/netip"
	"strings"
)

// Temp-file patterns for os.CreateTemp. The "*" is replaced with a random suffix.
const (
	LogFilePattern    = "kiln-deploy-*.log"
	SSHKeyFilePattern = "kiln-sshkey-*.pub"
)

// HostFromCIDR strips the network mask from an address.
//
// Example: "10.0.0.50/24" → "10.0.0.50"
//
// Values that do not parse as a prefix are cut at the first "/" so the
// hint still reflects what the user typed.
func HostFromCIDR(cidr string) string {
	cidr = strings.TrimSpace(cidr)
	if prefix, err := netip.ParsePrefix(cidr); err == nil {
		return prefix.Addr().String()
	}
	host, _, _ := strings.Cut(cidr, "/")
	return host
}

// SSHHint returns a ready-to-use ssh command for the new VM.
//
// Example: ("admin", "10.0.0.50/24") → "ssh admin@10.0.0.50"
func SSHHint(user, cidr string) string {
	return fmt.Sprintf("ssh %s@%s", user, HostFromCIDR(cidr))
}
