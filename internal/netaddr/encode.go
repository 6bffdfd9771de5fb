package netaddr

import (
	"fmt"
	"net/netip"
	"strings"
)

// EncodeIPv6 writes addr as eight fully expanded lowercase hex groups joined
// by "%3A", the form the gateway expects in wlan_user_ipv6. Anything that is
// not a 16-byte address encodes to "".
func EncodeIPv6(addr netip.Addr) string {
	if !addr.Is6() {
		return ""
	}
	b := addr.As16()
	groups := make([]string, 0, 8)
	for i := 0; i < 16; i += 2 {
		groups = append(groups, fmt.Sprintf("%02x%02x", b[i], b[i+1]))
	}
	return strings.ReplaceAll(strings.Join(groups, ":"), ":", "%3A")
}
