package scheduler

import (
	"autoauth/internal/netaddr"
	"autoauth/internal/portal"
	"autoauth/pkg/models"
	"autoauth/pkg/utils"
)

// Resolved holds the addresses that go into one login URL
type Resolved struct {
	IPv4        string `json:"ipv4"`
	IPv6        string `json:"ipv6"`
	IPv6Encoded string `json:"ipv6Encoded"`
}

// ResolveAddresses applies the override field by field. A nil field is
// detected from the host; a set field, even "", is used as given.
func ResolveAddresses(ov models.AddressOverride, preferred string, addrs Addresses) Resolved {
	var r Resolved

	if ov.IPv4 != nil {
		r.IPv4 = *ov.IPv4
	} else if ip, ok := addrs.IPv4(preferred); ok {
		r.IPv4 = ip
	}

	if ov.IPv6 != nil {
		r.IPv6 = *ov.IPv6
		r.IPv6Encoded = utils.FormEncode(*ov.IPv6)
	} else if a, ok := addrs.IPv6(preferred); ok {
		r.IPv6 = a.String()
		r.IPv6Encoded = netaddr.EncodeIPv6(a)
	}

	return r
}

// LoginURL encodes the credentials and builds the login URL for r
func LoginURL(base string, creds models.Credentials, r Resolved) string {
	return portal.BuildLoginURL(base,
		utils.FormEncode(creds.Account),
		utils.FormEncode(creds.Password),
		r.IPv4,
		r.IPv6Encoded)
}
