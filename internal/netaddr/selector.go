// ===== internal/netaddr/selector.go =====
package netaddr

import (
	"net"
	"net/netip"
	"strings"

	"go.uber.org/zap"
)

// Interface is a read-only snapshot of one host interface
type Interface struct {
	Name  string
	Flags net.Flags
	Addrs []netip.Addr
}

func (i Interface) eligible() bool {
	return i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0
}

// Lister enumerates host interfaces in OS order
type Lister func() ([]Interface, error)

// HostInterfaces lists the interfaces of this host via package net
func HostInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		entry := Interface{Name: iface.Name, Flags: iface.Flags}

		addrs, err := iface.Addrs()
		if err != nil {
			zap.S().Debugf("Skipping addresses of %s: %v", iface.Name, err)
			out = append(out, entry)
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if a, ok := netip.AddrFromSlice(ipNet.IP); ok {
				entry.Addrs = append(entry.Addrs, a)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// Selector picks the addresses advertised to the portal
type Selector struct {
	list Lister
}

// NewSelector creates a selector over the given lister; nil means the host
func NewSelector(list Lister) *Selector {
	if list == nil {
		list = HostInterfaces
	}
	return &Selector{list: list}
}

// scan returns the interfaces to inspect. A preferred name that does not
// resolve yields nothing rather than a fallback to other interfaces.
func (s *Selector) scan(preferred string) []Interface {
	ifaces, err := s.list()
	if err != nil {
		zap.S().Debugf("Interface enumeration failed: %v", err)
		return nil
	}

	if preferred == "" {
		var out []Interface
		for _, iface := range ifaces {
			if iface.eligible() {
				out = append(out, iface)
			}
		}
		return out
	}

	for _, iface := range ifaces {
		if strings.EqualFold(iface.Name, preferred) {
			if !iface.eligible() {
				return nil
			}
			return []Interface{iface}
		}
	}
	return nil
}

// IPv4 returns the first non-loopback IPv4 address
func (s *Selector) IPv4(preferred string) (string, bool) {
	for _, iface := range s.scan(preferred) {
		for _, a := range iface.Addrs {
			a = a.Unmap()
			if a.Is4() && !a.IsLoopback() {
				return a.String(), true
			}
		}
	}
	return "", false
}

// IPv6 returns the first global or unique-local IPv6 address, falling back
// to the first link-local one seen.
func (s *Selector) IPv6(preferred string) (netip.Addr, bool) {
	var linkLocal netip.Addr
	for _, iface := range s.scan(preferred) {
		for _, a := range iface.Addrs {
			if !a.Is6() || a.Is4In6() {
				continue
			}
			if a.IsLoopback() || a.IsUnspecified() || a.IsMulticast() {
				continue
			}
			if a.IsLinkLocalUnicast() {
				if !linkLocal.IsValid() {
					linkLocal = a
				}
				continue
			}
			return a, true
		}
	}
	return linkLocal, linkLocal.IsValid()
}
