package network

import (
	"context"
	"net"
	"sync"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

const (
	SourceInterfaces = "interfaces"
	SourceSTUN       = "stun"
)

// LookupFunc produces a host address. It is called until it succeeds once.
type LookupFunc func(ctx context.Context) (string, error)

// Resolver memoizes the first successful lookup for the lifetime of the
// process. Failed lookups are not remembered, so the next call retries.
type Resolver struct {
	source string
	lookup LookupFunc

	mu   sync.Mutex
	addr string
}

func NewResolver(source string, lookup LookupFunc) *Resolver {
	return &Resolver{source: source, lookup: lookup}
}

// NewInterfaceResolver resolves the first non-internal IPv4 address reported
// by enumerate.
func NewInterfaceResolver(enumerate Enumerator) *Resolver {
	if enumerate == nil {
		enumerate = SystemInterfaces
	}
	return NewResolver(SourceInterfaces, func(context.Context) (string, error) {
		ifaces, err := enumerate()
		if err != nil {
			return "", err
		}
		return FirstExternalIPv4(ifaces)
	})
}

func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.addr != "" {
		return r.addr, nil
	}

	addr, err := r.lookup(ctx)
	if err != nil {
		return "", domain.ResolutionError{Source: r.source, Err: err}
	}
	if addr == "" {
		return "", domain.ResolutionError{Source: r.source, Err: domain.ErrNoIPv4Address}
	}
	r.addr = addr
	return addr, nil
}

// Address is one entry of an interface's address list.
type Address struct {
	Family   string
	Internal bool
	Address  string
}

// Interface is a named network interface with its addresses in OS order.
type Interface struct {
	Name      string
	Addresses []Address
}

// Enumerator lists host interfaces in OS order.
type Enumerator func() ([]Interface, error)

const (
	FamilyIPv4 = "IPv4"
	FamilyIPv6 = "IPv6"
)

// FirstExternalIPv4 flattens ifaces and returns the first IPv4 address that
// does not belong to an internal interface.
func FirstExternalIPv4(ifaces []Interface) (string, error) {
	for _, iface := range ifaces {
		for _, a := range iface.Addresses {
			if a.Family == FamilyIPv4 && !a.Internal && a.Address != "" {
				return a.Address, nil
			}
		}
	}
	return "", domain.ErrNoIPv4Address
}

// SystemInterfaces enumerates the host interfaces via the net package.
// Interfaces that are not both up and running are left out.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if entry, ok := interfaceFrom(iface, addrs); ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

const upAndRunning = net.FlagUp | net.FlagRunning

// interfaceFrom maps a net.Interface and its addresses. It reports false
// for interfaces without carrier, such as an idle docker0 bridge.
func interfaceFrom(iface net.Interface, addrs []net.Addr) (Interface, bool) {
	if iface.Flags&upAndRunning != upAndRunning {
		return Interface{}, false
	}
	internal := iface.Flags&net.FlagLoopback != 0

	entry := Interface{Name: iface.Name}
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		default:
			continue
		}

		family := FamilyIPv6
		if ip.To4() != nil {
			family = FamilyIPv4
		}
		entry.Addresses = append(entry.Addresses, Address{
			Family:   family,
			Internal: internal,
			Address:  ip.String(),
		})
	}
	return entry, true
}
