package ping

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Resolver performs forward and reverse lookups. *net.Resolver
// implements it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// resolveIPv4 returns the first IPv4 address of host. Literal addresses
// are taken as they are.
func resolveIPv4(ctx context.Context, r Resolver, host string) (netip.Addr, error) {
	host = strings.TrimSpace(host)

	if ip, err := netip.ParseAddr(host); err == nil {
		ip = ip.Unmap()
		if !ip.Is4() {
			return netip.Addr{}, &DNSError{Host: host, Err: errNoIPv4}
		}
		return ip, nil
	}

	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return netip.Addr{}, &DNSError{Host: host, Err: err}
	}
	for _, a := range addrs {
		if ip, ok := netip.AddrFromSlice(a.IP); ok {
			if ip = ip.Unmap(); ip.Is4() {
				return ip, nil
			}
		}
	}

	return netip.Addr{}, &DNSError{Host: host, Err: errNoIPv4}
}

// reverseCache holds the reverse DNS names of a run's targets, looked up
// once before the first probe.
type reverseCache struct {
	resolver Resolver
	timeout  time.Duration
	names    map[netip.Addr]string
	mtx      sync.RWMutex
}

func newReverseCache(r Resolver, timeout time.Duration) *reverseCache {
	return &reverseCache{
		resolver: r,
		timeout:  timeout,
		names:    make(map[netip.Addr]string),
	}
}

// prefetch resolves addrs concurrently, each lookup bounded by the
// timeout. Failures are remembered as empty names.
func (c *reverseCache) prefetch(ctx context.Context, addrs []netip.Addr) {
	var g errgroup.Group
	g.SetLimit(resolveConcurrency)

	for _, addr := range addrs {
		addr := addr
		g.Go(func() error {
			name := c.lookup(ctx, addr)
			c.mtx.Lock()
			c.names[addr] = name
			c.mtx.Unlock()
			return nil
		})
	}
	g.Wait()
}

func (c *reverseCache) lookup(ctx context.Context, addr netip.Addr) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	names, err := c.resolver.LookupAddr(ctx, addr.String())
	if err != nil {
		log.Infof("reverse lookup of %v failed: %v", addr, err)
		return ""
	}
	if len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}

// name returns the cached name of addr, or an empty string.
func (c *reverseCache) name(addr netip.Addr) string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.names[addr]
}
