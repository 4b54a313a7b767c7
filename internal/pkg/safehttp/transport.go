// Package safehttp provides an outbound HTTP client for calls to public APIs.
package safehttp

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// DefaultTimeout bounds a whole request made with NewClient.
const DefaultTimeout = 30 * time.Second

// ErrPrivateAddress is returned when a dial targets a non-public address.
var ErrPrivateAddress = errors.New("safehttp: private address denied")

// NewClient returns a client whose connections are refused when the resolved
// address is loopback, private, or link-local. A zero timeout means DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(),
	}
}

// NewTransport returns a clone of http.DefaultTransport with the public address guard installed.
func NewTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   guard,
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = dialer.DialContext
	return t
}

// guard runs after name resolution and before connect.
func guard(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("safehttp: unparseable address %q", address)
	}
	if !Public(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, ip)
	}
	return nil
}

// Public reports whether ip is routable on the public internet.
func Public(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified())
}
