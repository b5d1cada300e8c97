// Package httpclient provides an outbound HTTP client hardened against
// requests escaping into private address space. Cloud AI endpoints are
// the only hosts storygraph dials over the public internet; redirects
// and DNS answers pointing anywhere else are refused.
package httpclient

import (
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"github.com/teranos/storygraph/errors"
)

const maxRedirects = 5

// Guarded is an http.Client whose dials are restricted to public
// unicast addresses. The check runs on the address actually being
// connected to, after DNS resolution, so a hostname that re-resolves to
// a private address between validation and dialing cannot slip through.
type Guarded struct {
	inner *http.Client
}

// New returns a Guarded client with the given total-request timeout.
func New(timeout time.Duration) *Guarded {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   refuseNonPublic,
	}
	return &Guarded{
		inner: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.Newf("stopped after %d redirects", maxRedirects)
				}
				if req.URL.Scheme != "https" {
					return errors.Newf("refusing redirect to %s URL", req.URL.Scheme)
				}
				return nil
			},
		},
	}
}

// Do sends the request. Only http and https URLs with a host are
// accepted; the address restriction itself applies at dial time.
func (g *Guarded) Do(req *http.Request) (*http.Response, error) {
	if req.URL == nil || req.URL.Hostname() == "" {
		return nil, errors.New("request has no host")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, errors.Newf("unsupported URL scheme %q", req.URL.Scheme)
	}
	return g.inner.Do(req)
}

// refuseNonPublic is the dialer Control hook. It rejects loopback,
// RFC 1918 ranges, link-local (which covers the 169.254.169.254 cloud
// metadata endpoint), multicast, and unspecified addresses.
func refuseNonPublic(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return errors.Wrapf(err, "parsing dial address %q", address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return errors.Wrapf(err, "parsing dial host %q", host)
	}
	if !publicUnicast(addr) {
		return errors.Newf("refusing to dial non-public address %s", addr)
	}
	return nil
}

func publicUnicast(addr netip.Addr) bool {
	// 4-in-6 mapped addresses classify by their embedded IPv4 value
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() {
		return false
	}
	if addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsMulticast() {
		return false
	}
	return addr.IsValid()
}
