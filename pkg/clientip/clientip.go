package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Resolver extracts the client address from a request.
//
// Forwarding headers are trusted only when configured: a service exposed
// directly would otherwise let callers pick their own address.
type Resolver struct {
	headers []string
}

// New returns a Resolver that checks the given headers in order before
// falling back to RemoteAddr. Header names are canonicalized.
// X-Forwarded-For is read left to right and its first valid entry wins.
func New(trustedHeaders ...string) *Resolver {
	r := &Resolver{headers: make([]string, 0, len(trustedHeaders))}
	for _, h := range trustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			r.headers = append(r.headers, http.CanonicalHeaderKey(h))
		}
	}
	return r
}

// IP returns the normalized client IP, or "" when none can be parsed.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		for candidate := range strings.SplitSeq(v, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
