// Package realip resolves the client address of a request, honouring
// X-Forwarded-For only when the immediate peer is a trusted proxy.
package realip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

type contextKey struct{}

// Config holds the configuration for the real IP middleware
type Config struct {
	// TrustProxy enables X-Forwarded-For and X-Real-IP parsing
	TrustProxy bool
	// TrustedProxies lists proxy ranges in CIDR notation; bare IPs are accepted
	TrustedProxies []string
}

// Resolver extracts client addresses for one proxy configuration.
type Resolver struct {
	trustProxy bool
	trusted    []netip.Prefix
}

// NewResolver parses cfg. Entries that are neither a CIDR nor an IP are skipped.
func NewResolver(cfg Config) *Resolver {
	res := &Resolver{trustProxy: cfg.TrustProxy}
	if !cfg.TrustProxy {
		return res
	}
	for _, entry := range cfg.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			res.trusted = append(res.trusted, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			res.trusted = append(res.trusted, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return res
}

// Middleware returns an HTTP middleware that stores the resolved client IP in
// the request context.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	res := NewResolver(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), contextKey{}, res.ClientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the address of the client that sent r.
func (res *Resolver) ClientIP(r *http.Request) string {
	peer := hostOf(r.RemoteAddr)
	if !res.trustProxy || !res.isTrusted(peer) {
		return peer
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
		return peer
	}

	// Walk right to left; the first hop we do not trust is the client.
	hops := strings.Split(xff, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !res.isTrusted(hop) {
			return hop
		}
	}
	if first := strings.TrimSpace(hops[0]); first != "" {
		return first
	}
	return peer
}

func (res *Resolver) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range res.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// GetClientIP retrieves the client IP stored by Middleware, falling back to
// the request's RemoteAddr.
func GetClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(contextKey{}).(string); ok && ip != "" {
		return ip
	}
	return hostOf(r.RemoteAddr)
}
