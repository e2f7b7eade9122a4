// Package security provides request hygiene middleware.
package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Config holds the configuration for security middleware
type Config struct {
	// FilterEnabled enables the scanner and traversal filter
	FilterEnabled bool
	// MaxQueryBytes caps the raw query string length; 0 disables the check
	MaxQueryBytes int
	// PassthroughParams are query parameters left to the handlers. Their
	// values are neither filtered nor counted against MaxQueryBytes.
	PassthroughParams []string
}

func (c Config) passthrough(key string) bool {
	for _, p := range c.PassthroughParams {
		if p == key {
			return true
		}
	}
	return false
}

// checkedQuery returns the raw query pairs the middleware inspects, with
// passthrough parameters removed.
func (c Config) checkedQuery(rawQuery string) []string {
	if rawQuery == "" {
		return nil
	}
	pairs := strings.Split(rawQuery, "&")
	if len(c.PassthroughParams) == 0 {
		return pairs
	}

	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if c.passthrough(key) {
			continue
		}
		kept = append(kept, pair)
	}
	return kept
}

// exemptPaths are never filtered
var exemptPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/healthz": true,
	"/readyz":  true,
}

// blockedPathPrefixes are path prefixes that indicate scanner traffic
var blockedPathPrefixes = []string{
	"/.php",
	"/wp-admin",
	"/wp-includes",
	"/wp-content",
	"/wp-login",
	"/.git/",
	"/.env",
	"/web-inf/",
	"/cgi-bin/",
	"/admin/",
	"/phpmyadmin",
	"/phpinfo",
	"/shell",
	"/config.",
	"/.htaccess",
	"/.htpasswd",
	"/server-status",
	"/xmlrpc.php",
}

// blockedPatterns indicate traversal or injection attempts anywhere in the
// path or query
var blockedPatterns = []string{
	"../",
	"..%2f",
	"..%5c",
	"%2e%2e/",
	"%00",
	"\x00",
}

// FilterMiddleware returns middleware that rejects scanner probes and
// traversal attempts with a generic 400.
func FilterMiddleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.FilterEnabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if blocked(r.URL, cfg.checkedQuery(r.URL.RawQuery)) {
				writeError(w, http.StatusBadRequest, "Invalid request")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func blocked(u *url.URL, query []string) bool {
	path := strings.ToLower(u.Path)
	for _, prefix := range blockedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	candidates := []string{path, strings.ToLower(u.EscapedPath())}
	for _, pair := range query {
		candidates = append(candidates, strings.ToLower(pair))
		if decoded, err := url.QueryUnescape(pair); err == nil {
			candidates = append(candidates, strings.ToLower(decoded))
		}
	}
	for _, c := range candidates {
		for _, pattern := range blockedPatterns {
			if strings.Contains(c, pattern) {
				return true
			}
		}
	}
	return false
}

// writeError writes the flat JSON error body used across the API. The message
// never reveals which rule matched.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
