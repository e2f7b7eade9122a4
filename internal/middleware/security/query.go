package security

import (
	"net/http"
	"strings"
)

// MaxQueryBytesMiddleware rejects requests whose query string, not counting
// passthrough parameters, is longer than cfg.MaxQueryBytes with 414. A
// non-positive limit disables the check.
func MaxQueryBytesMiddleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.MaxQueryBytes <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if queryLen(cfg, r.URL.RawQuery) > cfg.MaxQueryBytes {
				writeError(w, http.StatusRequestURITooLong, "Request URI too long")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func queryLen(cfg Config, rawQuery string) int {
	if len(cfg.PassthroughParams) == 0 {
		return len(rawQuery)
	}
	return len(strings.Join(cfg.checkedQuery(rawQuery), "&"))
}
