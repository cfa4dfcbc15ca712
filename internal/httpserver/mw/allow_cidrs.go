package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/castplay/internal/logger"
	"github.com/MrSnakeDoc/castplay/internal/utils"
)

// AllowOnlyCIDRS restricts a route to the listed IPs and CIDRs.
// An empty list disables filtering. trustProxy makes the client IP come
// from proxy headers (see utils.ClientIP).
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("AllowOnlyCIDRS: no rules, passthrough")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("request rejected by CIDR filter",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
