package mw

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/castplay/internal/logger"
	"github.com/MrSnakeDoc/castplay/internal/utils"
)

// EnforceHost accepts a request only when its Host header matches one of
// allowedHosts. Patterns may carry a port and "*.example.com" matches any
// subdomain. An empty list disables the check.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		log.Debug("EnforceHost: no hosts configured, passthrough")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, pattern := range allowedHosts {
				if matchHost(r.Host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("request rejected by host filter",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// matchHost compares case-insensitively. A pattern without a port matches
// the host on any port.
func matchHost(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if _, _, err := net.SplitHostPort(pattern); err != nil {
		host = utils.HostOnly(host)
	}
	if host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return false
}
