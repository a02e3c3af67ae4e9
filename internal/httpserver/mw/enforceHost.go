package mw

import (
	"net/http"

	"github.com/gobwas/glob"

	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/utils"
)

// EnforceHost allows requests only if r.Host matches one of the allowed hosts.
// Patterns are globs ("*.example.com", "localhost:*") and are tried against
// the Host header with and without its port.
// If allowedHosts is empty, it acts as a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	matchers := compileHosts(allowedHosts, log)
	if len(matchers) == 0 {
		log.Debug("EnforceHost: no usable host patterns, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debugf("EnforceHost: initialized with hosts=%v", allowedHosts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matchHost(matchers, r.Host) {
				next.ServeHTTP(w, r)
				return
			}

			log.Debugf("EnforceHost: Host %s REJECTED", r.Host)
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

func compileHosts(patterns []string, log logger.Logger) []glob.Glob {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			log.Warn("EnforceHost: ignoring invalid host pattern",
				logger.String("pattern", p),
				logger.Error(err))
			continue
		}
		matchers = append(matchers, g)
	}
	return matchers
}

func matchHost(matchers []glob.Glob, host string) bool {
	bare := utils.ParseHostNoPort(host)
	for _, g := range matchers {
		if g.Match(host) || (bare != host && g.Match(bare)) {
			return true
		}
	}
	return false
}
