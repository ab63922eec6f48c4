package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/app/handler"
)

// WithSubnet lets through only requests whose X-Real-IP lies in cidr.
// An empty cidr disables the check.
func WithSubnet(cidr string, logger *zap.Logger) (func(next http.Handler) http.Handler, error) {
	if cidr == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, err
	}
	prefix = prefix.Masked()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP")))
			if err != nil || !prefix.Contains(ip.Unmap()) {
				logger.Warn("request from untrusted address",
					zap.String("x_real_ip", r.Header.Get("X-Real-IP")),
					zap.String("url", r.URL.Path),
				)
				handler.WriteError(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
