package httpapi

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// clientIPHeaders are consulted in order before falling back to RemoteAddr.
var clientIPHeaders = []string{"Fly-Client-IP", "X-Forwarded-For", "X-Real-IP"}

// resolveClientIP keys rate limiting and access logs. Unparseable values are skipped.
func resolveClientIP(r *http.Request) string {
	for _, header := range clientIPHeaders {
		if addr, ok := parseClientAddr(firstHop(r.Header.Get(header))); ok {
			return addr.String()
		}
	}
	if addr, ok := parseClientAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return ""
}

func firstHop(value string) string {
	hop, _, _ := strings.Cut(value, ",")
	return hop
}

func parseClientAddr(raw string) (netip.Addr, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = host
	}
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
