package mw

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// hostOnly strips an optional port from "ip:port", "[v6]:port" or "ip".
func hostOnly(s string) string {
	s = strings.TrimSpace(s)
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// clientIP resolves the caller address. Behind a trusted proxy the
// CF-Connecting-IP, left-most X-Forwarded-For and X-Real-IP headers are
// consulted in that order before RemoteAddr.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		for _, candidate := range []string{
			r.Header.Get("CF-Connecting-IP"),
			xff,
			r.Header.Get("X-Real-IP"),
		} {
			if ip := hostOnly(candidate); ip != "" {
				return ip
			}
		}
	}
	return hostOnly(r.RemoteAddr)
}

// prefixSet matches addresses against single IPs and CIDR ranges.
type prefixSet []netip.Prefix

func newPrefixSet(entries []string) prefixSet {
	var set prefixSet
	for _, raw := range entries {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			set = append(set, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			set = append(set, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return set
}

func (ps prefixSet) contains(ipStr string) bool {
	a, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range ps {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
