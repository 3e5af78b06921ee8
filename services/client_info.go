package services

import (
	"strings"

	"github.com/crystal-dz/storefront_api/dto"
)

const fallbackClientIP = "127.0.0.1"

// HeaderGetter is satisfied by *fiber.Ctx.
type HeaderGetter interface {
	Get(key string, defaultValue ...string) string
}

// ExtractClientInfo reads the caller identity set by the edge proxy.
// The IP is taken as-is; it is not validated.
func ExtractClientInfo(h HeaderGetter) dto.ClientInfo {
	return dto.ClientInfo{
		IP:             clientIP(h),
		UserAgent:      h.Get("User-Agent"),
		Country:        h.Get("CF-IPCountry"),
		ProxyRequestID: h.Get("CF-Ray"),
	}
}

func clientIP(h HeaderGetter) string {
	if ip := strings.TrimSpace(h.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if forwarded := h.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return fallbackClientIP
}
