package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type headers map[string]string

func (h headers) Get(key string, defaultValue ...string) string {
	if v, ok := h[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func TestExtractClientInfo_IPPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		headers headers
		want    string
	}{
		{"cloudflare wins", headers{"CF-Connecting-IP": "41.1.1.1", "X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.2"}, "41.1.1.1"},
		{"first forwarded entry", headers{"X-Forwarded-For": " 105.2.3.4 , 10.0.0.1", "X-Real-IP": "10.0.0.2"}, "105.2.3.4"},
		{"real ip", headers{"X-Real-IP": "10.0.0.2"}, "10.0.0.2"},
		{"fallback", headers{}, "127.0.0.1"},
		{"not validated", headers{"CF-Connecting-IP": "not-an-ip"}, "not-an-ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractClientInfo(tt.headers).IP)
		})
	}
}

func TestExtractClientInfo_Fields(t *testing.T) {
	info := ExtractClientInfo(headers{
		"CF-Connecting-IP": "41.1.1.1",
		"User-Agent":       "Mozilla/5.0",
		"CF-IPCountry":     "DZ",
		"CF-Ray":           "8a1b2c3d4e5f-ALG",
	})

	assert.Equal(t, "Mozilla/5.0", info.UserAgent)
	assert.Equal(t, "DZ", info.Country)
	assert.Equal(t, "8a1b2c3d4e5f-ALG", info.ProxyRequestID)
}
