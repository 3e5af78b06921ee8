package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeolocation_CountryByIP(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/41.1.1.1":
			_, _ = io.WriteString(w, `{"status":"success","countryCode":"DZ"}`)
		case "/10.0.0.1":
			_, _ = io.WriteString(w, `{"status":"fail","message":"private range"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	svc := NewGeolocationService(server.URL, newTestCache(), server.Client())

	assert.Equal(t, "DZ", svc.CountryByIP(ctx, "41.1.1.1"))
	assert.Equal(t, "DZ", svc.CountryByIP(ctx, "41.1.1.1"))
	assert.Equal(t, int32(1), calls.Load(), "second lookup served from cache")

	assert.Equal(t, CountryUnknown, svc.CountryByIP(ctx, "10.0.0.1"))
	assert.Equal(t, CountryUnknown, svc.CountryByIP(ctx, "8.8.8.8"))
	assert.Equal(t, CountryLocal, svc.CountryByIP(ctx, "127.0.0.1"))
	assert.Equal(t, CountryLocal, svc.CountryByIP(ctx, "::1"))
}
