package linkbuilder

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseURI(t *testing.T) {
	for name, tc := range map[string]struct {
		URL            string
		Headers        map[string]string
		TrustForwarded bool
		Expected       string
	}{
		"Plain": {
			URL:      "http://example.com/employees",
			Expected: "http://example.com",
		},
		"TLS": {
			URL:      "https://example.com/employees",
			Expected: "https://example.com",
		},
		"Port": {
			URL:      "http://example.com:8080/employees",
			Expected: "http://example.com:8080",
		},
		"DefaultPort": {
			URL:      "http://example.com:80/employees",
			Expected: "http://example.com",
		},
		"IPv6": {
			URL:      "http://[::1]:8080/employees",
			Expected: "http://[::1]:8080",
		},
		"Untrusted": {
			URL: "http://internal:8080/employees",
			Headers: map[string]string{
				"X-Forwarded-Proto": "https",
				"X-Forwarded-Host":  "api.example.com",
			},
			Expected: "http://internal:8080",
		},
		"Forwarded": {
			URL: "http://internal:8080/employees",
			Headers: map[string]string{
				"X-Forwarded-Proto":  "https",
				"X-Forwarded-Host":   "api.example.com, proxy.internal",
				"X-Forwarded-Prefix": "/v1/",
			},
			TrustForwarded: true,
			Expected:       "https://api.example.com/v1",
		},
		"ForwardedHostWithPort": {
			URL: "http://internal:8080/employees",
			Headers: map[string]string{
				"X-Forwarded-Proto": "https",
				"X-Forwarded-Host":  "api.example.com:8443",
			},
			TrustForwarded: true,
			Expected:       "https://api.example.com:8443",
		},
		"ForwardedPort": {
			URL: "http://example.com/employees",
			Headers: map[string]string{
				"X-Forwarded-Port": "9000",
			},
			TrustForwarded: true,
			Expected:       "http://example.com:9000",
		},
		"ForwardedSsl": {
			URL: "http://example.com:8080/employees",
			Headers: map[string]string{
				"X-Forwarded-Ssl":  "on",
				"X-Forwarded-Port": "443",
			},
			TrustForwarded: true,
			Expected:       "https://example.com",
		},
		"PrefixWithoutSlash": {
			URL: "http://example.com/employees",
			Headers: map[string]string{
				"X-Forwarded-Prefix": "api",
			},
			TrustForwarded: true,
			Expected:       "http://example.com/api",
		},
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.URL, nil)
			for k, v := range tc.Headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.Expected, BaseURI(r, tc.TrustForwarded))
		})
	}
}
