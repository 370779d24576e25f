package linkbuilder

import (
	"net"
	"net/http"
	"strings"
)

func firstHeaderValue(r *http.Request, name string) string {
	v := r.Header.Get(name)
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

func splitHostPort(host string) (string, string) {
	if h, p, err := net.SplitHostPort(host); err == nil {
		return h, p
	}
	return strings.Trim(host, "[]"), ""
}

// BaseURI returns the scheme, host, and path prefix under which the request was received, e.g.
// "https://example.com/api". If trustForwarded is true, the X-Forwarded-Proto, X-Forwarded-Ssl,
// X-Forwarded-Host, X-Forwarded-Port, and X-Forwarded-Prefix headers set by proxies are honored.
// Only enable it if those headers come from a proxy you control. Default ports are omitted.
func BaseURI(r *http.Request, trustForwarded bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host, port := splitHostPort(r.Host)
	prefix := ""

	if trustForwarded {
		if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto != "" {
			scheme = strings.ToLower(proto)
		} else if strings.EqualFold(firstHeaderValue(r, "X-Forwarded-Ssl"), "on") {
			scheme = "https"
		}

		if forwardedHost := firstHeaderValue(r, "X-Forwarded-Host"); forwardedHost != "" {
			host, port = splitHostPort(forwardedHost)
		}
		if forwardedPort := firstHeaderValue(r, "X-Forwarded-Port"); forwardedPort != "" {
			port = forwardedPort
		}

		prefix = strings.TrimRight(firstHeaderValue(r, "X-Forwarded-Prefix"), "/")
		if prefix != "" && !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
	}

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host + prefix
}
