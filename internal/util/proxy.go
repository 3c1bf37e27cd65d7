package util

import (
	"net/http"
	"net/url"
)

// NewProxyFunc builds the Transport.Proxy hook for outbound model API
// calls. Explicit proxy URLs from the config take precedence; when none
// are set, the standard HTTP_PROXY/HTTPS_PROXY environment handling
// applies.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		switch {
		case req.URL.Scheme == "https" && httpsProxy != "":
			return url.Parse(httpsProxy)
		case httpProxy != "":
			return url.Parse(httpProxy)
		default:
			return http.ProxyFromEnvironment(req)
		}
	}
}
