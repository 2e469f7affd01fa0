// Package util holds small helpers shared by the HTTP-speaking providers.
package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc builds a proxy selector for an http.Transport. With no
// explicit proxy URLs it defers to the standard environment variables.
// Hosts matching a noProxy entry (comma-separated, suffix match) bypass
// the proxy.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	var bypass []string
	for _, entry := range strings.Split(noProxy, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			bypass = append(bypass, entry)
		}
	}

	return func(req *http.Request) (*url.URL, error) {
		host := req.URL.Hostname()
		for _, entry := range bypass {
			if host == entry || strings.HasSuffix(host, "."+entry) {
				return nil, nil
			}
		}

		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
