// Package urlrewrite maps URLs reported by the CI server onto the address the
// caller actually uses to reach it.
package urlrewrite

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Rewrite replaces the host:port of original with host:port and prepends
// prefix to its path. Scheme, query and fragment are kept as they are. The
// prefix is concatenated verbatim, so "/jenkins/" + "/job/x" yields
// "/jenkins//job/x".
func Rewrite(original, host, port, prefix string) (string, error) {
	u, err := url.Parse(original)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", original, err)
	}

	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	if prefix != "" {
		if u.RawPath != "" {
			u.RawPath = prefix + u.RawPath
		}
		u.Path = prefix + u.Path
	}

	return u.String(), nil
}

// Target is the externally reachable location of the CI server.
type Target struct {
	Host   string
	Port   string
	Prefix string
}

// NewTarget derives the rewrite target from the configured server URL
func NewTarget(serverURL string) (Target, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return Target{}, fmt.Errorf("parse server url: %w", err)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("server url %q has no host", serverURL)
	}

	return Target{
		Host:   u.Hostname(),
		Port:   u.Port(),
		Prefix: u.Path,
	}, nil
}

// Rewrite applies Rewrite with the target's host, port and prefix
func (t Target) Rewrite(original string) (string, error) {
	return Rewrite(original, t.Host, t.Port, t.Prefix)
}

// Endpoint returns the escaped path of a rewritten URL relative to the
// target, suitable for use as an API path against the configured server URL.
// Escapes are kept since the result is parsed again as part of a URL.
func (t Target) Endpoint(rewritten string) (string, error) {
	u, err := url.Parse(rewritten)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rewritten, err)
	}

	prefix := (&url.URL{Path: t.Prefix}).EscapedPath()
	endpoint := strings.TrimPrefix(u.EscapedPath(), prefix)
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint, nil
}
