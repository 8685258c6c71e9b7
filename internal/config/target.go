package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ParseTarget turns a command-line target string into a config entry.
// Accepted forms:
//
//	https://host[:port][/path]   expected name defaults to the URL host
//	tcp://host:port[?sni=name]   raw endpoint, optional SNI / expected name
//	host[:port]                  raw endpoint, no hostname check
//
// The port defaults to 443 when absent.
func ParseTarget(s string) (TargetConfig, error) {
	if strings.Contains(s, "://") {
		return parseTargetURL(s)
	}

	host, port, err := splitHostPort(s)
	if err != nil {
		return TargetConfig{}, fmt.Errorf("invalid target %q: %w", s, err)
	}
	return TargetConfig{Host: host, Port: port}, nil
}

func parseTargetURL(s string) (TargetConfig, error) {
	u, err := url.Parse(s)
	if err != nil {
		return TargetConfig{}, fmt.Errorf("invalid target %q: %w", s, err)
	}
	switch u.Scheme {
	case "https", "tcp":
		// supported
	default:
		return TargetConfig{}, fmt.Errorf("invalid target %q: unsupported scheme %s (use https or tcp)", s, u.Scheme)
	}
	if u.Hostname() == "" {
		return TargetConfig{}, fmt.Errorf("invalid target %q: missing host", s)
	}

	tc := TargetConfig{Host: u.Hostname(), Port: 443}
	if p := u.Port(); p != "" {
		n, perr := strconv.ParseUint(p, 10, 16)
		if perr != nil {
			return TargetConfig{}, fmt.Errorf("invalid target %q: bad port %q", s, p)
		}
		tc.Port = uint16(n)
	}

	switch u.Scheme {
	case "https":
		// An https URL names the identity it expects to talk to.
		tc.ExpectedName = u.Hostname()
	case "tcp":
		tc.ExpectedName = u.Query().Get("sni")
	}
	return tc, nil
}

func splitHostPort(s string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port given; the whole string is the host.
		if s == "" {
			return "", 0, fmt.Errorf("empty host")
		}
		return s, 443, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("empty host")
	}
	n, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("bad port %q", portStr)
	}
	return host, uint16(n), nil
}
