package site

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
)

// hostnameRE is the RFC-1035 hostname grammar: labels of letters, digits
// and hyphens, not starting or ending with a hyphen.
var hostnameRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)

// Site is the canonical host[:port][/path] identity of a scan target.
// Two inputs that canonicalize to the same key must produce identical scans.
type Site struct {
	host string
	port mo.Option[int]
	path string
}

// FromString canonicalizes an arbitrary user string into a Site.
// Schemes, credentials, queries and fragments are stripped; the host is
// lowercased; a non-empty path is preserved verbatim.
func FromString(raw string) (Site, scanerrors.ScanError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Site{}, scanerrors.NewInvalidHostname(raw, "empty input")
	}
	if strings.ContainsAny(trimmed, " \t\r\n") {
		return Site{}, scanerrors.NewInvalidHostname(raw, "contains whitespace")
	}

	rest := trimmed
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(strings.ToLower(rest), scheme) {
			rest = rest[len(scheme):]
			break
		}
	}
	// strip credentials, query and fragment
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		if slash := strings.Index(rest, "/"); slash < 0 || at < slash {
			rest = rest[at+1:]
		}
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	hostport := rest
	path := ""
	if i := strings.Index(rest, "/"); i >= 0 {
		hostport = rest[:i]
		path = rest[i:]
		if path == "/" {
			path = ""
		}
	}

	host := strings.ToLower(hostport)
	var port mo.Option[int]
	if i := strings.LastIndex(hostport, ":"); i >= 0 {
		host = strings.ToLower(hostport[:i])
		portStr := hostport[i+1:]
		p, err := strconv.Atoi(portStr)
		if err != nil || p < 1 || p > 65535 {
			return Site{}, scanerrors.NewInvalidPort(portStr)
		}
		port = mo.Some(p)
	}

	if host == "" {
		return Site{}, scanerrors.NewInvalidHostname(raw, "missing host")
	}
	if ip := net.ParseIP(host); ip != nil {
		return Site{}, scanerrors.NewInvalidHostname(raw, "bare IP literals are not scannable")
	}
	if !hostnameRE.MatchString(host) {
		return Site{}, scanerrors.NewInvalidHostname(raw, "fails the hostname grammar")
	}
	if host != "localhost" && !strings.Contains(host, ".") {
		return Site{}, scanerrors.NewInvalidHostname(raw, "must contain at least one dot")
	}

	return Site{host: host, port: port, path: path}, nil
}

// Host returns the lowercased hostname.
func (s Site) Host() string { return s.host }

// Port returns the explicit port, if one was given.
func (s Site) Port() mo.Option[int] { return s.port }

// Path returns the preserved path, or "" when none was given.
func (s Site) Path() string { return s.path }

// Key returns the canonical host[:port][/path] identity.
func (s Site) Key() string {
	var sb strings.Builder
	sb.WriteString(s.host)
	if p, ok := s.port.Get(); ok {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(p))
	}
	sb.WriteString(s.path)
	return sb.String()
}

func (s Site) String() string { return s.Key() }

// BaseURL builds the probe URL for the given scheme. An explicit port is
// carried over; the path defaults to "/".
func (s Site) BaseURL(scheme string) string {
	var sb strings.Builder
	sb.WriteString(scheme)
	sb.WriteString("://")
	sb.WriteString(s.host)
	if p, ok := s.port.Get(); ok {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(p))
	}
	if s.path == "" {
		sb.WriteString("/")
	} else {
		sb.WriteString(s.path)
	}
	return sb.String()
}

// Resolver resolves hostnames to IP addresses. *net.Resolver implements it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// CheckResolvable verifies the host has at least one A/AAAA answer.
// With allowPrivate false, hosts resolving only to loopback or private
// ranges are rejected the same way unresolvable hosts are.
func (s Site) CheckResolvable(ctx context.Context, resolver Resolver, allowPrivate bool) scanerrors.ScanError {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, s.host)
	if err != nil {
		return scanerrors.NewInvalidHostnameLookup(s.host, err)
	}
	if len(addrs) == 0 {
		return scanerrors.NewInvalidHostnameLookup(s.host, nil)
	}
	if allowPrivate {
		return nil
	}
	for _, addr := range addrs {
		if !addr.IP.IsLoopback() && !addr.IP.IsPrivate() && !addr.IP.IsLinkLocalUnicast() {
			return nil
		}
	}
	return scanerrors.NewInvalidHostnameLookup(s.host,
		fmt.Errorf("%q resolves only to loopback or private addresses", s.host))
}
