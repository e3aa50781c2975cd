package http

import (
	"net/url"
	"strconv"
	"strings"
)

var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
	"ftp":   21,
}

// URI is an immutable RFC 3986 URI. Scheme and host are kept lowercase with
// IPv6 hosts in brackets, a port equal to the scheme's default is dropped, and
// path, query and fragment are kept percent-encoded.
type URI struct {
	scheme   string
	userInfo string
	host     string
	port     int // 0 when absent
	path     string
	query    string
	fragment string
}

// NewURI parses raw. An empty string yields an empty URI.
//
//	uri, err := http.NewURI("https://user@example.com:8443/path?q=1#top")
func NewURI(raw string) (*URI, error) {
	if raw == "" {
		return &URI{}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, invalidArgument("NewURI", "unable to parse URI %q", raw)
	}

	out := &URI{
		scheme:   strings.ToLower(u.Scheme),
		host:     normalizeHost(u.Hostname()),
		query:    u.RawQuery,
		fragment: u.EscapedFragment(),
	}
	if u.User != nil {
		out.userInfo = u.User.String()
	}
	if u.Opaque != "" {
		out.path = u.Opaque
	} else {
		out.path = u.EscapedPath()
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, invalidArgument("NewURI", "invalid port %q", p)
		}
		if out.port, err = out.filterPort(port); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// toURI accepts a *URI or a string.
func toURI(op string, uri any) (*URI, error) {
	switch u := uri.(type) {
	case *URI:
		if u == nil {
			return &URI{}, nil
		}
		return u, nil
	case string:
		return NewURI(u)
	}
	return nil, invalidArgument(op, "URI must be a string or *URI, got %T", uri)
}

func (u *URI) Scheme() string   { return u.scheme }
func (u *URI) UserInfo() string { return u.userInfo }
func (u *URI) Host() string     { return u.host }
func (u *URI) Path() string     { return u.path }
func (u *URI) Query() string    { return u.query }
func (u *URI) Fragment() string { return u.fragment }

// Port returns the port and true, or 0 and false when the port is absent or
// the scheme's default.
func (u *URI) Port() (int, bool) { return u.port, u.port != 0 }

// Authority returns "[user-info@]host[:port]", or "" without a host.
func (u *URI) Authority() string {
	if u.host == "" {
		return ""
	}
	authority := u.host
	if u.userInfo != "" {
		authority = u.userInfo + "@" + authority
	}
	if u.port != 0 {
		authority += ":" + strconv.Itoa(u.port)
	}
	return authority
}

// String composes the URI reference.
func (u *URI) String() string {
	var b strings.Builder
	if u.scheme != "" {
		b.WriteString(u.scheme + ":")
	}
	authority := u.Authority()
	if authority != "" {
		b.WriteString("//" + authority)
	}
	if path := u.path; path != "" {
		switch {
		case path[0] != '/' && authority != "":
			path = "/" + path
		case strings.HasPrefix(path, "//") && authority == "":
			path = "/" + strings.TrimLeft(path, "/")
		}
		b.WriteString(path)
	}
	if u.query != "" {
		b.WriteString("?" + u.query)
	}
	if u.fragment != "" {
		b.WriteString("#" + u.fragment)
	}
	return b.String()
}

// ── Mutators ──────────────────────────────────────────────────────────────────

func (u *URI) WithScheme(scheme string) *URI {
	scheme = strings.ToLower(scheme)
	if scheme == u.scheme {
		return u
	}
	clone := *u
	clone.scheme = scheme
	// re-apply default-port elision for the new scheme
	clone.port, _ = clone.filterPort(clone.port)
	return &clone
}

// WithUserInfo sets the user and, optionally, the password.
func (u *URI) WithUserInfo(user string, password ...string) *URI {
	info := ""
	if user != "" {
		if len(password) > 0 && password[0] != "" {
			info = url.UserPassword(user, password[0]).String()
		} else {
			info = url.User(user).String()
		}
	}
	if info == u.userInfo {
		return u
	}
	clone := *u
	clone.userInfo = info
	return &clone
}

// WithHost sets the host. IPv6 literals are stored in brackets.
func (u *URI) WithHost(host string) *URI {
	host = normalizeHost(host)
	if host == u.host {
		return u
	}
	clone := *u
	clone.host = host
	return &clone
}

// WithPort sets the port; 0 removes it. Ports outside 1..65535 fail.
func (u *URI) WithPort(port int) (*URI, error) {
	filtered, err := u.filterPort(port)
	if err != nil {
		return nil, err
	}
	if filtered == u.port {
		return u, nil
	}
	clone := *u
	clone.port = filtered
	return &clone, nil
}

func (u *URI) WithPath(path string) *URI {
	path = escapeComponent(path, "/:@")
	if path == u.path {
		return u
	}
	clone := *u
	clone.path = path
	return &clone
}

func (u *URI) WithQuery(query string) *URI {
	query = escapeComponent(strings.TrimPrefix(query, "?"), "/:@?")
	if query == u.query {
		return u
	}
	clone := *u
	clone.query = query
	return &clone
}

func (u *URI) WithFragment(fragment string) *URI {
	fragment = escapeComponent(strings.TrimPrefix(fragment, "#"), "/:@?")
	if fragment == u.fragment {
		return u
	}
	clone := *u
	clone.fragment = fragment
	return &clone
}

// normalizeHost lowercases host and brackets an IPv6 literal.
func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host
}

func (u *URI) filterPort(port int) (int, error) {
	if port == 0 {
		return 0, nil
	}
	if port < 1 || port > 65535 {
		return 0, invalidArgument("WithPort", "invalid port %d, must be between 1 and 65535", port)
	}
	if def, ok := defaultPorts[u.scheme]; ok && def == port {
		return 0, nil
	}
	return port, nil
}

const hexDigits = "0123456789ABCDEF"

// escapeComponent percent-encodes every byte that is neither unreserved, a
// sub-delimiter, one of extra, nor part of an existing %XX escape.
func escapeComponent(s, extra string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUnreserved(c) || strings.IndexByte("!$&'()*+,;=", c) >= 0 || strings.IndexByte(extra, c) >= 0:
			b.WriteByte(c)
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&15])
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || strings.IndexByte("-._~", c) >= 0
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
