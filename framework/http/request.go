package http

import (
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Request is an immutable outgoing or incoming HTTP request. Every With*
// method returns a modified copy, or the receiver when nothing changes.
type Request struct {
	message
	method        string
	uri           *URI
	requestTarget string
	hasTarget     bool
}

// NewRequest creates a request. uri is a *URI or a string. Unless a Host
// header is given, it is derived from the URI.
//
//	req, err := http.NewRequest("POST", "https://api.example.com/users",
//	    http.SetHeader("Content-Type", "application/json"),
//	    http.SetBody(`{"name":"Ada"}`),
//	)
func NewRequest(method string, uri any, opts ...Option) (*Request, error) {
	r, err := newRequest("NewRequest", method, uri, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func newRequest(op, method string, uri any, o *options) (Request, error) {
	if err := validateMethod(op, method); err != nil {
		return Request{}, err
	}
	u, err := toURI(op, uri)
	if err != nil {
		return Request{}, err
	}
	m, err := newMessage(op, o)
	if err != nil {
		return Request{}, err
	}
	r := Request{message: m, method: method, uri: u}
	if !r.headers.has("Host") {
		r.updateHostFromURI()
	}
	return r, nil
}

func validateMethod(op, method string) error {
	if !httpguts.ValidHeaderFieldName(method) {
		return invalidArgument(op, "method must be a valid token, got %q", method)
	}
	return nil
}

func (r *Request) updateHostFromURI() {
	host := r.uri.Host()
	if host == "" {
		return
	}
	if port, ok := r.uri.Port(); ok {
		host += ":" + strconv.Itoa(port)
	}
	r.headers = r.headers.withHost(host)
}

// ── Request line ──────────────────────────────────────────────────────────────

// RequestTarget returns the explicit target if one was set, otherwise
// "path?query" from the URI with "/" for an empty path.
func (r *Request) RequestTarget() string {
	if r.hasTarget {
		return r.requestTarget
	}
	target := r.uri.Path()
	if target == "" {
		target = "/"
	}
	if q := r.uri.Query(); q != "" {
		target += "?" + q
	}
	return target
}

// WithRequestTarget sets an explicit request target ("*", an absolute URI,
// an authority...). Whitespace is rejected.
func (r *Request) WithRequestTarget(target string) (*Request, error) {
	if strings.ContainsAny(target, " \t\r\n") {
		return nil, invalidArgument("WithRequestTarget", "request target cannot contain whitespace")
	}
	if r.hasTarget && r.requestTarget == target {
		return r, nil
	}
	clone := *r
	clone.requestTarget, clone.hasTarget = target, true
	return &clone, nil
}

func (r *Request) Method() string { return r.method }

func (r *Request) WithMethod(method string) (*Request, error) {
	if err := validateMethod("WithMethod", method); err != nil {
		return nil, err
	}
	if method == r.method {
		return r, nil
	}
	clone := *r
	clone.method = method
	return &clone, nil
}

func (r *Request) URI() *URI { return r.uri }

// WithURI replaces the URI. The Host header follows the new URI's host
// unless preserveHost is set and the request already has a Host header; a
// URI without a host never changes it.
func (r *Request) WithURI(uri *URI, preserveHost bool) *Request {
	if uri == r.uri {
		return r
	}
	clone := *r
	clone.uri = uri
	if !preserveHost || !r.hasHostHeader() {
		clone.updateHostFromURI()
	}
	return &clone
}

func (r *Request) hasHostHeader() bool {
	return r.headers.line("Host") != ""
}

// ── Message mutators ──────────────────────────────────────────────────────────

func (r *Request) WithProtocolVersion(version string) *Request {
	m, changed := r.message.withProtocolVersion(version)
	if !changed {
		return r
	}
	clone := *r
	clone.message = m
	return &clone
}

// WithHeader replaces name with values. Any existing header of that name is
// removed and name is appended as spelled here.
func (r *Request) WithHeader(name string, values ...string) (*Request, error) {
	m, err := r.message.withHeader("WithHeader", name, values)
	if err != nil {
		return nil, err
	}
	clone := *r
	clone.message = m
	return &clone, nil
}

// WithAddedHeader appends values to name, creating it if needed.
func (r *Request) WithAddedHeader(name string, values ...string) (*Request, error) {
	m, err := r.message.withAddedHeader("WithAddedHeader", name, values)
	if err != nil {
		return nil, err
	}
	clone := *r
	clone.message = m
	return &clone, nil
}

func (r *Request) WithoutHeader(name string) *Request {
	m, changed := r.message.withoutHeader(name)
	if !changed {
		return r
	}
	clone := *r
	clone.message = m
	return &clone
}

func (r *Request) WithBody(body *Stream) (*Request, error) {
	if body == nil {
		return nil, invalidArgument("WithBody", "body must not be nil")
	}
	m, changed := r.message.withBody(body)
	if !changed {
		return r, nil
	}
	clone := *r
	clone.message = m
	return &clone, nil
}
