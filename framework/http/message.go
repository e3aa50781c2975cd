package http

import (
	"maps"
	"slices"
)

// Message is the read side shared by requests and responses. Mutators live
// on the concrete types so each returns its own type.
type Message interface {
	ProtocolVersion() string
	Headers() map[string][]string
	HeaderNames() []string
	Header(name string) []string
	HeaderLine(name string) string
	HasHeader(name string) bool
	Body() *Stream
}

var (
	_ Message = (*Request)(nil)
	_ Message = (*ServerRequest)(nil)
	_ Message = (*Response)(nil)
)

// message holds the state common to every HTTP message. It is copied by
// value into clones; the header bag is replaced, never edited in place.
type message struct {
	protocol string
	headers  headerBag
	body     *Stream
}

// ProtocolVersion returns the HTTP version without the "HTTP/" prefix, e.g. "1.1".
func (m *message) ProtocolVersion() string { return m.protocol }

// Headers returns a copy of all headers keyed by their original spelling.
// Use HeaderNames for insertion order.
func (m *message) Headers() map[string][]string { return m.headers.all() }

// HeaderNames returns header names in insertion order, as first spelled.
func (m *message) HeaderNames() []string { return m.headers.names() }

// Header returns the values of name (case-insensitive), or an empty slice.
func (m *message) Header(name string) []string { return m.headers.get(name) }

// HeaderLine returns the values of name joined with ", ", or "".
func (m *message) HeaderLine(name string) string { return m.headers.line(name) }

// HasHeader reports whether name is present (case-insensitive).
func (m *message) HasHeader(name string) bool { return m.headers.has(name) }

// Body returns the message body. It is never nil.
func (m *message) Body() *Stream { return m.body }

// ── Options ───────────────────────────────────────────────────────────────────

// Option configures a message at construction.
type Option func(*options)

type options struct {
	protocol  string
	headers   []headerField
	body      any
	reason    string
	hasReason bool
}

// SetProtocolVersion sets the HTTP version, "1.1" by default.
func SetProtocolVersion(version string) Option {
	return func(o *options) { o.protocol = version }
}

// SetHeader adds a header; repeated names accumulate in order.
func SetHeader(name string, values ...string) Option {
	return func(o *options) { o.headers = append(o.headers, headerField{name: name, values: values}) }
}

// SetHeaders adds every header of h, in name order.
func SetHeaders(h map[string][]string) Option {
	return func(o *options) {
		for _, name := range slices.Sorted(maps.Keys(h)) {
			o.headers = append(o.headers, headerField{name: name, values: h[name]})
		}
	}
}

// SetBody sets the body from anything NewStream accepts.
func SetBody(body any) Option {
	return func(o *options) { o.body = body }
}

// SetReasonPhrase overrides the default reason phrase of a response.
func SetReasonPhrase(reason string) Option {
	return func(o *options) { o.reason, o.hasReason = reason, true }
}

func buildOptions(opts []Option) *options {
	o := &options{protocol: "1.1"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// newMessage validates the options into a message.
func newMessage(op string, o *options) (message, error) {
	m := message{protocol: o.protocol}
	for _, f := range o.headers {
		var err error
		if m.headers, err = m.headers.withAdded(op, f.name, f.values); err != nil {
			return message{}, err
		}
	}

	var source any = ""
	if o.body != nil {
		source = o.body
	}
	body, err := NewStream(source)
	if err != nil {
		return message{}, err
	}
	m.body = body
	return m, nil
}

// ── Copy-on-write helpers ─────────────────────────────────────────────────────

func (m message) withProtocolVersion(version string) (message, bool) {
	if m.protocol == version {
		return m, false
	}
	m.protocol = version
	return m, true
}

func (m message) withHeader(op, name string, values []string) (message, error) {
	h, err := m.headers.with(op, name, values)
	if err != nil {
		return m, err
	}
	m.headers = h
	return m, nil
}

func (m message) withAddedHeader(op, name string, values []string) (message, error) {
	h, err := m.headers.withAdded(op, name, values)
	if err != nil {
		return m, err
	}
	m.headers = h
	return m, nil
}

func (m message) withoutHeader(name string) (message, bool) {
	h, changed := m.headers.without(name)
	m.headers = h
	return m, changed
}

func (m message) withBody(body *Stream) (message, bool) {
	if m.body == body {
		return m, false
	}
	m.body = body
	return m, true
}
