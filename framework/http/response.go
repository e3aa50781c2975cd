package http

import (
	"io"
	"strings"
)

// Response is an immutable HTTP response.
type Response struct {
	message
	statusCode   int
	reasonPhrase string
}

// NewResponse creates a response. Without SetReasonPhrase the reason is the
// default phrase for status.
//
//	res, err := http.NewResponse(201,
//	    http.SetHeader("Location", "/users/7"),
//	    http.SetBody("created"),
//	)
func NewResponse(status int, opts ...Option) (*Response, error) {
	if err := validateStatus("NewResponse", status); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	m, err := newMessage("NewResponse", o)
	if err != nil {
		return nil, err
	}
	reason := StatusText(status)
	if o.hasReason {
		reason = o.reason
	}
	return &Response{message: m, statusCode: status, reasonPhrase: reason}, nil
}

func validateStatus(op string, code int) error {
	if code < 100 || code > 599 {
		return invalidArgument(op, "status code has to be an integer between 100 and 599, got %d", code)
	}
	return nil
}

func (r *Response) StatusCode() int { return r.statusCode }

// ReasonPhrase returns the reason phrase; it may be empty.
func (r *Response) ReasonPhrase() string { return r.reasonPhrase }

// WithStatus sets the status code and, optionally, the reason phrase. An
// empty or missing phrase falls back to the default for code.
func (r *Response) WithStatus(code int, reasonPhrase ...string) (*Response, error) {
	if err := validateStatus("WithStatus", code); err != nil {
		return nil, err
	}
	reason := ""
	if len(reasonPhrase) > 0 {
		reason = reasonPhrase[0]
	}
	if reason == "" {
		reason = StatusText(code)
	}
	clone := *r
	clone.statusCode, clone.reasonPhrase = code, reason
	return &clone, nil
}

// ── Message mutators ──────────────────────────────────────────────────────────

func (r *Response) WithProtocolVersion(version string) *Response {
	m, changed := r.message.withProtocolVersion(version)
	if !changed {
		return r
	}
	clone := *r
	clone.message = m
	return &clone
}

func (r *Response) WithHeader(name string, values ...string) (*Response, error) {
	m, err := r.message.withHeader("WithHeader", name, values)
	if err != nil {
		return nil, err
	}
	clone := *r
	clone.message = m
	return &clone, nil
}

func (r *Response) WithAddedHeader(name string, values ...string) (*Response, error) {
	m, err := r.message.withAddedHeader("WithAddedHeader", name, values)
	if err != nil {
		return nil, err
	}
	clone := *r
	clone.message = m
	return &clone, nil
}

func (r *Response) WithoutHeader(name string) *Response {
	m, changed := r.message.withoutHeader(name)
	if !changed {
		return r
	}
	clone := *r
	clone.message = m
	return &clone
}

func (r *Response) WithBody(body *Stream) (*Response, error) {
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

// ── Sending ───────────────────────────────────────────────────────────────────

// Send emits the headers (unless e already sent them), then the body, then
// finishes e. A failure part way through leaves whatever was already emitted.
//
//	res.Send(http.NewResponseWriterEmitter(w))
func (r *Response) Send(e Emitter) error {
	if err := r.SendHeaders(e); err != nil {
		return err
	}
	if err := r.SendContent(e); err != nil {
		return err
	}
	return e.Finish()
}

// SendHeaders emits every header line in insertion order, then the status
// line. Content-Type replaces any value already set by the environment;
// other headers are added.
func (r *Response) SendHeaders(e Emitter) error {
	if e.HeadersSent() {
		return nil
	}
	for _, f := range r.headers.fields {
		replace := strings.EqualFold(f.name, "Content-Type")
		for _, v := range f.values {
			if err := e.EmitHeader(f.name, v, replace); err != nil {
				return err
			}
		}
	}
	return e.EmitStatus(r.protocol, r.statusCode, r.reasonPhrase)
}

// SendContent writes the full body.
func (r *Response) SendContent(e Emitter) error {
	body := r.body
	if body.IsSeekable() {
		if err := body.Rewind(); err != nil {
			return err
		}
	}
	if !body.IsReadable() {
		return nil
	}
	if _, err := io.Copy(e, body); err != nil {
		return runtimeError("SendContent", "unable to write response body", err)
	}
	return nil
}
