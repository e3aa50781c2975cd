package http

import (
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-errors/errors"
	json "github.com/goccy/go-json"
)

// ServerRequest is an incoming request as seen by a server: a Request plus
// server params, cookies, query params, parsed body, uploaded files and
// request attributes (route params and values set by middleware).
type ServerRequest struct {
	Request
	serverParams  map[string]string
	cookieParams  map[string]string
	queryParams   url.Values
	parsedBody    any
	uploadedFiles map[string][]*UploadedFile
	attributes    map[string]any
}

// NewServerRequest creates a server request. Query params are parsed from
// the URI.
func NewServerRequest(method string, uri any, serverParams map[string]string, opts ...Option) (*ServerRequest, error) {
	r, err := newRequest("NewServerRequest", method, uri, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	query, _ := url.ParseQuery(r.uri.Query())
	return &ServerRequest{
		Request:       r,
		serverParams:  maps.Clone(serverParams),
		cookieParams:  map[string]string{},
		queryParams:   query,
		uploadedFiles: map[string][]*UploadedFile{},
		attributes:    map[string]any{},
	}, nil
}

// lift turns the result of a Request mutator into a ServerRequest.
func (s *ServerRequest) lift(r *Request) *ServerRequest {
	if r == &s.Request {
		return s
	}
	clone := *s
	clone.Request = *r
	return &clone
}

// ── Server-side state ─────────────────────────────────────────────────────────

func (s *ServerRequest) ServerParams() map[string]string { return maps.Clone(s.serverParams) }

func (s *ServerRequest) CookieParams() map[string]string { return maps.Clone(s.cookieParams) }

func (s *ServerRequest) WithCookieParams(cookies map[string]string) *ServerRequest {
	clone := *s
	clone.cookieParams = maps.Clone(cookies)
	return &clone
}

func (s *ServerRequest) QueryParams() url.Values { return cloneValues(s.queryParams) }

// WithQueryParams replaces the query params. The URI is left untouched.
func (s *ServerRequest) WithQueryParams(query url.Values) *ServerRequest {
	clone := *s
	clone.queryParams = cloneValues(query)
	return &clone
}

// ParsedBody returns the decoded body: url.Values for forms, the decoded
// JSON value, or nil.
func (s *ServerRequest) ParsedBody() any { return s.parsedBody }

// WithParsedBody accepts nil, url.Values, a map or a pointer to a struct.
func (s *ServerRequest) WithParsedBody(body any) (*ServerRequest, error) {
	switch body.(type) {
	case nil, url.Values, map[string]any, map[string]string, []any:
	default:
		if !isStructPointer(body) {
			return nil, invalidArgument("WithParsedBody", "parsed body must be nil, url.Values, a map, a slice or a struct pointer, got %T", body)
		}
	}
	clone := *s
	clone.parsedBody = body
	return &clone, nil
}

func (s *ServerRequest) UploadedFiles() map[string][]*UploadedFile {
	out := make(map[string][]*UploadedFile, len(s.uploadedFiles))
	for k, v := range s.uploadedFiles {
		out[k] = append([]*UploadedFile(nil), v...)
	}
	return out
}

func (s *ServerRequest) WithUploadedFiles(files map[string][]*UploadedFile) *ServerRequest {
	clone := *s
	clone.uploadedFiles = make(map[string][]*UploadedFile, len(files))
	for k, v := range files {
		clone.uploadedFiles[k] = append([]*UploadedFile(nil), v...)
	}
	return &clone
}

// File returns the first file uploaded under key, or nil.
func (s *ServerRequest) File(key string) *UploadedFile {
	if files := s.uploadedFiles[key]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func (s *ServerRequest) Attributes() map[string]any { return maps.Clone(s.attributes) }

// Attribute returns the named attribute, or fallback when it is absent.
func (s *ServerRequest) Attribute(name string, fallback ...any) any {
	if v, ok := s.attributes[name]; ok {
		return v
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return nil
}

func (s *ServerRequest) WithAttribute(name string, value any) *ServerRequest {
	clone := *s
	clone.attributes = maps.Clone(s.attributes)
	if clone.attributes == nil {
		clone.attributes = map[string]any{}
	}
	clone.attributes[name] = value
	return &clone
}

func (s *ServerRequest) WithoutAttribute(name string) *ServerRequest {
	if _, ok := s.attributes[name]; !ok {
		return s
	}
	clone := *s
	clone.attributes = maps.Clone(s.attributes)
	delete(clone.attributes, name)
	return &clone
}

// ── Request mutators ──────────────────────────────────────────────────────────

func (s *ServerRequest) WithRequestTarget(target string) (*ServerRequest, error) {
	r, err := s.Request.WithRequestTarget(target)
	if err != nil {
		return nil, err
	}
	return s.lift(r), nil
}

func (s *ServerRequest) WithMethod(method string) (*ServerRequest, error) {
	r, err := s.Request.WithMethod(method)
	if err != nil {
		return nil, err
	}
	return s.lift(r), nil
}

func (s *ServerRequest) WithURI(uri *URI, preserveHost bool) *ServerRequest {
	return s.lift(s.Request.WithURI(uri, preserveHost))
}

func (s *ServerRequest) WithProtocolVersion(version string) *ServerRequest {
	return s.lift(s.Request.WithProtocolVersion(version))
}

func (s *ServerRequest) WithHeader(name string, values ...string) (*ServerRequest, error) {
	r, err := s.Request.WithHeader(name, values...)
	if err != nil {
		return nil, err
	}
	return s.lift(r), nil
}

func (s *ServerRequest) WithAddedHeader(name string, values ...string) (*ServerRequest, error) {
	r, err := s.Request.WithAddedHeader(name, values...)
	if err != nil {
		return nil, err
	}
	return s.lift(r), nil
}

func (s *ServerRequest) WithoutHeader(name string) *ServerRequest {
	return s.lift(s.Request.WithoutHeader(name))
}

func (s *ServerRequest) WithBody(body *Stream) (*ServerRequest, error) {
	r, err := s.Request.WithBody(body)
	if err != nil {
		return nil, err
	}
	return s.lift(r), nil
}

// ── Input helpers ─────────────────────────────────────────────────────────────

// Input returns a single input value (post body OR query string).
//
//	// Laravel: $request->input('name', 'guest')
//	name := req.Input("name", "guest")
func (s *ServerRequest) Input(key string, fallback ...string) string {
	if v, ok := bodyValue(s.parsedBody, key); ok && v != "" {
		return v
	}
	return s.Query(key, fallback...)
}

// Query returns a query-string value.
func (s *ServerRequest) Query(key string, fallback ...string) string {
	v := s.queryParams.Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// All returns all input as a flat map (query + post, post wins).
func (s *ServerRequest) All() map[string]string {
	out := make(map[string]string)
	for k, v := range s.queryParams {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	switch body := s.parsedBody.(type) {
	case url.Values:
		for k, v := range body {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
	case map[string]string:
		maps.Copy(out, body)
	case map[string]any:
		for k, v := range body {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// Has returns true if the key is present and non-empty.
func (s *ServerRequest) Has(key string) bool {
	return s.Input(key) != ""
}

// RouteParam returns a route parameter captured by the router.
func (s *ServerRequest) RouteParam(key string) string {
	v, _ := s.attributes[key].(string)
	return v
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (s *ServerRequest) BearerToken() string {
	auth := s.HeaderLine("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// ContentType returns the Content-Type header value.
func (s *ServerRequest) ContentType() string {
	return s.HeaderLine("Content-Type")
}

// IsJSON returns true when the request sends or expects JSON.
func (s *ServerRequest) IsJSON() bool {
	return strings.Contains(s.HeaderLine("Accept"), "application/json") ||
		strings.Contains(s.ContentType(), "application/json")
}

// Bind decodes the request into v. JSON requests decode the body stream;
// anything else maps the parsed body through its `json` tags.
func (s *ServerRequest) Bind(v any) error {
	if strings.Contains(s.ContentType(), "application/json") {
		contents := s.body.String()
		if contents == "" {
			return errors.New("empty request body")
		}
		return json.Unmarshal([]byte(contents), v)
	}

	m := make(map[string]any)
	switch body := s.parsedBody.(type) {
	case url.Values:
		for k, vals := range body {
			if len(vals) == 1 {
				m[k] = vals[0]
			} else {
				m[k] = vals
			}
		}
	case map[string]any:
		m = body
	case map[string]string:
		for k, val := range body {
			m[k] = val
		}
	case nil:
	default:
		return errors.Errorf("cannot bind parsed body of type %T", body)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func bodyValue(body any, key string) (string, bool) {
	switch b := body.(type) {
	case url.Values:
		if _, ok := b[key]; ok {
			return b.Get(key), true
		}
	case map[string]string:
		v, ok := b[key]
		return v, ok
	case map[string]any:
		if v, ok := b[key]; ok && v != nil {
			return fmt.Sprint(v), true
		}
	}
	return "", false
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func isStructPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct
}
