package http

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/inhies/go-bytesize"

	"github.com/km-arc/straw/framework/logging"
)

// DefaultMaxUploadSize bounds buffered request bodies and multipart memory.
const DefaultMaxUploadSize = 32 * bytesize.MB

// Factory creates message objects and captures incoming net/http requests.
type Factory struct {
	maxUploadSize bytesize.ByteSize
	log           *logging.Logger
}

// NewFactory creates a factory. A zero maxUploadSize means DefaultMaxUploadSize.
func NewFactory(maxUploadSize bytesize.ByteSize) *Factory {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &Factory{maxUploadSize: maxUploadSize, log: logging.NewLogger("HttpFactory")}
}

// MaxUploadSize returns the configured body limit.
func (f *Factory) MaxUploadSize() bytesize.ByteSize { return f.maxUploadSize }

func (f *Factory) CreateRequest(method string, uri any) (*Request, error) {
	return NewRequest(method, uri)
}

func (f *Factory) CreateServerRequest(method string, uri any, serverParams map[string]string) (*ServerRequest, error) {
	return NewServerRequest(method, uri, serverParams)
}

// CreateResponse creates a body-less response with the given status.
func (f *Factory) CreateResponse(code int, reasonPhrase ...string) (*Response, error) {
	var opts []Option
	if len(reasonPhrase) > 0 && reasonPhrase[0] != "" {
		opts = append(opts, SetReasonPhrase(reasonPhrase[0]))
	}
	return NewResponse(code, opts...)
}

// CreateStream creates an in-memory stream holding content.
func (f *Factory) CreateStream(content string) *Stream {
	return newMemoryStream([]byte(content))
}

// CreateStreamFromFile opens filename; mode defaults to "r".
func (f *Factory) CreateStreamFromFile(filename, mode string) (*Stream, error) {
	if mode == "" {
		mode = "r"
	}
	return OpenStream(filename, mode)
}

// CreateStreamFromResource wraps a Resource, io.Reader or io.Writer.
func (f *Factory) CreateStreamFromResource(resource any) (*Stream, error) {
	if _, ok := resource.(*Stream); ok {
		return nil, invalidArgument("CreateStreamFromResource", "resource must be a handle, not a *Stream")
	}
	return NewStream(resource)
}

func (f *Factory) CreateUploadedFile(stream *Stream, size int64, uploadError UploadError, clientFilename, clientMediaType string) *UploadedFile {
	return NewUploadedFile(stream, size, uploadError, clientFilename, clientMediaType)
}

func (f *Factory) CreateURI(raw string) (*URI, error) {
	return NewURI(raw)
}

// ── Capture ───────────────────────────────────────────────────────────────────

// FromHTTP captures an incoming net/http request: method, URI, protocol,
// headers, cookies, query, parsed body, uploaded files and the body stream.
//
// Form and JSON bodies are buffered (up to MaxUploadSize) so the body stream
// can still be read after parsing. Multipart bodies are consumed by parsing;
// their files are exposed as UploadedFiles and the body stream is empty.
func (f *Factory) FromHTTP(r *http.Request) (*ServerRequest, error) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	uri := scheme + "://" + r.Host + r.URL.RequestURI()

	opts := []Option{SetProtocolVersion(fmt.Sprintf("%d.%d", r.ProtoMajor, r.ProtoMinor))}
	if r.Host != "" {
		opts = append(opts, SetHeader("Host", r.Host))
	}
	for _, name := range slices.Sorted(maps.Keys(r.Header)) {
		opts = append(opts, SetHeader(name, r.Header[name]...))
	}

	req, err := NewServerRequest(r.Method, uri, serverParams(r), opts...)
	if err != nil {
		return nil, err
	}

	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}
	req = req.WithCookieParams(cookies).WithQueryParams(r.URL.Query())

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		req, err = f.captureMultipart(r, req)
	case "application/x-www-form-urlencoded":
		req, err = f.captureForm(r, req)
	case "application/json":
		req, err = f.captureJSON(r, req)
	default:
		if r.Body != nil && r.Body != http.NoBody {
			var body *Stream
			if body, err = NewStream(Resource{Handle: r.Body, Mode: "rb"}); err == nil {
				req, err = req.WithBody(body)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	f.log.Debugf("captured %s %s (%s)", req.Method(), req.RequestTarget(), mediaType)
	return req, nil
}

func (f *Factory) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	limit := int64(f.maxUploadSize)
	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, runtimeError("FromHTTP", "unable to read request body", err)
	}
	if int64(len(raw)) > limit {
		return nil, runtimeError("FromHTTP", "request body exceeds "+f.maxUploadSize.String(), nil)
	}
	return raw, nil
}

func (f *Factory) captureForm(r *http.Request, req *ServerRequest) (*ServerRequest, error) {
	raw, err := f.readBody(r)
	if err != nil {
		return nil, err
	}
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, invalidArgument("FromHTTP", "malformed form body: %s", err)
	}
	if req, err = req.WithParsedBody(form); err != nil {
		return nil, err
	}
	return req.WithBody(newMemoryStream(raw))
}

func (f *Factory) captureJSON(r *http.Request, req *ServerRequest) (*ServerRequest, error) {
	raw, err := f.readBody(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			f.log.Debugf("ignoring malformed JSON body: %s", err)
		} else if req, err = req.WithParsedBody(jsonBody(decoded)); err != nil {
			return nil, err
		}
	}
	return req.WithBody(newMemoryStream(raw))
}

// jsonBody keeps objects and arrays; scalars are not a parsed body.
func jsonBody(decoded any) any {
	switch decoded.(type) {
	case map[string]any, []any:
		return decoded
	}
	return nil
}

func (f *Factory) captureMultipart(r *http.Request, req *ServerRequest) (*ServerRequest, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, int64(f.maxUploadSize))
	if err := r.ParseMultipartForm(int64(f.maxUploadSize)); err != nil {
		return nil, runtimeError("FromHTTP", "unable to parse multipart body", err)
	}

	form := url.Values(maps.Clone(r.MultipartForm.Value))
	req, err := req.WithParsedBody(form)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]*UploadedFile, len(r.MultipartForm.File))
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			uploadError := UploadErrOK
			var stream *Stream
			if file, err := fh.Open(); err != nil {
				f.log.Warnf("unable to open uploaded file %q: %s", fh.Filename, err)
				uploadError = UploadErrCantWrite
				stream = newMemoryStream(nil)
			} else if stream, err = NewStream(Resource{Handle: file, Mode: "rb"}); err != nil {
				return nil, err
			}
			files[field] = append(files[field], NewUploadedFile(
				stream, fh.Size, uploadError, fh.Filename, fh.Header.Get("Content-Type"),
			))
		}
	}
	return req.WithUploadedFiles(files), nil
}

func serverParams(r *http.Request) map[string]string {
	return map[string]string{
		"REQUEST_METHOD":  r.Method,
		"REQUEST_URI":     r.URL.RequestURI(),
		"QUERY_STRING":    r.URL.RawQuery,
		"SERVER_PROTOCOL": r.Proto,
		"HTTP_HOST":       r.Host,
		"REMOTE_ADDR":     r.RemoteAddr,
		"CONTENT_LENGTH":  strconv.FormatInt(r.ContentLength, 10),
	}
}
