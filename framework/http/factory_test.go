package http_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inhies/go-bytesize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/straw/framework/http"
)

func newFactory() *gohttp.Factory {
	return gohttp.NewFactory(0)
}

func TestNewFactory_DefaultLimit(t *testing.T) {
	assert.Equal(t, gohttp.DefaultMaxUploadSize, newFactory().MaxUploadSize())
	assert.Equal(t, 2*bytesize.KB, gohttp.NewFactory(2*bytesize.KB).MaxUploadSize())
}

// ── Create* ───────────────────────────────────────────────────────────────────

func TestFactory_Create(t *testing.T) {
	f := newFactory()

	req, err := f.CreateRequest("GET", "http://h/x")
	require.NoError(t, err)
	assert.Equal(t, "/x", req.RequestTarget())

	sreq, err := f.CreateServerRequest("POST", "/y?a=1", map[string]string{"REMOTE_ADDR": "::1"})
	require.NoError(t, err)
	assert.Equal(t, "1", sreq.Query("a"))

	res, err := f.CreateResponse(404)
	require.NoError(t, err)
	assert.Equal(t, "Not Found", res.ReasonPhrase())

	res, err = f.CreateResponse(200, "Fine")
	require.NoError(t, err)
	assert.Equal(t, "Fine", res.ReasonPhrase())

	assert.Equal(t, "content", f.CreateStream("content").String())

	uri, err := f.CreateURI("https://h:443/")
	require.NoError(t, err)
	assert.Equal(t, "https://h/", uri.String())

	file := f.CreateUploadedFile(f.CreateStream("x"), 1, gohttp.UploadErrOK, "a.txt", "text/plain")
	assert.Equal(t, "a.txt", file.ClientFilename())
}

func TestFactory_CreateStreamFromFile(t *testing.T) {
	f := newFactory()
	path := writeFile(t, "on disk")

	s, err := f.CreateStreamFromFile(path, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.False(t, s.IsWritable(), "mode defaults to r")
	assert.Equal(t, "on disk", s.String())
}

func TestFactory_CreateStreamFromResource(t *testing.T) {
	f := newFactory()

	s, err := f.CreateStreamFromResource(strings.NewReader("r"))
	require.NoError(t, err)
	assert.Equal(t, "r", s.String())

	_, err = f.CreateStreamFromResource(s)
	var iae *gohttp.InvalidArgumentError
	assert.ErrorAs(t, err, &iae)
}

// ── FromHTTP ──────────────────────────────────────────────────────────────────

func TestFromHTTP_RequestLine(t *testing.T) {
	r := httptest.NewRequest("GET", "/users?page=2", nil)
	r.Header.Set("Accept", "application/json")
	r.Header.Set("Authorization", "Bearer t0k")
	r.AddCookie(&http.Cookie{Name: "session", Value: "abc"})

	req, err := newFactory().FromHTTP(r)
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, "http://example.com/users?page=2", req.URI().String())
	assert.Equal(t, "/users?page=2", req.RequestTarget())
	assert.Equal(t, "1.1", req.ProtocolVersion())

	assert.Equal(t, "Host", req.HeaderNames()[0])
	assert.Equal(t, "example.com", req.HeaderLine("host"))
	assert.Equal(t, "application/json", req.HeaderLine("accept"))
	assert.Equal(t, "t0k", req.BearerToken())

	assert.Equal(t, "2", req.Query("page"))
	assert.Equal(t, map[string]string{"session": "abc"}, req.CookieParams())

	params := req.ServerParams()
	assert.Equal(t, "GET", params["REQUEST_METHOD"])
	assert.Equal(t, "page=2", params["QUERY_STRING"])
	assert.Equal(t, "192.0.2.1:1234", params["REMOTE_ADDR"])
}

func TestFromHTTP_IPv6Host(t *testing.T) {
	r := httptest.NewRequest("GET", "http://[::1]:8080/ping", nil)

	req, err := newFactory().FromHTTP(r)
	require.NoError(t, err)

	assert.Equal(t, "http://[::1]:8080/ping", req.URI().String())
	assert.Equal(t, "[::1]:8080", req.HeaderLine("Host"))
}

func TestFromHTTP_TLSScheme(t *testing.T) {
	r := httptest.NewRequest("GET", "https://secure.test/", nil)

	req, err := newFactory().FromHTTP(r)
	require.NoError(t, err)
	assert.Equal(t, "https", req.URI().Scheme())
	assert.Equal(t, "secure.test", req.URI().Host())
}

func TestFromHTTP_Form(t *testing.T) {
	body := url.Values{"name": {"Ann"}, "tags": {"a", "b"}}.Encode()
	r := httptest.NewRequest("POST", "/submit?page=1", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	req, err := newFactory().FromHTTP(r)
	require.NoError(t, err)

	assert.Equal(t, url.Values{"name": {"Ann"}, "tags": {"a", "b"}}, req.ParsedBody())
	assert.Equal(t, "Ann", req.Input("name"))
	assert.Equal(t, "1", req.Input("page"))
	assert.Equal(t, body, req.Body().String(), "body stays readable after parsing")
}

func TestFromHTTP_JSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/api", strings.NewReader(`{"name":"Ann","age":30}`))
	r.Header.Set("Content-Type", "application/json")

	req, err := newFactory().FromHTTP(r)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "Ann", "age": float64(30)}, req.ParsedBody())
	assert.Equal(t, "30", req.Input("age"))

	var payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, req.Bind(&payload))
	assert.Equal(t, "Ann", payload.Name)
}

func TestFromHTTP_MalformedJSONIsNotParsed(t *testing.T) {
	r := httptest.NewRequest("POST", "/api", strings.NewReader(`{"name":`))
	r.Header.Set("Content-Type", "application/json")

	req, err := newFactory().FromHTTP(r)
	require.NoError(t, err)
	assert.Nil(t, req.ParsedBody())
	assert.Equal(t, `{"name":`, req.Body().String())
}

func TestFromHTTP_BodyLimit(t *testing.T) {
	r := httptest.NewRequest("POST", "/api", strings.NewReader(`{"name":"far too long"}`))
	r.Header.Set("Content-Type", "application/json")

	_, err := gohttp.NewFactory(8 * bytesize.B).FromHTTP(r)
	var re *gohttp.RuntimeError
	assert.ErrorAs(t, err, &re)
}

func TestFromHTTP_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Holiday"))
	fw, err := mw.CreateFormFile("photo", "beach.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest("POST", "/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	req, err := newFactory().FromHTTP(r)
	require.NoError(t, err)

	assert.Equal(t, "Holiday", req.Input("title"))

	file := req.File("photo")
	require.NotNil(t, file)
	assert.Equal(t, "beach.jpg", file.ClientFilename())
	assert.Equal(t, "application/octet-stream", file.ClientMediaType())
	assert.Equal(t, gohttp.UploadErrOK, file.UploadError())
	size, ok := file.Size()
	assert.True(t, ok)
	assert.Equal(t, int64(10), size)

	target := filepath.Join(t.TempDir(), "beach.jpg")
	require.NoError(t, file.MoveTo(target))
	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(raw))
}

func TestFromHTTP_OtherBodyIsStreamed(t *testing.T) {
	r := httptest.NewRequest("PUT", "/blob", strings.NewReader("raw-bytes"))
	r.Header.Set("Content-Type", "application/octet-stream")

	req, err := newFactory().FromHTTP(r)
	require.NoError(t, err)

	assert.Nil(t, req.ParsedBody())
	assert.True(t, req.Body().IsReadable())
	assert.False(t, req.Body().IsWritable())
	contents, err := req.Body().Contents()
	require.NoError(t, err)
	assert.Equal(t, "raw-bytes", contents)
}
