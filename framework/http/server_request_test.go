package http_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/straw/framework/http"
)

func newServerRequest(t *testing.T, method, uri string, opts ...gohttp.Option) *gohttp.ServerRequest {
	t.Helper()
	req, err := gohttp.NewServerRequest(method, uri, map[string]string{"REMOTE_ADDR": "127.0.0.1"}, opts...)
	require.NoError(t, err)
	return req
}

func TestNewServerRequest_ParsesQuery(t *testing.T) {
	req := newServerRequest(t, "GET", "http://h/users?page=2&sort=name")

	assert.Equal(t, url.Values{"page": {"2"}, "sort": {"name"}}, req.QueryParams())
	assert.Equal(t, "2", req.Query("page"))
	assert.Equal(t, "fallback", req.Query("missing", "fallback"))
	assert.Equal(t, "127.0.0.1", req.ServerParams()["REMOTE_ADDR"])
}

func TestServerRequest_QueryParamsAreCopies(t *testing.T) {
	req := newServerRequest(t, "GET", "/?a=1")
	q := req.QueryParams()
	q.Set("a", "changed")
	assert.Equal(t, "1", req.Query("a"))
}

func TestServerRequest_Attributes(t *testing.T) {
	req := newServerRequest(t, "GET", "/users/7")

	withID := req.WithAttribute("id", "7")
	assert.Equal(t, "7", withID.RouteParam("id"))
	assert.Equal(t, "7", withID.Attribute("id"))
	assert.Nil(t, req.Attribute("id"), "original must be untouched")
	assert.Equal(t, "none", req.Attribute("id", "none"))

	without := withID.WithoutAttribute("id")
	assert.Empty(t, without.Attributes())
	assert.Same(t, without, without.WithoutAttribute("id"))

	assert.Equal(t, "", withID.WithAttribute("n", 3).RouteParam("n"), "non-string attributes are not route params")
}

func TestServerRequest_ParsedBody(t *testing.T) {
	req := newServerRequest(t, "POST", "/")

	form, err := req.WithParsedBody(url.Values{"name": {"Ann"}})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"name": {"Ann"}}, form.ParsedBody())
	assert.Nil(t, req.ParsedBody())

	type payload struct{ Name string }
	_, err = req.WithParsedBody(&payload{})
	assert.NoError(t, err)

	_, err = req.WithParsedBody(42)
	var iae *gohttp.InvalidArgumentError
	assert.ErrorAs(t, err, &iae)

	_, err = req.WithParsedBody(payload{})
	assert.ErrorAs(t, err, &iae)
}

func TestServerRequest_CookiesAndFiles(t *testing.T) {
	req := newServerRequest(t, "POST", "/")

	cookies := map[string]string{"session": "abc"}
	withCookies := req.WithCookieParams(cookies)
	cookies["session"] = "mutated"
	assert.Equal(t, "abc", withCookies.CookieParams()["session"])
	assert.Empty(t, req.CookieParams())

	file := newUpload(t, "x", gohttp.UploadErrOK)
	withFiles := req.WithUploadedFiles(map[string][]*gohttp.UploadedFile{"avatar": {file}})
	assert.Same(t, file, withFiles.File("avatar"))
	assert.Nil(t, withFiles.File("missing"))
	assert.Empty(t, req.UploadedFiles())
}

func TestServerRequest_MutatorsKeepServerState(t *testing.T) {
	req := newServerRequest(t, "GET", "http://h/?a=1").WithAttribute("k", "v")

	changed, err := req.WithHeader("X-Foo", "1")
	require.NoError(t, err)
	assert.Equal(t, "v", changed.Attribute("k"))
	assert.Equal(t, "1", changed.Query("a"))
	assert.False(t, req.HasHeader("X-Foo"))

	assert.Same(t, req, req.WithProtocolVersion("1.1"))
	assert.Same(t, req, req.WithoutHeader("X-Missing"))

	post, err := req.WithMethod("POST")
	require.NoError(t, err)
	assert.Equal(t, "POST", post.Method())
	assert.Equal(t, "v", post.Attribute("k"))
}

// ── Input helpers ─────────────────────────────────────────────────────────────

func TestServerRequest_InputPrefersBody(t *testing.T) {
	req := newServerRequest(t, "POST", "/?name=query&page=3")
	req, err := req.WithParsedBody(url.Values{"name": {"body"}})
	require.NoError(t, err)

	assert.Equal(t, "body", req.Input("name"))
	assert.Equal(t, "3", req.Input("page"))
	assert.Equal(t, "guest", req.Input("missing", "guest"))
	assert.True(t, req.Has("name"))
	assert.False(t, req.Has("missing"))

	assert.Equal(t, map[string]string{"name": "body", "page": "3"}, req.All())
}

func TestServerRequest_InputFromJSONMap(t *testing.T) {
	req := newServerRequest(t, "POST", "/")
	req, err := req.WithParsedBody(map[string]any{"count": 2.0, "name": "Ann"})
	require.NoError(t, err)

	assert.Equal(t, "2", req.Input("count"))
	assert.Equal(t, map[string]string{"count": "2", "name": "Ann"}, req.All())
}

func TestServerRequest_BearerTokenAndJSON(t *testing.T) {
	req := newServerRequest(t, "GET", "/",
		gohttp.SetHeader("Authorization", "Bearer tok-123"),
		gohttp.SetHeader("Accept", "application/json"),
	)
	assert.Equal(t, "tok-123", req.BearerToken())
	assert.True(t, req.IsJSON())

	plain := newServerRequest(t, "GET", "/", gohttp.SetHeader("Authorization", "Basic xyz"))
	assert.Equal(t, "", plain.BearerToken())
	assert.False(t, plain.IsJSON())
}

func TestServerRequest_BindJSON(t *testing.T) {
	req := newServerRequest(t, "POST", "/",
		gohttp.SetHeader("Content-Type", "application/json; charset=utf-8"),
		gohttp.SetBody(`{"name":"Ann","age":30}`),
	)

	var payload struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	require.NoError(t, req.Bind(&payload))
	assert.Equal(t, "Ann", payload.Name)
	assert.Equal(t, 30, payload.Age)

	empty := newServerRequest(t, "POST", "/", gohttp.SetHeader("Content-Type", "application/json"))
	assert.Error(t, empty.Bind(&payload))
}

func TestServerRequest_BindForm(t *testing.T) {
	req := newServerRequest(t, "POST", "/")
	req, err := req.WithParsedBody(url.Values{"name": {"Ann"}, "tags": {"a", "b"}})
	require.NoError(t, err)

	var payload struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, req.Bind(&payload))
	assert.Equal(t, "Ann", payload.Name)
	assert.Equal(t, []string{"a", "b"}, payload.Tags)
}
