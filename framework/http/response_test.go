package http_test

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/straw/framework/http"
)

// ── Status ────────────────────────────────────────────────────────────────────

func TestNewResponse_DefaultReason(t *testing.T) {
	res, err := gohttp.NewResponse(404)
	require.NoError(t, err)
	assert.Equal(t, 404, res.StatusCode())
	assert.Equal(t, "Not Found", res.ReasonPhrase())
}

func TestNewResponse_CustomReason(t *testing.T) {
	res, err := gohttp.NewResponse(200, gohttp.SetReasonPhrase("Fine"))
	require.NoError(t, err)
	assert.Equal(t, "Fine", res.ReasonPhrase())
}

func TestNewResponse_InvalidStatus(t *testing.T) {
	for _, code := range []int{0, 99, 600, 999} {
		_, err := gohttp.NewResponse(code)
		var iae *gohttp.InvalidArgumentError
		assert.ErrorAs(t, err, &iae, "status %d", code)
	}
}

func TestWithStatus(t *testing.T) {
	res := newResponse(t)

	notFound, err := res.WithStatus(404)
	require.NoError(t, err)
	assert.Equal(t, 404, notFound.StatusCode())
	assert.Equal(t, "Not Found", notFound.ReasonPhrase())
	assert.Equal(t, 200, res.StatusCode(), "original must be untouched")

	teapot, err := res.WithStatus(418, "Short and stout")
	require.NoError(t, err)
	assert.Equal(t, "Short and stout", teapot.ReasonPhrase())

	unknown, err := res.WithStatus(599)
	require.NoError(t, err)
	assert.Equal(t, "", unknown.ReasonPhrase())

	_, err = res.WithStatus(999)
	assert.Error(t, err)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "OK", gohttp.StatusText(200))
	assert.Equal(t, "I'm a teapot", gohttp.StatusText(418))
	assert.Equal(t, "Unprocessable Content", gohttp.StatusText(422))
	assert.Equal(t, "", gohttp.StatusText(299))
}

// ── Sending ───────────────────────────────────────────────────────────────────

func TestSend_WireEmitter(t *testing.T) {
	res := newResponse(t,
		gohttp.SetHeader("Content-Type", "text/plain"),
		gohttp.SetHeader("X-Multi", "a", "b"),
		gohttp.SetBody("hello"),
	)

	var out bytes.Buffer
	require.NoError(t, res.Send(gohttp.NewWireEmitter(&out)))

	assert.Equal(t,
		"HTTP/1.1 200 OK\r\n"+
			"Content-Type: text/plain\r\n"+
			"X-Multi: a\r\n"+
			"X-Multi: b\r\n"+
			"\r\n"+
			"hello",
		out.String())
}

func TestSend_BodyIsRewound(t *testing.T) {
	res := newResponse(t, gohttp.SetBody("hello"))
	_, err := res.Body().Contents()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, res.Send(gohttp.NewWireEmitter(&out)))
	assert.Contains(t, out.String(), "\r\n\r\nhello")
}

func TestSend_ResponseWriterEmitter(t *testing.T) {
	res, err := gohttp.NewResponse(201,
		gohttp.SetHeader("Content-Type", "application/json"),
		gohttp.SetHeader("Set-Cookie", "a=1", "b=2"),
		gohttp.SetBody(`{"ok":true}`),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "text/html")

	require.NoError(t, res.Send(gohttp.NewResponseWriterEmitter(rec)))

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, []string{"application/json"}, rec.Header().Values("Content-Type"), "Content-Type replaces")
	assert.Equal(t, []string{"a=1", "b=2"}, rec.Header().Values("Set-Cookie"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSendHeaders_SkippedWhenAlreadySent(t *testing.T) {
	var out bytes.Buffer
	e := gohttp.NewWireEmitter(&out)
	_, err := e.Write([]byte("early"))
	require.NoError(t, err)
	require.True(t, e.HeadersSent())

	res := newResponse(t, gohttp.SetHeader("X-Late", "1"), gohttp.SetBody("!"))
	require.NoError(t, res.Send(e))

	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\nearly!", out.String())
}

func TestWireEmitter_ReplaceDropsEarlierValues(t *testing.T) {
	var out bytes.Buffer
	e := gohttp.NewWireEmitter(&out)
	require.NoError(t, e.EmitHeader("Content-Type", "text/html", false))
	require.NoError(t, e.EmitHeader("content-type", "text/plain", true))
	require.NoError(t, e.EmitStatus("1.0", 500, "Internal Server Error"))
	require.NoError(t, e.Finish())

	assert.Equal(t, "HTTP/1.0 500 Internal Server Error\r\ncontent-type: text/plain\r\n\r\n", out.String())

	assert.Error(t, e.EmitHeader("X-Late", "1", false))
	assert.Error(t, e.EmitStatus("1.1", 200, "OK"))
}
