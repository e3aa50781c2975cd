package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/straw/framework/http"
)

func TestSuccess(t *testing.T) {
	res, err := gohttp.Success(map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode())
	assert.Equal(t, "application/json", res.HeaderLine("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":1}}`, res.Body().String())
}

func TestCreated(t *testing.T) {
	res, err := gohttp.Created("x")
	require.NoError(t, err)
	assert.Equal(t, 201, res.StatusCode())
	assert.JSONEq(t, `{"data":"x"}`, res.Body().String())
}

func TestNoContent(t *testing.T) {
	res, err := gohttp.NoContent()
	require.NoError(t, err)
	assert.Equal(t, 204, res.StatusCode())
	assert.Equal(t, "", res.Body().String())
}

func TestErrorHelpers(t *testing.T) {
	cases := []struct {
		name    string
		fn      func(...string) (*gohttp.Response, error)
		status  int
		message string
	}{
		{"unauthorized", gohttp.Unauthorized, 401, "Unauthenticated."},
		{"forbidden", gohttp.Forbidden, 403, "This action is unauthorized."},
		{"not found", gohttp.NotFound, 404, "Not found."},
		{"server error", gohttp.ServerError, 500, "Server Error."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.fn()
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.StatusCode())
			assert.JSONEq(t, `{"message":"`+tc.message+`"}`, res.Body().String())

			custom, err := tc.fn("custom")
			require.NoError(t, err)
			assert.JSONEq(t, `{"message":"custom"}`, custom.Body().String())
		})
	}
}

func TestValidationErrors(t *testing.T) {
	res, err := gohttp.ValidationErrors(map[string][]string{"email": {"The email field is required."}})
	require.NoError(t, err)
	assert.Equal(t, 422, res.StatusCode())
	assert.JSONEq(t,
		`{"message":"The given data was invalid.","errors":{"email":["The email field is required."]}}`,
		res.Body().String())
}

func TestRedirect(t *testing.T) {
	res, err := gohttp.Redirect("/login")
	require.NoError(t, err)
	assert.Equal(t, 302, res.StatusCode())
	assert.Equal(t, "/login", res.HeaderLine("Location"))

	res, err = gohttp.Redirect("/moved", 301)
	require.NoError(t, err)
	assert.Equal(t, 301, res.StatusCode())
}

func TestNewJSONResponse_Unencodable(t *testing.T) {
	_, err := gohttp.NewJSONResponse(200, make(chan int))
	var re *gohttp.RuntimeError
	assert.ErrorAs(t, err, &re)
}
