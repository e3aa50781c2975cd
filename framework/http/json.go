package http

import (
	json "github.com/goccy/go-json"
)

type envelope map[string]any

// NewJSONResponse encodes data as the body of a JSON response.
//
//	res, err := http.NewJSONResponse(200, map[string]any{"message": "ok"})
func NewJSONResponse(status int, data any) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, runtimeError("NewJSONResponse", "unable to encode response", err)
	}
	return NewResponse(status,
		SetHeader("Content-Type", "application/json"),
		SetBody(body),
	)
}

// Success sends 200 JSON: {"data": v}
func Success(v any) (*Response, error) {
	return NewJSONResponse(200, envelope{"data": v})
}

// Created sends 201 JSON: {"data": v}
func Created(v any) (*Response, error) {
	return NewJSONResponse(201, envelope{"data": v})
}

// NoContent sends 204 with no body.
func NoContent() (*Response, error) {
	return NewResponse(204)
}

// ErrorResponse sends a JSON error response.
//
//	res, err := http.ErrorResponse(404, "Resource not found")
func ErrorResponse(status int, message string) (*Response, error) {
	return NewJSONResponse(status, envelope{"message": message})
}

// Unauthorized sends 401.
func Unauthorized(message ...string) (*Response, error) {
	return ErrorResponse(401, first(message, "Unauthenticated."))
}

// Forbidden sends 403.
func Forbidden(message ...string) (*Response, error) {
	return ErrorResponse(403, first(message, "This action is unauthorized."))
}

// NotFound sends 404.
func NotFound(message ...string) (*Response, error) {
	return ErrorResponse(404, first(message, "Not found."))
}

// ServerError sends 500.
func ServerError(message ...string) (*Response, error) {
	return ErrorResponse(500, first(message, "Server Error."))
}

// ValidationErrors sends 422 with the Laravel error bag:
// {"message": "...", "errors": {"field": ["msg"]}}
func ValidationErrors(errors map[string][]string) (*Response, error) {
	return NewJSONResponse(422, envelope{
		"message": "The given data was invalid.",
		"errors":  errors,
	})
}

// Redirect sends a redirect to url; status defaults to 302.
func Redirect(url string, status ...int) (*Response, error) {
	code := 302
	if len(status) > 0 {
		code = status[0]
	}
	return NewResponse(code, SetHeader("Location", url))
}

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
