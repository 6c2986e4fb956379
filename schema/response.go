package schema

import "net/http"

type (
	// Response is the result of an activation. Chat responses carry the
	// rendered message as body with 200; HTTP-facing failures carry an ErrorBody.
	Response struct {
		StatusCode int    `json:"statusCode,omitempty"`
		Headers    Header `json:"headers,omitempty"`
		Body       any    `json:"body"`
	}

	Header map[string]string

	// ErrorBody is the body of an HTTP-facing failure.
	ErrorBody struct {
		Error string `json:"error"`
	}
)

// NewErrorResponse creates an HTTP-facing failure; status defaults to 400.
func NewErrorResponse(message string, statusCode int) *Response {
	if statusCode == 0 {
		statusCode = http.StatusBadRequest
	}
	return &Response{StatusCode: statusCode, Body: &ErrorBody{Error: message}}
}

// NewTextResponse creates a plain text browser response.
func NewTextResponse(text string) *Response {
	return &Response{StatusCode: http.StatusOK, Headers: Header{"Content-Type": "text/plain; charset=utf-8"}, Body: text}
}

// NewBodyResponse wraps a rendered chat payload.
func NewBodyResponse(body any) *Response {
	return &Response{StatusCode: http.StatusOK, Body: body}
}

// IsError returns true for non 2xx responses.
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}
