package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const (
	networkErrorPrefix = "network error"
	decodeErrorPrefix  = "decode error"
	encodeErrorPrefix  = "encode error"

	// error bodies larger than this are not inspected
	maxErrorBody = 1 << 20
)

// ApiError is the only error kind produced by the client core. StatusCode is
// 0 when no HTTP status is available: transport failures and bodies that
// could not be encoded or decoded.
type ApiError struct {
	StatusCode int
	Message    string
	Details    map[string]interface{}

	cause error
}

func (e *ApiError) Error() string {
	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.cause
}

func (e *ApiError) IsNetworkError() bool {
	return e.StatusCode == 0 && strings.HasPrefix(e.Message, networkErrorPrefix)
}

func newNetworkError(err error) *ApiError {
	return &ApiError{
		StatusCode: 0,
		Message:    fmt.Sprintf("%s: %s", networkErrorPrefix, err.Error()),
		Details:    map[string]interface{}{},
		cause:      err,
	}
}

func newDecodeError(err error) *ApiError {
	return &ApiError{
		StatusCode: 0,
		Message:    fmt.Sprintf("%s: %s", decodeErrorPrefix, err.Error()),
		Details:    map[string]interface{}{},
		cause:      err,
	}
}

func newEncodeError(err error) *ApiError {
	return &ApiError{
		StatusCode: 0,
		Message:    fmt.Sprintf("%s: %s", encodeErrorPrefix, err.Error()),
		Details:    map[string]interface{}{},
		cause:      err,
	}
}

// newResponseError builds the error for a non-2xx response. The message comes
// from the body's "detail" or "message" field when the body is a JSON object,
// otherwise it is "HTTP <status>: <status text>". Reading or parsing the body
// never fails the construction.
func newResponseError(resp *http.Response) *ApiError {
	apiErr := &ApiError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp)),
		Details:    map[string]interface{}{},
	}
	if resp.Body == nil {
		return apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var details map[string]interface{}
	if err := json.Unmarshal(body, &details); err != nil || details == nil {
		return apiErr
	}
	apiErr.Details = details

	for _, key := range []string{"detail", "message"} {
		if msg, ok := details[key].(string); ok && msg != "" {
			apiErr.Message = msg
			break
		}
	}
	return apiErr
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func AsApiError(err error) (*ApiError, bool) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, 0 for transport level
// failures and -1 when err did not come from the client core.
func StatusCode(err error) int {
	if apiErr, ok := AsApiError(err); ok {
		return apiErr.StatusCode
	}
	return -1
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
