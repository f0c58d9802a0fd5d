package httputil

import (
	"strconv"

	"github.com/getsentry/sentry-go"
)

// HTTPStatusCodeTag is the name of the HTTP status code tag.
const HTTPStatusCodeTag = "http.response.status_code"

// SetHTTPStatusCodeTag tags the transaction of the current request with the
// response status code.
func SetHTTPStatusCodeTag(e *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint == nil || hint.Response == nil {
		return e
	}
	if e.Tags == nil {
		e.Tags = make(map[string]string)
	}
	if _, exists := e.Tags[HTTPStatusCodeTag]; !exists {
		e.Tags[HTTPStatusCodeTag] = strconv.Itoa(hint.Response.StatusCode)
	}
	return e
}
