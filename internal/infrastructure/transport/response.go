package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/creatorly/creator-sdk/internal/domain/shared"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Decoded is the memoized result of reading a response body. Decoding the
// same Response twice yields the identical Decoded value.
type Decoded struct {
	Status int
	// Body is the parsed JSON object, nil for an empty body.
	Body map[string]any
	// Raw is the body text as read, for typed unmarshalling. It is empty
	// when the body was empty or synthesized.
	Raw []byte
	// Err is set only for hard decode failures: a success-status body that
	// would not parse, or an error-status body that was a markup document.
	Err error
}

// Into unmarshals the raw body into a typed value. Only meaningful after a
// successful decode of a non-empty body.
func (d Decoded) Into(v any) error {
	if len(d.Raw) == 0 {
		return nil
	}
	return json.Unmarshal(d.Raw, v)
}

// Response is a live handle over one HTTP response. The body is read at
// most once; every Decode call after the first returns the cached result,
// so repeated reads are safe.
type Response struct {
	raw    *http.Response
	url    string
	cancel context.CancelFunc

	once    sync.Once
	decoded Decoded
}

func newResponse(raw *http.Response, url string, cancel context.CancelFunc) *Response {
	return &Response{raw: raw, url: url, cancel: cancel}
}

// StatusCode returns the HTTP status without touching the body.
func (r *Response) StatusCode() int {
	return r.raw.StatusCode
}

// Decode reads the full body exactly once and classifies it:
//
//   - an empty body decodes to a nil Body, not an error;
//   - a markup error page on a 4xx/5xx status is an upstream non-data
//     failure, usually an infrastructure misconfiguration;
//   - an unparseable body on a 4xx/5xx status degrades to a synthesized
//     generic error body, so error-path callers always get a consistent
//     shape and never a thrown fault;
//   - an unparseable body on a 2xx status is a hard decode failure, never
//     silently swallowed.
func (r *Response) Decode() Decoded {
	r.once.Do(func() {
		r.decoded = r.readAndClassify()
		if r.cancel != nil {
			r.cancel()
		}
	})
	return r.decoded
}

// Close releases the call's resources without decoding. Safe after Decode.
func (r *Response) Close() {
	r.once.Do(func() {
		r.decoded = Decoded{Status: r.raw.StatusCode}
		r.raw.Body.Close()
		if r.cancel != nil {
			r.cancel()
		}
	})
}

func (r *Response) readAndClassify() Decoded {
	status := r.raw.StatusCode
	out := Decoded{Status: status}

	data, err := io.ReadAll(io.LimitReader(r.raw.Body, maxResponseSize))
	r.raw.Body.Close()
	if err != nil {
		// The stream was consumed or broke mid-read. Error statuses still
		// settle to a structured shape; a broken success body is a bug signal.
		if status >= 400 {
			out.Body = genericErrorBody(status)
			return out
		}
		out.Err = shared.NewDecodeFailure(r.url, err)
		return out
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return out
	}

	if status >= 400 && looksLikeMarkup(text) {
		out.Err = shared.NewUpstreamNonData(r.url, status)
		return out
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(text), &body); err != nil {
		if status >= 400 {
			out.Body = genericErrorBody(status)
			return out
		}
		out.Err = shared.NewDecodeFailure(r.url, err)
		return out
	}

	out.Body = body
	out.Raw = []byte(text)
	return out
}

// genericErrorBody synthesizes the structured shape downstream callers
// expect when an error response carried nothing parseable.
func genericErrorBody(status int) map[string]any {
	return map[string]any{
		"status":  float64(status),
		"message": shared.GenericFailureMessage,
	}
}

// looksLikeMarkup reports whether a body is an HTML/XML document rather
// than data, e.g. a proxy's error page.
func looksLikeMarkup(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "<!doctype") ||
		strings.HasPrefix(lower, "<html") ||
		strings.HasPrefix(lower, "<?xml") ||
		strings.HasPrefix(lower, "<head") ||
		strings.HasPrefix(lower, "<body")
}
