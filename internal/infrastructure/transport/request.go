// Package transport executes single network calls against the onboarding
// backend: it resolves headers, injects the bearer credential, applies the
// call deadline, classifies transport-level failures, and hands back a
// decode-once response handle. It never interprets business-level error
// bodies; that belongs to the application layer.
package transport

import (
	"context"
	"io"
	"time"
)

// HeaderResolver computes a header value just in time, e.g. a device
// fingerprint or a locale that needs async lookup. A resolver that fails
// degrades to HeaderPlaceholder rather than aborting the whole call.
type HeaderResolver func(ctx context.Context) (string, error)

// HeaderPlaceholder is substituted for any header whose resolver failed.
const HeaderPlaceholder = "unavailable"

// Request describes one call. A Request is created per call and never
// persisted; it settles into a *Response or a classified failure.
type Request struct {
	Method string
	URL    string

	// Header holds static header values. They override the gateway's
	// defaults on key collision.
	Header map[string]string

	// Resolvers holds headers whose values are computed at send time.
	Resolvers map[string]HeaderResolver

	// Body is the request payload, nil for body-less calls.
	Body io.Reader

	// ContentType is the body's media type. Leave empty for JSON bodies
	// (the gateway fills in application/json); multipart bodies must set
	// the writer-generated value so the boundary survives intact.
	ContentType string

	// Timeout overrides the gateway's default deadline when positive.
	Timeout time.Duration
}
