package shared

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind classifies the terminal outcome of a single call attempt.
// No kind is retried automatically; callers decide whether a retry makes sense.
type FailureKind string

const (
	// KindInvalidRequest means the caller supplied a malformed URL or an
	// unresolvable request; the call never reached the network.
	KindInvalidRequest FailureKind = "INVALID_REQUEST"
	// KindAuthExpired means the token was past expiry at send time or the
	// backend answered 401; the stored token is cleared as a side effect.
	KindAuthExpired FailureKind = "AUTH_EXPIRED"
	// KindTimeout means the call did not settle within the configured deadline.
	KindTimeout FailureKind = "TIMEOUT"
	// KindCancelled means the call was aborted for a reason other than timeout.
	KindCancelled FailureKind = "CANCELLED"
	// KindNetworkUnreachable means a low-level transport failure (DNS,
	// connection refused, offline).
	KindNetworkUnreachable FailureKind = "NETWORK_UNREACHABLE"
	// KindOriginPolicy means the call was rejected by an access-control layer
	// in front of the backend. Actionable by an operator, not the end user.
	KindOriginPolicy FailureKind = "ORIGIN_POLICY_VIOLATION"
	// KindUpstreamNonData means a 4xx/5xx body looked like an HTML error page
	// instead of structured data.
	KindUpstreamNonData FailureKind = "UPSTREAM_NON_DATA"
	// KindDecodeFailure means a success response body failed to parse.
	// Treated as a hard bug signal, never masked.
	KindDecodeFailure FailureKind = "DECODE_FAILURE"
	// KindDomain means a well-formed 4xx/5xx body with an application-level
	// message or code. The only kind the UI is expected to recover from locally.
	KindDomain FailureKind = "DOMAIN_ERROR"
)

// FieldError is one field-level validation message from a 422 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Failure is the single discriminated failure type returned from every call.
// Exceptions are reserved for programmer-error assertions; everything a call
// can do wrong at runtime arrives as a *Failure.
type Failure struct {
	Kind    FailureKind
	Code    string // application-level error code, KindDomain only
	Message string
	Status  int    // HTTP status when a response was received, 0 otherwise
	URL     string // target URL for diagnostics

	// Timeout carries the configured deadline for KindTimeout.
	Timeout time.Duration
	// RetryAfter carries the backend's retry hint for rate-limited calls.
	RetryAfter time.Duration
	// Fields carries field-level validation messages for 422 responses.
	Fields []FieldError

	cause error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("%s: %s", f.Code, f.Message)
	}
	return f.Message
}

// Unwrap exposes the underlying transport error, if any.
func (f *Failure) Unwrap() error {
	return f.cause
}

// Is matches two failures by kind so callers can use errors.Is with a
// bare-kind sentinel, e.g. errors.Is(err, &Failure{Kind: KindTimeout}).
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return f.Kind == t.Kind
}

// WithCause attaches the underlying error for unwrapping.
func (f *Failure) WithCause(err error) *Failure {
	f.cause = err
	return f
}

// NewInvalidRequest reports a caller bug that never reaches the network.
func NewInvalidRequest(message string) *Failure {
	return &Failure{Kind: KindInvalidRequest, Message: message}
}

// NewAuthExpired reports an expired or rejected credential.
func NewAuthExpired(url string) *Failure {
	return &Failure{
		Kind:    KindAuthExpired,
		Message: "Your session has expired. Please sign in again.",
		URL:     url,
	}
}

// NewTimeout reports a call that did not settle within the deadline.
func NewTimeout(url string, timeout time.Duration) *Failure {
	return &Failure{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("Request to %s did not complete within %s.", url, timeout),
		URL:     url,
		Timeout: timeout,
	}
}

// NewCancelled reports a caller-initiated abort, distinct from a timeout so
// the UI does not show a misleading "server is slow" message.
func NewCancelled(url string) *Failure {
	return &Failure{Kind: KindCancelled, Message: "Request was cancelled.", URL: url}
}

// NewNetworkUnreachable reports a low-level transport failure.
func NewNetworkUnreachable(url string, cause error) *Failure {
	return &Failure{
		Kind:    KindNetworkUnreachable,
		Message: "Could not reach the server. Check your connection and try again.",
		URL:     url,
		cause:   cause,
	}
}

// NewOriginPolicy reports an access-control rejection in front of the backend.
// The message is a remediation hint for whoever operates the deployment.
func NewOriginPolicy(url string, cause error) *Failure {
	return &Failure{
		Kind: KindOriginPolicy,
		Message: "The request was blocked by an access-control policy in front of the API. " +
			"Verify the backend's allowed-origin and proxy configuration for this client.",
		URL:   url,
		cause: cause,
	}
}

// NewUpstreamNonData reports an error body that is a markup document rather
// than structured data, which usually indicates infrastructure
// misconfiguration rather than an application bug.
func NewUpstreamNonData(url string, status int) *Failure {
	return &Failure{
		Kind:    KindUpstreamNonData,
		Message: fmt.Sprintf("The server returned an error page (HTTP %d) instead of a data response.", status),
		URL:     url,
		Status:  status,
	}
}

// NewDecodeFailure reports a success response whose body failed to parse.
func NewDecodeFailure(url string, cause error) *Failure {
	return &Failure{
		Kind:    KindDecodeFailure,
		Message: "The server returned an unreadable response.",
		URL:     url,
		cause:   cause,
	}
}

// NewDomainFailure reports an application-level error carried in a
// well-formed error body.
func NewDomainFailure(status int, code, message string) *Failure {
	if message == "" {
		message = GenericFailureMessage
	}
	return &Failure{Kind: KindDomain, Code: code, Message: message, Status: status}
}

// GenericFailureMessage is the worst-case fallback shown to the user when no
// classification produced anything better.
const GenericFailureMessage = "Something went wrong. Please try again."

// KindOf returns the failure kind of err, or an empty kind for non-failures.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsKind reports whether err is a classified failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	return KindOf(err) == kind
}

// UserMessage resolves any error to a human-readable message. Classified
// failures surface their own message; anything else degrades to the generic
// fallback so no failure crashes the UI.
func UserMessage(err error) string {
	var f *Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	return GenericFailureMessage
}
