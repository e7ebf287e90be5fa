// Package apiclient holds the call plumbing shared by the application-level
// clients: body encoding, base-URL joining, and the translation of decoded
// error responses into classified failures. Only this layer knows the
// backend's per-endpoint body shapes, so domain-level classification
// happens here rather than in the transport gateway.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/creatorly/creator-sdk/internal/domain/shared"
	"github.com/creatorly/creator-sdk/internal/infrastructure/transport"
)

// Caller executes calls against one API base URL through a gateway.
type Caller struct {
	gateway *transport.Gateway
	baseURL string
}

// NewCaller creates a caller for the given base URL.
func NewCaller(gateway *transport.Gateway, baseURL string) *Caller {
	return &Caller{gateway: gateway, baseURL: strings.TrimRight(baseURL, "/")}
}

// URL joins the base URL with an endpoint path.
func (c *Caller) URL(path string) string {
	return c.baseURL + path
}

// Get executes a body-less GET and decodes the response.
func (c *Caller) Get(ctx context.Context, path string) (transport.Decoded, error) {
	resp, err := c.gateway.Execute(ctx, transport.Request{
		Method: http.MethodGet,
		URL:    c.URL(path),
	})
	if err != nil {
		return transport.Decoded{}, err
	}
	return c.settle(path, resp)
}

// PostJSON marshals the payload as JSON, executes the call, and decodes
// the response.
func (c *Caller) PostJSON(ctx context.Context, path string, payload any) (transport.Decoded, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return transport.Decoded{}, shared.NewInvalidRequest("failed to encode request payload").WithCause(err)
	}
	resp, err := c.gateway.Execute(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.URL(path),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return transport.Decoded{}, err
	}
	return c.settle(path, resp)
}

// PostMultipart builds a multipart form through the given function and
// executes the call. The form writer owns the boundary; the gateway is told
// the exact content type and never forces its own.
func (c *Caller) PostMultipart(ctx context.Context, path string, build func(w *multipart.Writer) error) (transport.Decoded, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := build(writer); err != nil {
		return transport.Decoded{}, shared.NewInvalidRequest("failed to encode multipart payload").WithCause(err)
	}
	if err := writer.Close(); err != nil {
		return transport.Decoded{}, shared.NewInvalidRequest("failed to finalize multipart payload").WithCause(err)
	}

	resp, err := c.gateway.Execute(ctx, transport.Request{
		Method:      http.MethodPost,
		URL:         c.URL(path),
		Body:        &buf,
		ContentType: writer.FormDataContentType(),
	})
	if err != nil {
		return transport.Decoded{}, err
	}
	return c.settle(path, resp)
}

// settle decodes the response and classifies any error status.
func (c *Caller) settle(path string, resp *transport.Response) (transport.Decoded, error) {
	decoded := resp.Decode()
	if decoded.Err != nil {
		return decoded, decoded.Err
	}
	if failure := FailureFrom(c.URL(path), decoded); failure != nil {
		return decoded, failure
	}
	return decoded, nil
}

// FailureFrom translates a decoded error response into a classified domain
// failure. Classification is status-code-first; unrecognized body shapes
// become a generic domain failure rather than a guess from message text.
func FailureFrom(url string, d transport.Decoded) error {
	if d.Status < 400 {
		return nil
	}

	code := stringField(d.Body, "code", "error_code", "error")
	message := stringField(d.Body, "message", "detail")

	switch d.Status {
	case http.StatusUnprocessableEntity:
		failure := shared.NewDomainFailure(d.Status, code, message)
		failure.Fields = fieldErrors(d.Body)
		if failure.Message == shared.GenericFailureMessage && len(failure.Fields) > 0 {
			failure.Message = failure.Fields[0].Message
		}
		failure.URL = url
		return failure
	case http.StatusTooManyRequests:
		if code == "" {
			code = "RATE_LIMITED"
		}
		if message == "" {
			message = "Too many attempts. Please wait before trying again."
		}
		failure := shared.NewDomainFailure(d.Status, code, message)
		failure.RetryAfter = retryAfter(d.Body)
		failure.URL = url
		return failure
	default:
		failure := shared.NewDomainFailure(d.Status, code, message)
		failure.URL = url
		return failure
	}
}

// stringField returns the first present string field among names.
func stringField(body map[string]any, names ...string) string {
	for _, name := range names {
		if value, ok := body[name].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// fieldErrors unpacks the 422 validation shape: either a list of
// {field, message} objects or a map of field name to message list.
func fieldErrors(body map[string]any) []shared.FieldError {
	var fields []shared.FieldError
	switch errs := body["errors"].(type) {
	case []any:
		for _, item := range errs {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			fields = append(fields, shared.FieldError{
				Field:   stringField(entry, "field", "param"),
				Message: stringField(entry, "message", "msg"),
			})
		}
	case map[string]any:
		for field, value := range errs {
			switch messages := value.(type) {
			case []any:
				for _, m := range messages {
					if text, ok := m.(string); ok {
						fields = append(fields, shared.FieldError{Field: field, Message: text})
					}
				}
			case string:
				fields = append(fields, shared.FieldError{Field: field, Message: messages})
			}
		}
	}
	return fields
}

// retryAfter reads the backend's retry hint, given in seconds.
func retryAfter(body map[string]any) time.Duration {
	switch v := body["retry_after"].(type) {
	case float64:
		return time.Duration(v) * time.Second
	case string:
		var seconds int
		if _, err := fmt.Sscanf(v, "%d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}
