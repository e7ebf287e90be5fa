package apiclient

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creatorly/creator-sdk/internal/domain/shared"
	"github.com/creatorly/creator-sdk/internal/infrastructure/ratelimit"
	"github.com/creatorly/creator-sdk/internal/infrastructure/session"
	"github.com/creatorly/creator-sdk/internal/infrastructure/transport"
)

func newTestCaller(t *testing.T, handler http.HandlerFunc) (*Caller, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	gateway := transport.NewGateway(session.NewStore(), ratelimit.NewInMemoryTracker(0), zap.NewNop(), transport.Options{})
	return NewCaller(gateway, server.URL+"/api/v1/"), server
}

func TestCallerURLJoining(t *testing.T) {
	gateway := transport.NewGateway(session.NewStore(), nil, zap.NewNop(), transport.Options{})
	caller := NewCaller(gateway, "https://api.creatorly.io/api/v1/")

	assert.Equal(t, "https://api.creatorly.io/api/v1/auth/signup", caller.URL("/auth/signup"))
}

func TestGetDecodesBody(t *testing.T) {
	caller, _ := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/creator/onboarding/status", r.URL.Path)
		w.Write([]byte(`{"current_step": 2, "completed_steps": [1], "progress_percentage": 17}`))
	})

	d, err := caller.Get(context.Background(), "/creator/onboarding/status")
	require.NoError(t, err)
	assert.Equal(t, float64(2), d.Body["current_step"])
}

func TestPostJSONSendsPayload(t *testing.T) {
	caller, _ := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email": "ada@example.com"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "u-1"}`))
	})

	d, err := caller.PostJSON(context.Background(), "/auth/signup", map[string]string{"email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, d.Status)
}

func TestPostMultipartPreservesBoundary(t *testing.T) {
	caller, _ := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "ada_codes", r.FormValue("display_name"))

		file, header, err := r.FormFile("profile_picture")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "avatar.png", header.Filename)

		w.Write([]byte(`{"status": "success"}`))
	})

	d, err := caller.PostMultipart(context.Background(), "/creator/onboarding/step1/basic-profile", func(w *multipart.Writer) error {
		if err := w.WriteField("display_name", "ada_codes"); err != nil {
			return err
		}
		part, err := w.CreateFormFile("profile_picture", "avatar.png")
		if err != nil {
			return err
		}
		_, err = part.Write([]byte("png-bytes"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "success", d.Body["status"])
}

func TestPostMultipartBuildFailure(t *testing.T) {
	caller, _ := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("a failed form build must not reach the network")
	})

	_, err := caller.PostMultipart(context.Background(), "/x", func(w *multipart.Writer) error {
		return errors.New("file unreadable")
	})
	assert.True(t, shared.IsKind(err, shared.KindInvalidRequest))
}

func TestFailureFromValidationResponse(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantFields  []shared.FieldError
		wantMessage string
	}{
		{
			name: "list of field objects",
			body: `{"errors": [{"field": "display_name", "message": "Already taken."}, {"field": "bio", "message": "Too long."}]}`,
			wantFields: []shared.FieldError{
				{Field: "display_name", Message: "Already taken."},
				{Field: "bio", Message: "Too long."},
			},
			wantMessage: "Already taken.",
		},
		{
			name: "map of message lists",
			body: `{"message": "Validation failed.", "errors": {"phone": ["Must be E.164."]}}`,
			wantFields: []shared.FieldError{
				{Field: "phone", Message: "Must be E.164."},
			},
			wantMessage: "Validation failed.",
		},
		{
			name:        "no recognizable fields",
			body:        `{"unexpected": true}`,
			wantMessage: shared.GenericFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller, _ := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(tt.body))
			})

			_, err := caller.PostJSON(context.Background(), "/auth/signup", map[string]string{})
			require.Error(t, err)

			var f *shared.Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, shared.KindDomain, f.Kind)
			assert.Equal(t, http.StatusUnprocessableEntity, f.Status)
			assert.Equal(t, tt.wantFields, f.Fields)
			assert.Equal(t, tt.wantMessage, f.Message)
		})
	}
}

func TestFailureFromRateLimited(t *testing.T) {
	caller, _ := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"retry_after": 120}`))
	})

	_, err := caller.PostJSON(context.Background(), "/auth/request-otp", map[string]string{})

	var f *shared.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "RATE_LIMITED", f.Code)
	assert.Equal(t, 2*time.Minute, f.RetryAfter)
}

func TestFailureFromDomainError(t *testing.T) {
	caller, _ := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code": "DISPLAY_NAME_TAKEN", "message": "That display name is taken."}`))
	})

	_, err := caller.Get(context.Background(), "/creator/onboarding/display-name/check/")

	var f *shared.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, shared.KindDomain, f.Kind)
	assert.Equal(t, "DISPLAY_NAME_TAKEN", f.Code)
	assert.Equal(t, "That display name is taken.", f.Message)
	assert.Equal(t, http.StatusConflict, f.Status)
}

func TestFailureFromSuccessIsNil(t *testing.T) {
	assert.NoError(t, FailureFrom("https://api.creatorly.io", transport.Decoded{Status: 200}))
	assert.NoError(t, FailureFrom("https://api.creatorly.io", transport.Decoded{Status: 204}))
}

func TestRetryAfterShapes(t *testing.T) {
	assert.Equal(t, 30*time.Second, retryAfter(map[string]any{"retry_after": float64(30)}))
	assert.Equal(t, 45*time.Second, retryAfter(map[string]any{"retry_after": "45"}))
	assert.Equal(t, time.Duration(0), retryAfter(map[string]any{"retry_after": "soon"}))
	assert.Equal(t, time.Duration(0), retryAfter(map[string]any{}))
}
