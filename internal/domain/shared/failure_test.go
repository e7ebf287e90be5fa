package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureError(t *testing.T) {
	tests := []struct {
		name string
		err  *Failure
		want string
	}{
		{
			name: "message only",
			err:  NewInvalidRequest("empty URL"),
			want: "empty URL",
		},
		{
			name: "code prefixes message",
			err:  NewDomainFailure(409, "DISPLAY_NAME_TAKEN", "That name is taken."),
			want: "DISPLAY_NAME_TAKEN: That name is taken.",
		},
		{
			name: "empty message falls back to generic",
			err:  NewDomainFailure(500, "", ""),
			want: GenericFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestFailureKindMatching(t *testing.T) {
	timeout := NewTimeout("https://api.example.com/creator/onboarding/status", 30*time.Second)

	assert.True(t, errors.Is(timeout, &Failure{Kind: KindTimeout}))
	assert.False(t, errors.Is(timeout, &Failure{Kind: KindCancelled}))
	assert.Equal(t, KindTimeout, KindOf(timeout))
	assert.True(t, IsKind(timeout, KindTimeout))
	assert.False(t, IsKind(errors.New("plain"), KindTimeout))
	assert.Equal(t, FailureKind(""), KindOf(nil))
}

func TestFailureUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	failure := NewNetworkUnreachable("https://api.example.com", cause)

	assert.ErrorIs(t, failure, cause)

	wrapped := fmt.Errorf("load status: %w", failure)
	var f *Failure
	require.True(t, errors.As(wrapped, &f))
	assert.Equal(t, KindNetworkUnreachable, f.Kind)
}

func TestFailureWithCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	failure := NewDecodeFailure("https://api.example.com", cause)

	assert.ErrorIs(t, failure, cause)
	assert.Equal(t, KindDecodeFailure, KindOf(failure))
}

func TestTimeoutCarriesDeadline(t *testing.T) {
	failure := NewTimeout("https://api.example.com/auth/signup", 60*time.Second)

	assert.Equal(t, 60*time.Second, failure.Timeout)
	assert.Equal(t, "https://api.example.com/auth/signup", failure.URL)
	assert.Contains(t, failure.Message, "60s")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "classified failure surfaces its message",
			err:  NewAuthExpired("https://api.example.com"),
			want: "Your session has expired. Please sign in again.",
		},
		{
			name: "wrapped failure still resolves",
			err:  fmt.Errorf("submit step: %w", NewCancelled("https://api.example.com")),
			want: "Request was cancelled.",
		},
		{
			name: "unclassified error degrades to generic",
			err:  errors.New("bug"),
			want: GenericFailureMessage,
		},
		{
			name: "nil degrades to generic",
			err:  nil,
			want: GenericFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
