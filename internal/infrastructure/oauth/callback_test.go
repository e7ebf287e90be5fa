package oauth

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// freeLoopbackAddr reserves a loopback port and releases it for the
// listener under test.
func freeLoopbackAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func redirect(t *testing.T, listener *Listener, query url.Values) {
	t.Helper()
	// The listener starts asynchronously inside Wait; retry briefly until
	// the port accepts.
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(listener.RedirectURL() + "?" + query.Encode())
		if err == nil {
			resp.Body.Close()
			return
		}
		if time.Now().After(deadline) {
			t.Errorf("redirect never reached the listener: %v", err)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWaitResolvesRedirect(t *testing.T) {
	listener := NewListener(freeLoopbackAddr(t), "/oauth/callback", zap.NewNop())

	go redirect(t, listener, url.Values{"code": {"auth-code-1"}, "state": {"state-1"}})

	result, err := listener.Wait(context.Background(), "state-1")
	require.NoError(t, err)
	assert.Equal(t, Result{Code: "auth-code-1", State: "state-1"}, result)
}

func TestWaitRejectsStateMismatch(t *testing.T) {
	listener := NewListener(freeLoopbackAddr(t), "/oauth/callback", zap.NewNop())

	go redirect(t, listener, url.Values{"code": {"auth-code-1"}, "state": {"forged"}})

	_, err := listener.Wait(context.Background(), "state-1")
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestWaitRejectsMissingCode(t *testing.T) {
	listener := NewListener(freeLoopbackAddr(t), "/oauth/callback", zap.NewNop())

	go redirect(t, listener, url.Values{"state": {"state-1"}, "error": {"access_denied"}})

	_, err := listener.Wait(context.Background(), "state-1")
	assert.ErrorIs(t, err, ErrMissingCode)
}

func TestWaitHonorsContextDeadline(t *testing.T) {
	listener := NewListener(freeLoopbackAddr(t), "/oauth/callback", zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := listener.Wait(ctx, "state-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitOnBusyPort(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	listener := NewListener(occupied.Addr().String(), "/oauth/callback", zap.NewNop())

	_, err = listener.Wait(context.Background(), "state-1")
	assert.Error(t, err)
}

func TestRedirectURL(t *testing.T) {
	listener := NewListener("127.0.0.1:8976", "/oauth/callback", zap.NewNop())
	assert.Equal(t, "http://127.0.0.1:8976/oauth/callback", listener.RedirectURL())
}
