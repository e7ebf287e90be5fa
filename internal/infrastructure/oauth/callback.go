// Package oauth turns the provider's redirect dance into one blocking
// operation: start a loopback listener, wait for the redirect carrying
// {code, state}, and settle with the result or a failure. No manually
// managed message listeners survive past the call.
package oauth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	// ErrStateMismatch means the redirect carried a state value other than
	// the one this flow issued; the code is discarded.
	ErrStateMismatch = errors.New("oauth: state parameter mismatch")
	// ErrMissingCode means the provider redirected back without a code,
	// e.g. the user denied the authorization.
	ErrMissingCode = errors.New("oauth: redirect carried no authorization code")
)

// Result is the resolved outcome of one authorization flow.
type Result struct {
	Code  string
	State string
}

// Listener waits for a single OAuth redirect on a loopback address.
type Listener struct {
	addr   string
	path   string
	logger *zap.Logger
}

// NewListener creates a loopback callback listener.
func NewListener(addr, path string, logger *zap.Logger) *Listener {
	return &Listener{addr: addr, path: path, logger: logger}
}

// RedirectURL returns the URL the provider should redirect back to.
func (l *Listener) RedirectURL() string {
	return "http://" + l.addr + l.path
}

// Wait serves the callback route until exactly one redirect arrives, then
// shuts the listener down. It blocks until the flow resolves, the context
// is cancelled, or the context deadline passes (the user abandoning the
// provider page shows up as that deadline).
func (l *Listener) Wait(ctx context.Context, expectedState string) (Result, error) {
	type outcome struct {
		result Result
		err    error
	}
	settled := make(chan outcome, 1)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET(l.path, func(c *gin.Context) {
		code := c.Query("code")
		state := c.Query("state")

		switch {
		case state != expectedState:
			c.String(http.StatusBadRequest, "Authorization state did not match. Close this window and retry.")
			settled <- outcome{err: ErrStateMismatch}
		case code == "":
			c.String(http.StatusBadRequest, "Authorization was not granted. Close this window and retry.")
			settled <- outcome{err: ErrMissingCode}
		default:
			c.String(http.StatusOK, "Account linked. You can close this window.")
			settled <- outcome{result: Result{Code: code, State: state}}
		}
	})

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return Result{}, err
	}
	server := &http.Server{Handler: router}

	go func() {
		if serveErr := server.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			l.logger.Debug("callback listener stopped", zap.Error(serveErr))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	l.logger.Info("waiting for oauth redirect", zap.String("redirect_url", l.RedirectURL()))

	select {
	case out := <-settled:
		return out.result, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
