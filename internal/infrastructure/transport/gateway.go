package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/creatorly/creator-sdk/internal/domain/shared"
	"github.com/creatorly/creator-sdk/internal/infrastructure/ratelimit"
	"github.com/creatorly/creator-sdk/internal/infrastructure/session"
)

// DefaultTimeout is the per-call deadline when neither the gateway options
// nor the request specify one.
const DefaultTimeout = 60 * time.Second

// bypassHeader is required by the tunneling proxy currently fronting the
// backend; without it the proxy answers with an interstitial page.
const bypassHeader = "ngrok-skip-browser-warning"

// Gateway executes single calls. It consults the session store for the
// bearer credential, records attempts in the advisory rate tracker, and
// classifies every transport-level outcome into the failure taxonomy.
type Gateway struct {
	httpClient *http.Client
	session    *session.Store
	tracker    ratelimit.Tracker
	logger     *zap.Logger
	tracer     trace.Tracer

	timeout       time.Duration
	rateLimit     int
	clientName    string
	clientVersion string
}

// Options configures a Gateway.
type Options struct {
	Timeout       time.Duration
	RateLimit     int // advisory per-endpoint threshold, 0 for default
	ClientName    string
	ClientVersion string
	// HTTPClient overrides the transport, e.g. for tests. Timeouts are
	// driven by per-call contexts, never by http.Client.Timeout.
	HTTPClient *http.Client
}

// NewGateway creates a request gateway bound to one session store.
func NewGateway(sess *session.Store, tracker ratelimit.Tracker, logger *zap.Logger, opts Options) *Gateway {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = ratelimit.DefaultLimit
	}
	clientName := opts.ClientName
	if clientName == "" {
		clientName = "creator-sdk"
	}

	return &Gateway{
		httpClient:    httpClient,
		session:       sess,
		tracker:       tracker,
		logger:        logger,
		tracer:        otel.Tracer("creator-sdk/transport"),
		timeout:       timeout,
		rateLimit:     rateLimit,
		clientName:    clientName,
		clientVersion: opts.ClientVersion,
	}
}

// Execute performs one call and settles to a live response handle or a
// classified failure. Responses other than 401 are returned as-is, 4xx/5xx
// included; interpreting business-level error bodies is the caller's job.
func (g *Gateway) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.URL == "" {
		return nil, shared.NewInvalidRequest("request URL must be a non-empty string")
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = g.timeout
	}

	ctx, span := g.tracer.Start(ctx, "gateway.execute", trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", req.URL),
	))
	defer span.End()

	header, err := g.buildHeader(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	g.noteAttempt(ctx, method, req.URL)

	callCtx, cancel := context.WithTimeout(ctx, timeout)

	httpReq, err := http.NewRequestWithContext(callCtx, method, req.URL, req.Body)
	if err != nil {
		cancel()
		span.SetStatus(codes.Error, err.Error())
		return nil, shared.NewInvalidRequest("failed to build request: " + err.Error()).WithCause(err)
	}
	httpReq.Header = header

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		failure := classifyTransportError(err, callCtx, req.URL, timeout)
		g.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("url", req.URL),
			zap.String("kind", string(failure.Kind)),
		)
		span.SetStatus(codes.Error, string(failure.Kind))
		return nil, failure
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// 401 is an authentication failure unconditionally, regardless of
		// the body. Drop the credential and tell listeners to re-login.
		resp.Body.Close()
		cancel()
		g.session.Invalidate()
		g.logger.Warn("authentication invalidated by backend", zap.String("url", req.URL))
		span.SetStatus(codes.Error, string(shared.KindAuthExpired))
		return nil, shared.NewAuthExpired(req.URL)
	case http.StatusProxyAuthRequired:
		resp.Body.Close()
		cancel()
		span.SetStatus(codes.Error, string(shared.KindOriginPolicy))
		return nil, shared.NewOriginPolicy(req.URL, nil)
	}

	// The cancel func travels with the handle; it fires once the body has
	// been decoded or the handle is closed.
	return newResponse(resp, req.URL, cancel), nil
}

// buildHeader merges default headers, resolved dynamic headers, and the
// request's static headers, then attaches the bearer credential.
func (g *Gateway) buildHeader(ctx context.Context, req Request) (http.Header, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set(bypassHeader, "true")
	header.Set("X-Client-Name", g.clientName)
	if g.clientVersion != "" {
		header.Set("X-Client-Version", g.clientVersion)
	}
	header.Set("X-Request-ID", uuid.NewString())

	// Multipart bodies carry their writer-generated boundary; forcing a
	// content type here would corrupt them.
	switch {
	case req.ContentType != "":
		header.Set("Content-Type", req.ContentType)
	case req.Body != nil:
		header.Set("Content-Type", "application/json")
	}

	for name, resolve := range req.Resolvers {
		value, err := resolve(ctx)
		if err != nil {
			g.logger.Debug("header resolver failed, using placeholder",
				zap.String("header", name), zap.Error(err))
			value = HeaderPlaceholder
		}
		header.Set(name, value)
	}
	for name, value := range req.Header {
		header.Set(name, value)
	}

	if token, ok := g.session.Get(); ok {
		if !session.IsValid(token) {
			// A token already past expiry would only buy a doomed round
			// trip; fail fast instead.
			g.session.Clear()
			return nil, shared.NewAuthExpired(req.URL)
		}
		header.Set("Authorization", "Bearer "+token)
	}

	return header, nil
}

// noteAttempt records the call in the advisory tracker and logs when the
// local threshold is reached. It never blocks the call.
func (g *Gateway) noteAttempt(ctx context.Context, method, rawURL string) {
	if g.tracker == nil {
		return
	}
	key := endpointKey(method, rawURL)
	if err := g.tracker.RecordAttempt(ctx, key); err != nil {
		g.logger.Debug("failed to record rate-limit attempt", zap.Error(err))
		return
	}
	limited, err := g.tracker.IsLimited(ctx, key, g.rateLimit)
	if err == nil && limited {
		g.logger.Warn("endpoint at local rate-limit threshold",
			zap.String("endpoint", key), zap.Int("limit", g.rateLimit))
	}
}

// endpointKey normalizes a call to a per-endpoint tracker key, ignoring
// query parameters so retries of the same operation share a window.
func endpointKey(method, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return method + " " + rawURL
	}
	return method + " " + u.Path
}

// classifyTransportError maps a transport-level error onto the failure
// taxonomy. The call deadline elapsing is a timeout; any other context
// cancellation is a deliberate abort; a proxy CONNECT rejection is an
// origin-policy violation; everything else is the network being unreachable.
func classifyTransportError(err error, callCtx context.Context, rawURL string, timeout time.Duration) *shared.Failure {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded:
		return shared.NewTimeout(rawURL, timeout).WithCause(err)
	case errors.Is(err, context.Canceled):
		return shared.NewCancelled(rawURL).WithCause(err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "proxyconnect" {
		return shared.NewOriginPolicy(rawURL, err)
	}

	return shared.NewNetworkUnreachable(rawURL, err)
}
