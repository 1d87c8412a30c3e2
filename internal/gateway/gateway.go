// Package gateway is the single path for outbound API calls. It attaches the
// stored credential, scopes resource paths to the credential's subject and
// turns a 401 into a cleared store plus a sign-in redirect.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/taskpulse/taskpulse-go/internal/config"
	"github.com/taskpulse/taskpulse-go/internal/credstore"
	"github.com/taskpulse/taskpulse-go/internal/session"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
	"github.com/taskpulse/taskpulse-go/pkg/metrics"
)

const maxBodyBytes = 4 << 20

// Options configures a Gateway.
type Options struct {
	// APIURL is the origin, e.g. http://localhost:8000.
	APIURL string
	// APIRoot prefixes every path, e.g. /api/v1.
	APIRoot    string
	SignInPath string
	HTTPClient *http.Client
	// Limiter throttles outbound calls when set.
	Limiter *rate.Limiter
}

type Gateway struct {
	origin  string
	apiRoot string
	signIn  string
	store   credstore.Store
	clock   *session.Clock
	nav     Navigator
	httpc   *http.Client
	limiter *rate.Limiter
}

func New(store credstore.Store, clock *session.Clock, nav Navigator, opts Options) *Gateway {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	signIn := opts.SignInPath
	if signIn == "" {
		signIn = "/signin"
	}
	root := "/" + strings.Trim(opts.APIRoot, "/")
	if root == "/" {
		root = ""
	}
	return &Gateway{
		origin:  strings.TrimRight(opts.APIURL, "/"),
		apiRoot: root,
		signIn:  signIn,
		store:   store,
		clock:   clock,
		nav:     nav,
		httpc:   httpc,
		limiter: opts.Limiter,
	}
}

// NewFromConfig builds a Gateway from client configuration.
func NewFromConfig(cfg config.ClientConfig, store credstore.Store, clock *session.Clock, nav Navigator) *Gateway {
	opts := Options{
		APIURL:     cfg.APIURL,
		APIRoot:    cfg.APIRoot,
		SignInPath: cfg.SignInPath,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	return New(store, clock, nav, opts)
}

// Store returns the credential store the gateway reads from.
func (g *Gateway) Store() credstore.Store { return g.store }

// Clock returns the session clock used for subject resolution.
func (g *Gateway) Clock() *session.Clock { return g.clock }

// AuthPath returns the path of an authentication endpoint.
func (g *Gateway) AuthPath(name string) string {
	return g.apiRoot + "/auth/" + name
}

func (g *Gateway) isAuthEndpoint(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	switch path {
	case g.AuthPath("register"), g.AuthPath("login"), g.AuthPath("me"):
		return true
	}
	return false
}

// Redirect navigates to sign-in and records why.
func (g *Gateway) Redirect(reason string) {
	metrics.SessionRedirects.WithLabelValues(reason).Inc()
	logger.Warnf("session: redirecting to %s (%s)", g.signIn, reason)
	g.nav.Redirect(g.signIn)
}

// RequireSubject returns the subject of the stored credential. When the
// credential is absent, undecodable, expired or has no usable subject it
// triggers the sign-in redirect and fails with ErrAuthRequired.
func (g *Gateway) RequireSubject(ctx context.Context) (int64, error) {
	reason := ""
	claims := g.clock.Claims(ctx)
	switch {
	case claims == nil:
		reason = "absent"
	case claims.ExpiredAt(g.clock.Now()):
		reason = "expired"
	}
	if reason == "" {
		if id, ok := claims.SubjectID(); ok {
			return id, nil
		}
		reason = "no_subject"
	}
	metrics.GatewayRequests.WithLabelValues("auth_required").Inc()
	g.Redirect(reason)
	return 0, fmt.Errorf("%w: %s", ErrAuthRequired, reason)
}

// ScopedPath returns {apiRoot}/{subject}/{resourceRoot}. The subject always
// comes from the stored credential.
func (g *Gateway) ScopedPath(ctx context.Context, resourceRoot string) (string, error) {
	id, err := g.RequireSubject(ctx)
	if err != nil {
		return "", err
	}
	p := g.apiRoot + "/" + strconv.FormatInt(id, 10)
	if r := strings.Trim(resourceRoot, "/"); r != "" {
		p += "/" + r
	}
	return p, nil
}

// Dispatch sends one request. body, when non-nil, is JSON-encoded; a 2xx
// response is JSON-decoded into out when out is non-nil. A 401 clears the
// credential, redirects to sign-in and returns an error matching
// ErrUnauthorized. It is never retried.
func (g *Gateway) Dispatch(ctx context.Context, method, path string, body, out interface{}) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	token, err := g.store.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}
	if token == "" && !g.isAuthEndpoint(path) {
		metrics.GatewayRequests.WithLabelValues("auth_required").Inc()
		g.Redirect("absent")
		return fmt.Errorf("%w: %s %s", ErrAuthRequired, method, path)
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.origin+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpc.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("transport_error").Inc()
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("transport_error").Inc()
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.GatewayRequests.WithLabelValues("unauthorized").Inc()
		if err := g.store.Clear(ctx); err != nil {
			logger.Errorf("gateway: clearing credential after 401 failed: %v", err)
		}
		g.Redirect("unauthorized")
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
			Method:     method,
			Path:       path,
			err:        ErrUnauthorized,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GatewayRequests.WithLabelValues("http_error").Inc()
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
			Method:     method,
			Path:       path,
		}
	}

	metrics.GatewayRequests.WithLabelValues("ok").Inc()
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, path, err)
	}
	return nil
}

// IsAuthFailure reports whether err means the user has to sign in again.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrAuthRequired)
}
