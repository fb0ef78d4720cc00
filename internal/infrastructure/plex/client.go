package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	sharedConfig "github.com/plexpatrol/plexpatrol/internal/shared/config"
	"github.com/plexpatrol/plexpatrol/internal/shared/constants"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

const (
	sessionsPath  = "/status/sessions"
	terminatePath = "/status/sessions/terminate"
	accountsPath  = "/accounts"

	maxBodyBytes = 16 << 20
)

// Options tune timeouts and the terminate retry budget.
type Options struct {
	Timeout      time.Duration
	ProbeTimeout time.Duration
	Retries      int
	RetryDelay   time.Duration
	HTTPClient   *http.Client
}

func OptionsFromConfig(cfg sharedConfig.PlexConfig) Options {
	return Options{
		Timeout:      cfg.Timeout,
		ProbeTimeout: cfg.ProbeTimeout,
		Retries:      cfg.TerminateRetries,
		RetryDelay:   cfg.TerminateRetryDelay,
	}
}

// Client talks to one Plex Media Server. Server URL and token are read from
// the provider on every call so config changes apply without a restart.
type Client struct {
	config     sharedConfig.Provider
	httpClient *http.Client
	opts       Options
	logger     logger.Interface
}

func NewClient(config sharedConfig.Provider, opts Options, log logger.Interface) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		config:     config,
		httpClient: httpClient,
		opts:       opts,
		logger:     log,
	}
}

// FetchActiveSessions returns the raw session listing.
func (c *Client) FetchActiveSessions(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, sessionsPath, nil, c.opts.Timeout)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: empty session listing", ErrMalformedPayload)
	}
	return body, nil
}

// TerminateSession asks the server to stop a stream, showing reason on the
// player. Transport failures and non-200 answers are retried with a fixed
// delay; any other error aborts at once.
func (c *Client) TerminateSession(ctx context.Context, sessionID, reason string) (bool, error) {
	params := url.Values{}
	params.Set("sessionId", sessionID)
	params.Set("reason", reason)

	attempt := 0
	op := func() (bool, error) {
		attempt++
		_, err := c.get(ctx, terminatePath, params, c.opts.Timeout)
		if err == nil {
			return true, nil
		}
		if !isRetryable(err) {
			return false, backoff.Permanent(err)
		}
		c.logger.Warnw("terminate attempt failed",
			"session_id", sessionID,
			"attempt", attempt,
			"max_attempts", c.opts.Retries,
			"error", err,
		)
		return false, err
	}

	ok, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.opts.RetryDelay)),
		backoff.WithMaxTries(uint(c.opts.Retries)),
	)
	if err != nil {
		c.logger.Errorw("failed to terminate session",
			"session_id", sessionID,
			"attempts", attempt,
			"error", err,
		)
		return false, err
	}
	return ok, nil
}

// TestConnection is a short reachability probe against the session listing.
func (c *Client) TestConnection(ctx context.Context) bool {
	start := time.Now()
	_, err := c.get(ctx, sessionsPath, nil, c.opts.ProbeTimeout)
	switch {
	case err == nil:
		c.logger.Debugw("plex server reachable", "latency", time.Since(start))
		return true
	case IsUnauthorized(err):
		c.logger.Errorw("plex server rejected the token, check plex.token", "error", err)
	default:
		c.logger.Warnw("plex server not reachable", "error", err)
	}
	return false
}

func (c *Client) get(ctx context.Context, path string, params url.Values, timeout time.Duration) ([]byte, error) {
	endpoint, err := c.endpoint(path, params)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(constants.HeaderPlexToken, c.config.PlexToken())
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeXML)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{Code: resp.StatusCode, Path: path}
	}
	return body, nil
}

func (c *Client) endpoint(path string, params url.Values) (string, error) {
	base := strings.TrimRight(c.config.PlexServerURL(), "/")
	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("invalid plex server url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid plex server url %q: missing scheme or host", base)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}

// ParseSessions parses a payload returned by FetchActiveSessions.
func (c *Client) ParseSessions(payload []byte) (session.Snapshot, error) {
	return ParseSessions(payload, c.logger)
}
