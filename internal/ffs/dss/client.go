// Package dss implements the authenticated Device Setup Service client:
// per-request nonces, session ID tracking, HTTPS execution with bounded
// redirects, and mandatory response signature verification before any
// body is parsed.
package dss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/ffs-wifi/provisionee/internal/ffs/codec"
	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	"github.com/ffs-wifi/provisionee/internal/ffs/stream"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

const (
	// DefaultHost is the compiled-in DSS endpoint, used until a
	// permanent redirect persists a different one.
	DefaultHost = "dp-sps-na.amazon.com"
	// DefaultPort is the HTTPS port.
	DefaultPort = 443

	// apiPathPrefix is the versioned API root every operation lives under.
	apiPathPrefix = "/api/v1/"

	// maxRedirects is the redirect hop cap per call.
	maxRedirects = 3

	// maxAttempts bounds transport-fault retries per call.
	maxAttempts = 2

	// nonceBufferSize sizes the nonce buffer: 22 base64 characters plus
	// a terminator.
	nonceBufferSize = 23

	locationHeader  = "Location"
	signatureHeader = "x-amzn-dss-signature"

	contentTypeJSON = "application/json"

	defaultTimeout = 30 * time.Second
)

// Client is the Device Setup Service client for one provisioning session.
// It is driven by the provisionee task only and is not safe for
// concurrent use.
type Client struct {
	httpClient        *http.Client
	cfg               *configmap.Manager
	cloudPublicKeyDER []byte
	logger            *iostreams.Logger

	host      string
	port      int
	sessionID string
	sequence  uint32
	nonce     *stream.Stream

	// sessionUUID correlates all log lines of one session.
	sessionUUID uuid.UUID
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, e.g. to pin the Starfield
// Class 2 root or to point tests at a local server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger replaces the default package logger.
func WithLogger(l *iostreams.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a DSS client. The host and port come from the
// configuration map when present, falling back to the compiled-in
// default; the sequence number starts at 1 on the first request.
func NewClient(cfg *configmap.Manager, cloudPublicKeyDER []byte, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:               cfg,
		cloudPublicKeyDER: cloudPublicKeyDER,
		nonce:             stream.NewOutput(nonceBufferSize),
		sessionUUID:       uuid.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: defaultTimeout,
			// Redirects are handled by the client itself so the 307/308
			// persistence rules apply.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if c.httpClient.CheckRedirect == nil {
		c.httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	host, port, err := defaultHostPort(cfg)
	if err != nil {
		return nil, err
	}
	c.host = host
	c.port = port
	return c, nil
}

// defaultHostPort resolves the DSS endpoint from the configuration map.
func defaultHostPort(cfg *configmap.Manager) (string, int, error) {
	host, err := cfg.GetString(configmap.KeyDSSHost)
	switch model.ResultFromError(err) {
	case model.ResultSuccess:
	case model.ResultNotImplemented:
		host = DefaultHost
	default:
		return "", 0, err
	}

	port64, err := cfg.GetInteger(configmap.KeyDSSPort)
	port := int(port64)
	switch model.ResultFromError(err) {
	case model.ResultSuccess:
	case model.ResultNotImplemented:
		port = DefaultPort
	default:
		return "", 0, err
	}

	return host, port, nil
}

// Host returns the endpoint currently in use.
func (c *Client) Host() string {
	return c.host
}

// SessionID returns the DSS-assigned session ID, empty before the first
// startProvisioningSession response.
func (c *Client) SessionID() string {
	return c.sessionID
}

// setSessionID records the session ID assigned by the cloud.
func (c *Client) setSessionID(id string) {
	c.sessionID = id
}

// SequenceNumber returns the sequence number of the most recent call.
func (c *Client) SequenceNumber() uint32 {
	return c.sequence
}

// RefreshNonce regenerates the nonce: random bytes drawn three at a
// time, base64-encoded until one byte of space remains, then terminated.
func (c *Client) RefreshNonce() error {
	c.nonce.Flush()

	for c.nonce.SpaceSize() > 1 {
		raw, err := crypto.RandomBytes(3)
		if err != nil {
			return err
		}
		group := stream.NewOutput(4)
		if err := codec.EncodeBase64(stream.NewInput(raw), group, 0, ""); err != nil {
			return err
		}
		for !group.IsEmpty() && c.nonce.SpaceSize() > 1 {
			b, err := group.ReadByte()
			if err != nil {
				return err
			}
			if err := c.nonce.WriteByte(b); err != nil {
				return err
			}
		}
	}

	return c.nonce.WriteByte(0)
}

// Nonce returns the current nonce without the terminator.
func (c *Client) Nonce() string {
	data := c.nonce.Data()
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	return string(data)
}

// responseState is the per-call transient response record. It is reset
// by beforeRetry between redirect hops.
type responseState struct {
	hasStatus  bool
	statusCode int

	hasSignature bool
	signature    *stream.Stream

	hasBody      bool
	bodyVerified bool

	hasRedirect  bool
	redirectHost string

	result error
}

func newResponseState() *responseState {
	return &responseState{signature: stream.NewOutput(codec.EncodedBase64Size(128))}
}

// handleStatusCode records the status code, overwriting any previous value.
func (s *responseState) handleStatusCode(code int) {
	s.hasStatus = true
	s.statusCode = code
}

// handleHeader processes one response header. Only the redirect Location
// and the signature header are interesting; a duplicate of either is a
// hard error.
func (s *responseState) handleHeader(key string, values []string) error {
	switch {
	case s.hasStatus && isRedirectStatus(s.statusCode) && http.CanonicalHeaderKey(key) == locationHeader:
		if s.hasRedirect || len(values) > 1 {
			s.result = fmt.Errorf("%w: %s", model.ErrDuplicateHeader, locationHeader)
			return s.result
		}
		host, err := extractHost(values[0])
		if err != nil {
			s.result = err
			return err
		}
		s.redirectHost = host
		s.hasRedirect = true

	case http.CanonicalHeaderKey(key) == http.CanonicalHeaderKey(signatureHeader):
		if s.hasSignature || len(values) > 1 {
			s.result = fmt.Errorf("%w: %s", model.ErrDuplicateHeader, signatureHeader)
			return s.result
		}
		if err := codec.DecodeBase64(stream.NewInputString(values[0]), s.signature); err != nil {
			s.result = err
			return err
		}
		s.hasSignature = true
	}
	return nil
}

// handleBody verifies the signature and, only then, hands the body to
// the operation's parser.
func (s *responseState) handleBody(body []byte, cloudPublicKeyDER []byte, parse func([]byte) error) error {
	if !s.hasSignature {
		s.result = model.ErrSignatureMissing
		return s.result
	}
	if s.hasBody {
		s.result = fmt.Errorf("%w: second response body", model.ErrInvalidArgument)
		return s.result
	}
	s.hasBody = true

	verified, err := crypto.VerifyCloudSignature(body, s.signature.Data(), cloudPublicKeyDER)
	if err != nil {
		s.result = err
		return err
	}
	if !verified {
		s.result = model.ErrSignatureInvalid
		return s.result
	}
	s.bodyVerified = true

	if err := parse(body); err != nil {
		s.result = err
		return err
	}
	return nil
}

// beforeRetry resets the transient state between redirect hops.
func (s *responseState) beforeRetry() {
	s.hasStatus = false
	s.hasSignature = false
	s.hasBody = false
	s.bodyVerified = false
	s.hasRedirect = false
	s.redirectHost = ""
	s.result = nil
	s.signature.Flush()
}

func isRedirectStatus(code int) bool {
	return code == http.StatusTemporaryRedirect || code == http.StatusPermanentRedirect
}

// extractHost pulls the host component out of a redirect target of the
// form https://{host}(:port)?(/path)?. The port and path are tolerated
// but not honored.
func extractHost(location string) (string, error) {
	s := stream.NewInputString(location)
	if err := s.ReadExpected("https://"); err != nil {
		return "", fmt.Errorf("redirect target %q: %w", location, err)
	}

	host := stream.NewOutput(len(location))
	for !s.IsEmpty() {
		b, err := s.ReadByte()
		if err != nil {
			return "", err
		}
		if b == ':' || b == '/' {
			break
		}
		if err := host.WriteByte(b); err != nil {
			return "", err
		}
	}
	if host.IsEmpty() {
		return "", fmt.Errorf("%w: redirect target %q has no host", model.ErrInvalidArgument, location)
	}
	return string(host.Data()), nil
}

// execute runs one DSS call: bump the sequence number, POST the body,
// follow up to maxRedirects redirect hops, and require a verified body
// on the final response. The parse callback only runs after signature
// verification. Transport faults and signature verification failures are
// retried once, with the transient response state reset in between; a
// blown redirect cap is never retried.
func (c *Client) execute(ctx context.Context, path string, body []byte, parse func([]byte) error) error {
	c.sequence++

	state := newResponseState()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			c.logf(iostreams.LevelDebug, "retrying %s after: %v", path, lastErr)
			state.beforeRetry()
		}

		err := c.executeOnce(ctx, path, body, state, parse)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

// retryable reports whether a failure is worth one more attempt: I/O
// faults and signature verification failures, which a provisioner-side
// relay glitch can produce.
func retryable(err error) bool {
	if errors.Is(err, model.ErrSignatureInvalid) || errors.Is(err, model.ErrSignatureMissing) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// executeOnce performs one attempt, following redirects up to the cap.
func (c *Client) executeOnce(ctx context.Context, path string, body []byte,
	state *responseState, parse func([]byte) error) error {

	for redirects := 0; redirects <= maxRedirects; redirects++ {
		requestURL := fmt.Sprintf("https://%s:%d%s%s", c.host, c.port, apiPathPrefix, path)
		c.logf(iostreams.LevelDebug, "sending request to %s", requestURL)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building %s request: %w", path, err)
		}
		req.Header.Set("Content-Type", contentTypeJSON)
		req.Header.Set("Accept", contentTypeJSON)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing %s request: %w", path, err)
		}

		err = c.consumeResponse(resp, state, parse)
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if !state.hasStatus {
			return fmt.Errorf("%s: %w", path, model.ErrMissingStatus)
		}

		if state.hasRedirect {
			// A permanent redirect updates the persisted default host so
			// later sessions go there directly; a temporary one only
			// retargets this session.
			if state.statusCode == http.StatusPermanentRedirect {
				if err := c.persistHost(state.redirectHost); err != nil {
					return err
				}
			}
			c.logf(iostreams.LevelDebug, "redirected (%d) to %s", state.statusCode, state.redirectHost)
			c.host = state.redirectHost
			state.beforeRetry()
			continue
		}

		if !state.bodyVerified {
			return fmt.Errorf("%s: %w", path, model.ErrSignatureInvalid)
		}
		return nil
	}

	return fmt.Errorf("%s: %w", path, model.ErrTooManyRedirects)
}

// consumeResponse feeds one HTTP response through the status, header and
// body handlers.
func (c *Client) consumeResponse(resp *http.Response, state *responseState, parse func([]byte) error) error {
	state.handleStatusCode(resp.StatusCode)
	c.logf(iostreams.LevelDebug, "received HTTP status %d", resp.StatusCode)

	if state.hasStatus && !isRedirectStatus(state.statusCode) && state.statusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", state.statusCode)
	}

	for key, values := range resp.Header {
		if err := state.handleHeader(key, values); err != nil {
			return err
		}
	}

	if isRedirectStatus(state.statusCode) {
		// Redirect bodies are not authenticated and not parsed.
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return state.handleBody(body, c.cloudPublicKeyDER, parse)
}

// persistHost writes the redirect target as the default DSS host. A
// store without the entry keeps starting at the compiled-in default.
func (c *Client) persistHost(host string) error {
	err := c.cfg.Set(configmap.KeyDSSHost, configmap.StringValue(host))
	if err != nil && model.ResultFromError(err) != model.ResultNotImplemented {
		return err
	}
	return nil
}

func (c *Client) logf(level iostreams.LogLevel, format string, args ...any) {
	logger := c.logger
	msg := fmt.Sprintf(format, args...)
	if logger != nil {
		logger.Log(level, iostreams.CategoryDSS, "[%s] %s", c.sessionUUID, msg)
		return
	}
	iostreams.Log(level, iostreams.CategoryDSS, "[%s] %s", c.sessionUUID, msg)
}
