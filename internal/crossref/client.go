// Package crossref is an HTTP client for the Crossref registration API:
// metadata deposit, DOI minting and the two status probes used to infer an
// identifier's remote state.
package crossref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pidstore/pkg/platform/circuit"
)

const (
	depositContentType = "application/vnd.crossref.deposit+xml"
	maxResponseBytes   = 1 << 20
)

// Operation names used in errors and metrics.
const (
	OpMetadataPost   = "metadata_post"
	OpDOIPost        = "doi_post"
	OpDOIGet         = "doi_get"
	OpMetadataGet    = "metadata_get"
	OpMetadataDelete = "metadata_delete"
)

// Client talks to the registration service with the configured account.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	breaker    *circuit.Breaker
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBreaker replaces the breaker built from Config.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a client from cfg after applying defaults.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse crossref url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("crossref url %q: scheme must be http or https", cfg.URL)
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  defaultUserAgent,
	}
	if cfg.BreakerThreshold > 0 {
		c.breaker = circuit.New("crossref",
			circuit.WithFailureThreshold(cfg.BreakerThreshold),
			circuit.WithCooldown(cfg.BreakerCooldown))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// MetadataPost deposits a metadata document.
func (c *Client) MetadataPost(ctx context.Context, doc []byte) error {
	if len(doc) == 0 {
		return &ClientError{Category: CategoryValidation, Operation: OpMetadataPost, Message: "metadata document is empty"}
	}
	_, err := c.mutate(ctx, OpMetadataPost, http.MethodPost, c.endpoint("metadata"), depositContentType, doc)
	return err
}

// DOIPost mints doi, or moves it, to resolve to target.
func (c *Client) DOIPost(ctx context.Context, doi, target string) error {
	if err := c.checkDOI(OpDOIPost, doi); err != nil {
		return err
	}
	if target == "" {
		return &ClientError{Category: CategoryValidation, Operation: OpDOIPost, Message: "target url is required"}
	}
	if u, err := url.Parse(target); err != nil || u.Scheme == "" || u.Host == "" {
		return &ClientError{Category: CategoryValidation, Operation: OpDOIPost, Message: fmt.Sprintf("target url %q is not absolute", target)}
	}
	body := fmt.Sprintf("doi=%s\nurl=%s", doi, target)
	_, err := c.mutate(ctx, OpDOIPost, http.MethodPut, c.endpoint("doi", doi), "text/plain;charset=UTF-8", []byte(body))
	return err
}

// DOIGet probes whether doi is registered and resolvable.
func (c *Client) DOIGet(ctx context.Context, doi string) (Probe, error) {
	if err := c.checkDOI(OpDOIGet, doi); err != nil {
		return Probe{}, err
	}
	return c.probe(ctx, OpDOIGet, c.endpoint("doi", doi))
}

// MetadataGet probes whether metadata has been deposited for doi.
func (c *Client) MetadataGet(ctx context.Context, doi string) (Probe, error) {
	if err := c.checkDOI(OpMetadataGet, doi); err != nil {
		return Probe{}, err
	}
	return c.probe(ctx, OpMetadataGet, c.endpoint("metadata", doi))
}

// MetadataDelete withdraws the metadata deposited for doi.
func (c *Client) MetadataDelete(ctx context.Context, doi string) error {
	if err := c.checkDOI(OpMetadataDelete, doi); err != nil {
		return err
	}
	_, err := c.mutate(ctx, OpMetadataDelete, http.MethodDelete, c.endpoint("metadata", doi), "", nil)
	return err
}

// AllowsPrefix reports whether doi falls under one of the configured prefixes.
func (c *Client) AllowsPrefix(doi string) bool {
	return HasAllowedPrefix(doi, c.cfg.Prefixes)
}

// HasAllowedPrefix reports whether doi is "<prefix>/<suffix>" for one of
// prefixes. DOIs compare case-insensitively.
func HasAllowedPrefix(doi string, prefixes []string) bool {
	prefix, suffix, ok := strings.Cut(doi, "/")
	if !ok || suffix == "" {
		return false
	}
	for _, p := range prefixes {
		if strings.EqualFold(prefix, p) {
			return true
		}
	}
	return false
}

func (c *Client) checkDOI(op, doi string) error {
	if doi == "" {
		return &ClientError{Category: CategoryValidation, Operation: op, Message: "doi is required"}
	}
	if !c.AllowsPrefix(doi) {
		return &ClientError{
			Category:   CategoryValidation,
			Operation:  op,
			Message:    fmt.Sprintf("%q is not under prefixes %v", doi, c.cfg.Prefixes),
			Underlying: ErrPrefixNotAllowed,
		}
	}
	return nil
}

// endpoint joins path segments onto the base URL. A DOI is split on "/" so
// each of its segments is escaped independently.
func (c *Client) endpoint(resource string, doi ...string) string {
	u := *c.baseURL
	segments := []string{resource}
	for _, d := range doi {
		segments = append(segments, strings.Split(d, "/")...)
	}
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.RawPath = u.EscapedPath() + "/" + strings.Join(escaped, "/")
	u.Path = u.Path + "/" + strings.Join(segments, "/")
	if c.cfg.TestMode {
		q := u.Query()
		q.Set("testMode", "true")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, target, contentType string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/xml;q=0.9, */*;q=0.5")
	if c.cfg.Username != "" || c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	return req, nil
}

// do executes the request and returns status and a bounded body.
func (c *Client) do(ctx context.Context, op, method, target, contentType string, body []byte) (int, []byte, error) {
	req, err := c.newRequest(ctx, method, target, contentType, body)
	if err != nil {
		return 0, nil, &HTTPError{Operation: op, Method: method, URL: target, Err: err}
	}
	if c.breaker != nil && !c.breaker.Allow() {
		return 0, nil, &HTTPError{Operation: op, Method: method, URL: target, Err: ErrCircuitOpen}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A caller giving up says nothing about the service.
		if !errors.Is(err, context.Canceled) {
			c.recordFailure()
		}
		return 0, nil, &HTTPError{Operation: op, Method: method, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure()
	} else if c.breaker != nil {
		c.breaker.RecordSuccess()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, &HTTPError{Operation: op, Method: method, URL: target, StatusCode: resp.StatusCode, Message: "read body", Err: err}
	}
	return resp.StatusCode, data, nil
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}

func (c *Client) mutate(ctx context.Context, op, method, target, contentType string, body []byte) ([]byte, error) {
	status, data, err := c.do(ctx, op, method, target, contentType, body)
	if err != nil {
		return nil, err
	}
	if status >= 200 && status < 300 {
		return data, nil
	}
	return nil, classify(op, method, target, status, data)
}

func (c *Client) probe(ctx context.Context, op, target string) (Probe, error) {
	status, data, err := c.do(ctx, op, http.MethodGet, target, "", nil)
	if err != nil {
		return Probe{}, err
	}
	switch status {
	case http.StatusOK:
		return Probe{Outcome: OutcomeFound, Body: data}, nil
	case http.StatusNoContent:
		return Probe{Outcome: OutcomeNoContent}, nil
	case http.StatusNotFound:
		return Probe{Outcome: OutcomeNotFound}, nil
	case http.StatusGone:
		return Probe{Outcome: OutcomeGone}, nil
	}
	return Probe{}, classify(op, http.MethodGet, target, status, data)
}

// classify maps a non-success status onto the error taxonomy.
func classify(op, method, target string, status int, body []byte) error {
	msg := summarize(body, status)
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ClientError{Category: CategoryBadData, Operation: op, StatusCode: status, Message: msg}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ClientError{Category: CategoryAuthentication, Operation: op, StatusCode: status, Message: msg}
	case http.StatusPreconditionFailed, http.StatusConflict:
		return &ClientError{Category: CategoryPrecondition, Operation: op, StatusCode: status, Message: msg}
	}

	herr := &HTTPError{Operation: op, Method: method, URL: target, StatusCode: status, Message: msg}
	switch status {
	case http.StatusNotFound:
		herr.Err = ErrNotFound
	case http.StatusGone:
		herr.Err = ErrGone
	case http.StatusNoContent:
		herr.Err = ErrNoContent
	}
	return herr
}

func summarize(body []byte, status int) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(status)
	}
	const maxLen = 256
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}
	return msg
}
