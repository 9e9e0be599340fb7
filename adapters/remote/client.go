package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
)

// DefaultBaseURL is used when no base URL is configured
const DefaultBaseURL = "http://localhost:1337"

// Credential selects which token authenticates a request
type Credential int

const (
	// CredentialPublic is the read token
	CredentialPublic Credential = iota
	// CredentialAdmin is the write token; falls back to the read token when unset
	CredentialAdmin
)

// Request describes one REST call
type Request struct {
	Op         string
	Method     string
	Path       string
	Query      url.Values
	Body       any
	Credential Credential
}

// Requester performs REST calls and returns the raw response body.
// Non-2xx responses are returned as *core.BackendError.
type Requester interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// ClientConfig configures a Client
type ClientConfig struct {
	BaseURL    string
	APIToken   string
	AdminToken string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// Client handles communication with the remote CMS
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	apiToken   string
	adminToken string
	log        *logger.Logger
}

// NewClient creates a new REST client
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: httpClient,
		apiToken:   cfg.APIToken,
		adminToken: cfg.AdminToken,
		log:        logger.OrNop(cfg.Logger),
	}
}

// Token returns the bearer token used for cred
func (c *Client) Token(cred Credential) string {
	if cred == CredentialAdmin && c.adminToken != "" {
		return c.adminToken
	}
	return c.apiToken
}

// Do performs the request and returns the body of a 2xx response
func (c *Client) Do(ctx context.Context, r Request) ([]byte, error) {
	target := c.BaseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(r.Credential); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &core.BackendError{
			Provider: core.ProviderRemote,
			Op:       r.Op,
			Message:  err.Error(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.BackendError{
			Provider:   core.ProviderRemote,
			Op:         r.Op,
			StatusCode: resp.StatusCode,
			Message:    "failed to read response body",
			Err:        err,
		}
	}

	c.log.Debug("remote request").
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Send()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &core.BackendError{
			Provider:   core.ProviderRemote,
			Op:         r.Op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
		}
	}
	return respBody, nil
}

// errorMessage extracts the backend's message from an error body
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != nil && payload.Error.Message != "" {
			return payload.Error.Message
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(status)
}
