package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// HTTPDoer describes the HTTP client used for backend calls.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for authenticated calls. An
// implementation must fail with ErrExpiredSession for a token past its
// expiry buffer and with ErrAuth when no token is stored, so an invalid
// session never reaches the wire.
type TokenSource interface {
	BearerToken() (string, error)
}

// Client talks to the captioning backend.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient HTTPDoer
	tokens     TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the per-call timeout budget on the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		agent = strings.TrimSpace(agent)
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// NewClient creates a backend client. tokens may be nil for a client that
// only performs unauthenticated calls (login and signup).
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base url required")
	}
	client := &Client{
		baseURL:    baseURL,
		userAgent:  "Lenscap/0.1.0",
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	return c.authCall(ctx, "login", "/auth/login", email, password)
}

// Signup creates an account. The returned Credentials may carry an empty
// Session when the backend requires email confirmation before login works.
func (c *Client) Signup(ctx context.Context, email, password string) (*Credentials, error) {
	return c.authCall(ctx, "signup", "/auth/signup", email, password)
}

func (c *Client) authCall(ctx context.Context, operation, path, email, password string) (*Credentials, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", operation, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body), false)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload credentialsPayload
	if err := c.doEnvelope(req, operation, &payload); err != nil {
		return nil, err
	}
	return &Credentials{User: payload.User, Session: payload.Session}, nil
}

// Logout asks the backend to revoke the given session token. The token is
// passed explicitly because callers clear local state before revoking, so
// the usual TokenSource has nothing left to hand out. Callers treat
// failures as best-effort.
func (c *Client) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: no session token to revoke", ErrValidation)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/logout", nil, false)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError("logout", err)
	}
	defer drain(resp)
	return classifyStatus("logout", resp.StatusCode)
}

// CurrentUser fetches the authenticated profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/me", nil, true)
	if err != nil {
		return nil, err
	}

	var payload userPayload
	if err := c.doEnvelope(req, "current user", &payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// RecentFilesAnalyzed reports how many of the most recent count uploads are
// still mid-analysis. This endpoint returns its status shape bare, without
// the success envelope.
func (c *Client) RecentFilesAnalyzed(ctx context.Context, count int) (*AnalysisStatus, error) {
	path := "/files/recent-analyzed?count=" + strconv.Itoa(count)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError("analysis status", err)
	}
	defer drain(resp)

	if err := classifyStatus("analysis status", resp.StatusCode); err != nil {
		return nil, err
	}

	var status AnalysisStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, transportError("decode analysis status", err)
	}
	return &status, nil
}

// ListFiles pages through the caller's analyzed files.
func (c *Client) ListFiles(ctx context.Context, limit, offset int) ([]File, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	path := "/files"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Files []File `json:"files"`
	}
	if err := c.doEnvelope(req, "list files", &payload); err != nil {
		return nil, err
	}
	return payload.Files, nil
}

// UpdateFile edits the caption and tags of one file.
func (c *Client) UpdateFile(ctx context.Context, id, caption string, tags []string) (*File, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: file id required", ErrValidation)
	}
	body, err := json.Marshal(map[string]any{"caption": caption, "tags": tags})
	if err != nil {
		return nil, fmt.Errorf("encode update request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, "/files/"+url.PathEscape(id), bytes.NewReader(body), true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload struct {
		File File `json:"file"`
	}
	if err := c.doEnvelope(req, "update file", &payload); err != nil {
		return nil, err
	}
	return &payload.File, nil
}

// DeleteFiles removes the given files in one call.
func (c *Client) DeleteFiles(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no file ids to delete", ErrValidation)
	}
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return fmt.Errorf("encode delete request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/files", bytes.NewReader(body), true)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doEnvelope(req, "delete files", nil)
}

// DownloadFile streams the original bytes of one file into dst.
func (c *Client) DownloadFile(ctx context.Context, id string, dst io.Writer) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: file id required", ErrValidation)
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/files/"+url.PathEscape(id)+"/download", nil, true)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError("download file", err)
	}
	defer drain(resp)

	if err := classifyStatus("download file", resp.StatusCode); err != nil {
		return err
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		return transportError("download file", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, authed bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	if authed {
		if c.tokens == nil {
			return nil, fmt.Errorf("%w: no token source configured", ErrAuth)
		}
		token, err := c.tokens.BearerToken()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// doEnvelope executes req and decodes the standard {success, error, data}
// wrapper. out may be nil when the caller only cares about success.
func (c *Client) doEnvelope(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(operation, err)
	}
	defer drain(resp)

	var env struct {
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if err := classifyStatus(operation, resp.StatusCode); err != nil {
		if decodeErr == nil && env.Error != "" {
			return fmt.Errorf("%w: %s", err, env.Error)
		}
		return err
	}
	if decodeErr != nil {
		return transportError("decode "+operation+" response", decodeErr)
	}
	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("%s failed: %s", operation, env.Error)
		}
		return fmt.Errorf("%s failed", operation)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return transportError("decode "+operation+" payload", err)
		}
	}
	return nil
}

// drain consumes the remaining body so the transport can reuse the
// connection, then closes it.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
