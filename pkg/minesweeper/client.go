package minesweeper

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/minesweeper-client/pkg/httpclient"
)

const (
	// DefaultBaseEndpoint is the deployment the client talks to unless configured otherwise.
	DefaultBaseEndpoint = "http://minesweeperapi-env.eba-h2mmpfhs.us-east-2.elasticbeanstalk.com"

	defaultTimeout = 30 * time.Second

	authHeader   = "Authorization"
	basicPrefix  = "Basic "
	contentType  = "Content-Type"
	mimeJSON     = "application/json"
	gamesPath    = "/games"
	usersPath    = "/users"
	flagSuffix   = "/flag"
	revealSuffix = "/reveal"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL defaults to DefaultBaseEndpoint.
	BaseURL     string
	Credentials Credentials
	// Timeout applies to the default resty transport only.
	Timeout time.Duration
	Logger  Logger
}

// Client is a Minesweeper API client.
//
// Credentials are snapshotted when each call is issued. SetCredentials is safe to
// call concurrently, but a call already issued keeps the credentials it started with.
type Client struct {
	baseURL   string
	transport httpclient.Client
	log       Logger

	mu    sync.RWMutex
	creds Credentials
}

// NewClient creates a client backed by a resty transport.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewClientWithTransport(cfg, httpclient.NewRestyClient(timeout))
}

// NewClientWithTransport creates a client that sends every request through transport.
// The transport's lifecycle stays with the caller.
func NewClientWithTransport(cfg ClientConfig, transport httpclient.Client) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseEndpoint
	}
	return &Client{
		baseURL:   baseURL,
		transport: transport,
		log:       ensureLogger(cfg.Logger),
		creds:     cfg.Credentials,
	}
}

// BaseURL returns the endpoint requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Credentials returns the credentials used for the next call.
func (c *Client) Credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// SetCredentials replaces the credentials for subsequent calls.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
}

// ListGames returns every game visible to the current user.
// The endpoint answers with a bare JSON array.
func (c *Client) ListGames(ctx context.Context) ([]Game, error) {
	var list gameList
	if err := c.do(ctx, "list_games", http.MethodGet, gamesPath, nil, nil, &list); err != nil {
		return nil, err
	}
	return list.games(), nil
}

// GetGame returns the snapshot of game id.
func (c *Client) GetGame(ctx context.Context, id int) (*Game, error) {
	return c.game(ctx, "get_game", http.MethodGet, gamePath(id, ""), nil, nil)
}

// CreateGame starts a new game; the server assigns its id and squares.
func (c *Client) CreateGame(ctx context.Context, settings Settings) (*Game, error) {
	return c.game(ctx, "create_game", http.MethodPost, gamesPath, nil, settings)
}

// PauseResume forwards action to the server as-is.
func (c *Client) PauseResume(ctx context.Context, id int, action Action) (*Game, error) {
	q := url.Values{}
	q.Set("action", string(action))
	return c.game(ctx, "pause_resume", http.MethodPut, gamePath(id, ""), q, nil)
}

// Pause pauses game id.
func (c *Client) Pause(ctx context.Context, id int) (*Game, error) {
	return c.PauseResume(ctx, id, ActionPause)
}

// Resume resumes game id.
func (c *Client) Resume(ctx context.Context, id int) (*Game, error) {
	return c.PauseResume(ctx, id, ActionResume)
}

// SetFlag sets or toggles a flag of flagType on one square.
func (c *Client) SetFlag(ctx context.Context, id, column, row int, flagType string) (*Game, error) {
	q := cellQuery(column, row)
	q.Set("type", flagType)
	return c.game(ctx, "set_flag", http.MethodPut, gamePath(id, flagSuffix), q, nil)
}

// Reveal opens one square; any cascade is computed by the server.
func (c *Client) Reveal(ctx context.Context, id, column, row int) (*Game, error) {
	return c.game(ctx, "reveal", http.MethodPut, gamePath(id, revealSuffix), cellQuery(column, row), nil)
}

// CreateUser registers an account. The service answers this endpoint with a
// Game-shaped document, which is what gets decoded.
func (c *Client) CreateUser(ctx context.Context, account UserAccount) (*Game, error) {
	return c.game(ctx, "create_user", http.MethodPost, usersPath, nil, account)
}

func (c *Client) game(ctx context.Context, op, method, path string, query url.Values, body any) (*Game, error) {
	var w gameWire
	if err := c.do(ctx, op, method, path, query, body, &w); err != nil {
		return nil, err
	}
	return w.game(), nil
}

// do runs one exchange and converts every failure into an *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	req := &httpclient.Request{
		Method:  method,
		URL:     c.baseURL + path,
		Query:   query,
		Headers: map[string]string{authHeader: basicAuth(c.Credentials())},
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return c.fail(op, req, decodeError(fmt.Errorf("encode request: %w", err)))
		}
		req.Body = raw
		req.Headers[contentType] = mimeJSON
	}

	c.log.DebugObj("minesweeper request", "minesweeper_request", map[string]any{
		"operation": op,
		"method":    method,
		"path":      path,
		"query":     query.Encode(),
	})

	if c.transport == nil {
		return c.fail(op, req, networkError(errNoTransport))
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return c.fail(op, req, networkError(err))
	}
	if resp == nil {
		return c.fail(op, req, networkError(errNoResponse))
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return c.fail(op, req, statusError(status, resp.Body()))
	}

	if err := decodeBody(resp.Body(), out); err != nil {
		return c.fail(op, req, decodeError(err))
	}
	return nil
}

func (c *Client) fail(op string, req *httpclient.Request, apiErr *APIError) error {
	c.log.WarnObj("minesweeper request failed", "minesweeper_error", map[string]any{
		"operation": op,
		"method":    req.Method,
		"url":       req.URL,
		"kind":      apiErr.Kind.String(),
		"code":      apiErr.Code,
		"error":     apiErr.Error(),
	})
	return apiErr
}

func basicAuth(creds Credentials) string {
	return basicPrefix + base64.StdEncoding.EncodeToString([]byte(creds.User+":"+creds.Password))
}

func gamePath(id int, suffix string) string {
	return gamesPath + "/" + strconv.Itoa(id) + suffix
}

func cellQuery(column, row int) url.Values {
	q := url.Values{}
	q.Set("column", strconv.Itoa(column))
	q.Set("row", strconv.Itoa(row))
	return q
}
