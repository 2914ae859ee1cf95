package minesweeper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samvad-hq/minesweeper-client/pkg/httpclient"
)

const revealFixture = `{
  "id": 1,
  "settings": {"columns": 8, "rows": 8, "mines": 10},
  "status": "ongoing",
  "squares": [
    {"column": 1, "row": 3, "displayValue": "", "flag": false, "revealed": false},
    {"column": 2, "row": 3, "displayValue": "1", "flag": false, "revealed": true}
  ]
}`

const minimalGame = `{"id":1,"settings":{"columns":1,"mines":0,"rows":1},"squares":[],"status":"new"}`

type stubResponse struct {
	status int
	body   []byte
}

func (r stubResponse) Body() []byte    { return r.body }
func (r stubResponse) StatusCode() int { return r.status }

// stubTransport records requests and replies with a scripted response or error.
type stubTransport struct {
	status   int
	body     string
	err      error
	requests []*httpclient.Request
}

func (s *stubTransport) Do(_ context.Context, req *httpclient.Request) (httpclient.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	return stubResponse{status: status, body: []byte(s.body)}, nil
}

func (s *stubTransport) last(t *testing.T) *httpclient.Request {
	t.Helper()
	if len(s.requests) == 0 {
		t.Fatal("transport was not called")
	}
	return s.requests[len(s.requests)-1]
}

func newStubClient(tr *stubTransport) *Client {
	return NewClientWithTransport(ClientConfig{
		BaseURL:     "http://api.test/",
		Credentials: Credentials{User: "a", Password: "b"},
	}, tr)
}

// operations calls every client operation once and returns the errors.
func operations(c *Client) map[string]error {
	ctx := context.Background()
	out := map[string]error{}
	_, out["ListGames"] = c.ListGames(ctx)
	_, out["GetGame"] = c.GetGame(ctx, 1)
	_, out["CreateGame"] = c.CreateGame(ctx, Settings{Columns: 8, Mines: 10, Rows: 8})
	_, out["PauseResume"] = c.PauseResume(ctx, 1, ActionPause)
	_, out["SetFlag"] = c.SetFlag(ctx, 1, 2, 3, "flag")
	_, out["Reveal"] = c.Reveal(ctx, 1, 2, 3)
	_, out["CreateUser"] = c.CreateUser(ctx, UserAccount{Email: "a@b.c"})
	return out
}

func TestEveryRequestCarriesBasicAuth(t *testing.T) {
	tr := &stubTransport{body: minimalGame}
	c := newStubClient(tr)
	operations(c)

	if len(tr.requests) != 7 {
		t.Fatalf("expected 7 requests, got %d", len(tr.requests))
	}
	for _, req := range tr.requests {
		if got := req.Headers["Authorization"]; got != "Basic YTpi" {
			t.Errorf("%s %s: Authorization = %q", req.Method, req.URL, got)
		}
	}
}

func TestRequestShapes(t *testing.T) {
	tests := []struct {
		name     string
		call     func(c *Client) error
		method   string
		url      string
		query    string
		body     string
		jsonBody bool
	}{
		{
			name:   "list games",
			call:   func(c *Client) error { _, err := c.ListGames(context.Background()); return err },
			method: http.MethodGet,
			url:    "http://api.test/games",
		},
		{
			name:   "get game",
			call:   func(c *Client) error { _, err := c.GetGame(context.Background(), 42); return err },
			method: http.MethodGet,
			url:    "http://api.test/games/42",
		},
		{
			name: "create game",
			call: func(c *Client) error {
				_, err := c.CreateGame(context.Background(), Settings{Columns: 8, Mines: 10, Rows: 8})
				return err
			},
			method:   http.MethodPost,
			url:      "http://api.test/games",
			body:     `{"columns":8,"mines":10,"rows":8}`,
			jsonBody: true,
		},
		{
			name:   "resume",
			call:   func(c *Client) error { _, err := c.Resume(context.Background(), 5); return err },
			method: http.MethodPut,
			url:    "http://api.test/games/5",
			query:  "action=resume",
		},
		{
			name:   "unvalidated action",
			call:   func(c *Client) error { _, err := c.PauseResume(context.Background(), 5, "explode"); return err },
			method: http.MethodPut,
			url:    "http://api.test/games/5",
			query:  "action=explode",
		},
		{
			name:   "flag",
			call:   func(c *Client) error { _, err := c.SetFlag(context.Background(), 3, 4, 5, "question"); return err },
			method: http.MethodPut,
			url:    "http://api.test/games/3/flag",
			query:  "column=4&row=5&type=question",
		},
		{
			name:   "reveal",
			call:   func(c *Client) error { _, err := c.Reveal(context.Background(), 3, 0, 7); return err },
			method: http.MethodPut,
			url:    "http://api.test/games/3/reveal",
			query:  "column=0&row=7",
		},
		{
			name: "create user",
			call: func(c *Client) error {
				_, err := c.CreateUser(context.Background(), UserAccount{Email: "e", FirstName: "f", LastName: "l", Password: "p"})
				return err
			},
			method:   http.MethodPost,
			url:      "http://api.test/users",
			body:     `{"email":"e","firstName":"f","lastName":"l","password":"p"}`,
			jsonBody: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := minimalGame
			if tt.name == "list games" {
				body = `[]`
			}
			tr := &stubTransport{body: body}
			if err := tt.call(newStubClient(tr)); err != nil {
				t.Fatalf("call: %v", err)
			}
			req := tr.last(t)
			if req.Method != tt.method {
				t.Errorf("method = %s, want %s", req.Method, tt.method)
			}
			if req.URL != tt.url {
				t.Errorf("url = %s, want %s", req.URL, tt.url)
			}
			if got := req.Query.Encode(); got != tt.query {
				t.Errorf("query = %q, want %q", got, tt.query)
			}
			if string(req.Body) != tt.body {
				t.Errorf("body = %s, want %s", req.Body, tt.body)
			}
			_, hasCT := req.Headers["Content-Type"]
			if hasCT != tt.jsonBody {
				t.Errorf("content-type present = %v, want %v", hasCT, tt.jsonBody)
			}
			if tt.jsonBody && req.Headers["Content-Type"] != "application/json" {
				t.Errorf("content-type = %q", req.Headers["Content-Type"])
			}
		})
	}
}

func TestStatus500IsUnknownForEveryOperation(t *testing.T) {
	tr := &stubTransport{status: http.StatusInternalServerError, body: revealFixture}
	for name, err := range operations(newStubClient(tr)) {
		apiErr, ok := AsAPIError(err)
		if !ok {
			t.Errorf("%s: expected *APIError, got %v", name, err)
			continue
		}
		if apiErr.Kind != KindUnknown || apiErr.Code != 500 {
			t.Errorf("%s: got kind=%s code=%d", name, apiErr.Kind, apiErr.Code)
		}
		if !errors.Is(err, UnknownError(500)) {
			t.Errorf("%s: errors.Is(UnknownError(500)) = false", name)
		}
		if errors.Is(err, UnknownError(502)) {
			t.Errorf("%s: matched wrong status", name)
		}
	}
}

func TestTransportFailureIsNetworkForEveryOperation(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	tr := &stubTransport{err: boom}
	for name, err := range operations(newStubClient(tr)) {
		if !errors.Is(err, ErrNetwork) {
			t.Errorf("%s: expected network error, got %v", name, err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("%s: cause not preserved: %v", name, err)
		}
	}
}

func TestNotFound(t *testing.T) {
	tr := &stubTransport{status: http.StatusNotFound, body: `{"status":404,"error":"Not Found","message":"game 99 not found"}`}
	game, err := newStubClient(tr).GetGame(context.Background(), 99)
	if game != nil {
		t.Fatalf("expected no game, got %+v", game)
	}
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	apiErr, _ := AsAPIError(err)
	if apiErr.Detail != "game 99 not found" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestListGamesEmptyArray(t *testing.T) {
	tr := &stubTransport{body: `[]`}
	games, err := newStubClient(tr).ListGames(context.Background())
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if games == nil || len(games) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", games)
	}
}

func TestListGamesPreservesOrder(t *testing.T) {
	tr := &stubTransport{body: `[
	  {"id":3,"settings":{"columns":1,"mines":0,"rows":1},"squares":[],"status":"ongoing"},
	  {"id":1,"settings":{"columns":1,"mines":0,"rows":1},"squares":[],"status":"won"},
	  {"id":2,"settings":{"columns":1,"mines":0,"rows":1},"squares":[],"status":"lost"}
	]`}
	games, err := newStubClient(tr).ListGames(context.Background())
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	want := []int{3, 1, 2}
	if len(games) != len(want) {
		t.Fatalf("expected %d games, got %d", len(want), len(games))
	}
	for i, id := range want {
		if games[i].ID != id {
			t.Errorf("games[%d].ID = %d, want %d", i, games[i].ID, id)
		}
	}
}

func TestListGamesRejectsEnvelope(t *testing.T) {
	tr := &stubTransport{body: `{"games":[]}`}
	_, err := newStubClient(tr).ListGames(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDecodeFailureAfter2xx(t *testing.T) {
	tr := &stubTransport{body: `<html>oops</html>`}
	game, err := newStubClient(tr).Reveal(context.Background(), 1, 2, 3)
	if game != nil {
		t.Fatalf("expected nil game on decode failure")
	}
	if KindOf(err) != KindDecode {
		t.Fatalf("expected decode kind, got %v", err)
	}
}

func TestWrongShapedGameBodyIsDecodeError(t *testing.T) {
	bodies := map[string]string{
		"null":           `null`,
		"empty object":   `{}`,
		"unknown only":   `{"unexpected":true}`,
		"null squares":   `{"id":1,"settings":{"columns":1,"mines":0,"rows":1},"squares":null,"status":"new"}`,
		"missing status": `{"id":1,"settings":{"columns":1,"mines":0,"rows":1},"squares":[]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			game, err := newStubClient(&stubTransport{body: body}).GetGame(context.Background(), 1)
			if game != nil {
				t.Fatalf("expected no game, got %+v", game)
			}
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("expected decode error, got %v", err)
			}
		})
	}
}

func TestGameBodyToleratesUnknownFields(t *testing.T) {
	body := `{"id":7,"settings":{"columns":1,"mines":0,"rows":1},"squares":[],"status":"new","createdAt":"2024-01-01"}`
	game, err := newStubClient(&stubTransport{body: body}).GetGame(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if game.ID != 7 || game.Squares == nil {
		t.Fatalf("unexpected game %+v", game)
	}
}

func TestListGamesRejectsIncompleteElement(t *testing.T) {
	for _, body := range []string{`null`, `[` + minimalGame + `,{}]`, `[null]`} {
		if _, err := newStubClient(&stubTransport{body: body}).ListGames(context.Background()); !errors.Is(err, ErrDecode) {
			t.Errorf("body %s: expected decode error, got %v", body, err)
		}
	}
}

func TestUnencodableRequestBodyIsNotSent(t *testing.T) {
	tr := &stubTransport{body: minimalGame}
	c := newStubClient(tr)

	var w gameWire
	err := c.do(context.Background(), "create_game", http.MethodPost, gamesPath, nil, map[string]any{"bad": make(chan int)}, &w)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode kind, got %v", err)
	}
	var unsupported *json.UnsupportedTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected encode cause, got %v", err)
	}
	if len(tr.requests) != 0 {
		t.Fatalf("request sent despite encode failure")
	}
}

func TestRevealScenario(t *testing.T) {
	tr := &stubTransport{body: revealFixture}
	game, err := newStubClient(tr).Reveal(context.Background(), 1, 2, 3)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	sq, ok := game.SquareAt(2, 3)
	if !ok {
		t.Fatal("square (2,3) missing")
	}
	if !sq.Revealed || sq.DisplayValue != "1" {
		t.Fatalf("unexpected square %+v", sq)
	}
	if game.Squares[0].Column != 1 {
		t.Errorf("square order not preserved: %+v", game.Squares)
	}
}

func TestCreateGameRoundTrip(t *testing.T) {
	settings := Settings{Columns: 8, Mines: 10, Rows: 8}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/games" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		var in Settings
		if err := json.Unmarshal(raw, &in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		squares := make([]Square, 0, in.Cells())
		for row := 0; row < in.Rows; row++ {
			for col := 0; col < in.Columns; col++ {
				squares = append(squares, Square{Column: col, Row: row})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Game{ID: 9, Settings: in, Squares: squares, Status: "new"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Credentials: Credentials{User: "a", Password: "b"}, Timeout: 2 * time.Second})
	game, err := c.CreateGame(context.Background(), settings)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if game.Settings != settings {
		t.Fatalf("settings = %+v, want %+v", game.Settings, settings)
	}
	if len(game.Squares) != settings.Columns*settings.Rows {
		t.Fatalf("expected %d squares, got %d", settings.Columns*settings.Rows, len(game.Squares))
	}
}

func TestHTTPServerStatusesThroughResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Basic YTpi" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/games/404":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html><head><title>502 Bad Gateway</title></head><body><h1>502</h1></body></html>`))
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Credentials: Credentials{User: "a", Password: "b"}})

	if _, err := c.GetGame(context.Background(), 404); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err := c.GetGame(context.Background(), 1)
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.Kind != KindUnknown || apiErr.Code != http.StatusBadGateway {
		t.Fatalf("expected unknown 502, got %v", err)
	}
	if apiErr.Detail != "502 Bad Gateway" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestClosedServerIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := NewClient(ClientConfig{BaseURL: addr, Timeout: time.Second})
	if _, err := c.ListGames(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestCredentialsReadPerCall(t *testing.T) {
	tr := &stubTransport{body: minimalGame}
	c := newStubClient(tr)

	if _, err := c.GetGame(context.Background(), 1); err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	c.SetCredentials(Credentials{User: "user", Password: "pass"})
	if _, err := c.GetGame(context.Background(), 1); err != nil {
		t.Fatalf("GetGame: %v", err)
	}

	if got := tr.requests[0].Headers["Authorization"]; got != "Basic YTpi" {
		t.Errorf("first call Authorization = %q", got)
	}
	if got := tr.requests[1].Headers["Authorization"]; got != "Basic dXNlcjpwYXNz" {
		t.Errorf("second call Authorization = %q", got)
	}
	if c.Credentials().User != "user" {
		t.Errorf("Credentials() = %+v", c.Credentials())
	}
}

func TestDefaultBaseEndpoint(t *testing.T) {
	c := NewClientWithTransport(ClientConfig{}, &stubTransport{})
	if c.BaseURL() != DefaultBaseEndpoint {
		t.Fatalf("BaseURL = %s", c.BaseURL())
	}
}

func TestNilTransportIsNetworkError(t *testing.T) {
	c := NewClientWithTransport(ClientConfig{BaseURL: "http://api.test"}, nil)
	if _, err := c.GetGame(context.Background(), 1); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}
