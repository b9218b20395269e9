// Package rest implements the backend contract against the estatehub
// HTTP API (/api/v1, response envelope, apikey header).
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"estatehub/internal/client/backend"
	"estatehub/internal/core/domain"
	"estatehub/internal/pkg/logger"
)

const (
	apiPrefix      = "/api/v1"
	headerAPIKey   = "apikey"
	defaultTimeout = 15 * time.Second
)

// Config configures the client
type Config struct {
	BaseURL    string
	AnonKey    string
	Tokens     backend.TokenStore
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// envelope is the server's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

// Client talks to the estatehub API
type Client struct {
	http   *resty.Client
	tokens backend.TokenStore
	logger *zap.Logger

	refreshMu sync.Mutex

	listenersMu sync.Mutex
	listeners   map[int]backend.AuthListener
	nextID      int
}

// New creates a client
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = &backend.MemoryStore{}
	}
	log := logger.OrNop(cfg.Logger)

	rc := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+apiPrefix).
		SetHeader("Accept", "application/json").
		SetHeader(headerAPIKey, cfg.AnonKey).
		SetLogger(log.Sugar())

	return &Client{
		http:      rc,
		tokens:    tokens,
		logger:    log,
		listeners: make(map[int]backend.AuthListener),
	}
}

// Backend exposes the client through the contract
func (c *Client) Backend() backend.Backend {
	return backend.Backend{
		Auth:      &authAPI{c},
		Profiles:  &profilesAPI{c},
		Listings:  &listingsAPI{c},
		Cart:      &cartAPI{c},
		Favorites: &favoritesAPI{c},
		Storage:   &storageAPI{c},
	}
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        interface{}
	rawBody     []byte
	contentType string
	authed      bool
}

// do sends req and decodes the envelope data into out. Authenticated
// requests that come back 401 are retried once after a token refresh.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	payload := req.rawBody
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = raw
		if req.contentType == "" {
			req.contentType = "application/json"
		}
	}

	err := c.send(ctx, req, payload, out)
	if !req.authed || !errors.Is(err, backend.ErrUnauthorized) {
		return err
	}

	if _, rerr := c.refresh(ctx); rerr != nil {
		return err
	}
	return c.send(ctx, req, payload, out)
}

func (c *Client) send(ctx context.Context, req request, payload []byte, out interface{}) error {
	r := c.http.R().SetContext(ctx)
	if len(req.query) > 0 {
		r.SetQueryParamsFromValues(req.query)
	}
	if payload != nil {
		r.SetBody(payload)
	}
	if req.contentType != "" {
		r.SetHeader("Content-Type", req.contentType)
	}
	if req.authed {
		session, err := c.tokens.Load()
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if session == nil || session.AccessToken == "" {
			return &backend.Error{Kind: backend.ErrUnauthorized, Message: "no session"}
		}
		r.SetAuthToken(session.AccessToken)
	}

	resp, err := r.Execute(req.method, req.path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &backend.Error{Kind: backend.ErrTransient, Message: err.Error()}
	}

	var env envelope
	status := resp.StatusCode()
	if raw := resp.Body(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && status < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if status >= 300 {
		apiErr := &backend.Error{
			Kind:    backend.KindForStatus(status),
			Status:  status,
			Code:    env.Code,
			Message: env.Error,
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
		if env.Code == "invalid_credentials" {
			apiErr.Kind = backend.ErrInvalidCredentials
		}
		if len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, &apiErr.Data)
		}
		c.logger.Debug("api request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Int("status", status),
			zap.String("code", env.Code),
		)
		return apiErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// refresh rotates the stored refresh token. Concurrent callers share the
// mutex so a token is only spent once.
func (c *Client) refresh(ctx context.Context) (*domain.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current, err := c.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if current == nil || current.RefreshToken == "" {
		return nil, &backend.Error{Kind: backend.ErrUnauthorized, Message: "no refresh token"}
	}

	var session domain.Session
	err = c.send(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/refresh",
		contentType: "application/json",
	}, mustJSON(map[string]string{"refresh_token": current.RefreshToken}), &session)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrForbidden) {
			_ = c.tokens.Clear()
			c.emit(backend.EventSignedOut, nil)
		}
		return nil, err
	}

	if err := c.tokens.Save(&session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.emit(backend.EventTokenRefreshed, &session)
	return &session, nil
}

func (c *Client) subscribe(fn backend.AuthListener) func() {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			delete(c.listeners, id)
			c.listenersMu.Unlock()
		})
	}
}

// emit calls listeners synchronously in subscription order
func (c *Client) emit(event backend.Event, session *domain.Session) {
	c.listenersMu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	fns := make([]backend.AuthListener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn(event, session.Clone())
	}
}

func mustJSON(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
