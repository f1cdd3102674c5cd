package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/auth"
	"github.com/harunnryd/pgpt/internal/model/contract"
	"github.com/harunnryd/pgpt/internal/observe"
)

// Anthropic rejects requests without max_tokens.
const anthropicMaxTokens = 4096

// Config fixes everything a client needs; it is not changed after New.
type Config struct {
	Name        string
	Dialect     contract.Dialect
	Endpoint    string
	Credential  auth.Credential
	Model       string
	Temperature float64
	MaxTokens   int
	TopK        int
	Timeout     time.Duration
}

// Client speaks one dialect to one endpoint. It holds no conversation state
// and is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	observer observe.Observer
	logger   *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithObserver(o observe.Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New validates cfg. A client that constructs successfully is ready to call.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Name == "" {
		cfg.Name = cfg.Dialect.String()
	}
	if !cfg.Dialect.Valid() {
		return nil, pgptErrors.Configuration(fmt.Sprintf("%s: unknown dialect", cfg.Name))
	}
	if cfg.Endpoint == "" {
		return nil, pgptErrors.Configuration(fmt.Sprintf("%s: endpoint url is missing", cfg.Name))
	}
	if !cfg.Credential.HasKey() {
		return nil, pgptErrors.Configuration(fmt.Sprintf("%s: api key is missing", cfg.Name))
	}
	if cfg.Model == "" {
		return nil, pgptErrors.Configuration(fmt.Sprintf("%s: model is missing", cfg.Name))
	}
	if cfg.Dialect.Family == contract.FamilyAnthropic {
		cfg.Endpoint = MessagesEndpoint(cfg.Endpoint)
		if cfg.MaxTokens <= 0 {
			cfg.MaxTokens = anthropicMaxTokens
		}
	}

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{},
		observer: observe.Nop(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MessagesEndpoint appends /messages unless the URL already ends with it.
func MessagesEndpoint(url string) string {
	url = strings.TrimRight(url, "/")
	if strings.HasSuffix(url, "/messages") {
		return url
	}
	return url + "/messages"
}

func (c *Client) Name() string { return c.cfg.Name }

func (c *Client) Dialect() contract.Dialect { return c.cfg.Dialect }

func (c *Client) Endpoint() string { return c.cfg.Endpoint }

func (c *Client) Model() string { return c.cfg.Model }

// Chat sends turns and returns the reply text.
func (c *Client) Chat(ctx context.Context, turns []contract.Turn, opts contract.Options) (string, error) {
	resp, err := c.send(ctx, call{turns: turns, opts: opts})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ChatWithTools attaches tool definitions and returns text and tool calls.
// Dialects that flatten tools send no definitions.
func (c *Client) ChatWithTools(ctx context.Context, turns []contract.Turn, tools []contract.ToolDef, opts contract.Options) (*contract.Response, error) {
	return c.send(ctx, call{turns: turns, tools: tools, opts: opts})
}
