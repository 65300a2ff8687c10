// Package tokenclient obtains and caches bearer tokens for calls to one peer
// service. A cached access token is reused until it is within the skew of its
// expiry; after that the client tries a refresh grant and, if that fails, a
// full client_credentials grant.
package tokenclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-service-auth/internal/errors"
	"github.com/jrsteele09/go-service-auth/oauth2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultSkew    = 60 * time.Second

	// defaultExpiresIn applies when a peer omits expires_in.
	defaultExpiresIn = 86400

	tokenPath = "/auth/token"
	flightKey = "token"
)

// Client is the sole owner of one peer's cached token pair.
type Client struct {
	name     string
	baseURL  string
	username string
	password string

	httpClient *http.Client
	timeout    time.Duration
	skew       time.Duration
	nowFunc    func() time.Time

	mu     sync.Mutex
	cached *xoauth2.Token

	flight singleflight.Group
}

var _ xoauth2.TokenSource = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the client used for token requests. Its Timeout is
// ignored; every fetch is bounded by the client's own timeout instead.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each token fetch, including one shared by several callers.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithSkew sets how long before expiry a cached token is renewed.
func WithSkew(skew time.Duration) ClientOption {
	return func(c *Client) {
		c.skew = skew
	}
}

// WithNowFunc sets the clock used for expiry checks.
func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// New creates a client for the peer at baseURL that authenticates as username.
func New(name, baseURL, username, password string, options ...ClientOption) *Client {
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		skew:       DefaultSkew,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetToken returns an access token for the peer, fetching one if the cache
// cannot serve it. Concurrent callers share a single in-flight fetch. A
// caller whose ctx ends stops waiting, but the shared fetch runs on to its
// own timeout so the other waiters still get its result.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// AuthHeader returns the Authorization header value for a call to the peer.
func (c *Client) AuthHeader(ctx context.Context) (string, error) {
	accessToken, err := c.GetToken(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + accessToken, nil
}

// Token implements oauth2.TokenSource.
func (c *Client) Token() (*xoauth2.Token, error) {
	return c.token(context.Background())
}

// HTTPClient returns a client that attaches the peer's bearer token to every
// request it sends. The base transport is taken from ctx the way
// oauth2.NewClient does.
func (c *Client) HTTPClient(ctx context.Context) *http.Client {
	return &http.Client{
		Transport: &xoauth2.Transport{
			Source: c,
			Base:   xoauth2.NewClient(ctx, nil).Transport,
		},
	}
}

func (c *Client) token(ctx context.Context) (*xoauth2.Token, error) {
	if tok := c.fresh(); tok != nil {
		return tok, nil
	}

	ch := c.flight.DoChan(flightKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "[Client.GetToken] %s", c.name)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copyToken(res.Val.(*xoauth2.Token)), nil
	}
}

// fresh returns a copy of the cached token if it is outside the skew window.
func (c *Client) fresh() *xoauth2.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil || c.cached.AccessToken == "" {
		return nil
	}
	if !c.nowFunc().Before(c.cached.Expiry.Add(-c.skew)) {
		return nil
	}
	return copyToken(c.cached)
}

// fetch runs inside the single flight, so it is the only writer of the cache.
func (c *Client) fetch(ctx context.Context) (*xoauth2.Token, error) {
	// A flight that finished just before this one may already have renewed.
	if tok := c.fresh(); tok != nil {
		return tok, nil
	}

	c.mu.Lock()
	var refreshToken string
	if c.cached != nil {
		refreshToken = c.cached.RefreshToken
	}
	c.mu.Unlock()

	if refreshToken != "" {
		tok, err := c.request(ctx, oauth2.TokenRequest{
			GrantType:    oauth2.RefreshTokenGrant,
			RefreshToken: refreshToken,
		})
		if err == nil {
			c.store(tok)
			log.Debug().Str("remote", c.name).Msg("refreshed remote token")
			return tok, nil
		}
		log.Warn().Err(err).Str("remote", c.name).Msg("refresh failed, re-authenticating")
		c.store(nil)
	}

	tok, err := c.request(ctx, oauth2.TokenRequest{
		GrantType: oauth2.ClientCredentialsGrant,
		Username:  c.username,
		Password:  c.password,
	})
	if err != nil {
		return nil, errors.Wrapf(autherrors.WithCause(autherrors.ErrRemoteUnavailable, err), "[Client.GetToken] %s", c.name)
	}
	c.store(tok)
	log.Debug().Str("remote", c.name).Msg("authenticated with remote")
	return tok, nil
}

func (c *Client) store(tok *xoauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = tok
}

func (c *Client) request(ctx context.Context, tokenReq oauth2.TokenRequest) (*xoauth2.Token, error) {
	body, err := json.Marshal(tokenReq)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s request", tokenReq.GrantType)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "building %s request", tokenReq.GrantType)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request", tokenReq.GrantType)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s response", tokenReq.GrantType)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp oauth2.ErrorResponse
		if json.Unmarshal(payload, &errResp) == nil && errResp.Error != "" {
			return nil, errors.Errorf("%s rejected with %d: %s", tokenReq.GrantType, resp.StatusCode, errResp.Error)
		}
		return nil, errors.Errorf("%s rejected with %d", tokenReq.GrantType, resp.StatusCode)
	}

	var tokenResp oauth2.TokenResponse
	if err := json.Unmarshal(payload, &tokenResp); err != nil {
		return nil, errors.Wrapf(err, "decoding %s response", tokenReq.GrantType)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.Errorf("%s response has no access_token", tokenReq.GrantType)
	}

	expiresIn := tokenResp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	tokenType := tokenResp.TokenType
	if tokenType == "" {
		tokenType = oauth2.BearerTokenType
	}
	return &xoauth2.Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenType,
		Expiry:       c.nowFunc().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

func copyToken(tok *xoauth2.Token) *xoauth2.Token {
	cp := *tok
	return &cp
}
