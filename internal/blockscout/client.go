package blockscout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/tokendesk/contractsinfo/internal/observability/metrics"
)

// Client talks to a single Blockscout instance. The instance's host doubles as
// the site string bound into ownership messages.
type Client struct {
	endpoint *url.URL
	host     string
	apiKey   string
	http     *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key sent on privileged import calls.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithRetryMax overrides the transport's retry count.
func WithRetryMax(n int) Option {
	return func(c *Client) { c.http.RetryMax = n }
}

// New creates a client for the Blockscout instance at endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing blockscout endpoint: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("blockscout endpoint %q has no host", endpoint)
	}

	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = 2
	httpClient.HTTPClient.Timeout = 30 * time.Second

	c := &Client{
		endpoint: u,
		host:     u.Hostname(),
		http:     httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Host returns the hostname of the Blockscout instance.
func (c *Client) Host() string {
	return c.host
}

// Address fetches address metadata for a contract or account.
func (c *Client) Address(ctx context.Context, addr common.Address) (*AddressInfo, error) {
	var info AddressInfo
	if err := c.getJSON(ctx, "address", "api/v2/addresses/"+hexAddr(addr), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Transaction fetches a transaction by hash.
func (c *Client) Transaction(ctx context.Context, hash common.Hash) (*Transaction, error) {
	var tx Transaction
	if err := c.getJSON(ctx, "transaction", "api/v2/transactions/"+hash.Hex(), nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ReadMethods lists the read-only methods of a verified contract.
func (c *Client) ReadMethods(ctx context.Context, addr common.Address) ([]Method, error) {
	var methods []Method
	if err := c.getJSON(ctx, "methods_read", "api/v2/smart-contracts/"+hexAddr(addr)+"/methods-read", nil, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

// ProxyReadMethods lists the read-only methods of a proxy's implementation,
// as resolved by Blockscout for the proxy address.
func (c *Client) ProxyReadMethods(ctx context.Context, addr common.Address) ([]Method, error) {
	var methods []Method
	if err := c.getJSON(ctx, "methods_read_proxy", "api/v2/smart-contracts/"+hexAddr(addr)+"/methods-read-proxy", nil, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

// Token fetches token metadata for an address. Returns ErrNotFound when the
// address is not a token.
func (c *Client) Token(ctx context.Context, addr common.Address) (*Token, error) {
	var token Token
	if err := c.getJSON(ctx, "token", "api/v2/tokens/"+hexAddr(addr), nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// ImportTokenInfo pushes a token-info payload to Blockscout's import endpoint.
// The configured API key is attached as the api_key query parameter.
func (c *Client) ImportTokenInfo(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding token info: %w", err)
	}

	u := c.endpoint.JoinPath("api/v2/import/token-info")
	if c.apiKey != "" {
		q := u.Query()
		q.Set("api_key", c.apiKey)
		u.RawQuery = q.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do("import_token_info", req, nil)
}

// UserInfo resolves the account behind a Blockscout session token. The token is
// forwarded verbatim in the Authorization header.
func (c *Client) UserInfo(ctx context.Context, authorization string) (*UserInfo, error) {
	headers := http.Header{"Authorization": []string{authorization}}
	var user UserInfo
	if err := c.getJSON(ctx, "user_info", "api/account/v2/user/info", headers, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, headers http.Header, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.JoinPath(path).String(), nil)
	if err != nil {
		return err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *retryablehttp.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveExplorerRequest(op, "error", time.Since(start))
		return fmt.Errorf("blockscout request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveExplorerRequest(op, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding blockscout response: %w", err)
		}
		return nil
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
}

// hexAddr renders an address as lowercase 0x-prefixed hex, the form Blockscout
// uses in its URLs.
func hexAddr(a common.Address) string {
	return fmt.Sprintf("0x%x", a[:])
}
