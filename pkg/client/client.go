// Package client provides a Go client for the contractsinfo API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is a contractsinfo API client
type Client struct {
	baseURL      string
	apiKey       string
	sessionToken string
	httpClient   *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithAPIKey sets the API key used for service endpoints
// (owner lookup, token-info import).
func WithAPIKey(key string) Option {
	return func(client *Client) {
		client.apiKey = key
	}
}

// WithSessionToken sets the explorer session token used for user
// endpoints (prepare, verify, list). The token is forwarded as a
// bearer Authorization header.
func WithSessionToken(token string) Option {
	return func(client *Client) {
		client.sessionToken = token
	}
}

// New creates a new contractsinfo client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PrepareRequest is the request for preparing an ownership verification
type PrepareRequest struct {
	Address string `json:"address"`
}

// PrepareResponse carries the message the user must sign
type PrepareResponse struct {
	SigningMessage  string  `json:"signingMessage"`
	ContractCreator string  `json:"contractCreator"`
	ContractOwner   *string `json:"contractOwner,omitempty"`
}

// VerifyRequest is the request for submitting a signed ownership claim
type VerifyRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// AddressMetadata is the token snapshot taken at verification time
type AddressMetadata struct {
	TokenName   *string `json:"tokenName"`
	TokenSymbol *string `json:"tokenSymbol"`
}

// VerifiedAddress represents a verified contract address
type VerifiedAddress struct {
	UserEmail       string          `json:"userEmail"`
	ChainID         int64           `json:"chainId"`
	ContractAddress string          `json:"contractAddress"`
	VerifiedDate    string          `json:"verifiedDate"`
	Metadata        AddressMetadata `json:"metadata"`
}

// ListVerifiedAddressesResponse is the response for listing verified addresses
type ListVerifiedAddressesResponse struct {
	VerifiedAddresses []VerifiedAddress `json:"verifiedAddresses"`
}

// OwnerResponse is the response for the owner lookup endpoint
type OwnerResponse struct {
	UserEmail string `json:"userEmail"`
}

// TokenInfo represents a token metadata record
type TokenInfo struct {
	TokenAddress string `json:"tokenAddress"`
	ChainID      int64  `json:"chainId"`

	ProjectName        *string `json:"projectName"`
	ProjectWebsite     string  `json:"projectWebsite"`
	ProjectEmail       string  `json:"projectEmail"`
	IconURL            string  `json:"iconUrl"`
	ProjectDescription string  `json:"projectDescription"`
	ProjectSector      *string `json:"projectSector"`

	Docs     *string `json:"docs"`
	Github   *string `json:"github"`
	Telegram *string `json:"telegram"`
	Linkedin *string `json:"linkedin"`
	Discord  *string `json:"discord"`
	Slack    *string `json:"slack"`
	Twitter  *string `json:"twitter"`
	OpenSea  *string `json:"openSea"`
	Facebook *string `json:"facebook"`
	Medium   *string `json:"medium"`
	Reddit   *string `json:"reddit"`
	Support  *string `json:"support"`

	CoinMarketCapTicker *string `json:"coinMarketCapTicker"`
	CoinGeckoTicker     *string `json:"coinGeckoTicker"`
	DefiLlamaTicker     *string `json:"defiLlamaTicker"`

	TokenName   *string `json:"tokenName"`
	TokenSymbol *string `json:"tokenSymbol"`
}

// ImportTokenInfoRequest is the request for importing token metadata.
// Exactly one of TokenInfo or ExtractedParts must be set.
type ImportTokenInfoRequest struct {
	Provider       string      `json:"provider"`
	TokenInfo      *TokenInfo  `json:"tokenInfo,omitempty"`
	ExtractedParts []TokenInfo `json:"extractedParts,omitempty"`
}

// ImportTokenInfoResponse reports whether the submission was written
type ImportTokenInfoResponse struct {
	Written bool `json:"written"`
}

// ListTokenInfosResponse is the response for listing a user's token infos
type ListTokenInfosResponse struct {
	TokenInfos []TokenInfo `json:"tokenInfos"`
}

// APIError represents an API error response
type APIError struct {
	StatusCode     int      `json:"-"`
	Code           string   `json:"code"`
	Message        string   `json:"message"`
	PossibleOwners []string `json:"possibleOwners,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// PrepareAddress fetches the signing message for an ownership claim.
// Requires a session token.
func (c *Client) PrepareAddress(ctx context.Context, chainID int64, address string) (*PrepareResponse, error) {
	var resp PrepareResponse
	path := fmt.Sprintf("/api/v1/chains/%d/verified-addresses:prepare", chainID)
	if err := c.post(ctx, path, PrepareRequest{Address: address}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyAddress submits a signed ownership claim. Requires a session token.
func (c *Client) VerifyAddress(ctx context.Context, chainID int64, req VerifyRequest) (*VerifiedAddress, error) {
	var resp VerifiedAddress
	path := fmt.Sprintf("/api/v1/chains/%d/verified-addresses:verify", chainID)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListVerifiedAddresses lists the caller's verified addresses on a chain.
// Requires a session token.
func (c *Client) ListVerifiedAddresses(ctx context.Context, chainID int64) (*ListVerifiedAddressesResponse, error) {
	var resp ListVerifiedAddressesResponse
	path := fmt.Sprintf("/api/v1/chains/%d/verified-addresses", chainID)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAddressOwner looks up who verified an address. Requires an API key.
func (c *Client) GetAddressOwner(ctx context.Context, chainID int64, address string) (*OwnerResponse, error) {
	var resp OwnerResponse
	path := fmt.Sprintf("/api/v1/chains/%d/verified-addresses/%s/owner", chainID, url.PathEscape(address))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTokenInfo fetches the token metadata for an address. Public endpoint.
func (c *Client) GetTokenInfo(ctx context.Context, chainID int64, address string) (*TokenInfo, error) {
	var resp TokenInfo
	path := fmt.Sprintf("/api/v1/chains/%d/token-infos/%s", chainID, url.PathEscape(address))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTokenInfos lists the token infos for the caller's verified addresses.
// Requires a session token.
func (c *Client) ListTokenInfos(ctx context.Context, chainID int64) (*ListTokenInfosResponse, error) {
	var resp ListTokenInfosResponse
	path := fmt.Sprintf("/api/v1/chains/%d/token-infos", chainID)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ImportTokenInfo submits token metadata on behalf of a provider.
// Requires an API key.
func (c *Client) ImportTokenInfo(ctx context.Context, chainID int64, req ImportTokenInfoRequest) (*ImportTokenInfoResponse, error) {
	var resp ImportTokenInfoResponse
	path := fmt.Sprintf("/api/v1/chains/%d/token-infos:import", chainID)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}
	req.Header.Set("Accept", "application/json")
}

func (c *Client) parseError(resp *http.Response) error {
	var errResp struct {
		Error APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	errResp.Error.StatusCode = resp.StatusCode
	return &errResp.Error
}
