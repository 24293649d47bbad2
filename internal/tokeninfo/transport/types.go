// Package transport provides HTTP request/response types for the token-info domain.
package transport

import (
	"github.com/tokendesk/contractsinfo/internal/tokeninfo/domain"
)

// TokenInfoPayload is the wire form of a token metadata record.
type TokenInfoPayload struct {
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

// ToDomain converts the payload to a domain record. The address is normalized
// by the handler before conversion.
func (p TokenInfoPayload) ToDomain(chainID int64, address string) domain.TokenInfo {
	return domain.TokenInfo{
		ChainID:             chainID,
		Address:             address,
		ProjectName:         p.ProjectName,
		ProjectWebsite:      p.ProjectWebsite,
		ProjectEmail:        p.ProjectEmail,
		IconURL:             p.IconURL,
		ProjectDescription:  p.ProjectDescription,
		ProjectSector:       p.ProjectSector,
		Docs:                p.Docs,
		Github:              p.Github,
		Telegram:            p.Telegram,
		Linkedin:            p.Linkedin,
		Discord:             p.Discord,
		Slack:               p.Slack,
		Twitter:             p.Twitter,
		OpenSea:             p.OpenSea,
		Facebook:            p.Facebook,
		Medium:              p.Medium,
		Reddit:              p.Reddit,
		Support:             p.Support,
		CoinMarketCapTicker: p.CoinMarketCapTicker,
		CoinGeckoTicker:     p.CoinGeckoTicker,
		DefiLlamaTicker:     p.DefiLlamaTicker,
		TokenName:           p.TokenName,
		TokenSymbol:         p.TokenSymbol,
	}
}

// FromDomain converts a domain record to its wire form.
func FromDomain(rec *domain.TokenInfo) TokenInfoPayload {
	return TokenInfoPayload{
		TokenAddress:        rec.Address,
		ChainID:             rec.ChainID,
		ProjectName:         rec.ProjectName,
		ProjectWebsite:      rec.ProjectWebsite,
		ProjectEmail:        rec.ProjectEmail,
		IconURL:             rec.IconURL,
		ProjectDescription:  rec.ProjectDescription,
		ProjectSector:       rec.ProjectSector,
		Docs:                rec.Docs,
		Github:              rec.Github,
		Telegram:            rec.Telegram,
		Linkedin:            rec.Linkedin,
		Discord:             rec.Discord,
		Slack:               rec.Slack,
		Twitter:             rec.Twitter,
		OpenSea:             rec.OpenSea,
		Facebook:            rec.Facebook,
		Medium:              rec.Medium,
		Reddit:              rec.Reddit,
		Support:             rec.Support,
		CoinMarketCapTicker: rec.CoinMarketCapTicker,
		CoinGeckoTicker:     rec.CoinGeckoTicker,
		DefiLlamaTicker:     rec.DefiLlamaTicker,
		TokenName:           rec.TokenName,
		TokenSymbol:         rec.TokenSymbol,
	}
}

// ImportRequest is the HTTP request body for the import endpoint. Exactly one
// of TokenInfo or ExtractedParts must be set; parts are merged in order before
// a single import.
type ImportRequest struct {
	Provider       string             `json:"provider"`
	TokenInfo      *TokenInfoPayload  `json:"tokenInfo,omitempty"`
	ExtractedParts []TokenInfoPayload `json:"extractedParts,omitempty"`
}

// ImportResponse reports whether the submission was written.
type ImportResponse struct {
	Written bool `json:"written"`
}

// ListResponse is the response for listing a user's token infos.
type ListResponse struct {
	TokenInfos []TokenInfoPayload `json:"tokenInfos"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
