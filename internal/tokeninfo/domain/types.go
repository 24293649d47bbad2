package domain

import (
	"github.com/tokendesk/contractsinfo/internal/storage"
)

// ProviderLevel identifies who is submitting token metadata. The level decides
// provenance: admin-service submissions come from a verified owner, extractor
// submissions are automated.
type ProviderLevel string

const (
	ProviderAdminService ProviderLevel = "admin_service"
	ProviderExtractor    ProviderLevel = "extractor"
)

// IsUserSubmitted reports whether records at this level count as
// user-submitted for the overwrite rules.
func (l ProviderLevel) IsUserSubmitted() bool {
	return l == ProviderAdminService
}

// TokenInfo is the domain view of a token metadata record.
type TokenInfo = storage.TokenInfo

// importPayload is the body posted to the explorer's token-info import
// endpoint.
type importPayload struct {
	TokenAddress string  `json:"tokenAddress"`
	ChainID      int64   `json:"chainId"`
	ProjectName  *string `json:"projectName"`

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

func newImportPayload(rec *TokenInfo) importPayload {
	return importPayload{
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
