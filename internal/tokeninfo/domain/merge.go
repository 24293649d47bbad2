package domain

import "errors"

// ErrNoParts is returned when a merge is attempted with no input records.
var ErrNoParts = errors.New("no token info parts to merge")

// ErrMixedTargets is returned when merge inputs disagree on the token they
// describe.
var ErrMixedTargets = errors.New("token info parts target different tokens")

// MergeExtracted combines partial extractor records for one token into a
// single record. Parts are ordered by extractor priority; for every field the
// first part that has a value wins. Required string fields follow the same
// rule with empty meaning absent.
func MergeExtracted(parts []TokenInfo) (*TokenInfo, error) {
	if len(parts) == 0 {
		return nil, ErrNoParts
	}
	for _, p := range parts[1:] {
		if p.ChainID != parts[0].ChainID || p.Address != parts[0].Address {
			return nil, ErrMixedTargets
		}
	}

	merged := TokenInfo{
		ChainID: parts[0].ChainID,
		Address: parts[0].Address,
	}
	for _, p := range parts {
		mergeStr(&merged.ProjectWebsite, p.ProjectWebsite)
		mergeStr(&merged.ProjectEmail, p.ProjectEmail)
		mergeStr(&merged.IconURL, p.IconURL)
		mergeStr(&merged.ProjectDescription, p.ProjectDescription)

		mergePtr(&merged.ProjectName, p.ProjectName)
		mergePtr(&merged.ProjectSector, p.ProjectSector)
		mergePtr(&merged.Docs, p.Docs)
		mergePtr(&merged.Github, p.Github)
		mergePtr(&merged.Telegram, p.Telegram)
		mergePtr(&merged.Linkedin, p.Linkedin)
		mergePtr(&merged.Discord, p.Discord)
		mergePtr(&merged.Slack, p.Slack)
		mergePtr(&merged.Twitter, p.Twitter)
		mergePtr(&merged.OpenSea, p.OpenSea)
		mergePtr(&merged.Facebook, p.Facebook)
		mergePtr(&merged.Medium, p.Medium)
		mergePtr(&merged.Reddit, p.Reddit)
		mergePtr(&merged.Support, p.Support)
		mergePtr(&merged.CoinMarketCapTicker, p.CoinMarketCapTicker)
		mergePtr(&merged.CoinGeckoTicker, p.CoinGeckoTicker)
		mergePtr(&merged.DefiLlamaTicker, p.DefiLlamaTicker)
		mergePtr(&merged.TokenName, p.TokenName)
		mergePtr(&merged.TokenSymbol, p.TokenSymbol)
	}
	return &merged, nil
}

func mergeStr(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

func mergePtr(dst **string, src *string) {
	if *dst == nil && src != nil && *src != "" {
		v := *src
		*dst = &v
	}
}
