package transformer

import (
	"regexp"

	"github.com/dwarvesf/swap-history/internal/consts"
)

var (
	poolDelimiters  = regexp.MustCompile(`[./~\-_|:;,+*^$!?]`)
	tradeDelimiters = regexp.MustCompile(`[./~]`)
)

// AssetName turns a pool identifier into a canonical asset name.
// Pool notation keeps chain and symbol joined by "." and drops any contract suffix,
// so "ETH.USDC-0XA0B8" becomes "ETH.USDC". Trade notation keeps the first delimiter,
// so "BTC~BTC" stays "BTC~BTC".
func AssetName(pool string, notation consts.AssetNotation) (string, bool) {
	if notation == consts.AssetNotationTrade {
		loc := tradeDelimiters.FindStringIndex(pool)
		if loc == nil {
			return "", false
		}
		parts := tradeDelimiters.Split(pool, 3)
		return parts[0] + pool[loc[0]:loc[1]] + parts[1], true
	}

	parts := poolDelimiters.Split(pool, 3)
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + "." + parts[1], true
}
