package coingecko

type currentPrice struct {
	USD float64 `json:"usd"`
}

type marketData struct {
	CurrentPrice currentPrice `json:"current_price"`
}

type historyResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Symbol     string      `json:"symbol"`
	MarketData *marketData `json:"market_data"`
}
