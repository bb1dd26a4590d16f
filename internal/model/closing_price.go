package model

type ClosingPrice struct {
	Date            string  `json:"date" gorm:"column:date;primaryKey"`
	CoinID          string  `json:"coin_id" gorm:"column:coin_id;primaryKey"`
	ClosingPriceUSD float64 `json:"closing_price_usd" gorm:"column:closing_price_usd"`
}

func (ClosingPrice) TableName() string {
	return "closing_prices"
}
