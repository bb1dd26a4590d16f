package model

// ChainflipSwap is the single leg swap shape stored for the chainflip source.
type ChainflipSwap struct {
	SwapID       string  `json:"swap_id" gorm:"column:swap_id;primaryKey"`
	Timestamp    int64   `json:"timestamp" gorm:"column:timestamp"`
	Date         string  `json:"date" gorm:"column:date"`
	InAsset      string  `json:"in_asset" gorm:"column:in_asset"`
	InAmount     float64 `json:"in_amount" gorm:"column:in_amount"`
	InAmountUSD  float64 `json:"in_amount_usd" gorm:"column:in_amount_usd"`
	InAddress    string  `json:"in_address" gorm:"column:in_address"`
	OutAsset     string  `json:"out_asset" gorm:"column:out_asset"`
	OutAmount    float64 `json:"out_amount" gorm:"column:out_amount"`
	OutAmountUSD float64 `json:"out_amount_usd" gorm:"column:out_amount_usd"`
	OutAddress   string  `json:"out_address" gorm:"column:out_address"`
}
