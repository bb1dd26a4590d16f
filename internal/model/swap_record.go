package model

// SwapRecord is the canonical, source independent swap row.
// Leg 1 is never the settlement asset when a second leg exists.
type SwapRecord struct {
	TxID      string `json:"tx_id" gorm:"column:tx_id;primaryKey"`
	Timestamp int64  `json:"timestamp" gorm:"column:timestamp"`
	Date      string `json:"date" gorm:"column:date"`
	Time      string `json:"time" gorm:"column:time"`

	InAsset     string   `json:"in_asset" gorm:"column:in_asset"`
	InAmount    float64  `json:"in_amount" gorm:"column:in_amount"`
	InAmountUSD *float64 `json:"in_amount_usd,omitempty" gorm:"column:in_amount_usd"`
	InAddress   string   `json:"in_address" gorm:"column:in_address"`

	OutAsset1     string   `json:"out_asset_1" gorm:"column:out_asset_1"`
	OutAmount1    float64  `json:"out_amount_1" gorm:"column:out_amount_1"`
	OutAmount1USD *float64 `json:"out_amount_1_usd,omitempty" gorm:"column:out_amount_1_usd"`
	OutAddress1   string   `json:"out_address_1" gorm:"column:out_address_1"`

	OutAsset2     *string  `json:"out_asset_2,omitempty" gorm:"column:out_asset_2"`
	OutAmount2    *float64 `json:"out_amount_2,omitempty" gorm:"column:out_amount_2"`
	OutAmount2USD *float64 `json:"out_amount_2_usd,omitempty" gorm:"column:out_amount_2_usd"`
	OutAddress2   *string  `json:"out_address_2,omitempty" gorm:"column:out_address_2"`
}

// HasSecondLeg reports whether the optional second outbound leg is set.
func (r SwapRecord) HasSecondLeg() bool {
	return r.OutAsset2 != nil
}
