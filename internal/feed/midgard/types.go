package midgard

// Coin is one asset amount inside a leg, amount is an integer string scaled by 1e8.
type Coin struct {
	Amount string `json:"amount"`
	Asset  string `json:"asset"`
}

// Leg is one side of a swap action.
type Leg struct {
	Address string  `json:"address"`
	Coins   []Coin  `json:"coins"`
	TxID    *string `json:"txID"`
}

type SwapMeta struct {
	InPriceUSD  string `json:"inPriceUSD"`
	OutPriceUSD string `json:"outPriceUSD"`
}

type ActionMetadata struct {
	Swap *SwapMeta `json:"swap"`
}

// Action is a raw swap event. Date is a nanosecond epoch string.
type Action struct {
	Date     string         `json:"date"`
	In       []Leg          `json:"in"`
	Out      []Leg          `json:"out"`
	Metadata ActionMetadata `json:"metadata"`
	Pools    []string       `json:"pools"`
	Status   string         `json:"status"`
	Type     string         `json:"type"`
}

type PageMeta struct {
	NextPageToken string `json:"nextPageToken"`
	PrevPageToken string `json:"prevPageToken"`
}

// ActionsResponse is one page of the actions endpoint.
type ActionsResponse struct {
	Actions []Action `json:"actions"`
	Meta    PageMeta `json:"meta"`
}
