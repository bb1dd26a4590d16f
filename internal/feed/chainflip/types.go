package chainflip

// SwapsResponse is the GraphQL envelope of the allSwapRequests query.
type SwapsResponse struct {
	Data   *SwapsData     `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

type GraphQLError struct {
	Message string `json:"message"`
}

type SwapsData struct {
	AllSwapRequests SwapRequests `json:"allSwapRequests"`
}

type SwapRequests struct {
	PageInfo   PageInfo `json:"pageInfo"`
	Edges      []Edge   `json:"edges"`
	TotalCount int64    `json:"totalCount"`
}

type PageInfo struct {
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor"`
	HasNextPage     bool   `json:"hasNextPage"`
	EndCursor       string `json:"endCursor"`
}

type Edge struct {
	Node SwapNode `json:"node"`
}

// SwapNode is a single swap request as reported by the explorer. Amounts are
// decimal strings already scaled to whole units.
type SwapNode struct {
	ID                      int64   `json:"id"`
	SwapRequestNativeID     string  `json:"swapRequestNativeId"`
	SourceAsset             string  `json:"sourceAsset"`
	DestAsset               string  `json:"destAsset"`
	IngressAmount           *string `json:"ingressAmount"`
	IngressValueUsd         *string `json:"ingressValueUsd"`
	EgressAmount            *string `json:"egressAmount"`
	EgressValueUsd          *string `json:"egressValueUsd"`
	DestinationAddress      string  `json:"destinationAddress"`
	RefundAddress           *string `json:"refundAddress"`
	Status                  string  `json:"status"`
	IsInProgress            bool    `json:"isInProgress"`
	StartedBlockTimestamp   *string `json:"startedBlockTimestamp"`
	CompletedBlockTimestamp *string `json:"completedBlockTimestamp"`
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}
