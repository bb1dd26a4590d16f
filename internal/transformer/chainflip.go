package transformer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed/chainflip"
	"github.com/dwarvesf/swap-history/internal/model"
)

var chainflipTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
}

// ChainflipResult is a stored swap, the native id of one still in flight, or the id
// of one that ended without completing.
type ChainflipResult struct {
	Swap      *model.ChainflipSwap
	PendingID string
	FinalID   string
}

// TransformChainflip maps one explorer node. Only completed swaps produce a row.
func TransformChainflip(node chainflip.SwapNode) (ChainflipResult, error) {
	id := strings.TrimSpace(node.SwapRequestNativeID)
	if id == "" {
		return ChainflipResult{}, chainflipFail("", ErrMissingTxID)
	}
	status := strings.ToUpper(strings.TrimSpace(node.Status))
	if consts.ChainflipTerminalStatuses[status] {
		return ChainflipResult{FinalID: id}, nil
	}
	if status != consts.ChainflipStatusCompleted {
		return ChainflipResult{PendingID: id}, nil
	}

	stamp := node.CompletedBlockTimestamp
	if stamp == nil {
		stamp = node.StartedBlockTimestamp
	}
	if stamp == nil {
		return ChainflipResult{}, chainflipFail(id, ErrInvalidTimestamp)
	}
	ts, err := parseChainflipTime(*stamp)
	if err != nil {
		return ChainflipResult{}, chainflipFail(id, ErrInvalidTimestamp)
	}

	if node.SourceAsset == "" {
		return ChainflipResult{}, chainflipFail(id, ErrMissingInData)
	}
	if node.DestAsset == "" || node.EgressAmount == nil {
		return ChainflipResult{}, chainflipFail(id, ErrMissingOutData)
	}

	inAmount, err := optionalDecimal(node.IngressAmount)
	if err != nil {
		return ChainflipResult{}, chainflipFail(id, ErrInvalidAmount)
	}
	outAmount, err := optionalDecimal(node.EgressAmount)
	if err != nil {
		return ChainflipResult{}, chainflipFail(id, ErrInvalidAmount)
	}
	// USD values are informative only, a bad one is stored as zero
	inUSD, _ := optionalDecimal(node.IngressValueUsd)
	outUSD, _ := optionalDecimal(node.EgressValueUsd)

	inAddress := ""
	if node.RefundAddress != nil {
		inAddress = *node.RefundAddress
	}

	return ChainflipResult{Swap: &model.ChainflipSwap{
		SwapID:       SanitizeString(id),
		Timestamp:    ts.Unix(),
		Date:         ts.Format(sqlDateLayout),
		InAsset:      SanitizeString(node.SourceAsset),
		InAmount:     inAmount.InexactFloat64(),
		InAmountUSD:  inUSD.InexactFloat64(),
		InAddress:    SanitizeString(inAddress),
		OutAsset:     SanitizeString(node.DestAsset),
		OutAmount:    outAmount.InexactFloat64(),
		OutAmountUSD: outUSD.InexactFloat64(),
		OutAddress:   SanitizeString(node.DestinationAddress),
	}}, nil
}

func parseChainflipTime(s string) (time.Time, error) {
	var err error
	for _, layout := range chainflipTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func optionalDecimal(s *string) (decimal.Decimal, error) {
	if s == nil || *s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*s)
}

func chainflipFail(id string, err error) error {
	return &TransformError{Source: string(consts.SourceChainflip), TxID: id, Err: err}
}
