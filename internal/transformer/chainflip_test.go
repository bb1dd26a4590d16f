package transformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/swap-history/internal/feed/chainflip"
)

func completedNode() chainflip.SwapNode {
	return chainflip.SwapNode{
		SwapRequestNativeID:     "4242",
		SourceAsset:             "Btc",
		DestAsset:               "Eth",
		IngressAmount:           strPtr("0.5"),
		IngressValueUsd:         strPtr("30000.25"),
		EgressAmount:            strPtr("10.1"),
		EgressValueUsd:          strPtr("29900"),
		DestinationAddress:      "0xdest",
		RefundAddress:           strPtr("bc1qrefund"),
		Status:                  "COMPLETED",
		CompletedBlockTimestamp: strPtr("2024-01-02T03:04:05+00:00"),
	}
}

func TestTransformChainflip_Completed(t *testing.T) {
	res, err := TransformChainflip(completedNode())

	require.NoError(t, err)
	require.NotNil(t, res.Swap)
	swap := res.Swap
	assert.Equal(t, "4242", swap.SwapID)
	assert.Equal(t, int64(1704164645), swap.Timestamp)
	assert.Equal(t, "2024-01-02", swap.Date)
	assert.Equal(t, "Btc", swap.InAsset)
	assert.Equal(t, 0.5, swap.InAmount)
	assert.Equal(t, 30000.25, swap.InAmountUSD)
	assert.Equal(t, "bc1qrefund", swap.InAddress)
	assert.Equal(t, "Eth", swap.OutAsset)
	assert.Equal(t, 10.1, swap.OutAmount)
	assert.Equal(t, 29900.0, swap.OutAmountUSD)
	assert.Equal(t, "0xdest", swap.OutAddress)
}

func TestTransformChainflip_InFlightIsPending(t *testing.T) {
	node := completedNode()
	node.Status = "SWAPPING"
	node.EgressAmount = nil

	res, err := TransformChainflip(node)

	require.NoError(t, err)
	assert.Nil(t, res.Swap)
	assert.Equal(t, "4242", res.PendingID)
}

func TestTransformChainflip_TerminalStatusIsFinal(t *testing.T) {
	for _, status := range []string{"FAILED", "Refunded", "aborted"} {
		t.Run(status, func(t *testing.T) {
			node := completedNode()
			node.Status = status
			node.EgressAmount = nil

			res, err := TransformChainflip(node)

			require.NoError(t, err)
			assert.Nil(t, res.Swap)
			assert.Empty(t, res.PendingID)
			assert.Equal(t, "4242", res.FinalID)
		})
	}
}

func TestTransformChainflip_StatusIsCaseInsensitive(t *testing.T) {
	node := completedNode()
	node.Status = "completed"

	res, err := TransformChainflip(node)

	require.NoError(t, err)
	assert.NotNil(t, res.Swap)
}

func TestTransformChainflip_Errors(t *testing.T) {
	noID := completedNode()
	noID.SwapRequestNativeID = " "

	noEgress := completedNode()
	noEgress.EgressAmount = nil

	noTime := completedNode()
	noTime.CompletedBlockTimestamp = nil

	badAmount := completedNode()
	badAmount.IngressAmount = strPtr("half")

	tests := map[string]struct {
		node chainflip.SwapNode
		want error
	}{
		"missing id":        {noID, ErrMissingTxID},
		"missing egress":    {noEgress, ErrMissingOutData},
		"missing timestamp": {noTime, ErrInvalidTimestamp},
		"invalid amount":    {badAmount, ErrInvalidAmount},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := TransformChainflip(tt.node)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransformChainflip_FallsBackToStartedTimestamp(t *testing.T) {
	node := completedNode()
	node.CompletedBlockTimestamp = nil
	node.StartedBlockTimestamp = strPtr("2024-01-02T03:04:05.5")

	res, err := TransformChainflip(node)

	require.NoError(t, err)
	assert.Equal(t, int64(1704164645), res.Swap.Timestamp)
}
