package consts

// SourceKind identifies an upstream feed and the table its records land in.
type SourceKind string

const (
	SourceNative    SourceKind = "native"
	SourceTrade     SourceKind = "trade"
	SourceChainflip SourceKind = "chainflip"
)

// ConflictPolicy decides what the loader does when a tx_id already exists.
type ConflictPolicy string

const (
	ConflictIgnore    ConflictPolicy = "ignore"
	ConflictOverwrite ConflictPolicy = "overwrite"
)

// Direction is the pagination direction a checkpoint belongs to.
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

// AssetNotation selects how pool identifiers are turned into asset names.
type AssetNotation string

const (
	AssetNotationPool  AssetNotation = "pool"
	AssetNotationTrade AssetNotation = "trade"
)

const (
	THORChainDecimals     = 8
	NativeSettlementAsset = "THOR.RUNE"

	MidgardStatusSuccess     = "success"
	ChainflipStatusCompleted = "COMPLETED"

	BackfillStartTimestamp int64 = 1700357476
	BackfillFlushPages           = 20

	ClosingPriceCoinID = "bitcoin"
)

// ChainflipTerminalStatuses are final states that never produce a stored swap.
var ChainflipTerminalStatuses = map[string]bool{
	"FAILED":   true,
	"REFUNDED": true,
	"ABORTED":  true,
}
