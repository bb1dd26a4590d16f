package transformer

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed/midgard"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// Result is either a canonical record or the id of a swap that is not final yet.
type Result struct {
	Record    *model.SwapRecord
	PendingID string
}

// IsPending reports whether the raw action was not final.
func (r Result) IsPending() bool {
	return r.Record == nil && r.PendingID != ""
}

// PageResult is the outcome of transforming one page of actions.
type PageResult struct {
	Records []model.SwapRecord
	Pending []string
	Skipped int
}

type leg struct {
	asset   string
	amount  decimal.Decimal
	address string
}

type Transformer struct {
	src    config.SourceConfig
	logger *logger.Logger
}

func New(src config.SourceConfig, logger *logger.Logger) *Transformer {
	if src.SettlementAsset == "" {
		src.SettlementAsset = consts.NativeSettlementAsset
	}
	if src.Decimals == 0 {
		src.Decimals = consts.THORChainDecimals
	}
	if src.Notation == "" {
		src.Notation = consts.AssetNotationPool
	}
	return &Transformer{src: src, logger: logger}
}

// Transform maps one raw action. Any error is a *TransformError scoped to that action.
func (t *Transformer) Transform(a midgard.Action) (Result, error) {
	if len(a.In) == 0 {
		return Result{}, t.fail("", ErrMissingInData)
	}
	if a.In[0].TxID == nil || *a.In[0].TxID == "" {
		return Result{}, t.fail("", ErrMissingTxID)
	}
	txID := SanitizeString(*a.In[0].TxID)

	if a.Status != consts.MidgardStatusSuccess {
		return Result{PendingID: txID}, nil
	}

	ts, err := ParseNanoTimestamp(a.Date)
	if err != nil {
		return Result{}, t.fail(txID, ErrInvalidTimestamp)
	}

	in, err := t.parseLeg(a.In[0])
	if err != nil {
		return Result{}, t.fail(txID, err)
	}

	// upstream lists the settlement leg first
	outs := make([]midgard.Leg, len(a.Out))
	for i, l := range a.Out {
		outs[len(a.Out)-1-i] = l
	}
	if len(outs) == 0 {
		return Result{}, t.fail(txID, ErrMissingOutData)
	}

	primary, err := t.parseLeg(outs[0])
	if err != nil {
		return Result{}, t.fail(txID, err)
	}

	var secondary *leg
	if len(outs) > 1 {
		second, err := t.parseLeg(outs[1])
		if err != nil {
			return Result{}, t.fail(txID, err)
		}
		if primary.asset == t.src.SettlementAsset && second.asset != t.src.SettlementAsset {
			primary, second = second, primary
		}
		secondary = &second
	}

	date, clock := DisplayDateTime(ts)
	sqlDate, err := FormatDateForSQL(date)
	if err != nil {
		return Result{}, t.fail(txID, ErrInvalidTimestamp)
	}

	rec := &model.SwapRecord{
		TxID:        txID,
		Timestamp:   ts.Unix(),
		Date:        sqlDate,
		Time:        clock,
		InAsset:     in.asset,
		InAmount:    in.amount.InexactFloat64(),
		InAddress:   in.address,
		OutAsset1:   primary.asset,
		OutAmount1:  primary.amount.InexactFloat64(),
		OutAddress1: primary.address,
	}
	if secondary != nil {
		amount := secondary.amount.InexactFloat64()
		rec.OutAsset2 = &secondary.asset
		rec.OutAmount2 = &amount
		rec.OutAddress2 = &secondary.address
	}
	if t.src.Enrich {
		t.enrich(rec, a.Metadata.Swap, in.amount, primary.amount)
	}

	return Result{Record: rec}, nil
}

// TransformPage maps a page in upstream order. Bad actions are logged and counted.
func (t *Transformer) TransformPage(actions []midgard.Action) PageResult {
	res := PageResult{}
	for _, a := range actions {
		r, err := t.Transform(a)
		if err != nil {
			res.Skipped++
			t.logger.Error("[TransformPage][Transform]", map[string]string{
				"source": string(t.src.Kind),
				"error":  err.Error(),
			})
			continue
		}
		if r.IsPending() {
			res.Pending = append(res.Pending, r.PendingID)
			continue
		}
		res.Records = append(res.Records, *r.Record)
	}
	return res
}

func (t *Transformer) parseLeg(l midgard.Leg) (leg, error) {
	if len(l.Coins) == 0 {
		return leg{}, ErrMissingInCoin
	}
	coin := l.Coins[0]

	amount, err := ToStandardUnit(coin.Amount, t.src.Decimals)
	if err != nil {
		return leg{}, ErrInvalidAmount
	}

	asset, ok := AssetName(coin.Asset, t.src.Notation)
	if !ok {
		return leg{}, ErrMissingAssetName
	}

	return leg{
		asset:   SanitizeString(asset),
		amount:  amount,
		address: SanitizeString(l.Address),
	}, nil
}

func (t *Transformer) enrich(rec *model.SwapRecord, meta *midgard.SwapMeta, in, out decimal.Decimal) {
	if meta == nil {
		return
	}
	if price, err := decimal.NewFromString(meta.InPriceUSD); err == nil {
		v := in.Mul(price).InexactFloat64()
		rec.InAmountUSD = &v
	} else {
		t.logger.Debug("[Transform][Enrich] skip in price", map[string]string{
			"tx_id": rec.TxID,
			"value": strconv.Quote(meta.InPriceUSD),
		})
	}
	if price, err := decimal.NewFromString(meta.OutPriceUSD); err == nil {
		v := out.Mul(price).InexactFloat64()
		rec.OutAmount1USD = &v
	}
}

func (t *Transformer) fail(txID string, err error) error {
	return &TransformError{Source: string(t.src.Kind), TxID: txID, Err: err}
}
