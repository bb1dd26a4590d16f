package telemetry

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/store"
)

const closingPriceDateLayout = "2006-01-02"

// FetchClosingPrice stores yesterday's closing price, which is the spot price at 00:00 UTC today.
func (t *Telemetry) FetchClosingPrice(ctx context.Context) error {
	if t.prices == nil {
		return errors.New("price feed is not configured")
	}

	today := t.now().UTC().Truncate(24 * time.Hour)
	price, err := t.prices.FetchUSDPrice(ctx, consts.ClosingPriceCoinID, today)
	if err != nil {
		t.logger.Error("[FetchClosingPrice][FetchUSDPrice]", map[string]string{
			"coin_id": consts.ClosingPriceCoinID,
			"error":   err.Error(),
		})
		return err
	}

	row := &model.ClosingPrice{
		Date:            today.AddDate(0, 0, -1).Format(closingPriceDateLayout),
		CoinID:          consts.ClosingPriceCoinID,
		ClosingPriceUSD: price,
	}
	if err := t.store.ClosingPrice.Upsert(t.db.WithContext(ctx), row); err != nil {
		t.logger.Error("[FetchClosingPrice][Upsert]", map[string]string{
			"date":  row.Date,
			"error": err.Error(),
		})
		return &store.DatabaseError{Op: "upsert", Table: model.ClosingPrice{}.TableName(), Err: err}
	}

	t.logger.Info("[FetchClosingPrice] Stored closing price", map[string]string{
		"coin_id": row.CoinID,
		"date":    row.Date,
		"price":   strconv.FormatFloat(price, 'f', 2, 64),
	})
	return nil
}
