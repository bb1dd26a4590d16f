package closingprice

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/store/storetest"
)

func TestStore_Upsert(t *testing.T) {
	db, mock := storetest.NewMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "closing_prices" ("date","coin_id","closing_price_usd") VALUES ($1,$2,$3) ON CONFLICT ("date","coin_id") DO UPDATE SET "closing_price_usd"="excluded"."closing_price_usd"`)).
		WithArgs("2024-01-01", "bitcoin", 42000.5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := New().Upsert(db, &model.ClosingPrice{Date: "2024-01-01", CoinID: "bitcoin", ClosingPriceUSD: 42000.5})

	require.NoError(t, err)
}

func TestStore_GetByDateNotFound(t *testing.T) {
	db, mock := storetest.NewMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "closing_prices" WHERE coin_id = $1 AND date = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"date", "coin_id", "closing_price_usd"}))

	_, err := New().GetByDate(db, "bitcoin", "2024-01-01")

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
