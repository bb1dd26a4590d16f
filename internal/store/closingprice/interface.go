package closingprice

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/model"
)

type IStore interface {
	Upsert(db *gorm.DB, price *model.ClosingPrice) error
	GetByDate(db *gorm.DB, coinID, date string) (*model.ClosingPrice, error)
}
