package closingprice

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/swap-history/internal/model"
)

type store struct{}

func New() IStore {
	return &store{}
}

func (s *store) Upsert(db *gorm.DB, price *model.ClosingPrice) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "coin_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"closing_price_usd"}),
	}).Create(price).Error
}

func (s *store) GetByDate(db *gorm.DB, coinID, date string) (*model.ClosingPrice, error) {
	var price model.ClosingPrice
	if err := db.Where("coin_id = ? AND date = ?", coinID, date).First(&price).Error; err != nil {
		return nil, err
	}
	return &price, nil
}
