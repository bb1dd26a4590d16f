package swaprecord

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
)

type IStore interface {
	Create(db *gorm.DB, table string, policy consts.ConflictPolicy, record *model.SwapRecord) error
	CreateBatch(db *gorm.DB, table string, policy consts.ConflictPolicy, records []model.SwapRecord) error
	GetByTxID(db *gorm.DB, table string, txID string) (*model.SwapRecord, error)
	// GetLatestTimestamp returns MAX(timestamp) and false when the table is empty.
	GetLatestTimestamp(db *gorm.DB, table string) (int64, bool, error)
	Find(db *gorm.DB, table string, query model.SwapQuery) ([]model.SwapRecord, error)
}
