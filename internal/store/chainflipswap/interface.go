package chainflipswap

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
)

type IStore interface {
	Create(db *gorm.DB, table string, policy consts.ConflictPolicy, swap *model.ChainflipSwap) error
	CreateBatch(db *gorm.DB, table string, policy consts.ConflictPolicy, swaps []model.ChainflipSwap) error
	// ExistingIDs returns the subset of ids already stored.
	ExistingIDs(db *gorm.DB, table string, ids []string) (map[string]struct{}, error)
	Find(db *gorm.DB, table string, query model.SwapQuery) ([]model.ChainflipSwap, error)
}
