package loader

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/store/chainflipswap"
	"github.com/dwarvesf/swap-history/internal/store/swaprecord"
)

type swapRecordWriter struct {
	store  swaprecord.IStore
	table  string
	policy consts.ConflictPolicy
}

// SwapRecordWriter writes canonical swap rows keyed on tx_id.
func SwapRecordWriter(s swaprecord.IStore, table string, policy consts.ConflictPolicy) Writer[model.SwapRecord] {
	return &swapRecordWriter{store: s, table: table, policy: policy}
}

func (w *swapRecordWriter) CreateBatch(db *gorm.DB, records []model.SwapRecord) error {
	return w.store.CreateBatch(db, w.table, w.policy, records)
}

func (w *swapRecordWriter) Create(db *gorm.DB, record *model.SwapRecord) error {
	return w.store.Create(db, w.table, w.policy, record)
}

func (w *swapRecordWriter) Key(record model.SwapRecord) string { return record.TxID }

func (w *swapRecordWriter) Table() string { return w.table }

type chainflipWriter struct {
	store  chainflipswap.IStore
	table  string
	policy consts.ConflictPolicy
}

// ChainflipWriter writes chainflip rows keyed on swap_id.
func ChainflipWriter(s chainflipswap.IStore, table string, policy consts.ConflictPolicy) Writer[model.ChainflipSwap] {
	return &chainflipWriter{store: s, table: table, policy: policy}
}

func (w *chainflipWriter) CreateBatch(db *gorm.DB, swaps []model.ChainflipSwap) error {
	return w.store.CreateBatch(db, w.table, w.policy, swaps)
}

func (w *chainflipWriter) Create(db *gorm.DB, swap *model.ChainflipSwap) error {
	return w.store.Create(db, w.table, w.policy, swap)
}

func (w *chainflipWriter) Key(swap model.ChainflipSwap) string { return swap.SwapID }

func (w *chainflipWriter) Table() string { return w.table }
