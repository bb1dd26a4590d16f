package swaprecord

import (
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
)

const batchSize = 500

var sortableColumns = map[string]bool{
	"timestamp":    true,
	"date":         true,
	"tx_id":        true,
	"in_asset":     true,
	"in_amount":    true,
	"out_asset_1":  true,
	"out_amount_1": true,
}

type store struct{}

func New() IStore {
	return &store{}
}

// IsSortable reports whether column may be used as a sort key.
func IsSortable(column string) bool {
	return sortableColumns[column]
}

func onConflict(policy consts.ConflictPolicy) clause.OnConflict {
	c := clause.OnConflict{Columns: []clause.Column{{Name: "tx_id"}}}
	if policy == consts.ConflictOverwrite {
		c.UpdateAll = true
	} else {
		c.DoNothing = true
	}
	return c
}

func (s *store) Create(db *gorm.DB, table string, policy consts.ConflictPolicy, record *model.SwapRecord) error {
	return db.Table(table).Clauses(onConflict(policy)).Create(record).Error
}

func (s *store) CreateBatch(db *gorm.DB, table string, policy consts.ConflictPolicy, records []model.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}
	return db.Table(table).Clauses(onConflict(policy)).CreateInBatches(records, batchSize).Error
}

func (s *store) GetByTxID(db *gorm.DB, table string, txID string) (*model.SwapRecord, error) {
	var record model.SwapRecord
	if err := db.Table(table).Where("tx_id = ?", txID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *store) GetLatestTimestamp(db *gorm.DB, table string) (int64, bool, error) {
	var ts sql.NullInt64
	if err := db.Table(table).Select("MAX(timestamp)").Row().Scan(&ts); err != nil {
		return 0, false, err
	}
	return ts.Int64, ts.Valid, nil
}

func (s *store) Find(db *gorm.DB, table string, query model.SwapQuery) ([]model.SwapRecord, error) {
	q := db.Table(table)

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		q = q.Where("tx_id LIKE ? OR in_address LIKE ? OR out_address_1 LIKE ? OR out_address_2 LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if query.Date != "" {
		q = q.Where("date = ?", query.Date)
	}

	sortBy := query.SortBy
	if !IsSortable(sortBy) {
		sortBy = "timestamp"
	}

	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: query.Desc})
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}

	records := []model.SwapRecord{}
	err := q.Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
