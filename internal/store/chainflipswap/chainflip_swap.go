package chainflipswap

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
)

const batchSize = 500

var sortableColumns = map[string]bool{
	"timestamp":  true,
	"date":       true,
	"swap_id":    true,
	"in_asset":   true,
	"in_amount":  true,
	"out_asset":  true,
	"out_amount": true,
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
	c := clause.OnConflict{Columns: []clause.Column{{Name: "swap_id"}}}
	if policy == consts.ConflictOverwrite {
		c.UpdateAll = true
	} else {
		c.DoNothing = true
	}
	return c
}

func (s *store) Create(db *gorm.DB, table string, policy consts.ConflictPolicy, swap *model.ChainflipSwap) error {
	return db.Table(table).Clauses(onConflict(policy)).Create(swap).Error
}

func (s *store) CreateBatch(db *gorm.DB, table string, policy consts.ConflictPolicy, swaps []model.ChainflipSwap) error {
	if len(swaps) == 0 {
		return nil
	}
	return db.Table(table).Clauses(onConflict(policy)).CreateInBatches(swaps, batchSize).Error
}

func (s *store) ExistingIDs(db *gorm.DB, table string, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	var found []string
	if err := db.Table(table).Where("swap_id IN ?", ids).Pluck("swap_id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		existing[id] = struct{}{}
	}
	return existing, nil
}

func (s *store) Find(db *gorm.DB, table string, query model.SwapQuery) ([]model.ChainflipSwap, error) {
	q := db.Table(table)

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		q = q.Where("swap_id LIKE ? OR in_address LIKE ? OR out_address LIKE ?", pattern, pattern, pattern)
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

	swaps := []model.ChainflipSwap{}
	if err := q.Find(&swaps).Error; err != nil {
		return nil, err
	}
	return swaps, nil
}
