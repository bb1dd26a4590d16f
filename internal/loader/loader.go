package loader

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/store"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// Writer persists records of one table with that table's conflict policy.
type Writer[T any] interface {
	CreateBatch(db *gorm.DB, records []T) error
	Create(db *gorm.DB, record *T) error
	Key(record T) string
	Table() string
}

// Loader writes canonical records idempotently on their natural key.
type Loader[T any] struct {
	db     *gorm.DB
	writer Writer[T]
	logger *logger.Logger
}

func New[T any](db *gorm.DB, writer Writer[T], logger *logger.Logger) *Loader[T] {
	return &Loader[T]{db: db, writer: writer, logger: logger}
}

// LoadBatch inserts records in one transaction. When the batch is rejected every record
// is retried on its own, so one bad row costs only itself. It returns how many records
// were stored (or already present) and one error per record that could not be.
func (l *Loader[T]) LoadBatch(ctx context.Context, records []T) (int, []error) {
	if len(records) == 0 {
		return 0, nil
	}

	db := l.db.WithContext(ctx)
	err := store.DoInTx(db, func(tx *gorm.DB) error {
		return l.writer.CreateBatch(tx, records)
	})
	if err == nil {
		return len(records), nil
	}

	l.logger.Warn("[LoadBatch][CreateBatch] batch rejected, falling back to single inserts", map[string]string{
		"table": l.writer.Table(),
		"size":  strconv.Itoa(len(records)),
		"error": err.Error(),
	})

	succeeded := 0
	var errs []error
	for i := range records {
		if err := l.create(db, &records[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		succeeded++
	}

	if len(errs) > 0 {
		l.logger.Error("[LoadBatch] records not stored", map[string]string{
			"table":     l.writer.Table(),
			"succeeded": strconv.Itoa(succeeded),
			"failed":    strconv.Itoa(len(errs)),
		})
	}
	return succeeded, errs
}

// LoadOne inserts a single record with the same conflict rule as LoadBatch.
func (l *Loader[T]) LoadOne(ctx context.Context, record T) error {
	return l.create(l.db.WithContext(ctx), &record)
}

func (l *Loader[T]) create(db *gorm.DB, record *T) error {
	if err := l.writer.Create(db, record); err != nil {
		key := l.writer.Key(*record)
		l.logger.Error("[Loader][Create] failed to store record", map[string]string{
			"table": l.writer.Table(),
			"key":   key,
			"error": err.Error(),
		})
		return &store.DatabaseError{Op: "insert " + key, Table: l.writer.Table(), Err: err}
	}
	return nil
}
