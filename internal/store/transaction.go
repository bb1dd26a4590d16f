package store

import (
	"gorm.io/gorm"
)

// DoInTx runs fn in one transaction. A failing or panicking fn rolls it back;
// fn's own error is returned as is.
func DoInTx(db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return &DatabaseError{Op: "begin", Err: tx.Error}
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return &DatabaseError{Op: "commit", Err: err}
	}
	return nil
}
