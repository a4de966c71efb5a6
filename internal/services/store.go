package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate takes a row lock (SELECT ... FOR UPDATE). Multi-row mutations
// always lock the ride row before the driver row.
var forUpdate = clause.Locking{Strength: "UPDATE"}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
