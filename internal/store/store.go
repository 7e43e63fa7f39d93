// Package store persists menu items and tasks with gorm and implements the
// backend interfaces used by the extraction wizard and the task board.
package store

import (
	"strconv"

	"hotelops/internal/common"

	"github.com/jinzhu/gorm"
)

func parseID(kind, raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, notFound(kind)
	}
	return uint(id), nil
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func notFound(kind string) error {
	return common.NewAppError("not_found", kind+" not found", common.ErrNotFound)
}

func conflict(message string) error {
	return common.NewAppError("conflict", message, common.ErrConflict)
}

func invalid(message string) error {
	return common.NewAppError("validation", message, common.ErrValidation)
}

func dbError(op string, err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return notFound(op)
	}
	return common.WrapError(err, op)
}
