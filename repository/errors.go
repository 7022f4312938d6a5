package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrConflict reports a write rejected by a unique index, such as a recipe slug
// or a category name taken by a concurrent request.
var ErrConflict = errors.New("unique constraint violated")

func conflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
