package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup by key matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert collides with a unique key.
	ErrDuplicate = errors.New("duplicate key")
	// ErrStockConflict is returned when a quantity decrement would drive stock below zero.
	ErrStockConflict = errors.New("stock changed concurrently or is insufficient")
)

func distinctIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// createError wraps an insert failure, translating unique-key violations to ErrDuplicate.
func createError(entity string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to create %s: %w: %v", entity, ErrDuplicate, err)
	}
	return fmt.Errorf("failed to create %s: %w", entity, err)
}
