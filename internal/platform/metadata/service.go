package metadata

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Generic Accessors ---

// GetValue retrieves a value for a given key from the metadata table.
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// If the key doesn't exist, return an empty string, which is a valid default.
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue creates or updates a value for a given key within a transaction.
func SetValue(db *gorm.DB, key, value string) error {
	// Use GORM's OnConflict clause for an efficient and atomic "upsert" operation.
	// It will update the 'value' column if a record with the same 'key' already exists.
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}

// --- Counters ---

// IncrementCounter atomically adds delta to a numeric counter row.
// The row must exist beforehand (PrimeDB seeds all CounterKeys), so a single
// UPDATE with a SQL expression stays race-free under concurrent transactions.
func IncrementCounter(db *gorm.DB, key string, delta int64) error {
	result := db.Model(&Metadata{}).
		Where("key = ?", key).
		UpdateColumn("value", gorm.Expr("CAST(value AS INTEGER) + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("无法累加元数据计数器 '%s': %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("元数据计数器 '%s' 不存在", key)
	}
	return nil
}

// GetCounter retrieves and parses a numeric counter value.
func GetCounter(db *gorm.DB, key string) (int64, error) {
	valueStr, err := GetValue(db, key)
	if err != nil {
		return 0, err
	}
	if valueStr == "" {
		return 0, nil
	}
	count, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", key, err)
	}
	return count, nil
}
