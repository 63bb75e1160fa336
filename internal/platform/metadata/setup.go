package metadata

import (
	"fmt"

	"github.com/SlpAus/caption-this-backend/internal/platform/database"
)

// PrimeDB 负责初始化metadata模块的数据库部分
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}

	// 预置所有计数器行，保证IncrementCounter的单条UPDATE总能命中
	for _, key := range CounterKeys {
		existing, err := GetValue(database.DB, key)
		if err != nil {
			return fmt.Errorf("无法读取元数据计数器 '%s': %w", key, err)
		}
		if existing == "" {
			if err := SetValue(database.DB, key, "0"); err != nil {
				return fmt.Errorf("无法初始化元数据计数器 '%s': %w", key, err)
			}
		}
	}

	fmt.Println("Metadata数据库表迁移成功。")
	return nil
}
