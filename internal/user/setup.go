package user

import (
	"fmt"

	"github.com/SlpAus/caption-this-backend/internal/platform/database"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("无法迁移user表: %w", err)
	}
	fmt.Println("User数据库表迁移成功。")
	return nil
}

// WarmupCache 从SQLite加载所有玩家身份与昵称，并预热到Redis中
func WarmupCache() error {
	var users []User
	// 1. 从SQLite读取所有玩家的UUID和昵称
	if err := database.DB.Select("uuid, nickname").Find(&users).Error; err != nil {
		return fmt.Errorf("无法从SQLite读取玩家身份: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("无现有玩家数据，无需预热身份缓存。")
		return nil
	}

	// 2. 准备SAdd的成员列表和昵称Hash
	identities := make([]interface{}, len(users))
	nicknames := make(map[string]interface{}, len(users))
	for i, u := range users {
		identities[i] = u.UUID
		nicknames[u.UUID] = u.Nickname
	}

	// 3. 使用Pipeline批量写入，先清空旧缓存确保一致性
	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, KnownUsersKey, NicknamesKey)
	pipe.SAdd(database.Ctx, KnownUsersKey, identities...)
	pipe.HSet(database.Ctx, NicknamesKey, nicknames)

	_, err := pipe.Exec(database.Ctx)
	if err != nil {
		return fmt.Errorf("预热玩家身份到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个玩家身份到Redis。\n", len(users))
	return nil
}

// PrimeCachedDB 是user模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
