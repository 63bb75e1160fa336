package reward

import (
	"encoding/json"
	"fmt"

	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Player{}); err != nil {
		return fmt.Errorf("无法迁移player表: %w", err)
	}
	fmt.Println("Player数据库表迁移成功。")
	return nil
}

// WarmupCache 从SQLite加载所有玩家账本，重建排行榜ZSET和统计Hash
func WarmupCache() error {
	var players []Player
	// 1. 从SQLite读取完整的奖励账本
	if err := database.DB.Find(&players).Error; err != nil {
		return fmt.Errorf("无法从SQLite读取玩家账本: %w", err)
	}

	// 2. 准备排行榜成员和统计JSON
	members := make([]redis.Z, 0, len(players))
	stats := make(map[string]interface{}, len(players))
	for _, p := range players {
		members = append(members, redis.Z{Score: float64(p.XP), Member: p.Identity})
		statsJSON, err := json.Marshal(PlayerStats{
			XP:           p.XP,
			RoundsPlayed: p.RoundsPlayed,
			Wins:         p.Wins,
			RunnerUps:    p.RunnerUps,
			SoloRounds:   p.SoloRounds,
		})
		if err != nil {
			return fmt.Errorf("无法序列化玩家 %s 的统计数据: %w", p.Identity, err)
		}
		stats[p.Identity] = statsJSON
	}

	// 3. 使用Pipeline批量写入，先清空旧缓存确保一致性
	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, LeaderboardKey, StatsKey)
	if len(players) > 0 {
		pipe.ZAdd(database.Ctx, LeaderboardKey, members...)
		pipe.HSet(database.Ctx, StatsKey, stats)
	}

	_, err := pipe.Exec(database.Ctx)
	if err != nil {
		return fmt.Errorf("预热玩家账本到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个玩家账本到Redis。\n", len(players))
	return nil
}

// PrimeCachedDB 是reward模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
