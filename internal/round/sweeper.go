package round

import (
	"fmt"
	"time"

	"github.com/SlpAus/caption-this-backend/internal/platform/config"
	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/pkg/lifecycle"
	"gorm.io/gorm"
)

// StartRetentionSweeper 启动保留期清理巡查。
// 超过保留期的回合和投稿会被物理删除，结算结果行永久保留，
// 排行榜与玩家账本不受清理影响。
func StartRetentionSweeper(handle *lifecycle.Handle, cfg config.GameConfig) {
	go runRetentionSweeper(handle, cfg)
}

func runRetentionSweeper(handle *lifecycle.Handle, cfg config.GameConfig) {
	defer handle.Close()
	fmt.Println("回合保留期清理已启动。")

	for {
		if err := handle.Sleep(cfg.SweepInterval()); err != nil {
			fmt.Println("回合保留期清理已退出。")
			return
		}
		if err := sweepExpiredRounds(cfg.Retention()); err != nil {
			fmt.Printf("警告: 保留期清理执行失败: %v\n", err)
		}
	}
}

// sweepExpiredRounds 删除所有超过保留期的回合。
// 终态回合按进入终态的时间起算；始终未进入终态的回合
// （无人参与或一直无法达成一致）按截止时间起算，视为已放弃。
func sweepExpiredRounds(retention time.Duration) error {
	cutoff := modClock.Now().Add(-retention)

	var expired []Round
	err := database.DB.
		Where("(resolved = ? OR cancelled = ?) AND updated_at < ?", true, true, cutoff).
		Or("resolved = ? AND cancelled = ? AND deadline < ?", false, false, cutoff).
		Find(&expired).Error
	if err != nil {
		return fmt.Errorf("无法查询过期回合: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	swept := 0
	for _, r := range expired {
		if err := deleteRoundData(r.RoundID); err != nil {
			fmt.Printf("警告: 清理回合 %s 失败: %v\n", r.RoundID, err)
			continue
		}
		swept++
	}

	fmt.Printf("保留期清理删除了 %d 个回合。\n", swept)
	return nil
}

// deleteRoundData 在回合锁内物理删除单个回合及其投稿，并移出活跃索引
func deleteRoundData(roundID string) error {
	unlock := lockRound(roundID)
	defer unlock()

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("round_id = ?", roundID).Delete(&Caption{}).Error; err != nil {
			return fmt.Errorf("无法删除回合投稿: %w", err)
		}
		if err := tx.Unscoped().Where("round_id = ?", roundID).Delete(&Round{}).Error; err != nil {
			return fmt.Errorf("无法删除回合: %w", err)
		}
		if err := database.RDB.ZRem(database.Ctx, ActiveRoundsKey, roundID).Err(); err != nil {
			return fmt.Errorf("无法将回合移出活跃索引，删除已回滚: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	dropRoundLock(roundID)
	return nil
}
