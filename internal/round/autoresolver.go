package round

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/SlpAus/caption-this-backend/internal/platform/config"
	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
)

// StartAutoResolver 启动自动结算巡逻，周期性地结算所有已过截止时间的回合。
// 手动结算请求和巡逻可能竞争同一回合，回合锁和终态门禁保证这是安全的。
func StartAutoResolver(handle *lifecycle.Handle, cfg config.ResolverConfig) {
	go runAutoResolver(handle, cfg)
}

func runAutoResolver(handle *lifecycle.Handle, cfg config.ResolverConfig) {
	defer handle.Close()
	fmt.Println("自动结算巡逻已启动。")

	// attempts 记录每个回合连续失败的次数，达到上限后不再自动重试
	attempts := make(map[string]int)
	for {
		if err := handle.Sleep(cfg.PollInterval()); err != nil {
			fmt.Println("自动结算巡逻已退出。")
			return
		}
		patrolDueRounds(handle, attempts, cfg.MaxAttempts)
	}
}

// patrolDueRounds 处理一轮巡逻：找出全部到期回合并逐个尝试结算
func patrolDueRounds(handle *lifecycle.Handle, attempts map[string]int, maxAttempts int) {
	due, err := dueRoundIDs()
	if err != nil {
		fmt.Printf("警告: 自动结算巡逻无法获取到期回合: %v\n", err)
		return
	}

	// 修剪已不在到期列表中的计数，防止长期运行下的无界增长
	dueSet := make(map[string]bool, len(due))
	for _, id := range due {
		dueSet[id] = true
	}
	for id := range attempts {
		if !dueSet[id] {
			delete(attempts, id)
		}
	}

	for _, roundID := range due {
		if handle.Err() != nil {
			return
		}
		if attempts[roundID] >= maxAttempts {
			continue
		}

		if _, err := ResolveRound(handle.Ctx(), roundID); err != nil {
			attempts[roundID]++
			if attempts[roundID] >= maxAttempts {
				fmt.Printf("告警: 回合 %s 连续 %d 次自动结算失败，停止自动重试: %v\n", roundID, attempts[roundID], err)
			} else if !isExpectedPatrolError(err) {
				fmt.Printf("警告: 回合 %s 自动结算失败（第 %d 次尝试）: %v\n", roundID, attempts[roundID], err)
			}
			continue
		}

		delete(attempts, roundID)
		fmt.Printf("自动结算巡逻已结算回合 %s。\n", roundID)
	}
}

// isExpectedPatrolError 报告错误是否属于巡逻中的正常情况：
// 回合刚被别人结算、取消或清理都不值得告警。
func isExpectedPatrolError(err error) bool {
	if errors.Is(err, ErrRoundNotFound) {
		return true
	}
	var stateErr *StateError
	return errors.As(err, &stateErr)
}

// dueRoundIDs 找出截止时间已过、仍未进入终态的回合，按截止时间升序。
// Redis健康时从活跃索引读取，否则降级为SQLite查询。
func dueRoundIDs() ([]string, error) {
	now := modClock.Now()

	if database.IsRedisHealthy() {
		RLockRepository()
		rangeBy := &redis.ZRangeBy{Min: "-inf", Max: "(" + strconv.FormatInt(now.Unix(), 10)}
		ids, err := database.RDB.ZRangeByScore(database.Ctx, ActiveRoundsKey, rangeBy).Result()
		RUnlockRepository()
		if err == nil {
			return ids, nil
		}
		fmt.Printf("警告: 从Redis读取到期回合失败，降级为SQLite查询: %v\n", err)
	}

	var rounds []Round
	err := database.DB.
		Where("resolved = ? AND cancelled = ? AND deadline < ?", false, false, now).
		Order("deadline ASC").
		Find(&rounds).Error
	if err != nil {
		return nil, fmt.Errorf("无法从SQLite读取到期回合: %w", err)
	}

	ids := make([]string, len(rounds))
	for i, r := range rounds {
		ids[i] = r.RoundID
	}
	return ids, nil
}
