package round

import (
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/caption-this-backend/internal/judge"
	"github.com/SlpAus/caption-this-backend/internal/platform/config"
	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/pkg/clock"
	"github.com/redis/go-redis/v9"
)

// 模块级依赖，由ConfigureModule在启动期注入一次
var (
	modClock         clock.Clock = clock.System()
	evaluator        *judge.Evaluator
	agreementPolicy  judge.Policy = judge.PolicyMajority
	submissionWindow time.Duration
)

// ConfigureModule 注入round模块的运行依赖：时钟、评委客户端与玩法配置。
// 必须在接受请求和启动后台服务之前调用。
func ConfigureModule(c clock.Clock, client judge.Client, judgeCfg config.JudgeConfig, gameCfg config.GameConfig) error {
	if c == nil {
		return errors.New("round模块需要一个时钟")
	}
	if client == nil {
		return errors.New("round模块需要一个评委客户端")
	}
	policy, err := judge.ParsePolicy(judgeCfg.Agreement)
	if err != nil {
		return err
	}

	modClock = c
	evaluator = judge.NewEvaluator(client, judgeCfg.Replicas, judgeCfg.ReplicaTimeout())
	agreementPolicy = policy
	submissionWindow = gameCfg.SubmissionWindow()
	return nil
}

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Round{}, &Caption{}, &RoundResult{}); err != nil {
		return fmt.Errorf("无法迁移round相关表: %w", err)
	}
	fmt.Println("Round数据库表迁移成功。")
	return nil
}

// WarmupCache 从SQLite加载所有未进入终态的回合，重建活跃回合索引
func WarmupCache() error {
	var rounds []Round
	if err := database.DB.Where("resolved = ? AND cancelled = ?", false, false).Find(&rounds).Error; err != nil {
		return fmt.Errorf("无法从SQLite读取活跃回合: %w", err)
	}

	members := make([]redis.Z, 0, len(rounds))
	for _, r := range rounds {
		members = append(members, redis.Z{Score: float64(r.Deadline.Unix()), Member: r.RoundID})
	}

	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, ActiveRoundsKey)
	if len(members) > 0 {
		pipe.ZAdd(database.Ctx, ActiveRoundsKey, members...)
	}

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热活跃回合索引到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个活跃回合到Redis。\n", len(members))
	return nil
}

// PrimeCachedDB 是round模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
