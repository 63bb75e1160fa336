package reward

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeaderboardEntry 是排行榜中的一行。
// Rank 采用并列排名：XP相同的玩家排名相同。
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Identity string `json:"identity"`
	XP       int    `json:"xp"`
}

// PlayerSummary 汇总单个玩家的奖励信息，供个人资料接口使用。
type PlayerSummary struct {
	Identity     string `json:"identity"`
	XP           int    `json:"xp"`
	Rank         int64  `json:"rank"`
	RoundsPlayed int    `json:"roundsPlayed"`
	Wins         int    `json:"wins"`
	RunnerUps    int    `json:"runnerUps"`
	SoloRounds   int    `json:"soloRounds"`
}

// statsOf 从账本行构造Redis统计结构。
func statsOf(p Player) PlayerStats {
	return PlayerStats{
		XP:           p.XP,
		RoundsPlayed: p.RoundsPlayed,
		Wins:         p.Wins,
		RunnerUps:    p.RunnerUps,
		SoloRounds:   p.SoloRounds,
	}
}

// ApplyAwardInTx 在给定事务中将一次奖励记入玩家账本，返回更新后的行。
// 账本行不存在时先创建。XP与生涯计数器在同一条UPDATE中累加。
func ApplyAwardInTx(tx *gorm.DB, award Award) (Player, error) {
	var p Player

	// 1. 确保账本行存在
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoNothing: true,
	}).Create(&Player{Identity: award.Identity}).Error; err != nil {
		return p, fmt.Errorf("无法创建玩家账本行: %w", err)
	}

	// 2. 按奖励类型累加XP和对应的生涯计数器
	updates := map[string]interface{}{
		"xp":            gorm.Expr("xp + ?", award.Amount),
		"rounds_played": gorm.Expr("rounds_played + 1"),
	}
	switch award.Kind {
	case AwardWinner:
		updates["wins"] = gorm.Expr("wins + 1")
	case AwardRunnerUp:
		updates["runner_ups"] = gorm.Expr("runner_ups + 1")
	case AwardSolo:
		updates["solo_rounds"] = gorm.Expr("solo_rounds + 1")
	case AwardParticipation:
		// 只有参与奖励，无额外计数器
	default:
		return p, fmt.Errorf("未知的奖励类型: %d", award.Kind)
	}

	if err := tx.Model(&Player{}).Where("identity = ?", award.Identity).Updates(updates).Error; err != nil {
		return p, fmt.Errorf("无法累加玩家奖励: %w", err)
	}

	// 3. 读回更新后的账本行，供Redis同步使用
	if err := tx.Where("identity = ?", award.Identity).First(&p).Error; err != nil {
		return p, fmt.Errorf("无法读回玩家账本行: %w", err)
	}
	return p, nil
}

// QueuePlayerSync 将玩家的最新账本状态写入Redis pipeline。
// 排行榜写入绝对分数而非增量，与缓存重建语义保持一致。
func QueuePlayerSync(pipe redis.Pipeliner, p Player) {
	statsJSON, _ := json.Marshal(statsOf(p))
	pipe.HSet(database.Ctx, StatsKey, p.Identity, statsJSON)
	pipe.ZAdd(database.Ctx, LeaderboardKey, redis.Z{
		Score:  float64(p.XP),
		Member: p.Identity,
	})
}

// GetLeaderboard 返回全局排行榜，XP降序，相同XP按身份升序。
// limit <= 0 时返回完整榜单。Redis不可用时降级到SQLite，两条路径排序一致。
func GetRankedPlayers(limit int) ([]LeaderboardEntry, error) {
	if database.IsRedisHealthy() {
		entries, err := leaderboardFromRedis(limit)
		if err == nil {
			return entries, nil
		}
		fmt.Printf("警告: 从Redis读取排行榜失败，降级到SQLite: %v\n", err)
	}
	return leaderboardFromDB(limit)
}

// leaderboardFromRedis 读取完整的排行榜ZSET并修正并列项顺序。
// ZRevRange对相同分数按成员字典序降序返回，这里统一改为升序。
func leaderboardFromRedis(limit int) ([]LeaderboardEntry, error) {
	RLockRepository()
	defer RUnlockRepository()

	zs, err := database.RDB.ZRevRangeWithScores(database.Ctx, LeaderboardKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		entries[i] = LeaderboardEntry{Identity: member, XP: int(z.Score)}
	}

	// 将相同XP的连续区段改为身份升序
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		return entries[i].Identity < entries[j].Identity
	})

	assignRanks(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// leaderboardFromDB 是Redis降级时的备用路径，排序语义与热路径一致。
func leaderboardFromDB(limit int) ([]LeaderboardEntry, error) {
	var players []Player
	query := database.DB.Select("identity, xp").Order("xp DESC, identity ASC")
	if err := query.Find(&players).Error; err != nil {
		return nil, fmt.Errorf("无法从SQLite读取排行榜: %w", err)
	}

	entries := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = LeaderboardEntry{Identity: p.Identity, XP: p.XP}
	}
	assignRanks(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// assignRanks 按并列排名规则填充Rank字段：XP相同共享排名，
// 下一个更低的XP排名为前面的人数加一。
func assignRanks(entries []LeaderboardEntry) {
	for i := range entries {
		if i > 0 && entries[i].XP == entries[i-1].XP {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// GetPlayerSummary 返回单个玩家的奖励汇总。
// 从未获得过奖励的玩家返回零值汇总，Rank为0表示未上榜。
func GetPlayerSummary(identity string) (*PlayerSummary, error) {
	if database.IsRedisHealthy() {
		summary, err := summaryFromRedis(identity)
		if err == nil {
			return summary, nil
		}
		fmt.Printf("警告: 从Redis读取玩家汇总失败，降级到SQLite: %v\n", err)
	}
	return summaryFromDB(identity)
}

func summaryFromRedis(identity string) (*PlayerSummary, error) {
	RLockRepository()
	defer RUnlockRepository()

	statsJSON, err := database.RDB.HGet(database.Ctx, StatsKey, identity).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &PlayerSummary{Identity: identity}, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		return nil, fmt.Errorf("解析玩家统计JSON失败: %w", err)
	}

	// 并列排名：XP严格更高的玩家数加一
	higher, err := database.RDB.ZCount(database.Ctx, LeaderboardKey, "("+strconv.Itoa(stats.XP), "+inf").Result()
	if err != nil {
		return nil, err
	}

	return &PlayerSummary{
		Identity:     identity,
		XP:           stats.XP,
		Rank:         higher + 1,
		RoundsPlayed: stats.RoundsPlayed,
		Wins:         stats.Wins,
		RunnerUps:    stats.RunnerUps,
		SoloRounds:   stats.SoloRounds,
	}, nil
}

func summaryFromDB(identity string) (*PlayerSummary, error) {
	var p Player
	err := database.DB.Where("identity = ?", identity).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PlayerSummary{Identity: identity}, nil
		}
		return nil, fmt.Errorf("无法从SQLite读取玩家账本: %w", err)
	}

	var higher int64
	if err := database.DB.Model(&Player{}).Where("xp > ?", p.XP).Count(&higher).Error; err != nil {
		return nil, fmt.Errorf("无法计算玩家排名: %w", err)
	}

	return &PlayerSummary{
		Identity:     identity,
		XP:           p.XP,
		Rank:         higher + 1,
		RoundsPlayed: p.RoundsPlayed,
		Wins:         p.Wins,
		RunnerUps:    p.RunnerUps,
		SoloRounds:   p.SoloRounds,
	}, nil
}
