package reward

import (
	"sync"
)

// --- Redis 键名常量 ---

const (
	// LeaderboardKey 是一个 Redis Sorted Set 的键，存储全局排行榜。
	// Score: 玩家XP
	// Member: 玩家身份UUID
	LeaderboardKey = "player:leaderboard"

	// StatsKey 是一个 Redis Hash 的键，存储每个玩家的奖励统计。
	// Field: 玩家身份UUID
	// Value: PlayerStats 结构体的JSON序列化字符串
	StatsKey = "player:stats"
)

// PlayerStats 定义了在 Redis 的 player:stats 哈希表中，
// 以JSON格式存储的玩家统计数据结构。
type PlayerStats struct {
	XP           int `json:"xp"`
	RoundsPlayed int `json:"roundsPlayed"`
	Wins         int `json:"wins"`
	RunnerUps    int `json:"runnerUps"`
	SoloRounds   int `json:"soloRounds"`
}

// --- 并发控制 ---

// repoMutex 是一个模块内部的、不导出的全局读写锁，
// 用于保护对本模块管理的Redis键的并发访问（主要是缓存重建期间）。
var repoMutex sync.RWMutex

// LockRepository 封装了对模块全局锁的写锁定操作。
func LockRepository() {
	repoMutex.Lock()
}

// UnlockRepository 封装了对模块全局锁的写解锁操作。
func UnlockRepository() {
	repoMutex.Unlock()
}

// RLockRepository 封装了对模块全局锁的读锁定操作。
func RLockRepository() {
	repoMutex.RLock()
}

// RUnlockRepository 封装了对模块全局锁的读解锁操作。
func RUnlockRepository() {
	repoMutex.RUnlock()
}
