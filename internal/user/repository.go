package user

import (
	"sync"
)

// --- Redis 键名常量 ---

const (
	// KnownUsersKey 是一个 Redis Set 的键，用于快速判断一个UUID是否是已激活的玩家。
	// Member: 玩家UUID
	KnownUsersKey = "user:known"

	// NicknamesKey 是一个 Redis Hash 的键，缓存玩家昵称。
	// Field: 玩家UUID
	// Value: 昵称字符串
	NicknamesKey = "user:nicknames"
)

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
