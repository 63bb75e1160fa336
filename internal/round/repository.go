package round

import (
	"sync"
)

// ActiveRoundsKey 是一个 Redis Sorted Set 的键，存储未进入终态的回合索引。
// Score: 投稿截止时间的Unix秒
// Member: 回合ID
// 活跃回合视图和自动结算巡逻都从这里读取。
const ActiveRoundsKey = "round:active"

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
