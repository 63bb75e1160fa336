package round

import "sync"

// roundLocks 保存每个回合ID对应的互斥锁。
// 同一回合的状态变更（投稿、取消、结算）串行执行，不同回合互不阻塞。
var roundLocks sync.Map

// lockRound 锁定指定回合并返回解锁函数
func lockRound(roundID string) func() {
	v, _ := roundLocks.LoadOrStore(roundID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// dropRoundLock 移除回合的锁条目。
// 只能在回合行已从数据库删除之后调用，此后迟到的调用会在加载回合时失败。
func dropRoundLock(roundID string) {
	roundLocks.Delete(roundID)
}
