package round

import "time"

// Phase 是回合生命周期的阶段。阶段不落库，
// 始终由PhaseOf从终态标志和截止时间即时推导。
type Phase string

const (
	// PhaseActive 投稿窗口开放，now不晚于截止时间
	PhaseActive Phase = "Active"
	// PhaseAwaitingResolution 窗口已关闭，等待结算
	PhaseAwaitingResolution Phase = "AwaitingResolution"
	// PhaseResolved 已结算，终态
	PhaseResolved Phase = "Resolved"
	// PhaseCancelled 已被创建者取消，终态
	PhaseCancelled Phase = "Cancelled"
)

// PhaseOf 推导回合在now时刻的阶段。
// 终态标志优先于时间判断；now恰好等于截止时间时窗口仍然开放。
func PhaseOf(r *Round, now time.Time) Phase {
	if r.Cancelled {
		return PhaseCancelled
	}
	if r.Resolved {
		return PhaseResolved
	}
	if now.After(r.Deadline) {
		return PhaseAwaitingResolution
	}
	return PhaseActive
}

// IsTerminal 报告阶段是否为终态
func (p Phase) IsTerminal() bool {
	return p == PhaseResolved || p == PhaseCancelled
}
