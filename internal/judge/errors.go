package judge

import "fmt"

// AgreementError 表示评委副本未能达成一致。
// 它携带投票统计以便接口层返回可诊断的错误负载。
// 评判过程不产生任何状态变更，调用方可以安全地重试结算。
type AgreementError struct {
	// Replicas 是配置的副本总数N
	Replicas int
	// Cast 是实际投出的有效票数（排除超时、出错和格式非法的副本）
	Cast int
	// Quorum 是达成一致所需的最低有效票数
	Quorum int
	// TopBloc 是意见最集中的投票组的票数
	TopBloc int
}

func (e *AgreementError) Error() string {
	if e.Cast < e.Quorum {
		return fmt.Sprintf("评委未达到法定票数: %d/%d 个副本投出有效票，至少需要 %d 票", e.Cast, e.Replicas, e.Quorum)
	}
	return fmt.Sprintf("评委意见分歧: %d 个有效票中最大一致组只有 %d 票", e.Cast, e.TopBloc)
}

// ParseError 表示评委的裁决文本无法解析为合法结果：
// 不是有效JSON、缺少必需键、字母编号未知或获胜者与亚军重复。
// 与AgreementError一样可以安全重试。
type ParseError struct {
	Reason string
	Output string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("无法解析评委裁决: %s: %s", e.Reason, truncateOutput(e.Output))
}

// truncateOutput 截断原始输出用于错误信息，避免日志被长文本淹没
func truncateOutput(s string) string {
	const max = 100
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
