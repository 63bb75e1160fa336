package judge

import "context"

// Client 是对一次评委调用的抽象。实现方对同一提示词的输出
// 是非确定性的，每个副本必须独立调用一次，绝不允许跨副本复用结果。
type Client interface {
	// Judge 把提示词交给评委执行，返回原始文本输出。
	// ctx超时或取消时应尽快返回错误。
	Judge(ctx context.Context, prompt string) (string, error)
}
