package judge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ReplicaResult 是单个评委副本的执行结果。
// Err非空表示该副本调用失败或超时，在协议层计为弃票。
type ReplicaResult struct {
	Index  int
	Output string
	Err    error
}

// Evaluator 负责把同一提示词扇出给N个独立的评委副本并收集全部结果。
type Evaluator struct {
	client   Client
	replicas int
	timeout  time.Duration
}

// NewEvaluator 创建评委执行器。replicas至少为1，timeout是单个副本的时限。
func NewEvaluator(client Client, replicas int, timeout time.Duration) *Evaluator {
	if replicas < 1 {
		replicas = 1
	}
	return &Evaluator{client: client, replicas: replicas, timeout: timeout}
}

// Replicas 返回配置的副本数N
func (e *Evaluator) Replicas() int {
	return e.replicas
}

// Run 并发执行全部副本，每个副本带有独立的超时上下文。
// 任何副本的失败都不会取消其余副本，收齐后统一交给协议层裁定。
func (e *Evaluator) Run(ctx context.Context, prompt string) []ReplicaResult {
	results := make([]ReplicaResult, e.replicas)
	var wg sync.WaitGroup

	for i := 0; i < e.replicas; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			replicaCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			output, err := e.client.Judge(replicaCtx, prompt)
			if err != nil {
				fmt.Printf("警告: 评委副本 %d 调用失败: %v\n", index, err)
			}
			results[index] = ReplicaResult{Index: index, Output: output, Err: err}
		}(i)
	}

	wg.Wait()
	return results
}
