package judge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// go.opencensus.io/stats/view 在包init时启动常驻worker（经genai→cloud.google.com/go/auth传入），
	// 并非被测代码泄漏，按goleak文档用IgnoreTopFunction排除。
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeClient 允许每个测试注入自己的评委行为
type fakeClient struct {
	calls     int32
	judgeFunc func(ctx context.Context, call int32, prompt string) (string, error)
}

func (f *fakeClient) Judge(ctx context.Context, prompt string) (string, error) {
	call := atomic.AddInt32(&f.calls, 1)
	return f.judgeFunc(ctx, call, prompt)
}

func TestEvaluatorRun(t *testing.T) {
	t.Run("collects one result per replica", func(t *testing.T) {
		client := &fakeClient{
			judgeFunc: func(ctx context.Context, call int32, prompt string) (string, error) {
				return `{"score": 7}`, nil
			},
		}
		e := NewEvaluator(client, 3, time.Second)

		results := e.Run(context.Background(), "prompt")
		require.Len(t, results, 3)
		for i, r := range results {
			assert.Equal(t, i, r.Index)
			assert.NoError(t, r.Err)
			assert.Equal(t, `{"score": 7}`, r.Output)
		}
	})

	t.Run("every replica is invoked independently", func(t *testing.T) {
		client := &fakeClient{
			judgeFunc: func(ctx context.Context, call int32, prompt string) (string, error) {
				return `{"score": 7}`, nil
			},
		}
		e := NewEvaluator(client, 5, time.Second)

		e.Run(context.Background(), "same prompt")
		assert.Equal(t, int32(5), atomic.LoadInt32(&client.calls))
	})

	t.Run("a failed replica does not disturb the others", func(t *testing.T) {
		client := &fakeClient{
			judgeFunc: func(ctx context.Context, call int32, prompt string) (string, error) {
				if call == 2 {
					return "", errors.New("rate limited")
				}
				return `{"score": 3}`, nil
			},
		}
		e := NewEvaluator(client, 3, time.Second)

		results := e.Run(context.Background(), "prompt")
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		assert.Equal(t, 1, failed)
	})

	t.Run("slow replica is cut off by the per replica timeout", func(t *testing.T) {
		client := &fakeClient{
			judgeFunc: func(ctx context.Context, call int32, prompt string) (string, error) {
				if call == 1 {
					<-ctx.Done()
					return "", ctx.Err()
				}
				return `{"score": 6}`, nil
			},
		}
		e := NewEvaluator(client, 3, 20*time.Millisecond)

		done := make(chan []ReplicaResult, 1)
		go func() { done <- e.Run(context.Background(), "prompt") }()

		select {
		case results := <-done:
			errCount := 0
			for _, r := range results {
				if r.Err != nil {
					errCount++
				}
			}
			assert.Equal(t, 1, errCount)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after the replica timeout")
		}
	})

	t.Run("replica count below one is clamped", func(t *testing.T) {
		client := &fakeClient{
			judgeFunc: func(ctx context.Context, call int32, prompt string) (string, error) {
				return `{"score": 2}`, nil
			},
		}
		e := NewEvaluator(client, 0, time.Second)
		assert.Equal(t, 1, e.Replicas())
		assert.Len(t, e.Run(context.Background(), "prompt"), 1)
	})
}
