package judge

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
)

// MockClient 是本地开发和测试用的评委实现，不依赖任何外部API。
// 对同一提示词给出确定性的裁决，因此所有副本总是达成一致。
type MockClient struct{}

// Judge 根据提示词的结构返回一个格式合法的确定性裁决
func (MockClient) Judge(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h := fnv.New32a()
	h.Write([]byte(prompt))
	seed := int(h.Sum32())
	if seed < 0 {
		seed = -seed
	}

	if strings.Contains(prompt, "Score this single caption") {
		score := 1 + seed%10
		return fmt.Sprintf(`{"score": %d}`, score), nil
	}

	// 提示词中每条投稿行都以换行开头，数量即参赛投稿数
	count := strings.Count(prompt, "\nCaption ")
	if count < 2 {
		return "", errors.New("提示词中找不到可评判的投稿")
	}

	// 偏移量落在[1, count-1]内，保证亚军与获胜者不同
	winner := seed % count
	runnerUp := (winner + 1 + seed/7%(count-1)) % count
	return fmt.Sprintf(`{"winner": %q, "runner_up": %q}`, LetterID(winner), LetterID(runnerUp)), nil
}
