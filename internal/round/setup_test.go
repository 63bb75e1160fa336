package round

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SlpAus/caption-this-backend/internal/judge"
	"github.com/SlpAus/caption-this-backend/internal/platform/config"
	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/internal/platform/metadata"
	"github.com/SlpAus/caption-this-backend/internal/reward"
	"github.com/SlpAus/caption-this-backend/internal/user"
	"github.com/SlpAus/caption-this-backend/pkg/clock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// judgeReply 是脚本中的一次评委回复
type judgeReply struct {
	output string
	err    error
}

// scriptedJudge 按到达顺序依次消耗脚本中的回复。
// 副本并发调用时谁拿到哪条回复不确定，但整批回复的多重集合是确定的，
// 因此一致性协议的结果也是确定的。
type scriptedJudge struct {
	mu      sync.Mutex
	calls   int
	replies []judgeReply
}

func (s *scriptedJudge) Judge(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.replies) {
		s.calls++
		return "", errors.New("评委脚本已耗尽")
	}
	r := s.replies[s.calls]
	s.calls++
	return r.output, r.err
}

func (s *scriptedJudge) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// unanimousReplies 生成n条内容相同的回复
func unanimousReplies(output string, n int) []judgeReply {
	replies := make([]judgeReply, n)
	for i := range replies {
		replies[i] = judgeReply{output: output}
	}
	return replies
}

const testSubmissionWindow = 300 * time.Second

// setupRoundTest 为单个测试搭建隔离的环境：
// 每个测试一个独立的SQLite文件、一个miniredis实例和一个手动时钟。
// 评委客户端由调用方提供，副本数与一致性策略按参数配置。
func setupRoundTest(t *testing.T, client judge.Client, replicas int, policy string) *clock.Manual {
	t.Helper()

	mr := miniredis.RunT(t)
	database.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { database.RDB.Close() })
	database.UpdateStatus(true, "")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rounds.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	database.DB = db
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, metadata.PrimeDB())
	require.NoError(t, user.PrimeCachedDB())
	require.NoError(t, reward.PrimeCachedDB())
	require.NoError(t, PrimeCachedDB())

	manual := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	configureTestJudge(t, manual, client, replicas, policy)
	return manual
}

// configureTestJudge 以测试参数重新配置round模块
func configureTestJudge(t *testing.T, c clock.Clock, client judge.Client, replicas int, policy string) {
	t.Helper()
	judgeCfg := config.JudgeConfig{
		Replicas:              replicas,
		Agreement:             policy,
		ReplicaTimeoutSeconds: 5,
	}
	gameCfg := config.GameConfig{
		SubmissionWindowSeconds: int(testSubmissionWindow / time.Second),
		RetentionMinutes:        60,
		SweepIntervalSeconds:    60,
	}
	require.NoError(t, ConfigureModule(c, client, judgeCfg, gameCfg))
}

// mustCreateRound 创建回合并断言成功
func mustCreateRound(t *testing.T, identity, roundID string) *Round {
	t.Helper()
	r, err := CreateRound(identity, roundID, "https://img.example.com/cat.png", "Funniest")
	require.NoError(t, err)
	return r
}

// mustSubmitCaption 提交投稿并断言成功
func mustSubmitCaption(t *testing.T, identity, roundID, text string) *Caption {
	t.Helper()
	c, err := SubmitCaption(identity, roundID, text)
	require.NoError(t, err)
	return c
}
