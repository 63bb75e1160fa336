package round

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/internal/reward"
	"github.com/SlpAus/caption-this-backend/pkg/lifecycle"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPatrolHandle 创建一个供巡逻测试使用的生命周期句柄
func newPatrolHandle(t *testing.T) *lifecycle.Handle {
	t.Helper()
	manager := lifecycle.NewManager()
	handle, err := manager.NewServiceHandle("patrol-test")
	require.NoError(t, err)
	t.Cleanup(handle.Close)
	return handle
}

func TestPatrolResolvesDueRounds(t *testing.T) {
	script := &scriptedJudge{replies: unanimousReplies(`{"score": 6}`, 3)}
	manual := setupRoundTest(t, script, 3, "majority")
	handle := newPatrolHandle(t)

	p1 := uuid.NewString()
	mustCreateRound(t, p1, "round-due")
	mustSubmitCaption(t, p1, "round-due", "solo")

	attempts := make(map[string]int)

	// 截止之前巡逻不碰任何回合
	patrolDueRounds(handle, attempts, 3)
	assert.Zero(t, script.callCount())

	manual.Advance(testSubmissionWindow + time.Second)
	patrolDueRounds(handle, attempts, 3)

	r, err := loadRound(database.DB, "round-due")
	require.NoError(t, err)
	assert.True(t, r.Resolved)
	assert.Empty(t, attempts)
}

func TestPatrolStopsRetryingAfterMaxAttempts(t *testing.T) {
	// 空脚本让每次评审都失败
	script := &scriptedJudge{}
	manual := setupRoundTest(t, script, 3, "majority")
	handle := newPatrolHandle(t)

	creator := uuid.NewString()
	mustCreateRound(t, creator, "round-stuck")
	mustSubmitCaption(t, creator, "round-stuck", "solo")
	manual.Advance(testSubmissionWindow + time.Second)

	attempts := make(map[string]int)

	patrolDueRounds(handle, attempts, 2)
	assert.Equal(t, 1, attempts["round-stuck"])
	patrolDueRounds(handle, attempts, 2)
	assert.Equal(t, 2, attempts["round-stuck"])

	// 达到上限后不再自动重试
	patrolDueRounds(handle, attempts, 2)
	assert.Equal(t, 6, script.callCount())

	r, err := loadRound(database.DB, "round-stuck")
	require.NoError(t, err)
	assert.False(t, r.Resolved)

	t.Run("attempts are pruned once the round leaves the due list", func(t *testing.T) {
		require.NoError(t, CancelRound(creator, "round-stuck"))
		patrolDueRounds(handle, attempts, 2)
		assert.Empty(t, attempts)
	})
}

func TestDueRoundIDsFallsBackToSQLite(t *testing.T) {
	manual := setupRoundTest(t, &scriptedJudge{}, 3, "majority")

	creator := uuid.NewString()
	mustCreateRound(t, creator, "round-late")
	manual.Advance(10 * time.Second)
	mustCreateRound(t, creator, "round-later")
	manual.Advance(testSubmissionWindow + time.Second)

	fromRedis, err := dueRoundIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"round-late", "round-later"}, fromRedis)

	database.UpdateStatus(false, "")
	defer database.UpdateStatus(true, "")

	fromDB, err := dueRoundIDs()
	require.NoError(t, err)
	assert.Equal(t, fromRedis, fromDB)
}

func TestRetentionSweeper(t *testing.T) {
	script := &scriptedJudge{replies: unanimousReplies(`{"score": 7}`, 3)}
	manual := setupRoundTest(t, script, 3, "majority")

	// 终态回合按数据库行的更新时间起算保留期，
	// 把手动时钟对齐到真实时钟之后才能驱动这个分支
	base := time.Now()
	manual.Set(base)

	p1 := uuid.NewString()
	mustCreateRound(t, p1, "round-done")
	mustSubmitCaption(t, p1, "round-done", "solo")
	manual.Advance(testSubmissionWindow + time.Second)
	_, err := ResolveRound(context.Background(), "round-done")
	require.NoError(t, err)

	// 无人参与的回合永远不进入终态，按截止时间起算视为已放弃
	mustCreateRound(t, p1, "round-abandoned")

	retention := time.Hour
	manual.Advance(retention + testSubmissionWindow + 10*time.Minute)
	mustCreateRound(t, p1, "round-fresh")

	require.NoError(t, sweepExpiredRounds(retention))

	// 回合和投稿被物理删除
	_, err = GetRound("round-done")
	assert.ErrorIs(t, err, ErrRoundNotFound)
	var captionCount int64
	require.NoError(t, database.DB.Model(&Caption{}).Where("round_id = ?", "round-done").Count(&captionCount).Error)
	assert.Zero(t, captionCount)

	_, err = GetRound("round-abandoned")
	assert.ErrorIs(t, err, ErrRoundNotFound)
	_, err = database.RDB.ZScore(database.Ctx, ActiveRoundsKey, "round-abandoned").Result()
	assert.ErrorIs(t, err, redis.Nil)

	// 结算结果和玩家账本在清理之后依然完整
	rv, err := GetRoundResult("round-done")
	require.NoError(t, err)
	assert.Equal(t, p1, rv.Winner)
	require.NotNil(t, rv.SoloScore)
	assert.Equal(t, 7, *rv.SoloScore)

	summary, err := reward.GetPlayerSummary(p1)
	require.NoError(t, err)
	assert.Equal(t, 13, summary.XP)

	// 保留期内的活跃回合不受清理影响
	view, err := GetRound("round-fresh")
	require.NoError(t, err)
	assert.Equal(t, PhaseActive, view.Phase)
}
