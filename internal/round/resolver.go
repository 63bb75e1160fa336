package round

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/caption-this-backend/internal/judge"
	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/internal/platform/metadata"
	"github.com/SlpAus/caption-this-backend/internal/reward"
	"gorm.io/gorm"
)

// resolutionOutcome 是评判阶段的纯内存产物，提交阶段据此落库。
// runnerUpIdx 在单人回合中为-1。
type resolutionOutcome struct {
	isSolo      bool
	soloScore   int
	winnerIdx   int
	runnerUpIdx int
}

// ResolveRound 结算一个回合：评判阶段只读，随后一个事务原子提交
// 结果行、终态标志、全部XP奖励和Redis缓存更新。
// 任何一步失败都让回合保持未结算，调用方可以安全重试。
func ResolveRound(ctx context.Context, roundID string) (*ResultView, error) {
	if evaluator == nil {
		return nil, errors.New("round模块尚未配置评委客户端")
	}

	unlock := lockRound(roundID)
	defer unlock()

	r, err := loadRound(database.DB, roundID)
	if err != nil {
		return nil, err
	}

	// 1. 阶段门禁。已结算的回合在这里幂等地拒绝，XP不会重复发放
	switch PhaseOf(r, modClock.Now()) {
	case PhaseCancelled:
		return nil, stateErrorf("回合已取消，无法结算")
	case PhaseResolved:
		return nil, stateErrorf("回合已经结算过了")
	case PhaseActive:
		return nil, stateErrorf("投稿窗口尚未关闭，还不能结算")
	}

	// 2. 零参与者在咨询评委之前拒绝
	captions, err := loadCaptionsInOrder(database.DB, roundID)
	if err != nil {
		return nil, err
	}
	if len(captions) == 0 {
		return nil, stateErrorf("回合没有任何投稿，无法结算")
	}

	// 3. 评判阶段，不产生任何状态变更
	var outcome resolutionOutcome
	if len(captions) == 1 {
		outcome, err = judgeSolo(ctx, r, &captions[0])
	} else {
		outcome, err = judgeComparative(ctx, r, captions)
	}
	if err != nil {
		return nil, err
	}

	// 4. 原子提交
	res, err := commitResolution(r, captions, outcome)
	if err != nil {
		return nil, err
	}
	return resultViewOf(res), nil
}

// judgeSolo 运行单人评分流程：N个副本对唯一投稿打分，
// 完全一致后取规范输出的分数。
func judgeSolo(ctx context.Context, r *Round, caption *Caption) (resolutionOutcome, error) {
	category, err := judge.ParseCategory(r.Category)
	if err != nil {
		return resolutionOutcome{}, &ValidationError{Message: err.Error()}
	}

	prompt, err := judge.BuildSoloPrompt(r.ImageURL, category, caption.Text)
	if err != nil {
		return resolutionOutcome{}, err
	}

	results := evaluator.Run(ctx, prompt)
	canonical, err := judge.AgreeSolo(results)
	if err != nil {
		return resolutionOutcome{}, err
	}

	score, err := judge.DecodeSoloVerdict(canonical)
	if err != nil {
		return resolutionOutcome{}, err
	}

	return resolutionOutcome{isSolo: true, soloScore: score, winnerIdx: 0, runnerUpIdx: -1}, nil
}

// judgeComparative 运行多人对比流程：副本们各自给出(获胜者, 亚军)，
// 一致性协议选出规范输出后把字母编号翻译回投稿下标。
func judgeComparative(ctx context.Context, r *Round, captions []Caption) (resolutionOutcome, error) {
	category, err := judge.ParseCategory(r.Category)
	if err != nil {
		return resolutionOutcome{}, &ValidationError{Message: err.Error()}
	}

	entries := make([]judge.CaptionEntry, len(captions))
	for i, c := range captions {
		entries[i] = judge.CaptionEntry{ID: judge.LetterID(c.Seq), Text: c.Text}
	}

	prompt, err := judge.BuildComparativePrompt(r.ImageURL, category, entries)
	if err != nil {
		return resolutionOutcome{}, err
	}

	results := evaluator.Run(ctx, prompt)
	canonical, err := judge.AgreeComparative(results, len(entries), agreementPolicy)
	if err != nil {
		return resolutionOutcome{}, err
	}

	verdict, err := judge.DecodeComparativeVerdict(canonical, len(entries))
	if err != nil {
		return resolutionOutcome{}, err
	}

	winnerIdx, ok := judge.LetterIndex(verdict.Winner, len(entries))
	if !ok {
		return resolutionOutcome{}, &judge.ParseError{Reason: "winner编号无法映射回投稿", Output: canonical}
	}
	runnerUpIdx, ok := judge.LetterIndex(verdict.RunnerUp, len(entries))
	if !ok {
		return resolutionOutcome{}, &judge.ParseError{Reason: "runner_up编号无法映射回投稿", Output: canonical}
	}

	return resolutionOutcome{isSolo: false, winnerIdx: winnerIdx, runnerUpIdx: runnerUpIdx}, nil
}

// buildAwards 计算本次结算的全部奖励。
// 获胜者15、亚军8都已含参与奖励，其余参与者各得3；
// 单人回合按评分折算。
func buildAwards(captions []Caption, outcome resolutionOutcome) []reward.Award {
	if outcome.isSolo {
		return []reward.Award{{
			Identity: captions[0].Author,
			Amount:   reward.SoloRoundXP(outcome.soloScore),
			Kind:     reward.AwardSolo,
		}}
	}

	awards := make([]reward.Award, 0, len(captions))
	for i, c := range captions {
		switch i {
		case outcome.winnerIdx:
			awards = append(awards, reward.Award{Identity: c.Author, Amount: reward.XPWinnerTotal, Kind: reward.AwardWinner})
		case outcome.runnerUpIdx:
			awards = append(awards, reward.Award{Identity: c.Author, Amount: reward.XPRunnerUpTotal, Kind: reward.AwardRunnerUp})
		default:
			awards = append(awards, reward.Award{Identity: c.Author, Amount: reward.XPParticipation, Kind: reward.AwardParticipation})
		}
	}
	return awards
}

// commitResolution 在一个事务中提交结算的全部副作用。
// Redis管道放在事务内，缓存写入失败时SQLite整体回滚，
// 回合保持未结算状态等待重试。
func commitResolution(r *Round, captions []Caption, outcome resolutionOutcome) (*RoundResult, error) {
	res := RoundResult{
		RoundID:       r.RoundID,
		Winner:        captions[outcome.winnerIdx].Author,
		WinnerCaption: captions[outcome.winnerIdx].Text,
		IsSoloRound:   outcome.isSolo,
		SoloScore:     outcome.soloScore,
		ResolvedAt:    modClock.Now(),
	}
	if !outcome.isSolo {
		res.RunnerUp = captions[outcome.runnerUpIdx].Author
		res.RunnerUpCaption = captions[outcome.runnerUpIdx].Text
	}

	awards := buildAwards(captions, outcome)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// 1. 置位终态标志。行级条件保证与取消操作互斥
		mark := tx.Model(&Round{}).
			Where("round_id = ? AND resolved = ? AND cancelled = ?", r.RoundID, false, false).
			Update("resolved", true)
		if mark.Error != nil {
			return fmt.Errorf("无法标记回合为已结算: %w", mark.Error)
		}
		if mark.RowsAffected == 0 {
			return stateErrorf("回合已进入终态，无法结算")
		}

		// 2. 结果行
		if err := tx.Create(&res).Error; err != nil {
			return fmt.Errorf("无法写入结算结果: %w", err)
		}

		// 3. 逐个玩家记账
		updated := make([]reward.Player, 0, len(awards))
		for _, award := range awards {
			p, err := reward.ApplyAwardInTx(tx, award)
			if err != nil {
				return err
			}
			updated = append(updated, p)
		}

		// 4. 服务计数器
		if err := metadata.IncrementCounter(tx, metadata.RoundsResolvedKey, 1); err != nil {
			return err
		}

		// 5. Redis管道：玩家缓存同步并移出活跃索引
		pipe := database.RDB.TxPipeline()
		for _, p := range updated {
			reward.QueuePlayerSync(pipe, p)
		}
		pipe.ZRem(database.Ctx, ActiveRoundsKey, r.RoundID)
		if _, err := pipe.Exec(database.Ctx); err != nil {
			return fmt.Errorf("无法同步结算结果到Redis，操作已回滚: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}
