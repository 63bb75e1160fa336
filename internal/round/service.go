package round

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/SlpAus/caption-this-backend/internal/judge"
	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/internal/platform/metadata"
	"github.com/SlpAus/caption-this-backend/internal/user"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateRound 创建一个新回合。round_id由调用方提供且全局唯一，
// 截止时间等于当前时间加配置的投稿窗口。
func CreateRound(identity, roundID, imageURL, category string) (*Round, error) {
	// 1. 纯输入校验，失败时不产生任何状态变更
	if roundID == "" {
		return nil, validationErrorf("round_id不能为空")
	}
	if len(roundID) > MaxRoundIDLength {
		return nil, validationErrorf("round_id不能超过 %d 字节", MaxRoundIDLength)
	}
	if err := validateImageURL(imageURL); err != nil {
		return nil, err
	}
	if _, err := judge.ParseCategory(category); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	unlock := lockRound(roundID)
	defer unlock()

	// 2. 回合ID唯一性检查
	var count int64
	if err := database.DB.Model(&Round{}).Where("round_id = ?", roundID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("无法检查回合ID是否已存在: %w", err)
	}
	if count > 0 {
		return nil, validationErrorf("回合 %s 已存在", roundID)
	}

	// 3. 确保创建者身份已激活
	if err := user.ActivateIdentity(identity); err != nil {
		return nil, err
	}

	now := modClock.Now()
	newRound := Round{
		RoundID:  roundID,
		Creator:  identity,
		ImageURL: imageURL,
		Category: category,
		Deadline: now.Add(submissionWindow),
	}

	// 4. SQLite写入与Redis索引更新放在同一事务中，缓存失败则整体回滚
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newRound).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validationErrorf("回合 %s 已存在", roundID)
			}
			return fmt.Errorf("无法创建回合: %w", err)
		}
		if err := metadata.IncrementCounter(tx, metadata.RoundsCreatedKey, 1); err != nil {
			return err
		}
		member := redis.Z{Score: float64(newRound.Deadline.Unix()), Member: newRound.RoundID}
		if err := database.RDB.ZAdd(database.Ctx, ActiveRoundsKey, member).Err(); err != nil {
			return fmt.Errorf("无法将回合加入活跃索引，操作已回滚: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &newRound, nil
}

// validateImageURL 要求一个带主机名的HTTPS地址
func validateImageURL(imageURL string) error {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return validationErrorf("image_url不是合法的URL: %v", err)
	}
	if parsed.Scheme != "https" {
		return validationErrorf("image_url必须使用https")
	}
	if parsed.Host == "" {
		return validationErrorf("image_url缺少主机名")
	}
	return nil
}

// SubmitCaption 为回合提交一条投稿。每个作者在同一回合只能投一条，
// 顺序号在回合锁内分配。
func SubmitCaption(identity, roundID, text string) (*Caption, error) {
	runes := utf8.RuneCountInString(text)
	if runes < 1 {
		return nil, validationErrorf("投稿内容不能为空")
	}
	if runes > MaxCaptionRunes {
		return nil, validationErrorf("投稿内容不能超过 %d 个字符", MaxCaptionRunes)
	}

	unlock := lockRound(roundID)
	defer unlock()

	r, err := loadRound(database.DB, roundID)
	if err != nil {
		return nil, err
	}

	// 阶段门禁：只有窗口开放时可以投稿
	now := modClock.Now()
	switch PhaseOf(r, now) {
	case PhaseActive:
	case PhaseAwaitingResolution:
		return nil, stateErrorf("投稿窗口已关闭")
	case PhaseResolved:
		return nil, stateErrorf("回合已结算，无法投稿")
	case PhaseCancelled:
		return nil, stateErrorf("回合已取消，无法投稿")
	}

	var existing []Caption
	if err := database.DB.Where("round_id = ?", roundID).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("无法读取回合现有投稿: %w", err)
	}
	if len(existing) >= judge.MaxComparativeEntries {
		return nil, validationErrorf("回合参与人数已满（最多 %d 人）", judge.MaxComparativeEntries)
	}
	for _, c := range existing {
		if c.Author == identity {
			return nil, validationErrorf("同一回合只能提交一条投稿")
		}
	}

	if err := user.ActivateIdentity(identity); err != nil {
		return nil, err
	}

	caption := Caption{
		RoundID:     roundID,
		Author:      identity,
		Seq:         len(existing),
		Text:        text,
		SubmittedAt: now,
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&caption).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validationErrorf("同一回合只能提交一条投稿")
			}
			return fmt.Errorf("无法保存投稿: %w", err)
		}
		return metadata.IncrementCounter(tx, metadata.CaptionsSubmittedKey, 1)
	})
	if err != nil {
		return nil, err
	}

	return &caption, nil
}

// CancelRound 取消回合。只有创建者可以取消，且只能在结算之前。
// 取消不产生任何XP变化。
func CancelRound(identity, roundID string) error {
	unlock := lockRound(roundID)
	defer unlock()

	r, err := loadRound(database.DB, roundID)
	if err != nil {
		return err
	}

	if r.Creator != identity {
		return stateErrorf("只有回合创建者可以取消回合")
	}
	switch PhaseOf(r, modClock.Now()) {
	case PhaseResolved:
		return stateErrorf("回合已结算，无法取消")
	case PhaseCancelled:
		return stateErrorf("回合已经取消过了")
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Round{}).
			Where("round_id = ? AND resolved = ? AND cancelled = ?", roundID, false, false).
			Update("cancelled", true)
		if result.Error != nil {
			return fmt.Errorf("无法取消回合: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return stateErrorf("回合已进入终态，无法取消")
		}
		if err := metadata.IncrementCounter(tx, metadata.RoundsCancelledKey, 1); err != nil {
			return err
		}
		if err := database.RDB.ZRem(database.Ctx, ActiveRoundsKey, roundID).Err(); err != nil {
			return fmt.Errorf("无法将回合移出活跃索引，操作已回滚: %w", err)
		}
		return nil
	})
}

// loadRound 按round_id加载回合
func loadRound(db *gorm.DB, roundID string) (*Round, error) {
	var r Round
	if err := db.Where("round_id = ?", roundID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("无法加载回合: %w", err)
	}
	return &r, nil
}

// loadCaptionsInOrder 按提交顺序加载回合的全部投稿
func loadCaptionsInOrder(db *gorm.DB, roundID string) ([]Caption, error) {
	var captions []Caption
	if err := db.Where("round_id = ?", roundID).Order("seq ASC").Find(&captions).Error; err != nil {
		return nil, fmt.Errorf("无法加载回合投稿: %w", err)
	}
	return captions, nil
}

// --- 只读视图 ---

// CaptionView 是回合视图中的一条投稿。
// 回合处于投稿阶段时正文被隐藏，防止后来者抄袭或针对性压制。
type CaptionView struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Text        string `json:"text"`
	SubmittedAt int64  `json:"submitted_at"`
}

// ResultView 是结算结果的对外视图
type ResultView struct {
	RoundID         string  `json:"round_id"`
	Winner          string  `json:"winner"`
	RunnerUp        *string `json:"runner_up"`
	WinnerCaption   string  `json:"winner_caption"`
	RunnerUpCaption *string `json:"runner_up_caption"`
	IsSoloRound     bool    `json:"is_solo_round"`
	SoloScore       *int    `json:"solo_score"`
	ResolvedAt      int64   `json:"resolved_at"`
}

// RoundView 是单个回合的完整对外视图
type RoundView struct {
	RoundID          string        `json:"round_id"`
	Creator          string        `json:"creator"`
	ImageURL         string        `json:"image_url"`
	Category         string        `json:"category"`
	Phase            Phase         `json:"phase"`
	CreatedAt        int64         `json:"created_at"`
	Deadline         int64         `json:"deadline"`
	Resolved         bool          `json:"resolved"`
	Cancelled        bool          `json:"cancelled"`
	Captions         []CaptionView `json:"captions"`
	ParticipantCount int           `json:"participant_count"`
	Result           *ResultView   `json:"result,omitempty"`
}

// ActiveRoundView 是活跃回合列表中的一项
type ActiveRoundView struct {
	RoundID  string `json:"round_id"`
	Deadline int64  `json:"deadline"`
}

// GetRound 返回回合的完整视图。投稿窗口开放期间所有投稿正文都被隐藏。
func GetRound(roundID string) (*RoundView, error) {
	r, err := loadRound(database.DB, roundID)
	if err != nil {
		return nil, err
	}
	captions, err := loadCaptionsInOrder(database.DB, roundID)
	if err != nil {
		return nil, err
	}

	phase := PhaseOf(r, modClock.Now())
	views := make([]CaptionView, len(captions))
	for i, c := range captions {
		text := c.Text
		if phase == PhaseActive {
			text = HiddenCaptionText
		}
		views[i] = CaptionView{
			ID:          judge.LetterID(c.Seq),
			Author:      c.Author,
			Text:        text,
			SubmittedAt: c.SubmittedAt.Unix(),
		}
	}

	view := RoundView{
		RoundID:          r.RoundID,
		Creator:          r.Creator,
		ImageURL:         r.ImageURL,
		Category:         r.Category,
		Phase:            phase,
		CreatedAt:        r.CreatedAt.Unix(),
		Deadline:         r.Deadline.Unix(),
		Resolved:         r.Resolved,
		Cancelled:        r.Cancelled,
		Captions:         views,
		ParticipantCount: len(captions),
	}

	if r.Resolved {
		result, err := GetRoundResult(roundID)
		if err != nil && !errors.Is(err, ErrResultNotFound) {
			return nil, err
		}
		view.Result = result
	}

	return &view, nil
}

// GetRoundResult 返回回合的结算结果视图。
// 结果行在回合数据被保留期清理后仍然可查。
func GetRoundResult(roundID string) (*ResultView, error) {
	var res RoundResult
	if err := database.DB.Where("round_id = ?", roundID).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("无法加载结算结果: %w", err)
	}
	return resultViewOf(&res), nil
}

// resultViewOf 把结果行转换为对外视图，单人回合的亚军字段输出为null
func resultViewOf(res *RoundResult) *ResultView {
	view := ResultView{
		RoundID:       res.RoundID,
		Winner:        res.Winner,
		WinnerCaption: res.WinnerCaption,
		IsSoloRound:   res.IsSoloRound,
		ResolvedAt:    res.ResolvedAt.Unix(),
	}
	if res.IsSoloRound {
		score := res.SoloScore
		view.SoloScore = &score
	} else {
		runnerUp := res.RunnerUp
		runnerUpCaption := res.RunnerUpCaption
		view.RunnerUp = &runnerUp
		view.RunnerUpCaption = &runnerUpCaption
	}
	return &view
}

// GetActiveRounds 返回投稿窗口仍然开放的回合，按截止时间升序。
// Redis健康时从活跃索引读取，否则降级为SQLite查询。
func GetActiveRounds() ([]ActiveRoundView, error) {
	now := modClock.Now()

	if database.IsRedisHealthy() {
		views, err := activeRoundsFromRedis(now.Unix())
		if err == nil {
			return views, nil
		}
		fmt.Printf("警告: 从Redis读取活跃回合失败，降级为SQLite查询: %v\n", err)
	}
	return activeRoundsFromDB(now)
}

func activeRoundsFromRedis(nowUnix int64) ([]ActiveRoundView, error) {
	RLockRepository()
	defer RUnlockRepository()

	rangeBy := &redis.ZRangeBy{Min: strconv.FormatInt(nowUnix, 10), Max: "+inf"}
	members, err := database.RDB.ZRangeByScoreWithScores(database.Ctx, ActiveRoundsKey, rangeBy).Result()
	if err != nil {
		return nil, err
	}

	views := make([]ActiveRoundView, 0, len(members))
	for _, m := range members {
		id, ok := m.Member.(string)
		if !ok {
			continue
		}
		views = append(views, ActiveRoundView{RoundID: id, Deadline: int64(m.Score)})
	}
	// ZSET按分数升序返回，同分内按成员字典序，这里统一按(截止时间, ID)排序
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Deadline != views[j].Deadline {
			return views[i].Deadline < views[j].Deadline
		}
		return views[i].RoundID < views[j].RoundID
	})
	return views, nil
}

func activeRoundsFromDB(now time.Time) ([]ActiveRoundView, error) {
	var rounds []Round
	err := database.DB.
		Where("resolved = ? AND cancelled = ? AND deadline >= ?", false, false, now).
		Order("deadline ASC, round_id ASC").
		Find(&rounds).Error
	if err != nil {
		return nil, fmt.Errorf("无法从SQLite读取活跃回合: %w", err)
	}

	views := make([]ActiveRoundView, len(rounds))
	for i, r := range rounds {
		views[i] = ActiveRoundView{RoundID: r.RoundID, Deadline: r.Deadline.Unix()}
	}
	return views, nil
}
