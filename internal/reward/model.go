package reward

import (
	"time"

	"gorm.io/gorm"
)

// XP奖励常数。获胜者与亚军的数额已含参与奖励。
const (
	XPWinnerTotal   = 15
	XPRunnerUpTotal = 8
	XPParticipation = 3
)

// SoloRoundXP 计算单人回合的总奖励：参与奖励加上按评分折算的奖金。
// 评分1-10，奖金为 score*15/10 向下取整。
func SoloRoundXP(score int) int {
	return XPParticipation + score*XPWinnerTotal/10
}

// Player 定义了玩家奖励账本在SQLite中的持久化模型。
// XP只增不减；生涯计数器与XP一起在结算事务中更新，
// 保证回合数据被清理后Redis缓存仍可完整重建。
type Player struct {
	// Identity 是玩家身份UUID，主键。
	Identity string `gorm:"primarykey;type:varchar(36)"`

	// XP 是玩家累计经验值。
	XP int `gorm:"not null;default:0"`

	// RoundsPlayed 是参与过（提交过投稿并完成结算）的回合数。
	RoundsPlayed int `gorm:"not null;default:0"`

	// Wins 是获胜次数。
	Wins int `gorm:"not null;default:0"`

	// RunnerUps 是获得亚军的次数。
	RunnerUps int `gorm:"not null;default:0"`

	// SoloRounds 是单人回合的次数。
	SoloRounds int `gorm:"not null;default:0"`

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// AwardKind 区分一次XP奖励的类型，决定哪个生涯计数器随之增加。
type AwardKind int

const (
	AwardParticipation AwardKind = iota
	AwardRunnerUp
	AwardWinner
	AwardSolo
)

// Award 描述一次结算中单个玩家应得的奖励。
type Award struct {
	Identity string
	Amount   int
	Kind     AwardKind
}
