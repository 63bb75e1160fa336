package round

import (
	"time"

	"gorm.io/gorm"
)

// HiddenCaptionText 是回合处于投稿阶段时对外展示的投稿占位文本
const HiddenCaptionText = "[Hidden]"

// MaxRoundIDLength 是回合ID允许的最大字节数
const MaxRoundIDLength = 64

// MaxCaptionRunes 是单条投稿允许的最大字符数（按rune计）
const MaxCaptionRunes = 280

// Round 定义了数据库中回合的数据结构。
// 阶段不落库：Resolved和Cancelled是仅有的两个终态标志，
// 配合截止时间即可推导出当前阶段。
type Round struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// RoundID 是调用方提供的回合唯一字符串ID
	RoundID string `gorm:"uniqueIndex;not null;type:varchar(64)" json:"round_id"`

	// Creator 是创建者的身份UUID，只有创建者可以取消回合
	Creator string `gorm:"not null;type:varchar(36)" json:"creator"`

	// ImageURL 是待配文图片的HTTPS地址
	ImageURL string `gorm:"not null" json:"image_url"`

	// Category 是评判类别，创建时已校验合法
	Category string `gorm:"not null" json:"category"`

	// Deadline 是投稿截止时间，等于创建时间加投稿窗口
	Deadline time.Time `gorm:"not null;index" json:"deadline"`

	// Resolved 表示回合已结算，终态，一旦置位不再改变
	Resolved bool `gorm:"not null;default:false" json:"resolved"`

	// Cancelled 表示回合已被创建者取消，终态
	Cancelled bool `gorm:"not null;default:false" json:"cancelled"`
}

// Caption 定义了单条投稿的数据结构。
// 同一回合内一个作者只能投一条，(RoundID, Author) 联合唯一。
type Caption struct {
	gorm.Model

	// RoundID 是所属回合的字符串ID
	RoundID string `gorm:"not null;uniqueIndex:idx_round_author;index;type:varchar(64)" json:"round_id"`

	// Author 是投稿者的身份UUID
	Author string `gorm:"not null;uniqueIndex:idx_round_author;type:varchar(36)" json:"author"`

	// Seq 是投稿在回合内的提交顺序，从0开始。
	// 在回合锁内分配，评判时的字母编号等于 'A'+Seq。
	Seq int `gorm:"not null" json:"seq"`

	// Text 是投稿正文，1-280个字符
	Text string `gorm:"not null" json:"text"`

	// SubmittedAt 是提交时间
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}

// RoundResult 定义了结算结果的数据结构。
// 结果行在保留期清理后继续存在，因此快照了获胜投稿的正文。
type RoundResult struct {
	gorm.Model

	// RoundID 是所属回合的字符串ID，一个回合至多结算一次
	RoundID string `gorm:"uniqueIndex;not null;type:varchar(64)" json:"round_id"`

	// Winner 是获胜者的身份UUID。单人回合时就是唯一参与者。
	Winner string `gorm:"not null;type:varchar(36)" json:"winner"`

	// RunnerUp 是亚军的身份UUID，单人回合时为空
	RunnerUp string `gorm:"type:varchar(36)" json:"runner_up"`

	// WinnerCaption 是获胜投稿正文的快照
	WinnerCaption string `json:"winner_caption"`

	// RunnerUpCaption 是亚军投稿正文的快照，单人回合时为空
	RunnerUpCaption string `json:"runner_up_caption"`

	// IsSoloRound 表示这是单人回合的评分结果
	IsSoloRound bool `gorm:"not null;default:false" json:"is_solo_round"`

	// SoloScore 是单人回合的1-10评分，多人回合时为0
	SoloScore int `gorm:"not null;default:0" json:"solo_score"`

	// ResolvedAt 是结算完成时间
	ResolvedAt time.Time `gorm:"not null" json:"resolved_at"`
}
