package user

import (
	"time"

	"gorm.io/gorm"
)

// User 定义了玩家身份在SQLite数据库中的持久化模型。
// 奖励与排行榜数据由reward模块单独维护，这里只存身份本身。
type User struct {
	// UUID 是玩家的主键，来自客户端的签名Cookie。
	UUID string `gorm:"primarykey;type:varchar(36)"`

	// Nickname 是玩家自取的昵称，未设置时为空字符串。
	// 1-20个字符，仅限字母、数字和下划线。
	Nickname string `gorm:"type:varchar(20)"`

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
