package user

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nicknamePattern 限定昵称为1-20个字母、数字或下划线。
var nicknamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,20}$`)

// ErrInvalidNickname 表示昵称不满足长度或字符集要求。
var ErrInvalidNickname = errors.New("昵称必须为1-20个字母、数字或下划线")

// CreateProvisionalIdentity 生成一个临时的、尚未持久化的新玩家UUID。
// 这个UUID将被签名后写入Cookie，但此时尚未被激活。
func CreateProvisionalIdentity() (string, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成UUID v7: %w", err)
	}
	return newUUID.String(), nil
}

// IsValidIdentity 校验一个身份字符串是否是合法的UUID格式。
func IsValidIdentity(identity string) bool {
	if identity == "" {
		return false
	}
	_, err := uuid.Parse(identity)
	return err == nil
}

// IsIdentityActivated 检查一个给定的UUID是否已被持久化。
// 它只查询Redis缓存，以获得最高性能。
func IsIdentityActivated(identity string) (bool, error) {
	if identity == "" {
		return false, nil
	}
	exists, err := database.RDB.SIsMember(database.Ctx, KnownUsersKey, identity).Result()
	if err != nil {
		return false, fmt.Errorf("检查Redis用户缓存时出错: %w", err)
	}
	return exists, nil
}

// ActivateIdentity 将一个临时的UUID正式持久化到数据库和缓存中。
// 这个操作是原子性的，如果缓存写入失败，数据库写入将被回滚。
func ActivateIdentity(identity string) error {
	// 首先检查该玩家是否已经被激活，避免重复写入
	activated, err := IsIdentityActivated(identity)
	if err != nil {
		return err
	}
	if activated {
		return nil // 玩家已存在，无需操作
	}

	// 开启一个SQLite事务
	tx := database.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("无法开始数据库事务: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback() // 如果发生panic，回滚事务
		}
	}()

	// 在事务中创建数据库记录
	newUser := User{UUID: identity}
	if err := tx.Create(&newUser).Error; err != nil {
		tx.Rollback()
		// 如果是因为记录已存在而出错，这不是一个真正的错误
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("无法在SQLite中创建新玩家: %w", err)
	}

	// 尝试将新UUID添加到Redis缓存中
	if err := database.RDB.SAdd(database.Ctx, KnownUsersKey, identity).Err(); err != nil {
		// 如果Redis写入失败，回滚SQLite的写入，保证数据一致性
		tx.Rollback()
		return fmt.Errorf("无法将新玩家 %s 添加到Redis缓存: %w", identity, err)
	}

	// 所有操作都成功，提交事务
	return tx.Commit().Error
}

// ValidateNickname 校验昵称格式。
func ValidateNickname(nickname string) error {
	if !nicknamePattern.MatchString(nickname) {
		return ErrInvalidNickname
	}
	return nil
}

// SetNickname 更新一个已激活玩家的昵称，并写透到Redis缓存。
// Redis写入失败时回滚SQLite更新。
func SetNickname(identity, nickname string) error {
	if err := ValidateNickname(nickname); err != nil {
		return err
	}
	if err := ActivateIdentity(identity); err != nil {
		return err
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("无法开始数据库事务: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&User{}).Where("uuid = ?", identity).Update("nickname", nickname).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("无法更新玩家昵称: %w", err)
	}

	if err := database.RDB.HSet(database.Ctx, NicknamesKey, identity, nickname).Err(); err != nil {
		tx.Rollback()
		return fmt.Errorf("无法更新Redis昵称缓存: %w", err)
	}

	return tx.Commit().Error
}

// GetNickname 返回玩家昵称，未设置时返回空字符串。
// Redis健康时读缓存，降级时直接读SQLite。
func GetNickname(identity string) (string, error) {
	if database.IsRedisHealthy() {
		nickname, err := database.RDB.HGet(database.Ctx, NicknamesKey, identity).Result()
		if err == nil {
			return nickname, nil
		}
		// redis.Nil 意味着缓存中没有昵称记录，对未设置昵称的玩家是正常情况
	}

	var u User
	err := database.DB.Select("nickname").Where("uuid = ?", identity).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("无法从SQLite读取昵称: %w", err)
	}
	return u.Nickname, nil
}

// GetNicknames 批量返回昵称映射，未设置昵称的身份映射为空字符串。
func GetNicknames(identities []string) (map[string]string, error) {
	result := make(map[string]string, len(identities))
	if len(identities) == 0 {
		return result, nil
	}

	remaining := identities
	if database.IsRedisHealthy() {
		values, err := database.RDB.HMGet(database.Ctx, NicknamesKey, identities...).Result()
		if err == nil {
			misses := make([]string, 0)
			for i, v := range values {
				if s, ok := v.(string); ok {
					result[identities[i]] = s
				} else {
					misses = append(misses, identities[i])
				}
			}
			remaining = misses
		}
	}

	if len(remaining) > 0 {
		var users []User
		if err := database.DB.Select("uuid, nickname").Where("uuid IN ?", remaining).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("无法从SQLite批量读取昵称: %w", err)
		}
		for _, u := range users {
			result[u.UUID] = u.Nickname
		}
		for _, id := range remaining {
			if _, ok := result[id]; !ok {
				result[id] = ""
			}
		}
	}

	return result, nil
}
