package startup

import (
	"fmt"

	"github.com/SlpAus/caption-this-backend/internal/platform/metadata"
	"github.com/SlpAus/caption-this-backend/internal/reward"
	"github.com/SlpAus/caption-this-backend/internal/round"
	"github.com/SlpAus/caption-this-backend/internal/user"
)

// InitializeApplication 是应用首次启动时执行的总入口。
// SQLite是唯一的持久化真相，Redis缓存在这里从零重建。
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := metadata.PrimeDB(); err != nil {
		return err
	}
	if err := user.PrimeCachedDB(); err != nil {
		return err
	}
	if err := reward.PrimeCachedDB(); err != nil {
		return err
	}
	if err := round.PrimeCachedDB(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 在运行时热重建Redis缓存。
// 每个模块的重建都在其仓库写锁内进行，期间读路径被阻塞，
// 避免读到清空后尚未填充完毕的键。
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")

	err := func() error {
		user.LockRepository()
		defer user.UnlockRepository()
		if err := user.WarmupCache(); err != nil {
			return err
		}

		reward.LockRepository()
		defer reward.UnlockRepository()
		if err := reward.WarmupCache(); err != nil {
			return err
		}

		round.LockRepository()
		defer round.UnlockRepository()
		return round.WarmupCache()
	}()
	if err != nil {
		return err
	}

	fmt.Println("缓存热重建完成！")
	return nil
}
