package user

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/internal/reward"
	"github.com/SlpAus/caption-this-backend/pkg/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	// 中间件测试需要一个稳定的签名密钥
	if err := token.SetSecretKey([]byte(strings.Repeat("k", 32))); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// setupUserTest 为单个测试搭建隔离的SQLite和miniredis。
// 资料接口会读取奖励账本，所以reward模块一并初始化。
func setupUserTest(t *testing.T) {
	t.Helper()

	mr := miniredis.RunT(t)
	database.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { database.RDB.Close() })
	database.UpdateStatus(true, "")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
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

	require.NoError(t, PrimeCachedDB())
	require.NoError(t, reward.PrimeCachedDB())
}
