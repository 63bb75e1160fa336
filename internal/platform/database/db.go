package database

import (
	"fmt"
	"log"
	"os"

	"github.com/SlpAus/caption-this-backend/internal/platform/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB 根据配置初始化数据库连接，默认使用SQLite，可切换到Postgres
func InitDB(cfg config.DatabaseConfig) {
	var err error

	// GORM日志配置
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 0,
			LogLevel:      logger.Silent, // 在生产环境中可以设为Silent
			Colorful:      true,
		},
	)

	gormCfg := &gorm.Config{
		Logger:         newLogger,
		TranslateError: true, // 统一将驱动错误翻译为gorm.Err*，便于errors.Is判断
	}

	switch cfg.Driver {
	case "postgres":
		DB, err = gorm.Open(postgres.Open(cfg.PostgresDSN), gormCfg)
	case "sqlite", "":
		DB, err = gorm.Open(sqlite.Open(cfg.SqlitePath), gormCfg)
	default:
		panic(fmt.Sprintf("不支持的数据库驱动: %s", cfg.Driver))
	}

	if err != nil {
		fmt.Println("连接数据库失败", err)
		panic(err)
	}

	fmt.Println("数据库连接成功！")
}

// CloseDB 在停机时关闭底层数据库连接
func CloseDB() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		fmt.Printf("警告: 获取底层数据库连接失败: %v\n", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		fmt.Printf("警告: 关闭数据库连接失败: %v\n", err)
	}
}
