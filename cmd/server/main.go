package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/SlpAus/caption-this-backend/api"
	"github.com/SlpAus/caption-this-backend/internal/judge"
	"github.com/SlpAus/caption-this-backend/internal/platform/config"
	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/internal/platform/health"
	"github.com/SlpAus/caption-this-backend/internal/platform/shutdown"
	"github.com/SlpAus/caption-this-backend/internal/platform/startup"
	"github.com/SlpAus/caption-this-backend/internal/round"
	"github.com/SlpAus/caption-this-backend/pkg/clock"
	"github.com/SlpAus/caption-this-backend/pkg/lifecycle"
	"github.com/SlpAus/caption-this-backend/pkg/token"
	"github.com/joho/godotenv"
)

// newJudgeClient 按配置选择评委客户端。
// gemini是生产用的，mock用于本地联调，不消耗API配额。
func newJudgeClient(cfg config.JudgeConfig) (judge.Client, error) {
	switch cfg.Provider {
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("judge.provider为gemini时必须设置GEMINI_API_KEY环境变量")
		}
		return judge.NewGeminiClient(context.Background(), apiKey, cfg.Model, cfg.Temperature)
	case "mock":
		return judge.MockClient{}, nil
	default:
		return nil, fmt.Errorf("不支持的评委提供方: %s", cfg.Provider)
	}
}

func main() {
	// .env只在本地开发存在，加载失败不是错误
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	// 1. 身份签名密钥。未配置时生成随机密钥，重启会使所有Cookie失效
	if cfg.Server.IdentitySecret != "" {
		if err := token.SetSecretKey([]byte(cfg.Server.IdentitySecret)); err != nil {
			panic(fmt.Sprintf("身份签名密钥不可用: %v", err))
		}
	} else {
		fmt.Println("警告: 未配置身份签名密钥，使用随机密钥。重启后已签发的身份Cookie将全部失效。")
		token.GenerateSecretKey()
	}

	// 2. 存储连接
	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 3. 阻塞式获取初始Redis Run ID
	health.InitializeRunID()

	// 4. 评委客户端与round模块依赖注入
	judgeClient, err := newJudgeClient(cfg.Judge)
	if err != nil {
		panic(fmt.Sprintf("初始化评委客户端失败: %v", err))
	}
	if err := round.ConfigureModule(clock.System(), judgeClient, cfg.Judge, cfg.Game); err != nil {
		panic(fmt.Sprintf("配置round模块失败: %v", err))
	}

	// 5. 迁移数据库并从SQLite重建全部Redis缓存
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 6. 启动后台服务
	gracefulManager := lifecycle.NewManager()
	forcefulManager := lifecycle.NewManager()

	healthHandle, err := gracefulManager.NewServiceHandle("redis-health-checker")
	if err != nil {
		panic(err)
	}
	health.StartRedisHealthCheck(healthHandle)

	if cfg.Resolver.Auto {
		resolverHandle, err := gracefulManager.NewServiceHandle("round-auto-resolver")
		if err != nil {
			panic(err)
		}
		round.StartAutoResolver(resolverHandle, cfg.Resolver)
	} else {
		fmt.Println("自动结算巡逻已按配置关闭，回合需要手动结算。")
	}

	sweeperHandle, err := gracefulManager.NewServiceHandle("round-retention-sweeper")
	if err != nil {
		panic(err)
	}
	round.StartRetentionSweeper(sweeperHandle, cfg.Game)

	// 7. HTTP服务器
	router := api.NewRouter(cfg.Server)
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("服务器启动失败: " + err.Error())
		}
	}()

	// 8. 阻塞等待停机信号
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager)
	coordinator.ListenForSignalsAndShutdown(server)
}
