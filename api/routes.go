package api

import (
	"github.com/SlpAus/caption-this-backend/internal/reward"
	"github.com/SlpAus/caption-this-backend/internal/round"
	"github.com/SlpAus/caption-this-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由。
// 参赛入口挂EnsureIdentityCookieMiddleware，首次访问的玩家在这里
// 拿到签名身份Cookie；只消费既有身份的路由挂LoadIdentityMiddleware，
// 不会给匿名调用方签发新身份。
func SetupRoutes(router *gin.Engine) {
	ensure := user.EnsureIdentityCookieMiddleware()
	load := user.LoadIdentityMiddleware()

	api := router.Group("/api")
	{
		// 回合相关的路由组 /api/rounds
		roundRoutes := api.Group("/rounds")
		{
			roundRoutes.POST("", ensure, round.CreateRoundHandler)
			roundRoutes.GET("/active", round.GetActiveRoundsHandler)
			roundRoutes.GET("/:id", round.GetRoundHandler)
			roundRoutes.POST("/:id/captions", ensure, round.SubmitCaptionHandler)
			// 只有创建者能取消，新签发的身份不可能是创建者
			roundRoutes.POST("/:id/cancel", load, round.CancelRoundHandler)
			// 结算对任何调用方开放，不需要身份
			roundRoutes.POST("/:id/resolve", round.ResolveRoundHandler)
			roundRoutes.GET("/:id/result", round.GetRoundResultHandler)
		}

		// 玩家相关的路由组 /api/players
		playerRoutes := api.Group("/players")
		{
			playerRoutes.GET("/me", ensure, user.GetMyProfile)
			playerRoutes.GET("/:id", user.GetPlayerProfile)
			playerRoutes.PUT("/me/nickname", ensure, user.UpdateMyNickname)
			playerRoutes.POST("/nicknames", user.GetNicknamesBatch)
		}

		// 排行榜与服务统计
		api.GET("/leaderboard", reward.GetLeaderboard)
		api.GET("/stats", round.GetServiceStatsHandler)
	}
}
