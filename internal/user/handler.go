package user

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SlpAus/caption-this-backend/internal/reward"
	"github.com/gin-gonic/gin"
)

// 批量查询昵称时单次请求允许的最大身份数量
const maxNicknameBatch = 100

// PlayerProfileResponse 是玩家资料接口的响应模型
type PlayerProfileResponse struct {
	Identity     string `json:"identity"`
	Nickname     string `json:"nickname"`
	XP           int    `json:"xp"`
	Rank         int64  `json:"rank"`
	RoundsPlayed int    `json:"roundsPlayed"`
	Wins         int    `json:"wins"`
	RunnerUps    int    `json:"runnerUps"`
	SoloRounds   int    `json:"soloRounds"`
}

type UpdateNicknameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

type NicknameBatchRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// buildProfile 汇总奖励账本与昵称，构造完整的玩家资料。
func buildProfile(identity string) (*PlayerProfileResponse, error) {
	summary, err := reward.GetPlayerSummary(identity)
	if err != nil {
		return nil, err
	}
	nickname, err := GetNickname(identity)
	if err != nil {
		return nil, err
	}
	return &PlayerProfileResponse{
		Identity:     identity,
		Nickname:     nickname,
		XP:           summary.XP,
		Rank:         summary.Rank,
		RoundsPlayed: summary.RoundsPlayed,
		Wins:         summary.Wins,
		RunnerUps:    summary.RunnerUps,
		SoloRounds:   summary.SoloRounds,
	}, nil
}

// GetMyProfile 处理 GET /api/players/me 请求。
// 身份由EnsureIdentityCookieMiddleware保证存在。
func GetMyProfile(c *gin.Context) {
	identity := IdentityFromContext(c)
	if identity == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法识别玩家身份"})
		return
	}

	profile, err := buildProfile(identity)
	if err != nil {
		fmt.Printf("获取玩家 %s 的资料失败: %v\n", identity, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取玩家资料失败"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetPlayerProfile 处理 GET /api/players/:id 请求，查询任意玩家的公开资料。
func GetPlayerProfile(c *gin.Context) {
	identity := c.Param("id")
	if !IsValidIdentity(identity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的玩家ID"})
		return
	}

	profile, err := buildProfile(identity)
	if err != nil {
		fmt.Printf("获取玩家 %s 的资料失败: %v\n", identity, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取玩家资料失败"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMyNickname 处理 PUT /api/players/me/nickname 请求。
func UpdateMyNickname(c *gin.Context) {
	identity := IdentityFromContext(c)
	if identity == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法识别玩家身份"})
		return
	}

	var req UpdateNicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: 缺少nickname字段"})
		return
	}

	if err := SetNickname(identity, req.Nickname); err != nil {
		if errors.Is(err, ErrInvalidNickname) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fmt.Printf("更新玩家 %s 的昵称失败: %v\n", identity, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新昵称失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity": identity, "nickname": req.Nickname})
}

// GetNicknamesBatch 处理 POST /api/players/nicknames 请求，
// 为前端渲染回合视图提供批量昵称查询。
func GetNicknamesBatch(c *gin.Context) {
	var req NicknameBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: 缺少ids字段"})
		return
	}
	if len(req.IDs) > maxNicknameBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("单次请求最多查询 %d 个玩家", maxNicknameBatch)})
		return
	}
	for _, id := range req.IDs {
		if !IsValidIdentity(id) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的玩家ID: " + id})
			return
		}
	}

	nicknames, err := GetNicknames(req.IDs)
	if err != nil {
		fmt.Printf("批量查询昵称失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "批量查询昵称失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nicknames": nicknames})
}
