package round

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SlpAus/caption-this-backend/internal/judge"
	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/internal/platform/metadata"
	"github.com/SlpAus/caption-this-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// CreateRoundRequest 是创建回合的请求体
type CreateRoundRequest struct {
	RoundID  string `json:"round_id" binding:"required"`
	ImageURL string `json:"image_url" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// SubmitCaptionRequest 是提交投稿的请求体
type SubmitCaptionRequest struct {
	Text string `json:"text" binding:"required"`
}

// respondRoundError 把模块的错误分类映射为HTTP响应。
// 一致性失败和裁决解析失败都标记为可重试，调用方可以再次发起结算。
func respondRoundError(c *gin.Context, err error) {
	var validationErr *ValidationError
	var stateErr *StateError
	var agreementErr *judge.AgreementError
	var parseErr *judge.ParseError

	switch {
	case errors.Is(err, ErrRoundNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "回合不存在"})
	case errors.Is(err, ErrResultNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "回合还没有结算结果"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Message})
	case errors.As(err, &agreementErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     agreementErr.Error(),
			"code":      "AGREEMENT_FAILURE",
			"retryable": true,
		})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     parseErr.Error(),
			"code":      "JUDGMENT_PARSE_ERROR",
			"retryable": true,
		})
	default:
		fmt.Printf("处理回合请求时发生内部错误: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理请求时发生内部错误"})
	}
}

// CreateRoundHandler 处理 POST /api/rounds 请求
func CreateRoundHandler(c *gin.Context) {
	var req CreateRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	identity := user.IdentityFromContext(c)
	if identity == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法识别玩家身份"})
		return
	}

	r, err := CreateRound(identity, req.RoundID, req.ImageURL, req.Category)
	if err != nil {
		respondRoundError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"round_id":   r.RoundID,
		"creator":    r.Creator,
		"image_url":  r.ImageURL,
		"category":   r.Category,
		"created_at": r.CreatedAt.Unix(),
		"deadline":   r.Deadline.Unix(),
		"phase":      PhaseOf(r, modClock.Now()),
	})
}

// SubmitCaptionHandler 处理 POST /api/rounds/:id/captions 请求
func SubmitCaptionHandler(c *gin.Context) {
	var req SubmitCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	identity := user.IdentityFromContext(c)
	if identity == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法识别玩家身份"})
		return
	}

	caption, err := SubmitCaption(identity, c.Param("id"), req.Text)
	if err != nil {
		respondRoundError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"round_id":     caption.RoundID,
		"caption_id":   judge.LetterID(caption.Seq),
		"seq":          caption.Seq,
		"submitted_at": caption.SubmittedAt.Unix(),
	})
}

// CancelRoundHandler 处理 POST /api/rounds/:id/cancel 请求。
// 路由上挂的是LoadIdentityMiddleware，没有有效身份的调用方拿到401。
func CancelRoundHandler(c *gin.Context) {
	identity := user.IdentityFromContext(c)
	if identity == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别玩家身份"})
		return
	}

	roundID := c.Param("id")
	if err := CancelRound(identity, roundID); err != nil {
		respondRoundError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"round_id": roundID, "cancelled": true})
}

// ResolveRoundHandler 处理 POST /api/rounds/:id/resolve 请求。
// 结算对任何调用方开放，自动结算巡逻和手动调用共用同一入口。
func ResolveRoundHandler(c *gin.Context) {
	result, err := ResolveRound(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondRoundError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRoundHandler 处理 GET /api/rounds/:id 请求
func GetRoundHandler(c *gin.Context) {
	view, err := GetRound(c.Param("id"))
	if err != nil {
		respondRoundError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetRoundResultHandler 处理 GET /api/rounds/:id/result 请求
func GetRoundResultHandler(c *gin.Context) {
	result, err := GetRoundResult(c.Param("id"))
	if err != nil {
		respondRoundError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetActiveRoundsHandler 处理 GET /api/rounds/active 请求
func GetActiveRoundsHandler(c *gin.Context) {
	views, err := GetActiveRounds()
	if err != nil {
		respondRoundError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": views, "count": len(views)})
}

// GetServiceStatsHandler 处理 GET /api/stats 请求，返回服务生命周期计数器
func GetServiceStatsHandler(c *gin.Context) {
	stats := make(map[string]int64, len(metadata.CounterKeys))
	for _, key := range metadata.CounterKeys {
		value, err := metadata.GetCounter(database.DB, key)
		if err != nil {
			fmt.Printf("读取服务计数器 %s 失败: %v\n", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "获取服务统计失败"})
			return
		}
		stats[key] = value
	}
	c.JSON(http.StatusOK, stats)
}
