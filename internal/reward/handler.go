package reward

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard 返回全局排行榜。
// 可选查询参数limit限制返回条数，缺省返回完整榜单。
func GetLeaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit参数必须是非负整数"})
			return
		}
		limit = parsed
	}

	entries, err := GetRankedPlayers(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取排行榜数据失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
