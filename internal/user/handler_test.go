package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SlpAus/caption-this-backend/internal/platform/database"
	"github.com/SlpAus/caption-this-backend/internal/reward"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPlayerTestRouter 按生产路由的形状挂载玩家接口，
// 并用注入中间件替代真实的Cookie中间件
func newPlayerTestRouter(identity string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	inject := func(c *gin.Context) {
		c.Set(IdentityKey, identity)
		c.Next()
	}
	players := router.Group("/api/players")
	players.GET("/me", inject, GetMyProfile)
	players.GET("/:id", GetPlayerProfile)
	players.PUT("/me/nickname", inject, UpdateMyNickname)
	players.POST("/nicknames", GetNicknamesBatch)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	result := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	}
	return w.Code, result
}

func TestPlayerProfileHandlers(t *testing.T) {
	setupUserTest(t)
	me := "11111111-0000-0000-0000-000000000001"
	router := newPlayerTestRouter(me)

	t.Run("fresh profile is zeroed", func(t *testing.T) {
		status, body := doJSON(t, router, http.MethodGet, "/api/players/me", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, me, body["identity"])
		assert.Empty(t, body["nickname"])
		assert.EqualValues(t, 0, body["xp"])
		assert.EqualValues(t, 0, body["rank"])
	})

	t.Run("nickname update round trip", func(t *testing.T) {
		status, body := doJSON(t, router, http.MethodPut, "/api/players/me/nickname", `{"nickname": "CaptionKing"}`)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "CaptionKing", body["nickname"])

		status, body = doJSON(t, router, http.MethodGet, "/api/players/me", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "CaptionKing", body["nickname"])
	})

	t.Run("invalid nickname is rejected", func(t *testing.T) {
		status, body := doJSON(t, router, http.MethodPut, "/api/players/me/nickname", `{"nickname": "bad name!"}`)
		require.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["error"], "昵称")
	})

	t.Run("missing nickname field is rejected", func(t *testing.T) {
		status, _ := doJSON(t, router, http.MethodPut, "/api/players/me/nickname", `{}`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("profile reflects the reward ledger", func(t *testing.T) {
		require.NoError(t, database.DB.Create(&reward.Player{Identity: me, XP: 15, RoundsPlayed: 1, Wins: 1}).Error)
		require.NoError(t, reward.WarmupCache())

		status, body := doJSON(t, router, http.MethodGet, "/api/players/me", "")
		require.Equal(t, http.StatusOK, status)
		assert.EqualValues(t, 15, body["xp"])
		assert.EqualValues(t, 1, body["rank"])
		assert.EqualValues(t, 1, body["wins"])
		assert.EqualValues(t, 1, body["roundsPlayed"])
	})

	t.Run("public profile by id", func(t *testing.T) {
		status, body := doJSON(t, router, http.MethodGet, "/api/players/"+me, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "CaptionKing", body["nickname"])
		assert.EqualValues(t, 15, body["xp"])
	})

	t.Run("invalid player id is rejected", func(t *testing.T) {
		status, _ := doJSON(t, router, http.MethodGet, "/api/players/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestNicknameBatchHandler(t *testing.T) {
	setupUserTest(t)
	me := "11111111-0000-0000-0000-000000000001"
	other := "11111111-0000-0000-0000-000000000002"
	router := newPlayerTestRouter(me)

	require.NoError(t, SetNickname(me, "CaptionKing"))

	t.Run("mixed batch", func(t *testing.T) {
		status, body := doJSON(t, router, http.MethodPost, "/api/players/nicknames",
			`{"ids": ["`+me+`", "`+other+`"]}`)
		require.Equal(t, http.StatusOK, status)

		nicknames, ok := body["nicknames"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "CaptionKing", nicknames[me])
		assert.Equal(t, "", nicknames[other])
	})

	t.Run("missing ids field is rejected", func(t *testing.T) {
		status, _ := doJSON(t, router, http.MethodPost, "/api/players/nicknames", `{}`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("invalid id in batch is rejected", func(t *testing.T) {
		status, _ := doJSON(t, router, http.MethodPost, "/api/players/nicknames", `{"ids": ["nope"]}`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("oversized batch is rejected", func(t *testing.T) {
		ids := make([]string, 101)
		for i := range ids {
			ids[i] = me
		}
		payload, err := json.Marshal(map[string]interface{}{"ids": ids})
		require.NoError(t, err)

		status, _ := doJSON(t, router, http.MethodPost, "/api/players/nicknames", string(payload))
		assert.Equal(t, http.StatusBadRequest, status)
	})
}
