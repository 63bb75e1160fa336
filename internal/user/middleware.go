package user

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/caption-this-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

const (
	CookieName   = "player-id"
	CookieMaxAge = 365 * 24 * 60 * 60
	IdentityKey  = "identity"
)

// issueIdentityCookie 生成新的临时身份并写入签名Cookie，返回新身份。
func issueIdentityCookie(c *gin.Context) (string, error) {
	identity, err := CreateProvisionalIdentity()
	if err != nil {
		return "", err
	}
	value, err := token.EncodeIdentityCookie(token.IdentityPayload{
		Identity: identity,
		IssuedAt: time.Now().Unix(),
	})
	if err != nil {
		return "", err
	}
	c.SetCookie(CookieName, value, CookieMaxAge, "/", "", false, true)
	return identity, nil
}

// decodeIdentityCookie 读取并验证请求中的身份Cookie。
// 签名不合法或身份格式错误都视为没有身份。
func decodeIdentityCookie(c *gin.Context) (string, bool) {
	value, err := c.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	payload, ok := token.DecodeIdentityCookie(value)
	if !ok || !IsValidIdentity(payload.Identity) {
		return "", false
	}
	return payload.Identity, true
}

// EnsureIdentityCookieMiddleware 确保请求带有一个签名合法的身份Cookie。
// 没有或不合法时签发新身份。所有改变状态的路由都应挂载它，
// 处理器随后总能从上下文中取到身份。
func EnsureIdentityCookieMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := decodeIdentityCookie(c)
		if !ok {
			var err error
			identity, err = issueIdentityCookie(c)
			if err != nil {
				fmt.Printf("签发玩家身份时发生错误: %v\n", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "签发玩家身份失败"})
				return
			}
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// LoadIdentityMiddleware 读取身份Cookie并将其值放入Gin上下文中。
// 只读路由使用它；没有合法身份时上下文中的身份为空字符串。
func LoadIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := decodeIdentityCookie(c)
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// IdentityFromContext 从Gin上下文中取出当前请求的玩家身份。
func IdentityFromContext(c *gin.Context) string {
	identity, _ := c.Get(IdentityKey)
	s, _ := identity.(string)
	return s
}
