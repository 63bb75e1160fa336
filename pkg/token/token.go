package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// secretKey 存储用于签发身份凭证的32字节HMAC密钥。
var secretKey []byte

// IdentityPayload 是身份Cookie中被签名的数据。
// 它以 base64(json(payload)) + "." + base64(signature) 的形式写入Cookie。
type IdentityPayload struct {
	Identity string `json:"u"`
	IssuedAt int64  `json:"t"`
}

// SetSecretKey 使用配置提供的密钥。密钥长度不足32字节时拒绝。
func SetSecretKey(key []byte) error {
	if len(key) < 32 {
		return errors.New("身份签名密钥长度不足32字节")
	}
	secretKey = key
	return nil
}

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
// 随机密钥只适合开发环境：服务重启后所有已签发的身份Cookie都会失效。
func GenerateSecretKey() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = key
	fmt.Println("HMAC密钥已成功生成。")
}

// EncodeIdentityCookie 将payload序列化并签名，返回完整的Cookie值。
func EncodeIdentityCookie(payload IdentityPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", errors.New("无法序列化身份payload")
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	signature := mac.Sum(nil)

	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	encodedSignature := base64.RawURLEncoding.EncodeToString(signature)
	return encodedPayload + "." + encodedSignature, nil
}

// DecodeIdentityCookie 解析并验证一个身份Cookie值。
// 任何结构或签名错误都返回ok=false，调用方应当重新签发身份。
func DecodeIdentityCookie(value string) (IdentityPayload, bool) {
	var payload IdentityPayload

	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return payload, false
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return payload, false
	}
	actualSignature, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return payload, false
	}

	// 重新计算签名，并使用恒定时间比较防止时序攻击
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	expectedSignature := mac.Sum(nil)
	if !hmac.Equal(expectedSignature, actualSignature) {
		return payload, false
	}

	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return payload, false
	}
	if payload.Identity == "" {
		return payload, false
	}
	return payload, true
}
