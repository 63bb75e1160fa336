package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSecretKeyRejectsShortKeys(t *testing.T) {
	assert.Error(t, SetSecretKey([]byte("too-short")))
	assert.NoError(t, SetSecretKey([]byte(strings.Repeat("k", 32))))
}

func TestIdentityCookieRoundtrip(t *testing.T) {
	require.NoError(t, SetSecretKey([]byte(strings.Repeat("k", 32))))

	payload := IdentityPayload{
		Identity: "11111111-0000-0000-0000-000000000001",
		IssuedAt: 1748779200,
	}
	value, err := EncodeIdentityCookie(payload)
	require.NoError(t, err)

	decoded, ok := DecodeIdentityCookie(value)
	require.True(t, ok)
	assert.Equal(t, payload, decoded)
}

func TestDecodeRejectsTampering(t *testing.T) {
	require.NoError(t, SetSecretKey([]byte(strings.Repeat("k", 32))))

	valid, err := EncodeIdentityCookie(IdentityPayload{Identity: "11111111-0000-0000-0000-000000000001", IssuedAt: 1})
	require.NoError(t, err)
	donor, err := EncodeIdentityCookie(IdentityPayload{Identity: "11111111-0000-0000-0000-000000000002", IssuedAt: 1})
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{"empty value", ""},
		{"missing separator", strings.ReplaceAll(valid, ".", "")},
		{"extra segment", valid + ".extra"},
		{"payload not base64", "!!!." + strings.Split(valid, ".")[1]},
		{"signature not base64", strings.Split(valid, ".")[0] + ".!!!"},
		{"signature from another payload", strings.Split(valid, ".")[0] + "." + strings.Split(donor, ".")[1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodeIdentityCookie(tt.value)
			assert.False(t, ok)
		})
	}
}

func TestDecodeRejectsEmptyIdentity(t *testing.T) {
	require.NoError(t, SetSecretKey([]byte(strings.Repeat("k", 32))))

	// 空身份即使签名合法也不可接受
	value, err := EncodeIdentityCookie(IdentityPayload{Identity: "", IssuedAt: 1})
	require.NoError(t, err)

	_, ok := DecodeIdentityCookie(value)
	assert.False(t, ok)
}

func TestKeyRotationInvalidatesCookies(t *testing.T) {
	require.NoError(t, SetSecretKey([]byte(strings.Repeat("a", 32))))
	value, err := EncodeIdentityCookie(IdentityPayload{Identity: "11111111-0000-0000-0000-000000000001", IssuedAt: 1})
	require.NoError(t, err)

	require.NoError(t, SetSecretKey([]byte(strings.Repeat("b", 32))))
	_, ok := DecodeIdentityCookie(value)
	assert.False(t, ok)
}

func TestGenerateSecretKey(t *testing.T) {
	GenerateSecretKey()

	value, err := EncodeIdentityCookie(IdentityPayload{Identity: "11111111-0000-0000-0000-000000000001", IssuedAt: 1})
	require.NoError(t, err)
	_, ok := DecodeIdentityCookie(value)
	assert.True(t, ok)
}
