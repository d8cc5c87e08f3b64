package service

import (
	"testing"

	"github.com/bazaar-next/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	svc := NewAuthService(
		config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 1},
		config.JWTConfig{SecretKey: "user-secret"},
	)

	userToken, _, err := svc.GenerateUserJWT(7)
	require.NoError(t, err)
	userClaims, err := svc.ParseUserJWT(userToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userClaims.UserID)

	adminToken, _, err := svc.GenerateAdminJWT(3, " Operator ")
	require.NoError(t, err)
	adminClaims, err := svc.ParseAdminJWT(adminToken)
	require.NoError(t, err)
	assert.Equal(t, uint(3), adminClaims.AdminID)
	assert.Equal(t, "operator", adminClaims.Role)

	// 用户令牌不能通过管理端密钥校验
	_, err = svc.ParseAdminJWT(userToken)
	assert.Error(t, err)
}

func TestAuthServiceRejectsInvalidInput(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{SecretKey: "a"}, config.JWTConfig{})

	_, _, err := svc.GenerateUserJWT(0)
	assert.ErrorIs(t, err, ErrUserRequired)

	_, _, err = svc.GenerateAdminJWT(1, "customer")
	assert.Error(t, err)

	_, err = svc.ParseUserJWT("whatever")
	assert.Error(t, err, "empty secret must reject")
}
