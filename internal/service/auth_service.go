package service

import (
	"errors"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// AdminJWTClaims 管理端 JWT 声明，Role 为 admin 或 operator
type AdminJWTClaims struct {
	AdminID uint   `json:"admin_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService 令牌签发与解析，账号体系由外部身份服务负责
type AuthService struct {
	adminCfg config.JWTConfig
	userCfg  config.JWTConfig
}

// NewAuthService 创建令牌服务
func NewAuthService(adminCfg, userCfg config.JWTConfig) *AuthService {
	return &AuthService{adminCfg: adminCfg, userCfg: userCfg}
}

var ErrTokenInvalid = errors.New("invalid token")

// GenerateUserJWT 签发用户令牌
func (s *AuthService) GenerateUserJWT(userID uint) (string, time.Time, error) {
	if userID == 0 {
		return "", time.Time{}, ErrUserRequired
	}
	expiresAt := time.Now().Add(resolveExpireHours(s.userCfg, 168))
	claims := UserJWTClaims{
		UserID:           userID,
		RegisteredClaims: registeredClaims(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.userCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// GenerateAdminJWT 签发管理端令牌
func (s *AuthService) GenerateAdminJWT(adminID uint, role string) (string, time.Time, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if adminID == 0 || (role != constants.ActorRoleAdmin && role != constants.ActorRoleOperator) {
		return "", time.Time{}, ErrTokenInvalid
	}
	expiresAt := time.Now().Add(resolveExpireHours(s.adminCfg, 24))
	claims := AdminJWTClaims{
		AdminID:          adminID,
		Role:             role,
		RegisteredClaims: registeredClaims(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.adminCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseUserJWT 解析用户令牌
func (s *AuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	claims := &UserJWTClaims{}
	if err := parseHS256(tokenString, s.userCfg.SecretKey, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseAdminJWT 解析管理端令牌
func (s *AuthService) ParseAdminJWT(tokenString string) (*AdminJWTClaims, error) {
	claims := &AdminJWTClaims{}
	if err := parseHS256(tokenString, s.adminCfg.SecretKey, claims); err != nil {
		return nil, err
	}
	if claims.AdminID == 0 || strings.TrimSpace(claims.Role) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func parseHS256(tokenString, secret string, claims jwt.Claims) error {
	if strings.TrimSpace(secret) == "" {
		return ErrTokenInvalid
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func registeredClaims(expiresAt time.Time) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func resolveExpireHours(cfg config.JWTConfig, fallback int) time.Duration {
	hours := cfg.ExpireHours
	if hours <= 0 {
		hours = fallback
	}
	return time.Duration(hours) * time.Hour
}
