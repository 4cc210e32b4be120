package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 验证失败的哨兵错误。
// 过期与签名无效必须可区分：前端依据 ErrTokenExpired 提示重新登录。
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// JWTManager 是 JWT 管理器，负责生成和验证访问令牌。
// 系统无服务端会话、无吊销列表，过期是唯一的失效机制。
type JWTManager struct {
	secretKey           []byte        // 密钥
	accessTokenDuration time.Duration // 访问令牌过期时间
}

// CustomClaims 是自定义的 Claims，包含用户信息和 JWT 标准 Claims
// 嵌入了 jwt.RegisteredClaims，所以 CustomClaims 也包含了 JWT 标准 Claims
type CustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager。
// secretKey 必须来自配置，调用方（config.Init）保证其非空。
func NewJWTManager(secretKey string, accessTokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:           []byte(secretKey),
		accessTokenDuration: accessTokenDuration,
	}
}

// GenerateToken 签发携带用户 id、用户名和角色的访问令牌。
func (manager *JWTManager) GenerateToken(userID uint, username, role string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "actc-portal",
			ExpiresAt: jwt.NewNumericDate(now.Add(manager.accessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return accessToken.SignedString(manager.secretKey)
}

// VerifyToken 验证令牌并返回 Claims。
// 过期返回 ErrTokenExpired，签名/格式问题返回 ErrTokenInvalid。
func (manager *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return manager.secretKey, nil
	},
		// 使用 WithValidMethods 精确限制只允许 HS256 算法，
		// 防止算法篡改攻击（如 alg=none 或 alg=RS256）。
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*CustomClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
