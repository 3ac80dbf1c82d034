package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/haierkeys/note-registry-service/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 默认 Token 签发者
const DefaultTokenIssuer = "note-registry-service"

// identityContextKey gin 上下文中保存身份声明的键
const identityContextKey = "identity_token"

// TokenConfig 定义 Token 管理器的配置
type TokenConfig struct {
	SecretKey   string        `yaml:"secret-key"`   // JWT 签名密钥
	Expiry      time.Duration `yaml:"expiry"`       // Token 过期时间，默认 7 天
	Issuer      string        `yaml:"issuer"`       // Token 签发者
	BindMachine bool          `yaml:"bind-machine"` // 密钥是否绑定本机, 绑定后其他机器签发的 Token 无效
}

// TokenManager 定义 Token 管理接口
type TokenManager interface {
	Generate(identity, ip string) (string, error)
	Parse(token string) (*IdentityClaims, error)
	Validate(token string) error
	GetSecretKey() string
}

// tokenManager 实现 TokenManager 接口
type tokenManager struct {
	config TokenConfig
}

// NewTokenManager 创建一个新的 TokenManager 实例
func NewTokenManager(cfg TokenConfig) TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &tokenManager{config: cfg}
}

// IdentityClaims is what a bearer token carries. The subject is the caller identity.
// IdentityClaims Token 携带的声明, Subject 即调用者身份
type IdentityClaims struct {
	IP string `json:"ip,omitempty"`
	jwt.RegisteredClaims
}

// Identity 返回 Token 中的身份
func (c *IdentityClaims) Identity() string {
	return c.Subject
}

func (t *tokenManager) signingKey() []byte {
	key := t.config.SecretKey
	if t.config.BindMachine {
		key += "_" + util.MachineKey(t.config.Issuer)
	}
	return []byte(key)
}

// Generate 为 identity 生成一个新的 JWT Token
func (t *tokenManager) Generate(identity, ip string) (string, error) {
	if strings.TrimSpace(identity) == "" {
		return "", fmt.Errorf("empty identity")
	}
	now := time.Now()
	claims := &IdentityClaims{
		IP: ip,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    t.config.Issuer,
			Subject:   identity,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.signingKey())
}

// Parse 解析 JWT Token 并返回身份声明
func (t *tokenManager) Parse(token string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}

	parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.signingKey(), nil
	}, jwt.WithIssuer(t.config.Issuer))

	if err != nil {
		return nil, err
	}

	if !parsedToken.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no identity")
	}

	return claims, nil
}

// Validate 验证 Token 是否有效
func (t *tokenManager) Validate(token string) error {
	_, err := t.Parse(token)
	return err
}

// GetSecretKey 获取密钥
func (t *tokenManager) GetSecretKey() string {
	return t.config.SecretKey
}

// SetIdentity 将身份声明写入请求上下文
func SetIdentity(ctx *gin.Context, claims *IdentityClaims) {
	ctx.Set(identityContextKey, claims)
}

// GetIdentity extracts the caller identity from the request context, "" when unauthenticated.
// GetIdentity 从请求上下文获取调用者身份, 未认证时返回空字符串
func GetIdentity(ctx *gin.Context) (out string) {
	v, exist := ctx.Get(identityContextKey)
	if exist {
		if claims, ok := v.(*IdentityClaims); ok {
			out = claims.Subject
		}
	}
	return
}

// GetIP extracts the token IP from the request context.
func GetIP(ctx *gin.Context) (out string) {
	v, exist := ctx.Get(identityContextKey)
	if exist {
		if claims, ok := v.(*IdentityClaims); ok {
			out = claims.IP
		}
	}
	return
}
