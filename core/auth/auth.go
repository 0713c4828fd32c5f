package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 每个房间内的玩家身份令牌：加入房间时签发，
// 指令接口用它校验 roomCode/playerId 归属，不涉及账号体系。

// RoomClaims 房间身份令牌载荷
type RoomClaims struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发与校验房间身份令牌
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer 创建令牌签发器
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue 为玩家签发房间身份令牌
func (t *TokenIssuer) Issue(roomCode, playerID string) (string, error) {
	claims := RoomClaims{
		RoomCode: roomCode,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("签发房间令牌失败: %w", err)
	}
	return signed, nil
}

// Verify 校验令牌并返回载荷
func (t *TokenIssuer) Verify(tokenString string) (*RoomClaims, error) {
	claims := &RoomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("解析房间令牌失败: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("房间令牌无效")
	}
	return claims, nil
}
