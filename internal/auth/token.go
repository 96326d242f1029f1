// Package auth はトークンの発行・検証・失効と、それに基づく認証フローを提供する。
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/pokedex/internal/model"
)

// DefaultTokenTTL はTTL未指定時のトークン有効期間。
const DefaultTokenTTL = 10 * time.Minute

// TokenService はHMAC署名付きベアラートークンの発行と検証を行う。
// 検証はステートレスで、有効なトークンの一覧は保持しない。
// 失効の判定は呼び出し側（Service.Authenticate）がブラックリストで行う。
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService はTokenServiceを生成する。
// ttlが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue は指定subjectに紐付く署名付きトークンを発行する。
// クレームはsub（ユーザー名）、exp（現在時刻+TTL）、iat、jti。
// 署名はペイロード全体を覆うため、subまたはexpのいずれを改ざんしても
// 検証は決定的に失敗する。
func (s *TokenService) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、subjectを返す。
// 次のいずれの場合もmodel.ErrUnauthorizedを返す:
// トークンが空、署名不正（鍵違い・改ざん・エンコード破損）、期限切れ、sub欠落。
// ブラックリストの照合はここでは行わない。
func (s *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", model.ErrUnauthorized
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", model.ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", model.ErrUnauthorized
	}

	return claims.Subject, nil
}
