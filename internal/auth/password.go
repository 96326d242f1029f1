package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はパスワードの一方向ハッシュ化と検証を提供する。
// bcryptはソルトをハッシュ文字列に埋め込むため、同じ平文でも
// 呼び出しごとに異なるダイジェストが生成される。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はbcryptのデフォルトコストのPasswordHasherを生成する。
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost}
}

// Hash は平文パスワードからソルト付きダイジェストを生成する。
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文がダイジェストと一致するかを判定する。
// 不一致は正常な否定結果でありエラーではない。
// 不正な形式のダイジェストもfalseを返す（フェイルクローズ）。
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
