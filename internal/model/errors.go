// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// サービス層が返すセンチネルエラー。
// ハンドラー層でHTTPステータスへ写像される。
var (
	// ErrUnauthorized はトークンの欠落・改ざん・期限切れ・失効、
	// またはログイン資格情報の不一致を表す。
	// ユーザー列挙を防ぐため「ユーザーが存在しない」場合も同一のエラーを返す。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserExists はサインアップ時のユーザー名重複を表す。
	ErrUserExists = errors.New("user already exists")
	// ErrNotFound は対象レコードが存在しないことを表す。
	ErrNotFound = errors.New("not found")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeUserExists      = "USER_EXISTS"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodePokemonNotFound = "POKEMON_NOT_FOUND"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
)

// NewUnauthorizedError は認証エラーを生成する。
// トークン不正・期限切れ・失効・資格情報不一致のいずれでも同じ内容を返す。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証情報を検証できませんでした。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewUserExistsError はユーザー名重複エラーを生成する。
func NewUserExistsError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserExists,
		Message:  fmt.Sprintf("ユーザー名は既に使用されています: %s", username),
		Category: "auth",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewPokemonNotFoundError はカタログレコード未検出エラーを生成する。
func NewPokemonNotFoundError(id int) *APIError {
	return &APIError{
		Code:     ErrCodePokemonNotFound,
		Message:  fmt.Sprintf("指定されたポケモンが見つかりません: %d", id),
		Category: "catalog",
		Action:   "IDを確認してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
