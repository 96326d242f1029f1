// Package security はアプリケーションのセキュリティ機能を提供する。
//
// Sanitizer はユーザー入力の自由記述フィールド（プロフィールのname/address、
// カタログレコードのdescription等）を保存前にサニタイズし、
// 格納型XSSからフロントエンドを保護する。
// bluemondayライブラリのStrictPolicyを使用し、HTMLタグを全て除去する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer は自由記述フィールドのサニタイズを行う。
// ポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer はSanitizerの新しいインスタンスを生成する。
// StrictPolicyのため許可タグはなく、scriptタグやon*イベント属性を含む
// 全てのHTMLマークアップが除去され、テキストのみが残る。
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize は入力文字列からHTMLマークアップを除去して返す。
// 空文字列の入力には空文字列を返す。
// 同一入力に対して常に同一出力を返す（冪等）。
func (s *Sanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
