// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// usernameが一意な識別子で、作成後は変更できない。
// PasswordHashには平文パスワードを一度も格納してはならない。
type User struct {
	Username     string
	PasswordHash string
	Name         string
	Address      string
	Age          int
	// AuthToken は最後に発行されたトークンの非正規化キャッシュ。
	// 表示・デバッグ用途のみで、認証判定には一切使用しない。
	// 古いトークンはこのフィールドが上書きされても自然失効まで有効。
	AuthToken string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserUpdate はプロフィール部分更新のペイロードを表す。
// nilフィールドは「変更なし」を意味する。usernameは不変のため含まれない。
// Passwordが指定された場合は保存前に必ずハッシュ化される。
type UserUpdate struct {
	Password *string
	Name     *string
	Address  *string
	Age      *int
}

// BlacklistEntry は失効済みトークンを表す。
// ログアウト時に作成され、追記専用の集合として扱われる。
type BlacklistEntry struct {
	Token     string
	RevokedAt time.Time
}
