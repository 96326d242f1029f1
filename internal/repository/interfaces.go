// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/pokedex/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名が既に存在する場合はmodel.ErrUserExistsを返す。
	// 一意性はストアの制約で保証され、事前チェックは行わない。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーレコード全体を上書きする。
	// 対象が存在しない場合はmodel.ErrNotFoundを返す。
	Update(ctx context.Context, user *model.User) error

	// UpdateAuthToken はauth_tokenキャッシュ列のみを更新する。
	UpdateAuthToken(ctx context.Context, username, token string) error
}

// BlacklistRepository は失効済みトークンの永続化インターフェース。
type BlacklistRepository interface {
	// Add はトークンを失効集合へ冪等に追加する。
	// 既に登録済みのトークンを追加してもエラーにならない。
	Add(ctx context.Context, token string) error

	// Contains はトークンが失効済みかどうかを完全一致で判定する。
	Contains(ctx context.Context, token string) (bool, error)
}

// PokemonRepository はカタログレコードの永続化インターフェース。
// レコードはスキーマレスなドキュメントとして扱う。
type PokemonRepository interface {
	// All は全レコードを挿入順で返す。
	All(ctx context.Context) ([]model.PokemonDoc, error)

	// FindByID は指定idのレコードを取得する。
	// idが重複している場合は挿入順で最初の一致を返す。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int) (model.PokemonDoc, error)

	// Insert はレコードを追加する。idの重複チェックは行わない。
	Insert(ctx context.Context, doc model.PokemonDoc) error

	// Merge は指定idのレコードへ部分ドキュメントをマージする。
	// 対象が存在しない場合はmodel.ErrNotFoundを返す。
	Merge(ctx context.Context, id int, patch model.PokemonDoc) error

	// Delete は指定idのレコードを削除する。
	// 対象が存在しない場合はmodel.ErrNotFoundを返す。
	Delete(ctx context.Context, id int) error

	// ReplaceAll は全レコードを削除し、与えられたレコード群で置き換える。
	// データセットのインポートで使用する。
	ReplaceAll(ctx context.Context, docs []model.PokemonDoc) error
}
