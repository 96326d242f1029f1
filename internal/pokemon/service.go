// Package pokemon はカタログレコードのCRUDビジネスロジックを提供する。
// 全操作が認証ミドルウェアの背後にあり、認証済みユーザーであれば
// 誰でも読み書きできる（所有権・ロールの区別はない）。
package pokemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/pokedex/internal/model"
	"github.com/hitoshi/pokedex/internal/repository"
)

// Sanitizer は自由入力フィールドのサニタイズ機能のインターフェース。
// security.Sanitizerの部分集合として定義する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Service はカタログレコードのCRUDを提供する。
type Service struct {
	repo      repository.PokemonRepository
	sanitizer Sanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.PokemonRepository, sanitizer Sanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List は全レコードを挿入順で返す。
func (s *Service) List(ctx context.Context) ([]model.PokemonDoc, error) {
	docs, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pokemon: %w", err)
	}
	return docs, nil
}

// Get は指定idのレコードを返す。idが重複している場合は最初の一致を返す。
// 見つからない場合はmodel.ErrNotFoundを返す。
func (s *Service) Get(ctx context.Context, id int) (model.PokemonDoc, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find pokemon: %w", err)
	}
	if doc == nil {
		return nil, model.ErrNotFound
	}
	return doc, nil
}

// Create はレコードを追加する。
// idフィールドの存在のみを検証し、それ以外のスキーマは強制しない。
// 文字列フィールドは保存前にサニタイズされる。
func (s *Service) Create(ctx context.Context, doc model.PokemonDoc) error {
	if _, err := doc.ID(); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	s.sanitizeStrings(doc)

	if err := s.repo.Insert(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert pokemon: %w", err)
	}

	slog.Info("pokemon created", slog.Any("id", doc["id"]))
	return nil
}

// Update は指定idのレコードへ部分ドキュメントをマージする。
// patchに含まれるidフィールドは識別子の書き換えを防ぐため取り除かれる。
// patchに含まれないフィールドは保持される。
// 対象が存在しない場合はmodel.ErrNotFoundを返す。
func (s *Service) Update(ctx context.Context, id int, patch model.PokemonDoc) error {
	delete(patch, "id")
	s.sanitizeStrings(patch)

	if err := s.repo.Merge(ctx, id, patch); err != nil {
		return err
	}

	slog.Info("pokemon updated", slog.Int("id", id))
	return nil
}

// Delete は指定idのレコードを削除する。
// 対象が存在しない場合はmodel.ErrNotFoundを返す。
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("pokemon deleted", slog.Int("id", id))
	return nil
}

// sanitizeStrings はドキュメントのトップレベル文字列フィールドを
// インプレースでサニタイズする。
func (s *Service) sanitizeStrings(doc model.PokemonDoc) {
	for k, v := range doc {
		if str, ok := v.(string); ok {
			doc[k] = s.sanitizer.Sanitize(str)
		}
	}
}
