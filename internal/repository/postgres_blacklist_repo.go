package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresBlacklistRepo はPostgreSQLを使用した失効トークンリポジトリ。
type PostgresBlacklistRepo struct {
	db *sql.DB
}

// NewPostgresBlacklistRepo はPostgresBlacklistRepoを生成する。
func NewPostgresBlacklistRepo(db *sql.DB) *PostgresBlacklistRepo {
	return &PostgresBlacklistRepo{db: db}
}

// Add はトークンを失効集合へ冪等に追加する。
// ON CONFLICT DO NOTHINGにより二重ログアウトはエラーにならない。
func (r *PostgresBlacklistRepo) Add(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO token_blacklist (token, revoked_at)
		 VALUES ($1, now())
		 ON CONFLICT (token) DO NOTHING`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// Contains はトークンが失効済みかどうかを完全一致で判定する。
func (r *PostgresBlacklistRepo) Contains(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token = $1)`,
		token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ BlacklistRepository = (*PostgresBlacklistRepo)(nil)
