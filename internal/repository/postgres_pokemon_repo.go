package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/pokedex/internal/model"
)

// PostgresPokemonRepo はPostgreSQLのJSONB列を使用したカタログリポジトリ。
// レコードの構造には関与せず、ドキュメントとして格納・マージする。
type PostgresPokemonRepo struct {
	db *sql.DB
}

// NewPostgresPokemonRepo はPostgresPokemonRepoを生成する。
func NewPostgresPokemonRepo(db *sql.DB) *PostgresPokemonRepo {
	return &PostgresPokemonRepo{db: db}
}

// All は全レコードを挿入順で返す。
func (r *PostgresPokemonRepo) All(ctx context.Context) ([]model.PokemonDoc, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM pokemon ORDER BY doc_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pokemon: %w", err)
	}
	defer rows.Close()

	docs := []model.PokemonDoc{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan pokemon row: %w", err)
		}
		var doc model.PokemonDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode pokemon document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pokemon rows: %w", err)
	}

	return docs, nil
}

// FindByID は指定idのレコードを取得する。
// idが重複している場合は挿入順で最初の一致を返す。見つからない場合はnilを返す。
func (r *PostgresPokemonRepo) FindByID(ctx context.Context, id int) (model.PokemonDoc, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM pokemon
		 WHERE (data->>'id')::integer = $1
		 ORDER BY doc_id
		 LIMIT 1`,
		id,
	).Scan(&raw)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pokemon by id: %w", err)
	}

	var doc model.PokemonDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode pokemon document: %w", err)
	}
	return doc, nil
}

// Insert はレコードを追加する。
func (r *PostgresPokemonRepo) Insert(ctx context.Context, doc model.PokemonDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode pokemon document: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO pokemon (data) VALUES ($1)`,
		raw,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pokemon: %w", err)
	}
	return nil
}

// Merge は指定idの全レコードへ部分ドキュメントをJSONBマージする。
// patchに含まれないフィールドは保持される。
// 対象が存在しない場合はmodel.ErrNotFoundを返す。
func (r *PostgresPokemonRepo) Merge(ctx context.Context, id int, patch model.PokemonDoc) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode patch document: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE pokemon
		 SET data = data || $2::jsonb
		 WHERE (data->>'id')::integer = $1`,
		id, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to merge pokemon: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete は指定idのレコードを削除する。
// 対象が存在しない場合はmodel.ErrNotFoundを返す。
func (r *PostgresPokemonRepo) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM pokemon WHERE (data->>'id')::integer = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete pokemon: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ReplaceAll は全レコードを削除し、与えられたレコード群で置き換える。
// 同一トランザクションで実行し、途中で失敗した場合は元の状態を保つ。
func (r *PostgresPokemonRepo) ReplaceAll(ctx context.Context, docs []model.PokemonDoc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pokemon`); err != nil {
		return fmt.Errorf("failed to clear pokemon table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO pokemon (data) VALUES ($1)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode pokemon document: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, raw); err != nil {
			return fmt.Errorf("failed to insert pokemon: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PokemonRepository = (*PostgresPokemonRepo)(nil)
