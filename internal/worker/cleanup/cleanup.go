// Package cleanup は失効トークンブラックリストの自動削除ジョブを提供する。
// ブラックリストは追記専用のため放置すると無限に成長する。
// トークンの自然失効後は失効記録を保持する意味がないため、
// 保持期間（トークンTTLより十分長い値）を超過したエントリを定期削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は保持期間を超過したブラックリストエントリの自動削除ジョブ。
// 冪等な削除処理で、定期実行のバッチジョブとして設計されている。
// Retentionはトークンの有効期間より長くなければならない。
// 有効期限内のトークンの失効記録を消すと、そのトークンが再び通ってしまう。
type CleanupJob struct {
	db        Executor
	logger    *slog.Logger
	Retention time.Duration // ブラックリストエントリの保持期間
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger, retention time.Duration) *CleanupJob {
	return &CleanupJob{
		db:        db,
		logger:    logger,
		Retention: retention,
	}
}

// Run は保持期間を超過したブラックリストエントリを削除する。
// revoked_atがRetentionより古いエントリをDELETEする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d seconds", int64(j.Retention.Seconds()))

	query := `DELETE FROM token_blacklist WHERE revoked_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("ブラックリストクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("retention", j.Retention),
		)
		return fmt.Errorf("ブラックリストクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("ブラックリストクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Duration("retention", j.Retention),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
