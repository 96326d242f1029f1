// Package importer はカタログデータセットの一括インポートジョブを提供する。
// 公開リポジトリのpokedex JSONを取得してカタログテーブルを置き換え、
// 各レコードのsprite/thumbnail/hires画像をローカルへ保存した上で、
// 画像フィールドを自サーバーの/image/...パスへ書き換える。
// サーバー起動前に1回実行するワンショットのジョブとして設計されている。
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/hitoshi/pokedex/internal/model"
	"github.com/hitoshi/pokedex/internal/repository"
)

// Config はインポートジョブの設定。
type Config struct {
	DatasetURL  string
	ImageDir    string
	MaxBodySize int64
}

// Importer はデータセットの取得・画像保存・カタログ置き換えを行う。
type Importer struct {
	repo   repository.PokemonRepository
	client *http.Client
	logger *slog.Logger
	config Config
}

// NewImporter はImporterを生成する。
// clientにはNewSafeClientで生成したSSRF防止付きクライアントを渡すことを想定している。
func NewImporter(repo repository.PokemonRepository, client *http.Client, logger *slog.Logger, config Config) *Importer {
	return &Importer{
		repo:   repo,
		client: client,
		logger: logger,
		config: config,
	}
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlライブラリにより、プライベートIP、ループバック、リンクローカル、
// メタデータIPへのリクエストが自動的にブロックされる。
func NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// imageKinds は保存対象の画像種別と、データセット上のフィールド名の対応。
// hiresが欠落しているレコードはthumbnailで代用する。
var imageKinds = []struct {
	field string // データセットのimageオブジェクトのキー
	dir   string // 保存先ディレクトリ名
}{
	{field: "sprite", dir: "sprite"},
	{field: "thumbnail", dir: "thumbnail"},
	{field: "hires", dir: "hi_res"},
}

// Run はデータセットを取得し、画像を保存し、カタログ全体を置き換える。
// 個別レコードの画像取得失敗はジョブ全体を止めず、警告ログに留める。
func (im *Importer) Run(ctx context.Context) error {
	start := time.Now()

	docs, err := im.fetchDataset(ctx)
	if err != nil {
		return fmt.Errorf("データセットの取得に失敗: %w", err)
	}

	im.logger.Info("データセットを取得しました",
		slog.Int("record_count", len(docs)),
		slog.String("url", im.config.DatasetURL),
	)

	for _, kind := range imageKinds {
		dir := filepath.Join(im.config.ImageDir, kind.dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("画像ディレクトリの作成に失敗: %w", err)
		}
	}

	for i, doc := range docs {
		id, err := doc.ID()
		if err != nil {
			im.logger.Warn("idのないレコードをスキップします",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}

		im.importImages(ctx, id, doc)
	}

	if err := im.repo.ReplaceAll(ctx, docs); err != nil {
		return fmt.Errorf("カタログの置き換えに失敗: %w", err)
	}

	im.logger.Info("インポートジョブが完了しました",
		slog.Int("record_count", len(docs)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// fetchDataset はデータセットJSONを取得してデコードする。
func (im *Importer) fetchDataset(ctx context.Context) ([]model.PokemonDoc, error) {
	body, err := im.get(ctx, im.config.DatasetURL)
	if err != nil {
		return nil, err
	}

	var docs []model.PokemonDoc
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("JSONのデコードに失敗: %w", err)
	}
	return docs, nil
}

// importImages はレコードの各画像をローカルへ保存し、
// imageフィールドを自サーバーのパスへ書き換える。
// hiresが欠落している場合はthumbnailのデータで代用する。
func (im *Importer) importImages(ctx context.Context, id int, doc model.PokemonDoc) {
	images, ok := doc["image"].(map[string]any)
	if !ok {
		return
	}

	var thumbnailData []byte
	rewritten := map[string]any{}

	for _, kind := range imageKinds {
		localPath := filepath.Join(im.config.ImageDir, kind.dir, fmt.Sprintf("%d.png", id))

		var data []byte
		if rawURL, ok := images[kind.field].(string); ok && rawURL != "" {
			fetched, err := im.get(ctx, rawURL)
			if err != nil {
				im.logger.Warn("画像の取得に失敗しました",
					slog.Int("id", id),
					slog.String("kind", kind.field),
					slog.String("error", err.Error()),
				)
			} else {
				data = fetched
			}
		}

		// hiresの欠落・取得失敗はthumbnailで代用する
		if data == nil && kind.field == "hires" {
			data = thumbnailData
		}
		if data == nil {
			continue
		}
		if kind.field == "thumbnail" {
			thumbnailData = data
		}

		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			im.logger.Warn("画像の保存に失敗しました",
				slog.Int("id", id),
				slog.String("path", localPath),
				slog.String("error", err.Error()),
			)
			continue
		}

		rewritten[kind.field] = fmt.Sprintf("/image/%s/%d.png", kind.dir, id)
	}

	if len(rewritten) > 0 {
		doc["image"] = rewritten
	}
}

// get はURLをGETし、サイズ上限付きでボディを読み込む。
func (im *Importer) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Pokedex/1.0 Importer")

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("予期しないHTTPステータス: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, im.config.MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}
	return body, nil
}
