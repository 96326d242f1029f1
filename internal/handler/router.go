package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/pokedex/internal/metrics"
	"github.com/hitoshi/pokedex/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	Logger            *slog.Logger
	Metrics           MetricsDeps

	// ヘルスチェック
	HealthChecker HealthChecker

	// サービス
	AuthService    AuthServiceInterface
	UserService    UserServiceInterface
	PokemonService PokemonServiceInterface

	// 静的ファイル
	ImageDir string
}

// MetricsDeps はメトリクス関連の依存関係。
type MetricsDeps struct {
	HTTPRecorder metrics.HTTPRecorder
	Handler      http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → CORS →（保護ルートのみ）Auth
//
// パスと動詞は互換性のため元のAPIと同一に保つこと。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics.HTTPRecorder != nil {
		r.Use(metrics.NewHTTPMiddleware(deps.Metrics.HTTPRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	pokemonHandler := NewPokemonHandler(deps.PokemonService)

	// --- 認証不要のルート ---

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Hello World"})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Metrics.Handler != nil {
		r.Handle("/metrics", deps.Metrics.Handler)
	}

	// 画像の静的配信。元のAPIと同じく認証は不要。
	if deps.ImageDir != "" {
		fileServer := http.FileServer(http.Dir(deps.ImageDir))
		r.Handle("/image/*", http.StripPrefix("/image/", fileServer))
	}

	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)

	// ログアウトは認証ミドルウェアの外に置く。失効済み・期限切れ・不正な
	// トークンの再提示でも失効処理は成功しなければならないため、
	// ブラックリスト照合を挟まずハンドラーが直接ヘッダーからトークンを読む。
	r.Post("/logout", authHandler.Logout)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))

		r.Route("/user", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Put("/update", userHandler.Update)
		})

		r.Route("/pokemon", func(r chi.Router) {
			r.Get("/", pokemonHandler.List)
			r.Put("/add", pokemonHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", pokemonHandler.Get)
				r.Patch("/", pokemonHandler.Update)
				r.Delete("/", pokemonHandler.Delete)
			})
		})
	})

	return r
}
