package middleware

import "net/http"

// NewSecurityHeadersMiddleware はAPIの全レスポンスにセキュリティヘッダーを付与する
// ミドルウェアを返す。JSONエンドポイントと/image配下の静的ファイルの両方に適用される。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			// 画像は外部フロントエンドから参照されるため cross-origin を許可する
			w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}
