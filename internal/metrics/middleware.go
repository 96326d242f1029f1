package metrics

import (
	"net/http"
	"time"
)

// HTTPRecorder はHTTPリクエストメトリクスの記録インターフェース。
type HTTPRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// statusCapture はhttp.ResponseWriterをラップし、ステータスコードを捕捉する。
type statusCapture struct {
	http.ResponseWriter
	statusCode int
}

func (sc *statusCapture) WriteHeader(code int) {
	if sc.statusCode == 0 {
		sc.statusCode = code
	}
	sc.ResponseWriter.WriteHeader(code)
}

func (sc *statusCapture) Write(b []byte) (int, error) {
	if sc.statusCode == 0 {
		sc.statusCode = http.StatusOK
	}
	return sc.ResponseWriter.Write(b)
}

// NewHTTPMiddleware はレスポンスのステータスコードとレイテンシを
// 記録するミドルウェアを返す。
func NewHTTPMiddleware(recorder HTTPRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			capture := &statusCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			if capture.statusCode == 0 {
				capture.statusCode = http.StatusOK
			}
			recorder.RecordHTTPStatus(capture.statusCode)
			recorder.RecordRequestLatency(time.Since(start))
		})
	}
}
