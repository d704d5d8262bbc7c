package middleware

import "net/http"

// apiSecurityHeaders はJSON APIのレスポンスに常に付けるヘッダー。
var apiSecurityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
}

// NewSecurityHeadersMiddleware はapiSecurityHeadersを付与するミドルウェアを返す。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range apiSecurityHeaders {
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
