// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 結果ラベルの値
const (
	OutcomeSuccess = "success"
)

// ログイン方式ラベルの値
const (
	LoginMethodPassword = "password"
	LoginMethodTwitter  = "twitter"
	LoginMethodSignup   = "signup"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー層とワーカーから利用する。
type MetricsCollector interface {
	// RecordRegistration はアカウント登録の結果を記録する。outcomeは成功またはエラーコード。
	RecordRegistration(outcome string)
	// RecordLogin はログインの結果を記録する。
	RecordLogin(method, outcome string)
	RecordSessionsPurged(count int64)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	sessionsPurged prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beluga_registrations_total",
			Help: "結果別のアカウント登録数",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beluga_logins_total",
			Help: "方式と結果別のログイン数",
		}, []string{"method", "outcome"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beluga_sessions_purged_total",
			Help: "クリーンアップで削除した期限切れセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beluga_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "beluga_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.sessionsPurged,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(method, outcome string) {
	c.logins.WithLabelValues(method, outcome).Inc()
}

// RecordSessionsPurged は削除したセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordRegistration(string)          {}
func (Nop) RecordLogin(string, string)         {}
func (Nop) RecordSessionsPurged(int64)         {}
func (Nop) RecordHTTPStatus(int)               {}
func (Nop) RecordRequestLatency(time.Duration) {}

// statusWriter はステータスコードを記録するResponseWriter。
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// NewHTTPMiddleware はレスポンスのステータスコードと処理時間を記録するミドルウェアを返す。
func NewHTTPMiddleware(c MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			c.RecordHTTPStatus(sw.status)
			c.RecordRequestLatency(time.Since(start))
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
