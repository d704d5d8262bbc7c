package security

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// DefaultOutboundTimeout は外部APIリクエストのデフォルトタイムアウト。
const DefaultOutboundTimeout = 10 * time.Second

// OutboundGuard は外部API呼び出し用のHTTPクライアントを生成する。
type OutboundGuard struct {
	schemes []string
	ports   []int
}

// NewOutboundGuard はhttpsの443番ポートだけを許可するOutboundGuardを生成する。
func NewOutboundGuard() *OutboundGuard {
	return &OutboundGuard{
		schemes: []string{"https"},
		ports:   []int{443},
	}
}

// NewClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlのデフォルト設定により以下がブロックされる:
//   - プライベートIPアドレス (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
//   - ループバックアドレス (127.0.0.0/8, ::1)
//   - リンクローカルアドレス (169.254.0.0/16, fe80::/10)
//
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証する。
func (g *OutboundGuard) NewClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(g.schemes...).
		SetAllowedPorts(g.ports...).
		Build()

	return safeurl.Client(config).Client
}
