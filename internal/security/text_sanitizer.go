// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は外部サービスから取得したプロフィール文字列からマークアップを除去する。
// OutboundGuard は外部APIへのHTTPクライアントを内部ネットワークに到達できないよう制限する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキストとして扱う文字列のサニタイズ機能を定義する。
type TextSanitizer interface {
	// Sanitize は全てのHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// script, styleタグは中身ごと除去し、それ以外のタグは中身のテキストだけを残す。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize は文字列からHTMLを除去する。
// bluemondayがエスケープした実体参照は元の文字に戻す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

var _ TextSanitizer = (*textSanitizer)(nil)
