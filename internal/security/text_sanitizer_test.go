package security

import "testing"

func TestTextSanitizer_Sanitize(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "プレーンテキストはそのまま", input: "Alice", want: "Alice"},
		{name: "日本語はそのまま", input: "山田 太郎", want: "山田 太郎"},
		{name: "タグは除去される", input: "<b>Alice</b>", want: "Alice"},
		{name: "scriptは中身ごと除去される", input: "Alice<script>alert(1)</script>", want: "Alice"},
		{name: "属性付きタグも除去される", input: `<a href="https://example.com" onclick="x()">Bob</a>`, want: "Bob"},
		{name: "アンパサンドは元に戻る", input: "Tom & Jerry", want: "Tom & Jerry"},
		{name: "前後の空白は除去される", input: "  Carol  ", want: "Carol"},
		{name: "空文字列", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestTextSanitizer_Idempotent は同一入力に対して同一出力を返すことを検証する。
func TestTextSanitizer_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()
	input := "<i>Dave</i> &amp; co"

	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(input)
	if first != second {
		t.Errorf("Sanitize is not deterministic: %q vs %q", first, second)
	}
}
