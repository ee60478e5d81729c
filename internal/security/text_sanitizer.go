package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizeRounds はエンティティの多重エスケープを解く回数の上限。
const maxSanitizeRounds = 8

// TextSanitizer はAPIで受け取る自由記述テキスト（企業名、メモ等）からHTMLを取り除く。
// 結果はプレーンテキストであり、HTMLとして表示する側でのエスケープを前提とする。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
// ポリシーはbluemondayのStrictPolicy（全タグ除去、script/styleは中身ごと除去）。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去し、エンティティを元の文字に戻して前後の空白を除く。
//
// エスケープ済みのタグ（&lt;script&gt;等）は戻した後に再度タグ除去にかけ、
// 出力が変わらなくなるまで繰り返す。このため同一入力に対して常に同一出力となり、
// Sanitize(Sanitize(x)) == Sanitize(x) が成り立つ。
// 上限回数までに収束しない入力は空文字列にする。
// bluemonday.Policyは並行利用に安全。
func (s *TextSanitizer) Sanitize(text string) string {
	out := strings.TrimSpace(text)
	for range maxSanitizeRounds {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(out)))
		if next == out {
			return out
		}
		out = next
	}
	return ""
}
