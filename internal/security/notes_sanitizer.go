// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NotesSanitizerService はワークアウトの自由記述メモをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// メモはプレーンテキストとして扱い、HTMLタグは一切許可しない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NotesSanitizerService はメモのサニタイズ機能のインターフェースを定義する。
// ワークアウトの保存前に使用される。
type NotesSanitizerService interface {
	// Sanitize はメモからHTMLタグを全て除去したプレーンテキストを返す。
	// 前後の空白は取り除く。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(notes string) string
}

// notesSanitizer はNotesSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type notesSanitizer struct {
	policy *bluemonday.Policy
}

// NewNotesSanitizer はNotesSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を除去する。
func NewNotesSanitizer() *notesSanitizer {
	return &notesSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はメモからHTMLタグを全て除去したプレーンテキストを返す。
// StrictPolicyは残ったテキストをエンティティ化するため、
// 保存値がプレーンテキストになるようアンエスケープして戻す。
func (s *notesSanitizer) Sanitize(notes string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(notes)))
}
