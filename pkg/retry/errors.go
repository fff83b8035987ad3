package retry

import (
	"fmt"
	"strings"
)

// RemoteError はリモート呼び出し層が設定する構造化エラーです。
// テキストメッセージの再パースではなく、ステータスのフィールド参照で分類できるようにするのだ。
type RemoteError struct {
	// Code はHTTP相当のステータスコードです（例: 429）。
	Code int
	// Status はシンボリックなステータス名です（例: "RESOURCE_EXHAUSTED"）。
	Status string
	// Message は人間向けのエラーメッセージです。
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("remote call failed (%d %s): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("remote call failed (%d): %s", e.Code, e.Message)
}

// Retriable はレート制限・リソース枯渇のシグネチャに一致するかを返します。
func (e *RemoteError) Retriable() bool {
	return e.Code == 429 || strings.EqualFold(e.Status, "RESOURCE_EXHAUSTED")
}
