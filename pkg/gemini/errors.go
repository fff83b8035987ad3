package gemini

import (
	"errors"

	"github.com/shouni/go-storyboard-kit/pkg/retry"

	"google.golang.org/genai"
)

// wrapRemoteErr は genai のAPIエラーを構造化された RemoteError に変換します。
// これにより、リトライ層はメッセージ文字列の再パースをせず
// ステータスフィールドの参照だけで再試行可否を判定できるのだ。
func wrapRemoteErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &retry.RemoteError{
			Code:    apiErr.Code,
			Status:  apiErr.Status,
			Message: apiErr.Message,
		}
	}
	// ネットワーク断などの非API系エラーはそのまま（致命的として）伝播する
	return err
}
