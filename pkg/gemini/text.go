package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenerateJSON は、指定したスキーマに従うJSONをテキストモデルに生成させ、
// レスポンスのテキスト部分を返します。スキーマ適合はリクエスト設定で強制しますが、
// モデルは非決定的なので、呼び出し側でのパースと検証は省略できないのだ。
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      c.cfg.Temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := c.raw.Models.GenerateContent(ctx, c.cfg.TextModel, genai.Text(prompt), config)
	if err != nil {
		return "", wrapRemoteErr(err)
	}

	text := collectText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("モデルが空のレスポンスを返しました")
	}
	return text, nil
}

// collectText はレスポンスの全テキストパートを順に連結して返します。
func collectText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}
