package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"google.golang.org/genai"
)

// ErrNoImagePart は、レスポンスに画像パートが1つも含まれていなかった場合のエラーです。
// モデルが生成を拒否したかテキストのみを返した状態であり、同一リクエストの
// 自動リトライでは解決しないため致命的として扱うのだ。
var ErrNoImagePart = errors.New("モデルのレスポンスに画像が含まれていません")

// GenerateImage はマルチモーダル生成呼び出しを発行し、最初のインライン画像を返します。
// 参照画像（refs）はテキストプロンプトより前の順序付きパートとして渡されるので、
// キャラクターのポートレートや開始フレームによる条件付けが効くのだ。
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string, refs []domain.ConditioningImage) (*domain.ImageResponse, error) {
	// アスペクト比の指示はプロンプト末尾に明示的に付加する
	finalPrompt := fmt.Sprintf("%s Aspect ratio %s.", prompt, aspectRatio)

	parts := make([]*genai.Part, 0, len(refs)+1)
	for _, ref := range refs {
		parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MimeType))
	}
	parts = append(parts, genai.NewPartFromText(finalPrompt))

	config := &genai.GenerateContentConfig{
		Temperature:        c.cfg.Temperature,
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.raw.Models.GenerateContent(ctx, c.cfg.ImageModel, contents, config)
	if err != nil {
		return nil, wrapRemoteErr(err)
	}

	// コンテンツパートを順に走査し、最初のインライン画像を採用するのだ
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.ImageResponse{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}
	return nil, ErrNoImagePart
}
