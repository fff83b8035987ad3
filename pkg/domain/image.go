package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ConditioningImage は生成呼び出しに添える参照画像の生バイト列です。
// 保存された data URI からデコードされる一時的な値で、それ自体は永続化されません。
type ConditioningImage struct {
	Data     []byte
	MimeType string
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
}

// DataURI は画像レスポンスを data URI 形式にエンコードして返します。
func (r *ImageResponse) DataURI() string {
	return EncodeDataURI(r.Data, r.MimeType)
}

// EncodeDataURI はバイト列と MIME タイプから data URI を組み立てるのだ。
func EncodeDataURI(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI は data URI を ConditioningImage にデコードします。
// base64 エンコードされた data URI のみを受け付けます。
func DecodeDataURI(uri string) (ConditioningImage, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ConditioningImage{}, fmt.Errorf("data URIではありません: %q", truncate(uri, 32))
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return ConditioningImage{}, fmt.Errorf("data URIの区切りが見つかりません")
	}
	mimeType, found := strings.CutSuffix(meta, ";base64")
	if !found {
		return ConditioningImage{}, fmt.Errorf("base64形式のdata URIのみ対応しています")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ConditioningImage{}, fmt.Errorf("base64のデコードに失敗しました: %w", err)
	}
	return ConditioningImage{Data: data, MimeType: mimeType}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
