// Package gemini は google.golang.org/genai の薄いラッパーとして、
// テキスト構造化出力・マルチモーダル画像生成・Veo動画ジョブの3系統の
// リモート呼び出しを1つの明示的なクライアントハンドルにまとめるのだ。
// クライアントはプロセス起動時に一度だけ構築し、各コンポーネントへ注入します。
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// デフォルト値の定義なのだ
const (
	DefaultTextModel   = "gemini-3-flash-preview"
	DefaultImageModel  = "gemini-3-pro-image-preview"
	DefaultVideoModel  = "veo-3.1-fast-generate-preview"
	DefaultHTTPTimeout = 60 * time.Second

	defaultTemperature = float32(0.2)
)

// Config はクライアントの構築設定です。
type Config struct {
	// APIKey は必須の認証情報です。空の場合は起動時エラーとなり、実行時には回復できません。
	APIKey      string
	TextModel   string
	ImageModel  string
	VideoModel  string
	Temperature *float32
	// HTTPTimeout はアセットダウンロード用HTTPクライアントのタイムアウトです。
	HTTPTimeout time.Duration
}

// Client は生成APIとの通信に使う共通クライアントです。
type Client struct {
	raw        *genai.Client
	cfg        Config
	httpClient *http.Client
}

// NewClient はクライアントを初期化します。APIキーが無い場合は即座に失敗します。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIキーが設定されていません。GEMINI_API_KEY は必須なのだ")
	}
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = DefaultVideoModel
	}
	if cfg.Temperature == nil {
		cfg.Temperature = genai.Ptr(defaultTemperature)
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}

	raw, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	return &Client{
		raw:        raw,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}, nil
}
