package config

import (
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/gemini"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultTextModel  = gemini.DefaultTextModel
	DefaultImageModel = gemini.DefaultImageModel
	DefaultVideoModel = gemini.DefaultVideoModel

	DefaultHTTPTimeout  = 60 * time.Second
	DefaultRateLimit    = 30 * time.Second
	DefaultPollInterval = 10 * time.Second
	DefaultSceneLimit   = 0 // 0 は無制限なのだ

	DefaultStyleID = "cinematic"

	DefaultStoryboardFile = "output/storyboard.json" // 分解結果（シーン＋キャラクター）の保存先
	DefaultFrameDir       = "output/frames"          // 開始・終了フレーム画像の保存先
	DefaultVideoDir       = "output/videos"          // 生成された動画クリップの保存先
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiTextModel  string
	GeminiImageModel string
	GeminiVideoModel string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiTextModel:  envutil.GetEnv("GEMINI_MODEL", DefaultTextModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		GeminiVideoModel: envutil.GetEnv("VIDEO_GEMINI_MODEL", DefaultVideoModel),
	}
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	ScriptFile     string // --script-file
	StoryboardFile string // --storyboard-file

	// 生成結果の出力設定
	OutputFile     string // --output-file
	OutputFrameDir string // --output-frame-dir
	OutputVideoDir string // --output-video-dir

	// AI挙動設定
	TextModel  string // --model
	ImageModel string // --image-model
	VideoModel string // --video-model
	StyleID    string // --style

	// 実行制御
	SceneLimit   int           // --scene-limit
	HTTPTimeout  time.Duration // --http-timeout
	PollInterval time.Duration // --poll-interval
	MaxWait      time.Duration // --max-wait: 0 は完了まで無期限にポーリングするのだ
}
