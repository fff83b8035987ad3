package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-storyboard-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は addAppFlags で各フラグに紐付けられる実行時パラメータなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ScriptFile, "script-file", "f", "", "台本ファイルのパス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.StoryboardFile, "storyboard-file", "b", config.DefaultStoryboardFile, "絵コンテJSONのパス（読み書き両方に使うのだ）。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFrameDir, "output-frame-dir", "i", config.DefaultFrameDir, "フレーム画像を保存するディレクトリ（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputVideoDir, "output-video-dir", "v", config.DefaultVideoDir, "動画クリップを保存するディレクトリ（ローカル or gs://...）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.StyleID, "style", "s", config.DefaultStyleID, "映像スタイル（cinematic / anime / watercolor / noir）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.TextModel, "model", config.DefaultTextModel, "台本分解に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "フレーム生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.VideoModel, "video-model", config.DefaultVideoModel, "動画生成に使う Veo モデル名なのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().IntVarP(&opts.SceneLimit, "scene-limit", "l", config.DefaultSceneLimit, "処理するシーンの最大数（0で無制限）なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "アセットダウンロードのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.PollInterval, "poll-interval", config.DefaultPollInterval, "動画ジョブのポーリング間隔なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.MaxWait, "max-wait", 0, "動画ジョブの完了待ちの上限（0で無制限）なのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"storyboard-kit",
		addAppFlags,
		preRunAppE,
		generateCmd,
		analyzeCmd,
		framesCmd,
		animateCmd,
		stylesCmd,
	)
}
