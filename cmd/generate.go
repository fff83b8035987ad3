package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、台本の分解からフレーム・動画の生成までを一気に実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "台本から絵コンテ・フレーム・動画まで全工程を生成しますなのだ。",
	Long: `ソースとなる台本を解析し、シーン分解、キャラクターカタログ、
開始・終了フレーム画像、そして各シーンの動画クリップを順番に生成するのだ。
出力は絵コンテJSON、フレーム画像、動画ファイルになるのだよ。`,
	RunE: generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.ScriptFile == "" {
		return fmt.Errorf("ソース（--script-file）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := loadRuntimeConfig()

	slog.Info("絵コンテ生成パイプラインを起動するのだ！",
		"style", opts.StyleID,
		"text_model", cfg.GeminiTextModel,
		"image_model", cfg.GeminiImageModel,
		"video_model", cfg.GeminiVideoModel)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}

// loadRuntimeConfig は環境変数の設定にCLIフラグの上書きを重ねるのだ。
func loadRuntimeConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.GeminiTextModel = opts.TextModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.GeminiVideoModel = opts.VideoModel
	cfg.Options = opts
	return cfg
}
