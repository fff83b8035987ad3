package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// analyzeCmd は、台本の構造化分解（Phase 1）だけを実行するのだ。
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "台本をシーンとキャラクターに分解して絵コンテJSONを保存しますなのだ。",
	Long: `台本テキストをLLMで解析し、順序付きのシーン一覧とキャラクターカタログを
絵コンテJSONとして保存するのだ。後続の frames / animate コマンドの入力になるのだよ。`,
	RunE: analyzeCommand,
}

func analyzeCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.ScriptFile == "" {
		return fmt.Errorf("ソース（--script-file）を指定してほしいのだ")
	}

	cfg := loadRuntimeConfig()

	slog.Info("台本の分解を開始するのだ！",
		"script", opts.ScriptFile,
		"text_model", cfg.GeminiTextModel,
		"output", opts.StoryboardFile)

	if err := pipeline.ExecuteAnalyzeOnly(ctx, cfg); err != nil {
		return fmt.Errorf("台本の分解中にエラーが発生したのだ: %w", err)
	}

	slog.Info("絵コンテ（JSON）の生成が完了したのだ！", "output_file", opts.StoryboardFile)
	return nil
}
