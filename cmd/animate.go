package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// animateCmd は、保存済みの開始フレームを基に動画生成（Phase 3）だけを実行するのだ。
var animateCmd = &cobra.Command{
	Use:   "animate",
	Short: "保存済みの開始フレームから各シーンの動画クリップを生成しますなのだ。",
	Long: `frames で保存した開始フレーム画像をシードに、各シーンの動画生成ジョブを
順番に投入して完了までポーリングし、動画クリップとして保存するのだ。
動画生成は1件あたり数分かかることがあるのだよ。`,
	RunE: animateCommand,
}

func animateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := loadRuntimeConfig()

	slog.Info("動画生成を開始するのだ！",
		"storyboard", opts.StoryboardFile,
		"video_model", cfg.GeminiVideoModel,
		"poll_interval", opts.PollInterval,
		"output", opts.OutputVideoDir)

	if err := pipeline.ExecuteAnimateOnly(ctx, cfg); err != nil {
		return fmt.Errorf("動画生成中にエラーが発生したのだ: %w", err)
	}

	slog.Info("動画生成が完了したのだ！", "output_dir", opts.OutputVideoDir)
	return nil
}
