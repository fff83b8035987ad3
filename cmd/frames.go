package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// framesCmd は、保存済みの絵コンテを基にフレーム生成（Phase 2）だけを実行するのだ。
var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "絵コンテJSONを読み込み、各シーンの開始・終了フレームを生成しますなのだ。",
	Long: `analyze で保存した絵コンテJSONを読み込み、キャラクターの参照ポートレートと
各シーンの開始・終了フレーム画像を生成して保存するのだ。
終了フレームは開始フレームの画像で条件付けされ、シーン内の視覚的連続性が保たれるのだよ。`,
	RunE: framesCommand,
}

func framesCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := loadRuntimeConfig()

	slog.Info("フレーム生成を開始するのだ！",
		"storyboard", opts.StoryboardFile,
		"style", opts.StyleID,
		"image_model", cfg.GeminiImageModel,
		"output", opts.OutputFrameDir)

	if err := pipeline.ExecuteFramesOnly(ctx, cfg); err != nil {
		return fmt.Errorf("フレーム生成中にエラーが発生したのだ: %w", err)
	}

	slog.Info("フレーム生成が完了したのだ！", "output_dir", opts.OutputFrameDir)
	return nil
}
