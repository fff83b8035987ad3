package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/runner"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/session"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"golang.org/x/sync/errgroup"
)

// Execute は、台本の分解から動画生成までの全工程（Phase 1〜3）を一気に実行するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Phase 1: Analyze Phase (台本分解) ---
	if err := runAnalyzeStep(ctx, appCtx); err != nil {
		return err
	}

	// --- Phase 2: Frame Phase (ポートレートとフレーム生成) ---
	if err := runFrameStep(ctx, appCtx); err != nil {
		return err
	}

	// --- Phase 3: Animate Phase (動画生成) ---
	if err := runAnimateStep(ctx, appCtx); err != nil {
		return err
	}

	slog.Info("絵コンテから動画までの全工程が完了したのだ！")
	return nil
}

// ExecuteAnalyzeOnly は、台本を分解して絵コンテJSONを保存するだけの工程なのだ。
func ExecuteAnalyzeOnly(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	return runAnalyzeStep(ctx, appCtx)
}

// ExecuteFramesOnly は、保存済みの絵コンテJSONを読み込み、
// ポートレートとフレームの生成（Phase 2）だけを実行するのだ。
func ExecuteFramesOnly(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	if err := loadStoryboard(ctx, appCtx); err != nil {
		return err
	}
	return runFrameStep(ctx, appCtx)
}

// ExecuteAnimateOnly は、保存済みの絵コンテと開始フレーム画像を読み込み、
// 動画生成（Phase 3）だけを実行するのだ。
func ExecuteAnimateOnly(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	if err := loadStoryboard(ctx, appCtx); err != nil {
		return err
	}
	if err := loadStartFrames(ctx, appCtx); err != nil {
		return err
	}
	return runAnimateStep(ctx, appCtx)
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
// ライフサイクル管理用の context と設定オブジェクトを受け取るのだ。
// 初期化中にエラーが発生した場合は、AppContext のポインタとエラーを返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	aiClient, err := builder.InitializeAIClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai client: %w", err)
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	// セッションを一度だけ初期化。以降の全工程で共有されるのだ
	sess := session.New(domain.FindStyle(cfg.Options.StyleID))

	appCtx := builder.NewAppContext(cfg, aiClient, reader, writer, sess)
	return &appCtx, nil
}

// runAnalyzeStep は ScriptRunner で台本を分解し、絵コンテJSONを保存するのだ。
func runAnalyzeStep(ctx context.Context, appCtx *builder.AppContext) error {
	slog.Info("Phase 1: 台本の分解を開始するのだ...", "script", appCtx.Options.ScriptFile)
	az, err := builder.BuildAnalyzer(appCtx)
	if err != nil {
		return fmt.Errorf("Analyzerの構築に失敗したのだ: %w", err)
	}

	var scriptRunner runner.ScriptRunner = runner.NewStoryboardScriptRunner(
		appCtx.Options.ScriptFile,
		appCtx.Options.SceneLimit,
		az,
		appCtx.Reader,
	)
	board, err := scriptRunner.Run(ctx)
	if err != nil {
		return err
	}

	appCtx.Session.LoadStoryboard(board)

	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("絵コンテのJSON化に失敗しました: %w", err)
	}
	outputPath := appCtx.Options.StoryboardFile
	if err := appCtx.Writer.Write(ctx, outputPath, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("絵コンテ '%s' の保存に失敗しました: %w", outputPath, err)
	}

	slog.Info("絵コンテ（JSON）の保存が完了したのだ！", "path", outputPath)
	return nil
}

// runFrameStep はポートレートを揃えてから、FrameRunner で全シーンのフレームを生成するのだ。
func runFrameStep(ctx context.Context, appCtx *builder.AppContext) error {
	slog.Info("Phase 2: フレーム生成を開始するのだ...", "scenes", len(appCtx.Session.Scenes()))
	composer, err := builder.BuildComposer(appCtx)
	if err != nil {
		return fmt.Errorf("FrameComposerの構築に失敗したのだ: %w", err)
	}

	// ポートレートを先に揃えることで、全フレームがキャラクターの参照画像で
	// 条件付けされるのだ
	if err := runPortraitStep(ctx, appCtx, composer); err != nil {
		return err
	}

	var frameRunner runner.FrameRunner = runner.NewSceneFrameRunner(composer, appCtx.Session, appCtx.Writer, appCtx.Options.OutputFrameDir)
	paths, err := frameRunner.Run(ctx)
	if err != nil {
		return fmt.Errorf("フレーム生成に失敗したのだ: %w", err)
	}

	slog.Info("フレーム生成と保存が完了したのだ！", "files", len(paths))
	return nil
}

// runPortraitStep はカタログ上の全キャラクターの参照ポートレートを並行生成するのだ。
// 1人の失敗は警告に留めて続行する。ポートレートが無くてもテキスト記述で代替できるのだ。
func runPortraitStep(ctx context.Context, appCtx *builder.AppContext, composer *generator.FrameComposer) error {
	chars := appCtx.Session.Characters()
	if len(chars) == 0 {
		return nil
	}

	slog.Info("キャラクターポートレートを生成するのだ", "count", len(chars))
	eg, egCtx := errgroup.WithContext(ctx)
	for _, c := range chars {
		c := c
		eg.Go(func() error {
			if _, err := composer.GeneratePortrait(egCtx, c.Name); err != nil {
				slog.Warn("ポートレート生成に失敗したため、テキスト記述で代替するのだ",
					"character", c.Name, "error", err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// runAnimateStep は VideoRunner で全シーンの動画を生成するのだ。
func runAnimateStep(ctx context.Context, appCtx *builder.AppContext) error {
	slog.Info("Phase 3: 動画生成を開始するのだ...")
	orch, err := builder.BuildVideoOrchestrator(appCtx)
	if err != nil {
		return fmt.Errorf("Orchestratorの構築に失敗したのだ: %w", err)
	}

	pb := prompts.NewFrameBuilder(appCtx.Session.Style())
	var videoRunner runner.VideoRunner = runner.NewSceneVideoRunner(orch, appCtx.Session, pb, appCtx.Writer, appCtx.Options.OutputVideoDir)
	paths, err := videoRunner.Run(ctx)
	if err != nil {
		return fmt.Errorf("動画生成に失敗したのだ: %w", err)
	}

	slog.Info("動画生成と保存が完了したのだ！", "files", len(paths))
	return nil
}

// loadStoryboard は保存済みの絵コンテJSONを読み込んでセッションに取り込むのだ。
func loadStoryboard(ctx context.Context, appCtx *builder.AppContext) error {
	path := appCtx.Options.StoryboardFile
	rc, err := appCtx.Reader.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("絵コンテ '%s' の読み込みに失敗しました: %w", path, err)
	}
	defer rc.Close()

	var board domain.Storyboard
	if err := json.NewDecoder(rc).Decode(&board); err != nil {
		return fmt.Errorf("絵コンテ '%s' のデコードに失敗しました: %w", path, err)
	}

	appCtx.Session.LoadStoryboard(&board)
	slog.Info("保存済みの絵コンテを読み込んだのだ", "path", path, "scenes", len(board.Scenes))
	return nil
}

// loadStartFrames は保存済みの開始フレーム画像を読み込んでセッションに再投入するのだ。
// 見つからないシーンはスキップされ、動画生成の段階で警告されるのだ。
func loadStartFrames(ctx context.Context, appCtx *builder.AppContext) error {
	for _, scene := range appCtx.Session.Scenes() {
		path, err := runner.FrameAssetPath(appCtx.Options.OutputFrameDir, scene.ID, domain.FrameStart, "image/png")
		if err != nil {
			return err
		}

		rc, err := appCtx.Reader.Open(ctx, path)
		if err != nil {
			slog.Warn("開始フレームが見つからないのだ", "scene", scene.ID, "path", path)
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("開始フレーム '%s' の読み込みに失敗しました: %w", path, err)
		}

		token := appCtx.Session.BeginFrame(scene.ID, domain.FrameStart)
		appCtx.Session.CommitFrameImage(scene.ID, domain.FrameStart, token, domain.EncodeDataURI(data, "image/png"))
	}
	return nil
}
