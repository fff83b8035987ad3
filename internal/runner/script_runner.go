package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/analyzer"
	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// ScriptRunner は、台本テキストから絵コンテ（シーン＋キャラクターカタログ）を
// 生成するためのインターフェースなのだ。
type ScriptRunner interface {
	// Run は分解パイプラインを実行し、構造化された絵コンテを返すのだ。
	Run(ctx context.Context) (*domain.Storyboard, error)
}

// StoryboardScriptRunner は、台本の読み込みとLLMによる構造化分解を担う実体なのだ。
type StoryboardScriptRunner struct {
	scriptFile string               // 台本ファイルのパス（ローカル or gs://...）
	sceneLimit int                  // 0 は無制限
	analyzer   *analyzer.Analyzer   // 台本をシーンとキャラクターに分解するアナライザー
	reader     remoteio.InputReader // ローカルやGCSのファイルを読み込むリーダー
}

// NewStoryboardScriptRunner は、StoryboardScriptRunnerの新しいインスタンスを生成して返すのだ。
func NewStoryboardScriptRunner(scriptFile string, sceneLimit int, az *analyzer.Analyzer, r remoteio.InputReader) *StoryboardScriptRunner {
	return &StoryboardScriptRunner{
		scriptFile: scriptFile,
		sceneLimit: sceneLimit,
		analyzer:   az,
		reader:     r,
	}
}

// Run は、台本の読み込み、シーン抽出とキャラクター抽出の並行実行、
// 上限の適用までを一気に行うのだ。
func (sr *StoryboardScriptRunner) Run(ctx context.Context) (*domain.Storyboard, error) {
	script, err := sr.readScript(ctx)
	if err != nil {
		return nil, fmt.Errorf("台本 '%s' の読み込みに失敗しました: %w", sr.scriptFile, err)
	}

	board, err := sr.analyzer.Analyze(ctx, string(script))
	if err != nil {
		return nil, fmt.Errorf("台本の分解に失敗しました: %w", err)
	}

	// 指定があれば、処理するシーン数を制限するのだ（テスト用などに便利！）
	if sr.sceneLimit > 0 && len(board.Scenes) > sr.sceneLimit {
		slog.Info("シーン数に制限を適用したのだ", "limit", sr.sceneLimit, "total", len(board.Scenes))
		board.Scenes = board.Scenes[:sr.sceneLimit]
	}

	slog.Info("台本の分解が完了したのだ", "scenes", len(board.Scenes), "characters", len(board.Characters))
	return board, nil
}

// readScript は、リーダーを使って台本テキストを取得するのだ（GCS等も対応！）。
func (sr *StoryboardScriptRunner) readScript(ctx context.Context) ([]byte, error) {
	rc, err := sr.reader.Open(ctx, sr.scriptFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
