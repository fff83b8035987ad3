package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/session"
	"github.com/shouni/go-storyboard-kit/pkg/video"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-utils/urlpath"
)

// VideoRunner は、各シーンの開始フレームを起点に動画クリップを生成して保存する
// ためのインターフェースなのだ。
type VideoRunner interface {
	// Run は全シーンの動画生成を実行し、保存したパスの一覧を返すのだ。
	Run(ctx context.Context) ([]string, error)
}

// SceneVideoRunner は、動画ジョブをシーンごとに直列で運転する実体なのだ。
// 動画生成は1件あたり数分かかり得るため、並列投入はせず順番に処理するのだよ。
type SceneVideoRunner struct {
	orch     *video.Orchestrator
	session  *session.Session
	prompts  *prompts.FrameBuilder
	writer   remoteio.OutputWriter
	videoDir string // 動画クリップの保存先（ローカル or gs://...）
}

// NewSceneVideoRunner は、SceneVideoRunnerの新しいインスタンスを生成して返すのだ。
func NewSceneVideoRunner(orch *video.Orchestrator, sess *session.Session, pb *prompts.FrameBuilder, w remoteio.OutputWriter, videoDir string) *SceneVideoRunner {
	return &SceneVideoRunner{
		orch:     orch,
		session:  sess,
		prompts:  pb,
		writer:   w,
		videoDir: videoDir,
	}
}

// Run は各シーンの動画を順番に生成するメインロジックなのだ。
// 開始フレームが無いシーンはスキップして警告を出すだけで、全体は止めないのだ。
func (vr *SceneVideoRunner) Run(ctx context.Context) ([]string, error) {
	scenes := vr.session.Scenes()
	if len(scenes) == 0 {
		return nil, fmt.Errorf("シーンがありません。先に台本の分解を実行してほしいのだ")
	}

	chars := vr.session.Characters()
	var saved []string
	for _, scene := range scenes {
		startFrame := vr.session.FrameImage(scene.ID, domain.FrameStart)
		if startFrame == "" {
			slog.Warn("開始フレームが無いためスキップするのだ", "scene", scene.ID)
			continue
		}

		prompt := vr.prompts.VideoPrompt(scene, chars)
		state := vr.session.VideoState(scene.ID)

		slog.Info("シーンの動画生成を開始するのだ", "scene", scene.ID)
		clip, err := vr.orch.Generate(ctx, prompt, startFrame, state)
		if err != nil {
			return saved, fmt.Errorf("シーン %d の動画生成に失敗しました: %w", scene.ID, err)
		}

		path, err := vr.clipPath(scene.ID)
		if err != nil {
			return saved, err
		}
		if err := vr.writer.Write(ctx, path, bytes.NewReader(clip.Data), clip.MimeType); err != nil {
			return saved, fmt.Errorf("動画 '%s' の保存に失敗しました: %w", path, err)
		}
		saved = append(saved, path)
		slog.Info("シーンの動画を保存したのだ", "scene", scene.ID, "path", path)
	}
	return saved, nil
}

// clipPath は scene.mp4 にシーン番号を挿入した保存パスを組み立てるのだ。
// 例: output/videos/scene_3.mp4
func (vr *SceneVideoRunner) clipPath(sceneID int) (string, error) {
	base, err := urlpath.ResolveOutputPath(vr.videoDir, "scene.mp4")
	if err != nil {
		return "", err
	}
	return urlpath.GenerateIndexedPath(base, sceneID)
}
