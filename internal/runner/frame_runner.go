package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/session"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-utils/urlpath"
	"golang.org/x/sync/errgroup"
)

// FrameRunner は、セッション内の全シーンの開始・終了フレームを生成して保存する
// ためのインターフェースなのだ。
type FrameRunner interface {
	// Run は全シーンのフレーム生成を実行し、保存したパスの一覧を返すのだ。
	Run(ctx context.Context) ([]string, error)
}

// SceneFrameRunner は、シーン間は並列、シーン内（開始→終了）は直列で
// フレーム生成を行う実体なのだ。流量制御は composer 内のリミッターに任せるのだ。
type SceneFrameRunner struct {
	composer *generator.FrameComposer
	session  *session.Session
	writer   remoteio.OutputWriter
	frameDir string // フレーム画像の保存先（ローカル or gs://...）
}

// NewSceneFrameRunner は、SceneFrameRunnerの新しいインスタンスを生成して返すのだ。
func NewSceneFrameRunner(fc *generator.FrameComposer, sess *session.Session, w remoteio.OutputWriter, frameDir string) *SceneFrameRunner {
	return &SceneFrameRunner{
		composer: fc,
		session:  sess,
		writer:   w,
		frameDir: frameDir,
	}
}

// Run は並列処理を用いて、各シーンのフレームを生成するメインロジックなのだ。
func (fr *SceneFrameRunner) Run(ctx context.Context) ([]string, error) {
	scenes := fr.session.Scenes()
	if len(scenes) == 0 {
		return nil, fmt.Errorf("シーンがありません。先に台本の分解を実行してほしいのだ")
	}

	slog.Info("並列フレーム生成を開始するのだ", "scenes", len(scenes))
	paths := make([][]string, len(scenes))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, scene := range scenes {
		i, scene := i, scene // ゴルーチンのクロージャ対策なのだ

		eg.Go(func() error {
			if err := fr.composer.GenerateSceneFrames(egCtx, scene.ID); err != nil {
				slog.Error("フレーム生成に失敗したのだ", "scene", scene.ID, "error", err)
				return err
			}

			saved, err := fr.saveSceneFrames(egCtx, scene.ID)
			if err != nil {
				return err
			}
			paths[i] = saved
			slog.Info("シーンのフレーム生成に成功したのだ", "scene", scene.ID)
			return nil
		})
	}

	// すべての並列処理が完了するのを待つのだ
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	flat := make([]string, 0, len(scenes)*2)
	for _, p := range paths {
		flat = append(flat, p...)
	}
	slog.Info("すべてのフレームが正常に生成されたのだ", "total", len(flat))
	return flat, nil
}

// saveSceneFrames は1シーン分の開始・終了フレームをデコードして書き出すのだ。
func (fr *SceneFrameRunner) saveSceneFrames(ctx context.Context, sceneID int) ([]string, error) {
	var saved []string
	for _, slot := range []domain.FrameSlot{domain.FrameStart, domain.FrameEnd} {
		uri := fr.session.FrameImage(sceneID, slot)
		if uri == "" {
			continue
		}
		img, err := domain.DecodeDataURI(uri)
		if err != nil {
			return nil, fmt.Errorf("フレーム画像のデコードに失敗しました: %w", err)
		}

		path, err := fr.framePath(sceneID, slot, img.MimeType)
		if err != nil {
			return nil, err
		}
		if err := fr.writer.Write(ctx, path, bytes.NewReader(img.Data), img.MimeType); err != nil {
			return nil, fmt.Errorf("フレーム画像 '%s' の保存に失敗しました: %w", path, err)
		}
		saved = append(saved, path)
	}
	return saved, nil
}

func (fr *SceneFrameRunner) framePath(sceneID int, slot domain.FrameSlot, mimeType string) (string, error) {
	return FrameAssetPath(fr.frameDir, sceneID, slot, mimeType)
}

// FrameAssetPath は scene_<slot>.png にシーン番号を挿入した保存パスを組み立てるのだ。
// 例: output/frames/scene_start_3.png
func FrameAssetPath(frameDir string, sceneID int, slot domain.FrameSlot, mimeType string) (string, error) {
	base, err := urlpath.ResolveOutputPath(frameDir, fmt.Sprintf("scene_%s%s", slot, extensionFor(mimeType)))
	if err != nil {
		return "", err
	}
	return urlpath.GenerateIndexedPath(base, sceneID)
}

// extensionFor は主要な画像MIMEタイプを拡張子へ変換するのだ。
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
