package builder

import (
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/session"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です（スタイル、パス、上限など）。
	Reader  remoteio.InputReader   // Readerは、台本や保存済み絵コンテの読み込みに使用する入力元です。
	Writer  remoteio.OutputWriter  // Writerは、生成されたフレームや動画を保存するための出力先です。
	Session *session.Session       // Sessionは、1回の生成セッションの共有状態（シーン、カタログ、フレーム）です。

	aiClient *gemini.Client // aiClient はGeminiの通信に使う共通クライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	aiClient *gemini.Client,
	reader remoteio.InputReader,
	writer remoteio.OutputWriter,
	sess *session.Session,
) AppContext {
	return AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Reader:   reader,
		Writer:   writer,
		Session:  sess,
		aiClient: aiClient,
	}
}
