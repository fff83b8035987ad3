package session

import (
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func testBoard() *domain.Storyboard {
	return &domain.Storyboard{
		Scenes: []domain.Scene{
			{ID: 1, Location: "Cafe", Time: "Morning", Mood: "Tense", Characters: []string{"Alice"}, CameraMovement: "static"},
			{ID: 2, Location: "Street", Time: "Noon", Mood: "Hopeful", CameraMovement: "pan"},
		},
		Characters: []domain.Character{
			{Name: "Alice", Description: "赤い外套の探偵"},
		},
	}
}

func TestSession_LoadStoryboard(t *testing.T) {
	s := New(domain.FindStyle("cinematic"))
	s.LoadStoryboard(testBoard())

	if len(s.Scenes()) != 2 {
		t.Fatalf("期待するシーン数 2, 実際 %d", len(s.Scenes()))
	}
	if _, ok := s.Frames(1); !ok {
		t.Error("シーン1のフレームが初期化されていません")
	}
	if s.VideoState(1).Status() != domain.VideoIdle {
		t.Error("動画ジョブ状態が Idle で初期化されていません")
	}
}

func TestSession_AttachPortrait(t *testing.T) {
	s := New(domain.FindStyle("anime"))
	s.LoadStoryboard(testBoard())

	uri := domain.EncodeDataURI([]byte{1, 2, 3}, "image/png")
	if err := s.AttachPortrait("ALICE", uri); err != nil {
		t.Fatalf("大文字小文字違いの添付に失敗しました: %v", err)
	}
	if c := s.FindCharacter("alice"); c == nil || c.PortraitImage != uri {
		t.Error("ポートレートが反映されていません")
	}

	if err := s.AttachPortrait("Charlie", uri); err == nil {
		t.Error("未登録キャラクターへの添付がエラーになりませんでした")
	}
}

func TestSession_GenerationFencing(t *testing.T) {
	t.Run("追い越された呼び出しの結果は破棄されること", func(t *testing.T) {
		s := New(domain.FindStyle("noir"))
		s.LoadStoryboard(testBoard())

		stale := s.BeginFrame(1, domain.FrameStart)
		fresh := s.BeginFrame(1, domain.FrameStart)

		// 新しい呼び出しが先に完了した
		if !s.CommitFrameImage(1, domain.FrameStart, fresh, "data:image/png;base64,TkVX") {
			t.Fatal("最新トークンの結果が適用されませんでした")
		}
		// 古い呼び出しが遅れて完了しても上書きしない
		if s.CommitFrameImage(1, domain.FrameStart, stale, "data:image/png;base64,T0xE") {
			t.Error("追い越されたトークンの結果が適用されました")
		}
		if got := s.FrameImage(1, domain.FrameStart); got != "data:image/png;base64,TkVX" {
			t.Errorf("古い結果が最新結果を上書きしています: %q", got)
		}
	})

	t.Run("連続再生成でも画像は1枚だけ残り、兄弟フレームに影響しないこと", func(t *testing.T) {
		s := New(domain.FindStyle("noir"))
		s.LoadStoryboard(testBoard())

		endToken := s.BeginFrame(1, domain.FrameEnd)
		s.CommitFrameImage(1, domain.FrameEnd, endToken, "data:image/png;base64,RU5E")

		for i := 0; i < 2; i++ {
			token := s.BeginFrame(1, domain.FrameStart)
			s.CommitFrameImage(1, domain.FrameStart, token, "data:image/png;base64,Uk9VTkQ=")
		}

		pair, _ := s.Frames(1)
		if pair.Start.Image != "data:image/png;base64,Uk9VTkQ=" {
			t.Error("再生成後の画像が期待値と異なります")
		}
		if pair.End.Image != "data:image/png;base64,RU5E" {
			t.Error("兄弟フレームの状態が変化しています")
		}
	})
}

func TestSession_FramePrompt(t *testing.T) {
	s := New(domain.FindStyle("cinematic"))
	s.LoadStoryboard(testBoard())

	s.SetFramePrompt(1, domain.FrameStart, "自動導出されたプロンプト")
	s.SetFramePrompt(1, domain.FrameStart, "ユーザーが編集したプロンプト")
	if got := s.FramePrompt(1, domain.FrameStart); got != "ユーザーが編集したプロンプト" {
		t.Errorf("編集後のプロンプトが保持されていません: %q", got)
	}
}
