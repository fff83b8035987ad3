package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/retry"

	"google.golang.org/genai"
)

// stubModel は決められたレスポンスを返すテスト用のテキストモデルなのだ。
type stubModel struct {
	calls    int
	response string
	err      error
}

func (s *stubModel) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

const threeScenesJSON = `[
	{"scene_id": 1, "location": "Cafe", "time": "Morning", "mood": "Tense", "characters": ["Alice", "Bob"], "camera_movement": "slow dolly in"},
	{"scene_id": 2, "location": "Street", "time": "Noon", "mood": "Hopeful", "characters": ["Alice"], "camera_movement": "tracking shot"},
	{"scene_id": 3, "location": "Rooftop", "time": "Night", "mood": "Melancholy", "characters": [], "camera_movement": "static wide shot"}
]`

func TestExtractScenes(t *testing.T) {
	t.Run("整形されたJSONから順序を保って3シーン返ること", func(t *testing.T) {
		stub := &stubModel{response: threeScenesJSON}
		a := New(stub)

		scenes, err := a.ExtractScenes(context.Background(), "ある朝、カフェで...")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(scenes) != 3 {
			t.Fatalf("期待するシーン数 3, 実際 %d", len(scenes))
		}
		if scenes[0].ID != 1 || scenes[2].ID != 3 {
			t.Error("配列の順序が保持されていません")
		}
		if scenes[0].Location != "Cafe" || scenes[0].Mood != "Tense" || scenes[0].CameraMovement != "slow dolly in" {
			t.Errorf("フィールドが正しくマッピングされていません: %+v", scenes[0])
		}
		if len(scenes[0].Characters) != 2 || scenes[0].Characters[0] != "Alice" {
			t.Errorf("キャラクターリストが不正です: %v", scenes[0].Characters)
		}
	})

	t.Run("コードブロックに包まれたJSONも受理できること", func(t *testing.T) {
		stub := &stubModel{response: "```json\n" + threeScenesJSON + "\n```"}
		a := New(stub)

		scenes, err := a.ExtractScenes(context.Background(), "台本")
		if err != nil {
			t.Fatalf("フェンス付きJSONの解析に失敗しました: %v", err)
		}
		if len(scenes) != 3 {
			t.Errorf("期待するシーン数 3, 実際 %d", len(scenes))
		}
	})

	t.Run("不正なJSONはスキーマエラーとなり再試行されないこと", func(t *testing.T) {
		stub := &stubModel{response: "ここにシーンの一覧を示します: ..."}
		a := New(stub)

		_, err := a.ExtractScenes(context.Background(), "台本")
		if !errors.Is(err, ErrInvalidResponse) {
			t.Fatalf("期待するエラー %v, 実際 %v", ErrInvalidResponse, err)
		}
		if stub.calls != 1 {
			t.Errorf("パース失敗で再試行されました: %d回", stub.calls)
		}
	})

	t.Run("必須フィールドの欠落はパース失敗と同じ扱いになること", func(t *testing.T) {
		// camera_movement が無いシーンを含む
		stub := &stubModel{response: `[{"scene_id": 1, "location": "Cafe", "time": "Morning", "mood": "Tense", "characters": []}]`}
		a := New(stub)

		_, err := a.ExtractScenes(context.Background(), "台本")
		if !errors.Is(err, ErrInvalidResponse) {
			t.Fatalf("欠落フィールドが検出されていません: %v", err)
		}
	})

	t.Run("空の台本では呼び出し前に失敗すること", func(t *testing.T) {
		stub := &stubModel{response: threeScenesJSON}
		a := New(stub)

		_, err := a.ExtractScenes(context.Background(), "   \n\t ")
		if !errors.Is(err, ErrEmptyScript) {
			t.Fatalf("期待するエラー %v, 実際 %v", ErrEmptyScript, err)
		}
		if stub.calls != 0 {
			t.Error("空の台本でリモート呼び出しが発生しました")
		}
	})
}

func TestExtractCharacters(t *testing.T) {
	t.Run("キャラクター一覧が返ること", func(t *testing.T) {
		stub := &stubModel{response: `[
			{"name": "Alice", "description": "赤い外套の探偵"},
			{"name": "Bob", "description": "無口な助手"}
		]`}
		a := New(stub)

		chars, err := a.ExtractCharacters(context.Background(), "台本")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(chars) != 2 || chars[0].Name != "Alice" {
			t.Errorf("抽出結果が不正です: %+v", chars)
		}
	})

	t.Run("不正なJSONはスキーマエラーになり再試行されないこと", func(t *testing.T) {
		stub := &stubModel{response: "{ broken"}
		a := New(stub)

		_, err := a.ExtractCharacters(context.Background(), "台本")
		if !errors.Is(err, ErrInvalidResponse) {
			t.Fatalf("期待するエラー %v, 実際 %v", ErrInvalidResponse, err)
		}
		if stub.calls != 1 {
			t.Errorf("パース失敗で再試行されました: %d回", stub.calls)
		}
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("片方の失敗で全体が失敗すること", func(t *testing.T) {
		// シーンもキャラクターも同じスタブを通るため、致命的エラーを返せば両方失敗する
		stub := &stubModel{err: &retry.RemoteError{Code: 401, Status: "UNAUTHENTICATED", Message: "bad key"}}
		a := New(stub)

		_, err := a.Analyze(context.Background(), "台本")
		if err == nil {
			t.Fatal("エラーが返りませんでした")
		}
	})

	t.Run("空の台本は即座に失敗すること", func(t *testing.T) {
		stub := &stubModel{}
		a := New(stub)
		if _, err := a.Analyze(context.Background(), ""); !errors.Is(err, ErrEmptyScript) {
			t.Fatalf("期待するエラー %v, 実際 %v", ErrEmptyScript, err)
		}
	})
}
