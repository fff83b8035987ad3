package domain

import "testing"

func TestVideoJobState(t *testing.T) {
	t.Run("初期状態は Idle であること", func(t *testing.T) {
		s := NewVideoJobState()
		if s.Status() != VideoIdle {
			t.Errorf("期待値 %s, 実際の値 %s", VideoIdle, s.Status())
		}
	})

	t.Run("Done には非空の ResultURL が伴うこと", func(t *testing.T) {
		s := NewVideoJobState()
		s.Begin()
		s.MarkDone("output/clip_1.mp4")

		snap := s.Snapshot()
		if snap.Status != VideoDone || snap.ResultURL == "" {
			t.Errorf("Done 遷移が不正です: %+v", snap)
		}
	})

	t.Run("空URLでの完了は Error に落ちること", func(t *testing.T) {
		s := NewVideoJobState()
		s.Begin()
		s.MarkDone("")

		snap := s.Snapshot()
		if snap.Status != VideoError {
			t.Errorf("期待値 %s, 実際の値 %s", VideoError, snap.Status)
		}
		if snap.ResultURL != "" {
			t.Error("Error 状態で ResultURL が残っています")
		}
	})

	t.Run("Error では ResultURL がクリアされること", func(t *testing.T) {
		s := NewVideoJobState()
		s.Begin()
		s.MarkDone("output/clip_1.mp4")
		s.Begin()
		s.MarkError("失敗")

		snap := s.Snapshot()
		if snap.Status != VideoError || snap.ResultURL != "" {
			t.Errorf("Error 遷移が不正です: %+v", snap)
		}
	})

	t.Run("Generating 以外ではメッセージが更新されないこと", func(t *testing.T) {
		s := NewVideoJobState()
		s.SetMessage("まだ始まっていない")
		if s.Snapshot().Message != "" {
			t.Error("Idle 状態でメッセージが設定されました")
		}

		s.Begin()
		s.SetMessage("生成中...")
		if s.Snapshot().Message != "生成中..." {
			t.Error("Generating 状態でメッセージが設定されていません")
		}

		s.MarkError("失敗")
		s.SetMessage("遅れて届いた更新")
		if s.Snapshot().Message != "失敗" {
			t.Error("終了後にメッセージが上書きされました")
		}
	})
}
