package video

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// stubJobClient は決められたポーリング結果を順に返すテスト用クライアントなのだ。
type stubJobClient struct {
	submitCalls int
	pollCalls   int
	fetchCalls  int
	submitErr   error
	pollResults []JobStatus
	fetchData   []byte
	fetchErr    error
}

func (s *stubJobClient) Submit(ctx context.Context, prompt string, seed domain.ConditioningImage) (JobHandle, error) {
	s.submitCalls++
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return "job-1", nil
}

func (s *stubJobClient) Poll(ctx context.Context, job JobHandle) (JobStatus, error) {
	if s.pollCalls >= len(s.pollResults) {
		return JobStatus{}, errors.New("想定外のポーリング呼び出し")
	}
	res := s.pollResults[s.pollCalls]
	s.pollCalls++
	return res, nil
}

func (s *stubJobClient) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, "", s.fetchErr
	}
	return s.fetchData, "video/mp4", nil
}

// withCountedSleep は待機フックを差し替え、眠らずに待機回数だけ数えるのだ。
func withCountedSleep(t *testing.T) *int {
	t.Helper()
	count := 0
	orig := sleepFn
	sleepFn = func(ctx context.Context, d time.Duration) error {
		count++
		return ctx.Err()
	}
	t.Cleanup(func() { sleepFn = orig })
	return &count
}

func testStartFrame() string {
	return domain.EncodeDataURI([]byte{0x89, 0x50, 0x4E, 0x47}, "image/png")
}

func TestOrchestrator_Generate(t *testing.T) {
	t.Run("未完了2回の後に完了し、Done へ遷移すること", func(t *testing.T) {
		waits := withCountedSleep(t)
		stub := &stubJobClient{
			pollResults: []JobStatus{
				{Done: false},
				{Done: false},
				{Done: true, DownloadURI: "https://example.com/video.mp4?alt=media"},
			},
			fetchData: []byte("mp4-bytes"),
		}
		o := NewOrchestrator(stub, WithPollInterval(time.Millisecond), WithMessageInterval(time.Hour))

		state := domain.NewVideoJobState()
		if state.Status() != domain.VideoIdle {
			t.Fatalf("初期状態が Idle ではありません: %s", state.Status())
		}

		clip, err := o.Generate(context.Background(), "a quiet morning", testStartFrame(), state)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}

		if stub.pollCalls != 3 {
			t.Errorf("期待するポーリング回数 3, 実際 %d", stub.pollCalls)
		}
		if *waits != 2 {
			t.Errorf("期待する待機回数 2, 実際 %d", *waits)
		}
		snap := state.Snapshot()
		if snap.Status != domain.VideoDone || snap.ResultURL == "" {
			t.Errorf("Done 遷移が不正です: %+v", snap)
		}
		if string(clip.Data) != "mp4-bytes" || clip.MimeType != "video/mp4" {
			t.Errorf("取得結果が不正です: %+v", clip)
		}
	})

	t.Run("完了ペイロードにURIが無ければ Error になり ResultURL は空のままなこと", func(t *testing.T) {
		withCountedSleep(t)
		stub := &stubJobClient{
			pollResults: []JobStatus{{Done: true}},
		}
		o := NewOrchestrator(stub, WithPollInterval(time.Millisecond), WithMessageInterval(time.Hour))

		state := domain.NewVideoJobState()
		_, err := o.Generate(context.Background(), "prompt", testStartFrame(), state)
		if !errors.Is(err, ErrMissingDownloadURI) {
			t.Fatalf("期待するエラー %v, 実際 %v", ErrMissingDownloadURI, err)
		}

		snap := state.Snapshot()
		if snap.Status != domain.VideoError {
			t.Errorf("期待する状態 %s, 実際 %s", domain.VideoError, snap.Status)
		}
		if snap.ResultURL != "" {
			t.Error("Error 状態で ResultURL が設定されています")
		}
		if stub.fetchCalls != 0 {
			t.Error("URI の無い完了でダウンロードが実行されました")
		}
	})

	t.Run("開始フレームが無ければ状態遷移なしで即失敗すること", func(t *testing.T) {
		stub := &stubJobClient{}
		o := NewOrchestrator(stub)

		state := domain.NewVideoJobState()
		_, err := o.Generate(context.Background(), "prompt", "", state)
		if !errors.Is(err, ErrStartFrameMissing) {
			t.Fatalf("期待するエラー %v, 実際 %v", ErrStartFrameMissing, err)
		}
		if state.Status() != domain.VideoIdle {
			t.Errorf("事前条件違反で状態が遷移しました: %s", state.Status())
		}
		if stub.submitCalls != 0 {
			t.Error("事前条件違反でジョブが投入されました")
		}
	})

	t.Run("投入失敗時は Error に遷移し実験的機能の注意書きが付くこと", func(t *testing.T) {
		withCountedSleep(t)
		stub := &stubJobClient{
			submitErr: &retry.RemoteError{Code: 400, Status: "INVALID_ARGUMENT", Message: "seed image too large"},
		}
		o := NewOrchestrator(stub, WithMessageInterval(time.Hour))

		state := domain.NewVideoJobState()
		_, err := o.Generate(context.Background(), "prompt", testStartFrame(), state)
		if err == nil {
			t.Fatal("エラーが返りませんでした")
		}
		// 致命的エラーなので1回しか呼ばれないこと
		if stub.submitCalls != 1 {
			t.Errorf("致命的エラーで再試行されました: %d回", stub.submitCalls)
		}

		snap := state.Snapshot()
		if snap.Status != domain.VideoError {
			t.Errorf("期待する状態 %s, 実際 %s", domain.VideoError, snap.Status)
		}
		if snap.Message == "" {
			t.Error("エラーメッセージが設定されていません")
		}
	})

	t.Run("待機上限を超えたら打ち切られること", func(t *testing.T) {
		withCountedSleep(t)
		stub := &stubJobClient{
			pollResults: []JobStatus{{Done: false}, {Done: false}, {Done: false}},
		}
		o := NewOrchestrator(stub,
			WithPollInterval(time.Millisecond),
			WithMessageInterval(time.Hour),
			WithMaxWait(time.Nanosecond))

		state := domain.NewVideoJobState()
		_, err := o.Generate(context.Background(), "prompt", testStartFrame(), state)
		if err == nil {
			t.Fatal("上限超過でもエラーになりませんでした")
		}
		if state.Status() != domain.VideoError {
			t.Errorf("期待する状態 %s, 実際 %s", domain.VideoError, state.Status())
		}
	})
}
