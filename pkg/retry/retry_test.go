package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// withRecordedSleep は待機フックを差し替えて、実際には眠らずに待機時間だけ記録するのだ。
func withRecordedSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleepFn
	sleepFn = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleepFn = orig })
	return &delays
}

func TestDo_RateLimit(t *testing.T) {
	t.Run("レート制限エラーは上限まで再試行されること", func(t *testing.T) {
		delays := withRecordedSleep(t)
		opts := Options{MaxAttempts: 5, InitialDelay: 100 * time.Millisecond}

		calls := 0
		rateLimited := &RemoteError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"}
		_, err := Do(context.Background(), opts, func(ctx context.Context) (string, error) {
			calls++
			return "", rateLimited
		})

		if calls != 5 {
			t.Errorf("期待する試行回数 5, 実際 %d", calls)
		}
		if !errors.Is(err, rateLimited) {
			t.Errorf("最後のエラーが伝播していません: %v", err)
		}
		// 最終試行の後には待機しないので、待機回数は試行回数-1
		if len(*delays) != 4 {
			t.Fatalf("期待する待機回数 4, 実際 %d", len(*delays))
		}
		// ゆらぎ無し設定なので、待機時間は単調非減少（倍加）していること
		for i := 1; i < len(*delays); i++ {
			if (*delays)[i] < (*delays)[i-1] {
				t.Errorf("待機時間が減少しています: %v", *delays)
			}
		}
		if (*delays)[0] != 100*time.Millisecond || (*delays)[3] != 800*time.Millisecond {
			t.Errorf("指数バックオフになっていません: %v", *delays)
		}
	})

	t.Run("成功すればそれ以上呼ばれないこと", func(t *testing.T) {
		withRecordedSleep(t)
		opts := Options{MaxAttempts: 5, InitialDelay: time.Millisecond}

		calls := 0
		got, err := Do(context.Background(), opts, func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, &RemoteError{Code: 429, Message: "slow down"}
			}
			return 42, nil
		})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got != 42 || calls != 3 {
			t.Errorf("結果 %d / 試行 %d が期待値と異なります", got, calls)
		}
	})
}

func TestDo_FatalError(t *testing.T) {
	t.Run("レート制限以外のエラーは一切再試行されないこと", func(t *testing.T) {
		delays := withRecordedSleep(t)
		calls := 0
		fatal := &RemoteError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad request"}

		_, err := Do(context.Background(), DefaultOptions(), func(ctx context.Context) (string, error) {
			calls++
			return "", fatal
		})

		if calls != 1 {
			t.Errorf("致命的エラーで再試行されました: %d回", calls)
		}
		if len(*delays) != 0 {
			t.Error("致命的エラーで待機が発生しました")
		}
		if !errors.Is(err, fatal) {
			t.Errorf("エラーが加工されずに伝播していません: %v", err)
		}
	})

	t.Run("構造化されていないエラーも致命的として扱うこと", func(t *testing.T) {
		withRecordedSleep(t)
		calls := 0
		_, err := Do(context.Background(), DefaultOptions(), func(ctx context.Context) (string, error) {
			calls++
			return "", errors.New("network unreachable")
		})
		if calls != 1 || err == nil {
			t.Errorf("素のエラーが再試行されました: calls=%d err=%v", calls, err)
		}
	})
}

func TestDo_Cancellation(t *testing.T) {
	t.Run("キャンセル済みコンテキストでは待機せず中断されること", func(t *testing.T) {
		withRecordedSleep(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		_, err := Do(ctx, Options{MaxAttempts: 3, InitialDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
			calls++
			return "", &RemoteError{Code: 429}
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("キャンセルが伝播していません: %v", err)
		}
		if calls != 1 {
			t.Errorf("キャンセル後も再試行されました: %d回", calls)
		}
	})
}

func TestRemoteError_Retriable(t *testing.T) {
	cases := []struct {
		name string
		err  RemoteError
		want bool
	}{
		{"429はリトライ可能", RemoteError{Code: 429}, true},
		{"RESOURCE_EXHAUSTEDはリトライ可能", RemoteError{Code: 0, Status: "RESOURCE_EXHAUSTED"}, true},
		{"小文字のステータスでも一致する", RemoteError{Status: "resource_exhausted"}, true},
		{"認証エラーは致命的", RemoteError{Code: 401, Status: "UNAUTHENTICATED"}, false},
		{"不正リクエストは致命的", RemoteError{Code: 400, Status: "INVALID_ARGUMENT"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Retriable(); got != tc.want {
				t.Errorf("期待値 %v, 実際の値 %v", tc.want, got)
			}
		})
	}
}
