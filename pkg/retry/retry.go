// Package retry は、レート制限で失敗しがちな生成APIの呼び出しを
// 有限回の指数バックオフで包む共通ラッパーを提供するのだ。
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Options はリトライの挙動を制御します。
type Options struct {
	// MaxAttempts は初回を含めた最大試行回数です。
	MaxAttempts int
	// InitialDelay は1回目の待機時間で、以降は試行ごとに倍加します。
	InitialDelay time.Duration
	// MaxJitter は各待機に加算されるランダムなゆらぎの上限です。
	// リトライの同期による集中アクセスを防ぐために入れるのだ。
	MaxJitter time.Duration
}

// DefaultOptions は標準のリトライ設定（5回・初期1秒・ゆらぎ1秒未満）を返します。
func DefaultOptions() Options {
	return Options{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxJitter:    time.Second,
	}
}

// sleepFn はテストから差し替えるための待機フックです。
var sleepFn = sleepContext

// Do は op を実行し、レート制限による失敗のみを待機付きで再試行します。
// それ以外の失敗は即座に伝播し、試行回数を使い切った場合は最後のエラーを返します。
// 待機の前には必ず ctx を確認するので、呼び出し側はいつでも中断できるのだ。
func Do[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !Retriable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == opts.MaxAttempts-1 {
			break
		}

		delay := opts.InitialDelay << attempt
		if opts.MaxJitter > 0 {
			delay += rand.N(opts.MaxJitter)
		}
		slog.Warn("レート制限を検知したためリトライするのだ",
			"attempt", attempt+1,
			"max_attempts", opts.MaxAttempts,
			"delay", delay.Round(time.Millisecond))

		if err := sleepFn(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// Retriable は、エラーがレート制限（リソース枯渇）由来かどうかを判定します。
func Retriable(err error) bool {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Retriable()
	}
	return false
}

// sleepContext は ctx のキャンセルを尊重して d だけ待機します。
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
