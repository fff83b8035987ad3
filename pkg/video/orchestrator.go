// Package video は、長時間かかる動画生成ジョブの submit → poll → download を
// 管理するオーケストレーターなのだ。状態遷移は Idle → Generating → {Done, Error} のみで、
// シーンごとの VideoJobState を更新できるのはこのパッケージだけなのだよ。
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// デフォルト値の定義なのだ
const (
	// DefaultPollInterval はジョブ状態を再問い合わせする固定間隔です。
	DefaultPollInterval = 10 * time.Second
	// DefaultMessageInterval はプレースホルダーメッセージを巡回させる間隔です。
	DefaultMessageInterval = 4 * time.Second
)

// ErrStartFrameMissing は、開始フレームが無いまま動画生成を要求された場合のエラーです。
// 事前条件違反であり、状態遷移は一切発生しません。
var ErrStartFrameMissing = errors.New("開始フレームが存在しないため動画を生成できません")

// ErrMissingDownloadURI は、完了したジョブにダウンロードURIが含まれていなかった場合のエラーです。
var ErrMissingDownloadURI = errors.New("完了レスポンスにダウンロードURIがありません")

// JobHandle はリモート側の操作ハンドルを不透明に保持します。
type JobHandle any

// JobStatus はポーリング1回分の結果です。
type JobStatus struct {
	Done        bool
	DownloadURI string
}

// JobClient は動画ジョブのリモート操作の契約です。pkg/gemini が Veo 実装を提供します。
type JobClient interface {
	// Submit はプロンプトとシード画像からジョブを投入し、操作ハンドルを返します。
	Submit(ctx context.Context, prompt string, seed domain.ConditioningImage) (JobHandle, error)
	// Poll はジョブの現在の状態を問い合わせます。
	Poll(ctx context.Context, job JobHandle) (JobStatus, error)
	// Fetch は完成したアセットのバイト列とMIMEタイプを取得します。
	Fetch(ctx context.Context, uri string) ([]byte, string, error)
}

// ClipResult は取得済みの再生可能な動画データです。
type ClipResult struct {
	Data      []byte
	MimeType  string
	SourceURI string
}

// sleepFn はテストから差し替えるための待機フックです。
var sleepFn = sleepContext

// Orchestrator は1件の動画ジョブを最初から最後まで運転します。
type Orchestrator struct {
	jobs            JobClient
	pollInterval    time.Duration
	messageInterval time.Duration
	retryOpts       retry.Options
	// maxWait はポーリングに許す実時間の上限。0 なら無制限に待つ（元の挙動）。
	maxWait time.Duration
}

// Option は Orchestrator の挙動を調整します。
type Option func(*Orchestrator)

// WithPollInterval はポーリング間隔を変更します。
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.pollInterval = d }
}

// WithMessageInterval はメッセージ巡回間隔を変更します。
func WithMessageInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.messageInterval = d }
}

// WithRetryOptions はリモート呼び出しのリトライ設定を変更します。
func WithRetryOptions(opts retry.Options) Option {
	return func(o *Orchestrator) { o.retryOpts = opts }
}

// WithMaxWait はポーリングの実時間上限を設定します（0で無制限）。
func WithMaxWait(d time.Duration) Option {
	return func(o *Orchestrator) { o.maxWait = d }
}

// NewOrchestrator は Orchestrator を初期化します。
func NewOrchestrator(jobs JobClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		jobs:            jobs,
		pollInterval:    DefaultPollInterval,
		messageInterval: DefaultMessageInterval,
		retryOpts:       retry.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate は開始フレームをシードに動画ジョブを投入し、完了までポーリングして
// 再生可能な結果を返します。state の遷移はすべてこのメソッドが駆動します。
// ポーリングは各待機点で ctx を確認するので、呼び出し側はいつでも中断できるのだ。
func (o *Orchestrator) Generate(ctx context.Context, prompt, startFrame string, state *domain.VideoJobState) (*ClipResult, error) {
	// 事前条件: 開始フレームが無ければ状態遷移せずに即失敗する
	if startFrame == "" {
		return nil, ErrStartFrameMissing
	}

	state.Begin()
	stopMessages := o.rotateMessages(state)
	defer stopMessages()

	seed, err := domain.DecodeDataURI(startFrame)
	if err != nil {
		return nil, o.fail(state, fmt.Errorf("開始フレームのデコードに失敗しました: %w", err))
	}

	slog.Info("動画生成ジョブを投入するのだ", "prompt_len", len(prompt), "seed_mime", seed.MimeType)
	job, err := retry.Do(ctx, o.retryOpts, func(ctx context.Context) (JobHandle, error) {
		return o.jobs.Submit(ctx, prompt, seed)
	})
	if err != nil {
		return nil, o.fail(state, fmt.Errorf("動画ジョブの投入に失敗しました: %w", err))
	}

	status, err := o.awaitCompletion(ctx, job)
	if err != nil {
		return nil, o.fail(state, err)
	}

	// 完了ペイロードの検証: ダウンロードURIが無い完了は不正とみなす
	if status.DownloadURI == "" {
		return nil, o.fail(state, ErrMissingDownloadURI)
	}

	data, err := retry.Do(ctx, o.retryOpts, func(ctx context.Context) (fetched, error) {
		d, m, ferr := o.jobs.Fetch(ctx, status.DownloadURI)
		return fetched{d, m}, ferr
	})
	if err != nil {
		return nil, o.fail(state, fmt.Errorf("動画のダウンロードに失敗しました: %w", err))
	}

	stopMessages()
	state.MarkDone(status.DownloadURI)
	slog.Info("動画生成が完了したのだ", "bytes", len(data.data), "mime", data.mime)
	return &ClipResult{Data: data.data, MimeType: data.mime, SourceURI: status.DownloadURI}, nil
}

type fetched struct {
	data []byte
	mime string
}

// awaitCompletion は固定間隔でジョブ状態を再問い合わせし、完了するまで待ちます。
// 上限回数は設けない（生成には数分かかり得る）が、maxWait と ctx で中断できるのだ。
func (o *Orchestrator) awaitCompletion(ctx context.Context, job JobHandle) (JobStatus, error) {
	var deadline time.Time
	if o.maxWait > 0 {
		deadline = time.Now().Add(o.maxWait)
	}

	for {
		status, err := retry.Do(ctx, o.retryOpts, func(ctx context.Context) (JobStatus, error) {
			return o.jobs.Poll(ctx, job)
		})
		if err != nil {
			return JobStatus{}, fmt.Errorf("ジョブ状態の取得に失敗しました: %w", err)
		}
		if status.Done {
			return status, nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return JobStatus{}, fmt.Errorf("動画生成が %s 以内に完了しませんでした", o.maxWait)
		}
		slog.Info("動画を生成中なのだ...", "next_poll", o.pollInterval)
		if err := sleepFn(ctx, o.pollInterval); err != nil {
			return JobStatus{}, err
		}
	}
}

// fail は Error への遷移とエラーの伝播をまとめるヘルパーです。
// ユーザー向けには、この機能が実験的であり再試行で解決し得ることを示すのだ。
func (o *Orchestrator) fail(state *domain.VideoJobState, err error) error {
	state.MarkError(fmt.Sprintf("%s（動画生成は実験的な機能です。時間をおいて再試行してほしいのだ）", humanMessage(err)))
	return err
}

// humanMessage は構造化エラーから人間向けメッセージを取り出します。
// 構造化されていない場合はエラー文字列をそのまま使います。
func humanMessage(err error) string {
	var remote *retry.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return err.Error()
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
