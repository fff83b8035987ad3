package domain

import "sync"

// VideoJobStatus は動画生成ジョブの状態です。
type VideoJobStatus string

const (
	VideoIdle       VideoJobStatus = "idle"
	VideoGenerating VideoJobStatus = "generating"
	VideoDone       VideoJobStatus = "done"
	VideoError      VideoJobStatus = "error"
)

// VideoJobState はシーンごとに1つ存在する動画ジョブの有限状態レコードです。
// 遷移は Idle → Generating → {Done, Error} のみで、再実行時は Begin で Generating に戻る。
// 不変条件: Done に到達するのは ResultURL が非空のときだけ、
// Error に到達したとき ResultURL は必ず空なのだ。
// ポーリング中のメッセージ更新とワークフロー本体が別ゴルーチンになるため、内部でロックを持つ。
type VideoJobState struct {
	mu        sync.Mutex
	status    VideoJobStatus
	resultURL string
	message   string
}

// VideoJobSnapshot は VideoJobState のロック無しで扱える読み取り用コピーです。
type VideoJobSnapshot struct {
	Status    VideoJobStatus
	ResultURL string
	Message   string
}

// NewVideoJobState は Idle 状態のレコードを返します。
func NewVideoJobState() *VideoJobState {
	return &VideoJobState{status: VideoIdle}
}

// Begin はジョブ開始の遷移です。結果とメッセージはリセットされます。
func (s *VideoJobState) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = VideoGenerating
	s.resultURL = ""
	s.message = ""
}

// SetMessage はユーザーフィードバック用のメッセージを更新します。
// Generating 以外の状態では何もしない。ジョブの意味論には一切影響しないのだ。
func (s *VideoJobState) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != VideoGenerating {
		return
	}
	s.message = msg
}

// MarkDone は完了遷移です。resultURL が空のまま Done へ遷移することはありません。
func (s *VideoJobState) MarkDone(resultURL string) {
	if resultURL == "" {
		s.MarkError("動画の参照先が空のため完了にできません")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = VideoDone
	s.resultURL = resultURL
	s.message = ""
}

// MarkError は失敗遷移です。ResultURL は必ずクリアされます。
func (s *VideoJobState) MarkError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = VideoError
	s.resultURL = ""
	s.message = msg
}

// Snapshot は現在の状態の読み取り用コピーを返します。
func (s *VideoJobState) Snapshot() VideoJobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return VideoJobSnapshot{Status: s.status, ResultURL: s.resultURL, Message: s.message}
}

// Status は現在の状態を返します。
func (s *VideoJobState) Status() VideoJobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Generating はジョブが実行中かどうかを返します。
func (s *VideoJobState) Generating() bool {
	return s.Status() == VideoGenerating
}
