package video

import (
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// statusMessages はジョブ実行中に巡回表示されるプレースホルダーです。
// ジョブの意味論には一切影響しない、純粋なユーザーフィードバックなのだ。
var statusMessages = []string{
	"シーンを映像に起こしているのだ...",
	"カメラワークを調整しているのだ...",
	"フレームを補間しているのだ...",
	"ライティングを合わせているのだ...",
	"もう少しで完成するのだ...",
}

// rotateMessages は固定間隔でメッセージを巡回させるゴルーチンを起動し、
// 停止用の関数を返します。state が Generating を離れた瞬間に更新は止まる
// （SetMessage 側のガード）が、チャネルでゴルーチン自体も確実に終了させるのだ。
func (o *Orchestrator) rotateMessages(state *domain.VideoJobState) func() {
	state.SetMessage(statusMessages[0])

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(o.messageInterval)
		defer ticker.Stop()
		i := 1
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				state.SetMessage(statusMessages[i%len(statusMessages)])
				i++
			}
		}
	}()

	var once bool
	return func() {
		if !once {
			once = true
			close(done)
		}
	}
}
