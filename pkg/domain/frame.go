package domain

// FrameSlot はシーン内のフレーム位置（開始・終了）を表します。
type FrameSlot string

const (
	// FrameStart はシーンの冒頭を描くワイドな導入カットです。
	FrameStart FrameSlot = "start"
	// FrameEnd はシーンの結末を描くクローズアップのカットです。
	FrameEnd FrameSlot = "end"
)

// Frame は1枚の生成画像と、それを駆動するプロンプトを保持します。
// Prompt は自動導出後もユーザーが自由に編集でき、再生成時は現在の値をそのまま使うのだ。
// Image は data URI 形式で、再生成時は丸ごと置き換えられ、部分更新はされない。
type Frame struct {
	Prompt string `json:"prompt"`
	Image  string `json:"image,omitempty"`
}

// FramePair は1シーン分の開始・終了フレームの組です。シーンごとのワークフローが所有します。
type FramePair struct {
	Start Frame `json:"start"`
	End   Frame `json:"end"`
}

// Get は指定スロットのフレームを返します。
func (p *FramePair) Get(slot FrameSlot) *Frame {
	if slot == FrameEnd {
		return &p.End
	}
	return &p.Start
}
