package domain

import "strings"

// Scene は台本から抽出された1シーンの構造化レコードなのだ。
// ID は台本中の登場順を示す1始まりの連番で、表示や保存パスの採番にも使われる。
type Scene struct {
	ID             int      `json:"scene_id"`
	Location       string   `json:"location"`
	Time           string   `json:"time"`
	Mood           string   `json:"mood"`
	Characters     []string `json:"characters"`
	CameraMovement string   `json:"camera_movement"`
}

// String はログ表示用の短い要約を返すのだ。
func (s Scene) String() string {
	return strings.TrimSpace(s.Location + " / " + s.Time + " / " + s.Mood)
}

// Storyboard は台本分解の成果物一式（シーン一覧とキャラクターカタログ）なのだ。
// JSONとして保存・再読込され、後続の生成工程の入力になる。
type Storyboard struct {
	Scenes     []Scene     `json:"scenes"`
	Characters []Character `json:"characters"`
}
