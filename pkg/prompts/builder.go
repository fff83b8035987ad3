// Package prompts は、スタイル・シーン情報・キャラクター記述を合成して
// 画像生成用のプロンプトを組み立てるのだ。
package prompts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// フレーム種別ごとの演出指示なのだ
const (
	startFrameDirective = "Wide establishing shot introducing the scene."
	endFrameDirective   = "Close-up shot capturing the emotional development at the end of the scene. Maintain visual continuity with the provided start frame."
	portraitDirective   = "Character reference portrait, full face and upper body, neutral background, single character only."
)

var spaceRegex = regexp.MustCompile(`\s+`)

// FrameBuilder は、選択されたスタイルを前提にシーンのプロンプトを構築します。
// キャラクターカタログは生成の度に変化し得るため、構築時ではなく呼び出し時に受け取るのだ。
type FrameBuilder struct {
	style domain.Style
}

// NewFrameBuilder は FrameBuilder を生成します。
func NewFrameBuilder(style domain.Style) *FrameBuilder {
	return &FrameBuilder{style: style}
}

// ScenePrompt はシーンの基礎プロンプトと、条件付けに使うポートレートの一覧を返します。
//
// シーンに列挙された各キャラクター名はカタログと大文字小文字を無視して照合され、
//   - ポートレートがあれば「提供された参照画像に一致」と記述し、その画像を条件付けに回す
//   - 照合できても画像が無ければテキスト記述をそのまま使う
//   - 照合できなければ名前のリテラルにフォールバックする
//
// 連続する空白は1つに畳まれます。
func (b *FrameBuilder) ScenePrompt(scene domain.Scene, chars domain.CharactersMap) (string, []string) {
	descriptors := make([]string, 0, len(scene.Characters))
	portraits := make([]string, 0, len(scene.Characters))

	for _, name := range scene.Characters {
		c := chars.FindCharacter(name)
		switch {
		case c == nil:
			descriptors = append(descriptors, name)
		case c.PortraitImage != "":
			descriptors = append(descriptors, fmt.Sprintf("%s (matches the provided reference image)", c.Name))
			portraits = append(portraits, c.PortraitImage)
		default:
			descriptors = append(descriptors, fmt.Sprintf("%s: %s", c.Name, c.Description))
		}
	}

	present := "None"
	if len(descriptors) > 0 {
		present = strings.Join(descriptors, ", ")
	}

	prompt := fmt.Sprintf("%s Scene: %s, %s. Mood: %s. Characters present: %s.",
		b.style.PromptModifier, scene.Location, scene.Time, scene.Mood, present)
	return collapseSpaces(prompt), portraits
}

// StartFramePrompt は開始フレーム用のプロンプトを返します。
// ワイドな導入ショットの指示と、シーンのカメラワークが付加されるのだ。
func (b *FrameBuilder) StartFramePrompt(scene domain.Scene, chars domain.CharactersMap) (string, []string) {
	base, portraits := b.ScenePrompt(scene, chars)
	prompt := fmt.Sprintf("%s %s Camera: %s.", base, startFrameDirective, scene.CameraMovement)
	return collapseSpaces(prompt), portraits
}

// EndFramePrompt は終了フレーム用のプロンプトを返します。
// 返されるポートレート一覧に開始フレーム画像は含まれません。開始フレームを
// 条件付けの先頭に置くのは生成側（composer）の責務なのだ。
func (b *FrameBuilder) EndFramePrompt(scene domain.Scene, chars domain.CharactersMap) (string, []string) {
	base, portraits := b.ScenePrompt(scene, chars)
	prompt := fmt.Sprintf("%s %s", base, endFrameDirective)
	return collapseSpaces(prompt), portraits
}

// PortraitPrompt はキャラクターの参照ポートレート用プロンプトを返します。
func (b *FrameBuilder) PortraitPrompt(c domain.Character) string {
	prompt := fmt.Sprintf("%s %s %s", b.style.PromptModifier, portraitDirective, c.Description)
	return collapseSpaces(prompt)
}

// VideoPrompt はシーンのアニメーション用プロンプトを返します。
func (b *FrameBuilder) VideoPrompt(scene domain.Scene, chars domain.CharactersMap) string {
	base, _ := b.ScenePrompt(scene, chars)
	prompt := fmt.Sprintf("%s Animate the scene with natural motion. Camera: %s.", base, scene.CameraMovement)
	return collapseSpaces(prompt)
}

// collapseSpaces は連続する空白文字を1つのスペースに畳み、前後の空白を除去します。
func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}
