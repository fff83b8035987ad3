// Package analyzer は、台本テキストを構造化出力制約付きのテキストモデルに渡し、
// シーンとキャラクターの構造化レコードへ分解するのだ。
package analyzer

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"text/template"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/retry"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

var (
	// ErrEmptyScript は空・空白のみの台本が渡された場合のエラーです（呼び出し側の事前条件）。
	ErrEmptyScript = errors.New("台本が空です。解析するテキストを渡してほしいのだ")
	// ErrInvalidResponse はモデル出力が期待するスキーマに一致しなかった場合のエラーです。
	// レート制限とは別系統の致命的エラーであり、自動リトライの対象にはならないのだ。
	ErrInvalidResponse = errors.New("モデルの出力が期待するスキーマに一致しません")
)

//go:embed scenes.md
var scenesInstruction string

//go:embed characters.md
var charactersInstruction string

var (
	scenesTemplate     = template.Must(template.New("scenes").Parse(scenesInstruction))
	charactersTemplate = template.Must(template.New("characters").Parse(charactersInstruction))

	// AIが付けがちなMarkdownコードブロックを取り除くための正規表現なのだ
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")
)

// TextModel は構造化出力制約付きのテキスト生成の契約です。pkg/gemini が実装を提供します。
type TextModel interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Analyzer は台本分解の2つの独立した操作を提供します。
type Analyzer struct {
	model     TextModel
	retryOpts retry.Options
}

// New は Analyzer を初期化します。
func New(model TextModel) *Analyzer {
	return &Analyzer{
		model:     model,
		retryOpts: retry.DefaultOptions(),
	}
}

// NewWithRetry はリトライ設定を差し替えて初期化します。
func NewWithRetry(model TextModel, opts retry.Options) *Analyzer {
	return &Analyzer{model: model, retryOpts: opts}
}

// Analyze はシーン抽出とキャラクター抽出を並行実行し、両方の結果をまとめて返します。
// どちらかが失敗すれば全体が失敗しますが、両方の完了を待ってから戻るのだ。
func (a *Analyzer) Analyze(ctx context.Context, script string) (*domain.Storyboard, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}

	var board domain.Storyboard
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		scenes, err := a.ExtractScenes(egCtx, script)
		if err != nil {
			return fmt.Errorf("シーン抽出に失敗しました: %w", err)
		}
		board.Scenes = scenes
		return nil
	})
	eg.Go(func() error {
		chars, err := a.ExtractCharacters(egCtx, script)
		if err != nil {
			return fmt.Errorf("キャラクター抽出に失敗しました: %w", err)
		}
		board.Characters = chars
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &board, nil
}

// sceneWire は必須フィールドの欠落を検出するため、ポインタ型で受けるワイヤ構造体なのだ。
type sceneWire struct {
	SceneID        *int      `json:"scene_id"`
	Location       *string   `json:"location"`
	Time           *string   `json:"time"`
	Mood           *string   `json:"mood"`
	Characters     *[]string `json:"characters"`
	CameraMovement *string   `json:"camera_movement"`
}

type characterWire struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ExtractScenes は台本をシーンの順序付きリストへ分解します。
func (a *Analyzer) ExtractScenes(ctx context.Context, script string) ([]domain.Scene, error) {
	raw, err := a.generate(ctx, scenesTemplate, script, sceneSchema)
	if err != nil {
		return nil, err
	}

	var wires []sceneWire
	if err := decodeStrict(raw, &wires); err != nil {
		return nil, err
	}

	scenes := make([]domain.Scene, 0, len(wires))
	for i, w := range wires {
		if w.SceneID == nil || w.Location == nil || w.Time == nil || w.Mood == nil || w.Characters == nil || w.CameraMovement == nil {
			return nil, fmt.Errorf("%w: シーン %d に必須フィールドが欠けています", ErrInvalidResponse, i+1)
		}
		scenes = append(scenes, domain.Scene{
			ID:             *w.SceneID,
			Location:       *w.Location,
			Time:           *w.Time,
			Mood:           *w.Mood,
			Characters:     *w.Characters,
			CameraMovement: *w.CameraMovement,
		})
	}
	slog.Info("シーン抽出が完了したのだ", "count", len(scenes))
	return scenes, nil
}

// ExtractCharacters は台本から登場キャラクターの一覧を抽出します。
func (a *Analyzer) ExtractCharacters(ctx context.Context, script string) ([]domain.Character, error) {
	raw, err := a.generate(ctx, charactersTemplate, script, characterSchema)
	if err != nil {
		return nil, err
	}

	var wires []characterWire
	if err := decodeStrict(raw, &wires); err != nil {
		return nil, err
	}

	chars := make([]domain.Character, 0, len(wires))
	for i, w := range wires {
		if w.Name == nil || w.Description == nil {
			return nil, fmt.Errorf("%w: キャラクター %d に必須フィールドが欠けています", ErrInvalidResponse, i+1)
		}
		chars = append(chars, domain.Character{
			Name:        *w.Name,
			Description: *w.Description,
		})
	}
	slog.Info("キャラクター抽出が完了したのだ", "count", len(chars))
	return chars, nil
}

// generate は指示テンプレートを組み立て、リトライ付きでモデルを呼び出します。
func (a *Analyzer) generate(ctx context.Context, tmpl *template.Template, script string, schema *genai.Schema) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", ErrEmptyScript
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, struct{ Script string }{Script: script}); err != nil {
		return "", fmt.Errorf("プロンプトの組み立てに失敗しました: %w", err)
	}

	return retry.Do(ctx, a.retryOpts, func(ctx context.Context) (string, error) {
		return a.model.GenerateJSON(ctx, sb.String(), schema)
	})
}

// decodeStrict はモデル出力からコードブロック等を剥がし、JSONとしてパースします。
// パース失敗はレート制限とは異なる致命的エラーとして ErrInvalidResponse に分類するのだ。
func decodeStrict(raw string, v any) error {
	cleaned := strings.TrimSpace(raw)
	if m := jsonBlockRegex.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
