package domain

// Style は全生成アセットに一様に適用される画風の定義です。
// カタログは静的でセッション全体から共有され、実行時には読み取り専用なのだ。
type Style struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PreviewImage   string `json:"preview_image,omitempty"`
	PromptModifier string `json:"prompt_modifier"`
}

// DefaultStyles は組み込みのスタイルカタログです。
var DefaultStyles = []Style{
	{
		ID:             "cinematic",
		Name:           "シネマティック",
		PromptModifier: "Cinematic film still, dramatic lighting, shallow depth of field, 35mm photography, high detail.",
	},
	{
		ID:             "anime",
		Name:           "アニメ",
		PromptModifier: "Japanese anime style, cel-shaded, clean line art, vibrant colors, cinematic lighting, high resolution.",
	},
	{
		ID:             "watercolor",
		Name:           "水彩画",
		PromptModifier: "Soft watercolor painting, gentle brush strokes, muted palette, paper texture, storybook illustration.",
	},
	{
		ID:             "noir",
		Name:           "フィルム・ノワール",
		PromptModifier: "Black and white film noir, hard shadows, venetian blind lighting, 1940s atmosphere, grainy film stock.",
	},
}

// FindStyle は ID からスタイルを検索します。見つからない場合は先頭のスタイルを返すのだ。
func FindStyle(id string) Style {
	for _, s := range DefaultStyles {
		if s.ID == id {
			return s
		}
	}
	return DefaultStyles[0]
}
