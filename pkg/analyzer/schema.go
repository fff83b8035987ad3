package analyzer

import "google.golang.org/genai"

// sceneSchema は ExtractScenes のリクエストに載せる出力形状の制約です。
// 全フィールド必須のオブジェクト配列を強制するのだ。
var sceneSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"scene_id": {Type: genai.TypeInteger, Description: "1始まりの連番"},
			"location": {Type: genai.TypeString},
			"time":     {Type: genai.TypeString},
			"mood":     {Type: genai.TypeString},
			"characters": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"camera_movement": {Type: genai.TypeString},
		},
		Required: []string{"scene_id", "location", "time", "mood", "characters", "camera_movement"},
	},
}

// characterSchema は ExtractCharacters のリクエストに載せる出力形状の制約です。
var characterSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        {Type: genai.TypeString},
			"description": {Type: genai.TypeString, Description: "画像生成プロンプトに使える外見描写"},
		},
		Required: []string{"name", "description"},
	},
}
