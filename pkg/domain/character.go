package domain

import (
	"fmt"
	"strings"
)

// Character は台本に登場するキャラクターの定義を保持します。
// Name は表示用に元の表記を保ち、照合は常に大文字小文字を無視して行うのだ。
type Character struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// PortraitImage は一貫性保持のための参照画像（data URI）。未生成なら空。
	PortraitImage string `json:"portrait_image,omitempty"`
}

// CharactersMap は小文字化した名前をキーとしたキャラクターの検索用マップなのだ。
type CharactersMap map[string]Character

// BuildCharactersMap はスライス形式のデータを検索効率の良いマップ形式に変換するのだ。
// 同名（大文字小文字違いを含む）のキャラクターは後勝ちになる。
func BuildCharactersMap(chars []Character) CharactersMap {
	m := make(CharactersMap, len(chars))
	for _, c := range chars {
		m[strings.ToLower(c.Name)] = c
	}
	return m
}

// FindCharacter は名前からキャラクター情報を特定します。照合は大文字小文字を無視します。
// 見つからない場合は nil を返します。
func (m CharactersMap) FindCharacter(name string) *Character {
	if m == nil {
		return nil
	}
	if char, ok := m[strings.ToLower(name)]; ok {
		res := char
		return &res
	}
	return nil
}

// Replace はキャラクターレコード全体を置き換えます。
// ポートレート添付などの更新は、必ずレコード単位の置換として適用するのだ。
func (m CharactersMap) Replace(c Character) {
	m[strings.ToLower(c.Name)] = c
}

// Names はマップ内のキャラクター表示名を返します（順序は不定）。
func (m CharactersMap) Names() []string {
	names := make([]string, 0, len(m))
	for _, c := range m {
		names = append(names, c.Name)
	}
	return names
}

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	if c.PortraitImage != "" {
		return fmt.Sprintf("%s (portrait attached)", c.Name)
	}
	return c.Name
}
