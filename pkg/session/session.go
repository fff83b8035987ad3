// Package session は、1回の生成セッションが持つ全状態（シーン、キャラクターカタログ、
// フレーム、動画ジョブ状態）をメモリ上で管理するのだ。状態はプロセスの寿命の間だけ保持される。
//
// フレーム画像の適用は世代カウンターで防護される: 生成開始時に発行されたトークンが
// 完了時点でも最新である場合に限り結果が反映され、追い越された呼び出しの結果は破棄される。
// 矢継ぎ早の再生成で古い結果が新しい結果を上書きする競合を防ぐためなのだ。
package session

import (
	"fmt"
	"sync"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

type slotKey struct {
	sceneID int
	slot    domain.FrameSlot
}

// Session は読み取り中心の共有状態なのだ。
type Session struct {
	mu       sync.RWMutex
	style    domain.Style
	scenes   []domain.Scene
	chars    domain.CharactersMap
	frames   map[int]*domain.FramePair
	videos   map[int]*domain.VideoJobState
	counters map[slotKey]uint64
}

// New は空のセッションを生成します。
func New(style domain.Style) *Session {
	return &Session{
		style:    style,
		chars:    make(domain.CharactersMap),
		frames:   make(map[int]*domain.FramePair),
		videos:   make(map[int]*domain.VideoJobState),
		counters: make(map[slotKey]uint64),
	}
}

// LoadStoryboard は分解結果をセッションに取り込みます。既存の生成状態はリセットされます。
func (s *Session) LoadStoryboard(board *domain.Storyboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes = append([]domain.Scene(nil), board.Scenes...)
	s.chars = domain.BuildCharactersMap(board.Characters)
	s.frames = make(map[int]*domain.FramePair, len(board.Scenes))
	s.videos = make(map[int]*domain.VideoJobState, len(board.Scenes))
	s.counters = make(map[slotKey]uint64)
	for _, scene := range board.Scenes {
		s.frames[scene.ID] = &domain.FramePair{}
		s.videos[scene.ID] = domain.NewVideoJobState()
	}
}

// Style は選択中のスタイルを返します。
func (s *Session) Style() domain.Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// Scenes はシーンのコピーを抽出順で返します。
func (s *Session) Scenes() []domain.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Scene(nil), s.scenes...)
}

// Scene はIDで1シーンを引きます。
func (s *Session) Scene(id int) (domain.Scene, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, scene := range s.scenes {
		if scene.ID == id {
			return scene, true
		}
	}
	return domain.Scene{}, false
}

// Characters はキャラクターカタログの防御的コピーを返します。
// 呼び出し元の変更が内部状態に漏れないようにするのだ。
func (s *Session) Characters() domain.CharactersMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make(domain.CharactersMap, len(s.chars))
	for k, v := range s.chars {
		copied[k] = v
	}
	return copied
}

// FindCharacter は名前でキャラクターを検索します。照合は大文字小文字を無視します。
func (s *Session) FindCharacter(name string) *domain.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chars.FindCharacter(name)
}

// AttachPortrait はキャラクターにポートレート画像を添付します。
// 更新は名前をキーにしたレコード全体の置換として適用され、他のレコードには影響しないのだ。
func (s *Session) AttachPortrait(name, portrait string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.chars.FindCharacter(name)
	if c == nil {
		return fmt.Errorf("キャラクター '%s' はカタログに存在しません", name)
	}
	updated := *c
	updated.PortraitImage = portrait
	s.chars.Replace(updated)
	return nil
}

// Frames は1シーン分のフレームの組のコピーを返します。
func (s *Session) Frames(sceneID int) (domain.FramePair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair, ok := s.frames[sceneID]
	if !ok {
		return domain.FramePair{}, false
	}
	return *pair, true
}

// SetFramePrompt はフレームのプロンプトを更新します。ユーザー編集も自動導出もここを通るのだ。
func (s *Session) SetFramePrompt(sceneID int, slot domain.FrameSlot, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pair, ok := s.frames[sceneID]; ok {
		pair.Get(slot).Prompt = prompt
	}
}

// FramePrompt は現在のプロンプト文字列を返します。
func (s *Session) FramePrompt(sceneID int, slot domain.FrameSlot) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pair, ok := s.frames[sceneID]; ok {
		return pair.Get(slot).Prompt
	}
	return ""
}

// FrameImage は現在のフレーム画像（data URI）を返します。未生成なら空です。
func (s *Session) FrameImage(sceneID int, slot domain.FrameSlot) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pair, ok := s.frames[sceneID]; ok {
		return pair.Get(slot).Image
	}
	return ""
}

// BeginFrame はフレーム生成の開始を記録し、この呼び出しを識別する世代トークンを返します。
func (s *Session) BeginFrame(sceneID int, slot domain.FrameSlot) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey{sceneID, slot}
	s.counters[key]++
	return s.counters[key]
}

// CommitFrameImage は生成結果を適用します。token が発行時から変わっていない場合のみ
// 画像が丸ごと置き換えられ、追い越された呼び出しの結果は破棄されて false が返るのだ。
func (s *Session) CommitFrameImage(sceneID int, slot domain.FrameSlot, token uint64, image string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counters[slotKey{sceneID, slot}] != token {
		return false
	}
	if pair, ok := s.frames[sceneID]; ok {
		pair.Get(slot).Image = image
		return true
	}
	return false
}

// VideoState はシーンの動画ジョブ状態レコードを返します。
// レコードはシーンごとに1つで、遷移の駆動は動画オーケストレーターに限られるのだ。
func (s *Session) VideoState(sceneID int) *domain.VideoJobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.videos[sceneID]
	if !ok {
		state = domain.NewVideoJobState()
		s.videos[sceneID] = state
	}
	return state
}
