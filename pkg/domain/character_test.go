package domain

import (
	"testing"
)

func TestFindCharacter(t *testing.T) {
	chars := BuildCharactersMap([]Character{
		{Name: "alice", Description: "赤い外套の探偵"},
		{Name: "Bob", Description: "無口な助手"},
	})

	t.Run("大文字小文字を無視して照合できること", func(t *testing.T) {
		c := chars.FindCharacter("Alice")
		if c == nil {
			t.Fatal("'Alice' が 'alice' に一致しませんでした")
		}
		if c.Name != "alice" {
			t.Errorf("表示名は元の表記を保つべきです。期待値 'alice', 実際の値 '%s'", c.Name)
		}
	})

	t.Run("未登録の名前では nil が返ること", func(t *testing.T) {
		if c := chars.FindCharacter("Charlie"); c != nil {
			t.Errorf("未登録の名前で nil 以外が返りました: %+v", c)
		}
	})

	t.Run("nil マップでも安全に nil が返ること", func(t *testing.T) {
		var m CharactersMap
		if c := m.FindCharacter("alice"); c != nil {
			t.Error("nil マップで nil 以外が返りました")
		}
	})
}

func TestCharactersMap_Replace(t *testing.T) {
	chars := BuildCharactersMap([]Character{
		{Name: "Alice", Description: "赤い外套の探偵"},
		{Name: "Bob", Description: "無口な助手"},
	})

	// ポートレートの添付はレコード全体の置換として行うのだ
	updated := *chars.FindCharacter("ALICE")
	updated.PortraitImage = "data:image/png;base64,QUJD"
	chars.Replace(updated)

	if got := chars.FindCharacter("alice"); got == nil || got.PortraitImage == "" {
		t.Error("置換後のレコードにポートレートが反映されていません")
	}
	if got := chars.FindCharacter("bob"); got == nil || got.PortraitImage != "" {
		t.Error("他のキャラクターのレコードが影響を受けています")
	}
}
