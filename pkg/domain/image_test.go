package domain

import (
	"bytes"
	"testing"
)

func TestDataURI(t *testing.T) {
	t.Run("エンコードとデコードで往復できること", func(t *testing.T) {
		src := []byte{0x89, 0x50, 0x4E, 0x47}
		uri := EncodeDataURI(src, "image/png")

		img, err := DecodeDataURI(uri)
		if err != nil {
			t.Fatalf("デコードに失敗しました: %v", err)
		}
		if img.MimeType != "image/png" {
			t.Errorf("MIMEタイプが一致しません: %s", img.MimeType)
		}
		if !bytes.Equal(img.Data, src) {
			t.Error("バイト列が一致しません")
		}
	})

	t.Run("data URI以外はエラーになること", func(t *testing.T) {
		if _, err := DecodeDataURI("https://example.com/a.png"); err == nil {
			t.Error("通常のURLがデコードできてしまいました")
		}
	})

	t.Run("base64指定のないdata URIはエラーになること", func(t *testing.T) {
		if _, err := DecodeDataURI("data:text/plain,hello"); err == nil {
			t.Error("base64以外の形式が受理されてしまいました")
		}
	})
}
