// Package i18n embed dosyası, çeviri JSON dosyalarını binary'ye gömer.
//
// Çeviri dosyaları (en.json, uk.json) derleme zamanında binary'ye gömülür.
// Deploy edilen sunucu harici dosyalara ihtiyaç duymaz.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
)

// EmbeddedLocales, locales/ dizinindeki JSON dosyalarını içerir.
//
//go:embed locales/*.json
var EmbeddedLocales embed.FS

// LoadEmbedded, gömülü çevirileri yükler. main.go başlangıçta bir kez çağırır.
func LoadEmbedded() error {
	sub, err := fs.Sub(EmbeddedLocales, "locales")
	if err != nil {
		return fmt.Errorf("failed to open embedded locales: %w", err)
	}
	return Load(sub)
}
