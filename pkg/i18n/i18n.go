// Package i18n, kullanıcıya giden notice metinlerinin çeviri kataloğudur.
//
// Her dil locales/ altında tek bir JSON dosyasıdır (en.json, uk.json).
// Dosyalar bölüm → anahtar → metin şeklindedir ve "bölüm.anahtar" olarak okunur:
//
//	{"notice": {"room_blocked": "This chat is temporarily blocked."}}
//	→ "notice.room_blocked"
//
// Bağlantının dili handshake'te bir kez belirlenir (?lang=, sonra
// Accept-Language); oda geneline giden notice'ler sunucu varsayılan dilindedir.
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DefaultLanguage, eksik çeviri ve tanınmayan dil için kullanılan dil.
// Katalogda bu dilin dosyası zorunludur.
const DefaultLanguage = "en"

// Catalog, dil → ("bölüm.anahtar" → metin) haritası. Yüklendikten sonra salt okunur.
type Catalog struct {
	texts map[string]map[string]string
}

var (
	mu      sync.RWMutex
	current = &Catalog{texts: map[string]map[string]string{}}
)

// ParseCatalog, fsys kökündeki *.json dosyalarından katalog oluşturur.
// Dil kodu dosya adından gelir; varsayılan dilin dosyası yoksa hata döner.
func ParseCatalog(fsys fs.FS) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list locale files: %w", err)
	}

	c := &Catalog{texts: make(map[string]map[string]string, len(files))}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", name, err)
		}

		var sections map[string]map[string]string
		if err := json.Unmarshal(data, &sections); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", name, err)
		}

		lang := strings.ToLower(strings.TrimSuffix(path.Base(name), ".json"))
		texts := make(map[string]string)
		for section, entries := range sections {
			for key, text := range entries {
				texts[section+"."+key] = text
			}
		}
		c.texts[lang] = texts
	}

	if _, ok := c.texts[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("locale %s.json is required", DefaultLanguage)
	}
	return c, nil
}

// Languages, katalogdaki dil kodlarını sıralı döner.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.texts))
	for lang := range c.texts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func (c *Catalog) has(lang string) bool {
	_, ok := c.texts[lang]
	return ok
}

// Load, fsys'ten okunan kataloğu paket genelinde aktif yapar.
func Load(fsys fs.FS) error {
	c, err := ParseCatalog(fsys)
	if err != nil {
		return err
	}

	mu.Lock()
	current = c
	mu.Unlock()

	log.Printf("[i18n] notice catalog loaded: %s", strings.Join(c.Languages(), ", "))
	return nil
}

func active() *Catalog {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Localizer, tek bir dile bağlı çevirmen.
type Localizer struct {
	catalog *Catalog
	lang    string
}

// NewLocalizer, aktif katalog üzerinde lang için Localizer döner.
// Katalogda olmayan dil varsayılana düşer.
func NewLocalizer(lang string) *Localizer {
	c := active()
	lang = strings.ToLower(lang)
	if !c.has(lang) {
		lang = DefaultLanguage
	}
	return &Localizer{catalog: c, lang: lang}
}

// T, anahtarın metnini döner: önce kendi dili, sonra varsayılan dil, en son anahtarın kendisi.
func (l *Localizer) T(key string) string {
	if text, ok := l.catalog.texts[l.lang][key]; ok {
		return text
	}
	if text, ok := l.catalog.texts[DefaultLanguage][key]; ok {
		return text
	}
	return key
}

// TWithParams, metindeki {{ad}} yer tutucularını doldurur.
//
//	TWithParams("notice.room_deletion", map[string]string{"days": "12"})
//	→ "😑 This room will be DELETED in 12 days. 😑"
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	text := l.T(key)
	if len(params) == 0 {
		return text
	}

	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// DetectLanguage, Accept-Language değerinden (veya tek bir dil kodundan)
// katalogdaki en yüksek q değerli dili seçer. "uk-UA" → "uk".
// Eşit q'da header'daki sıra korunur; eşleşme yoksa varsayılan dil.
func DetectLanguage(acceptLanguage string) string {
	c := active()

	best, bestQ := DefaultLanguage, 0.0
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		lang, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(tag)), "-")
		if !c.has(lang) {
			continue
		}

		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q > bestQ {
			best, bestQ = lang, q
		}
	}
	return best
}
