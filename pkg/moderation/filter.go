// Package moderation, yasaklı kelime listesini yükler ve mesaj metnini sansürler.
//
// Eşleşme kuralı: boşlukla ayrılmış her token küçük harfe çevrilir, baş ve
// sondaki ASCII noktalama işaretleri atılır; sonuç listede varsa token, kendi
// uzunluğunda yıldız dizisiyle değiştirilir. Token'lar tek boşlukla yeniden
// birleştirilir, orijinal boşluk düzeni korunmaz.
//
// Paket saf fonksiyonlardan oluşur: yükleme dışında I/O yoktur.
package moderation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// asciiPunctuation, token kenarlarından temizlenen karakterler.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// DefaultAssistantHandle, asistanı çağıran mention.
const DefaultAssistantHandle = "@sayory"

// WordSet, küçük harfli yasaklı kelime kümesi.
type WordSet map[string]struct{}

// Contains, kelimenin (zaten normalize edilmiş) kümede olup olmadığını söyler.
func (s WordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// NewWordSet, verilen kelimelerden küme oluşturur.
func NewWordSet(words ...string) WordSet {
	set := make(WordSet, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// LoadBannedWords, her satırda bir kelime olan listeyi okur.
// Boş satırlar atlanır, kelimeler küçük harfe çevrilir.
func LoadBannedWords(r io.Reader) (WordSet, error) {
	set := make(WordSet)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		set[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read banned words: %w", err)
	}

	return set, nil
}

// LoadBannedWordsFile, dosya yolundan liste yükler.
func LoadBannedWordsFile(path string) (WordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open banned words file: %w", err)
	}
	defer f.Close()

	return LoadBannedWords(f)
}

// Censor, yasaklı token'ları maskeler.
//
//	Censor("this is damn annoying", NewWordSet("damn")) → "this is **** annoying"
func Censor(text string, banned WordSet) string {
	words := strings.Fields(text)

	for i, word := range words {
		clean := strings.Trim(strings.ToLower(word), asciiPunctuation)
		if banned.Contains(clean) {
			words[i] = strings.Repeat("*", utf8.RuneCountInString(word))
		}
	}

	return strings.Join(words, " ")
}

// MentionsAssistant, metnin asistan mention'ı içerip içermediğini söyler.
func MentionsAssistant(text, handle string) bool {
	if handle == "" {
		handle = DefaultAssistantHandle
	}
	return strings.Contains(text, handle)
}
