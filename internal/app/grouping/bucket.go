package grouping

import "unicode/utf8"

// Bucket labels outside A-Z.
const (
	BucketDigit = "#"
	BucketKanji = "漢字"
	BucketOther = "*"
)

// kanaOffset is the distance between the Katakana and Hiragana blocks.
const kanaOffset = 0x60

const (
	hiraganaFirst = 'ぁ' // U+3041
	hiraganaLast  = 'ゖ' // U+3096
	katakanaFirst = 'ァ' // U+30A1
	katakanaLast  = 'ヶ' // U+30F6
	kanjiFirst    = 0x4E00
	kanjiLast     = 0x9FFF
)

// kanaRow maps an inclusive hiragana range to its row label.
type kanaRow struct {
	first, last rune
	label       string
}

// Small kana sit with their row (ぁ with あ, ゃ with や, ゎ with わ).
var kanaRows = []kanaRow{
	{'ぁ', 'お', "ア"},
	{'か', 'ご', "カ"},
	{'さ', 'ぞ', "サ"},
	{'た', 'ど', "タ"},
	{'な', 'の', "ナ"},
	{'は', 'ぽ', "ハ"},
	{'ま', 'も', "マ"},
	{'ゃ', 'よ', "ヤ"},
	{'ら', 'ろ', "ラ"},
	{'ゎ', 'ん', "ワ"},
}

// canonicalBuckets is the fixed display order; "*" is always last.
var canonicalBuckets = func() []string {
	order := []string{BucketDigit}
	for c := 'A'; c <= 'Z'; c++ {
		order = append(order, string(c))
	}
	for _, row := range kanaRows {
		order = append(order, row.label)
	}
	return append(order, BucketKanji)
}()

var bucketRanks = func() map[string]int {
	ranks := make(map[string]int, len(canonicalBuckets))
	for i, label := range canonicalBuckets {
		ranks[label] = i
	}
	return ranks
}()

// CanonicalBuckets returns the named buckets in display order, followed by "*".
func CanonicalBuckets() []string {
	out := make([]string, 0, len(canonicalBuckets)+1)
	out = append(out, canonicalBuckets...)
	return append(out, BucketOther)
}

func bucketRank(label string) int {
	if label == BucketOther {
		return len(canonicalBuckets) + 1
	}
	if r, ok := bucketRanks[label]; ok {
		return r
	}
	return len(canonicalBuckets)
}

// Bucket returns the header label for a title, based on its first rune only.
// Only ASCII letters get a letter bucket: "Ångström" lands in "*".
func Bucket(title string) string {
	if title == "" {
		return BucketOther
	}
	c, _ := utf8.DecodeRuneInString(title)

	switch {
	case c >= '0' && c <= '9':
		return BucketDigit
	case c >= 'A' && c <= 'Z':
		return string(c)
	case c >= 'a' && c <= 'z':
		return string(c - 'a' + 'A')
	case c >= katakanaFirst && c <= katakanaLast:
		return kanaBucket(c - kanaOffset)
	case c >= hiraganaFirst && c <= hiraganaLast:
		return kanaBucket(c)
	case c >= kanjiFirst && c <= kanjiLast:
		return BucketKanji
	default:
		return BucketOther
	}
}

func kanaBucket(hiragana rune) string {
	for _, row := range kanaRows {
		if hiragana >= row.first && hiragana <= row.last {
			return row.label
		}
	}
	// ゔ, ゕ, ゖ
	return BucketOther
}
