// Package langdetect classifies text as Japanese, English or mixed by counting
// script membership.
//
// The decision rule is deliberately simple and fixed: the Japanese share of
// non-whitespace characters wins above 0.3, otherwise the Latin share wins
// above 0.5, otherwise the text is mixed. The same detector drives both the
// extraction pipeline and the response-language mixing policy in langmix.
package langdetect

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrWong99/lexora/pkg/types"
)

const (
	// JapaneseThreshold is the Japanese share above which text is Japanese.
	JapaneseThreshold = 0.3

	// EnglishThreshold is the Latin share above which text is English.
	EnglishThreshold = 0.5
)

// Detection is the outcome of classifying a text span.
type Detection struct {
	Language   types.Language `json:"language"`
	Confidence float64        `json:"confidence"`

	JapaneseRatio float64 `json:"japanese_ratio"`
	EnglishRatio  float64 `json:"english_ratio"`
}

// Counts holds raw character tallies for a span. Whitespace is never counted.
type Counts struct {
	Japanese int
	Latin    int
	Total    int
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.Japanese += o.Japanese
	c.Latin += o.Latin
	c.Total += o.Total
}

// Count tallies the characters of text.
func Count(text string) Counts {
	var c Counts
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		c.Total++
		switch {
		case IsJapanese(r):
			c.Japanese++
		case isLatin(r):
			c.Latin++
		}
	}
	return c
}

// IsJapanese reports whether r is hiragana, katakana or a common CJK ideograph.
func IsJapanese(r rune) bool {
	return IsKana(r) || IsKanji(r)
}

// IsKana reports whether r is hiragana or katakana.
func IsKana(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) || (r >= 0x30A0 && r <= 0x30FF)
}

// ToHiragana maps katakana to the corresponding hiragana, leaving every other
// rune (including the long vowel mark) untouched.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - ('ァ' - 'ぁ')
		}
		return r
	}, s)
}

// IsKanji reports whether r is in the CJK unified ideograph block used for
// Japanese kanji.
func IsKanji(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FAF
}

func isLatin(r rune) bool {
	return r < 0x100 && unicode.IsLetter(r)
}

// Detect classifies text.
func Detect(text string) Detection {
	return Classify(Count(text))
}

// Classify applies the decision rule to pre-computed counts.
func Classify(c Counts) Detection {
	if c.Total == 0 || (c.Japanese == 0 && c.Latin == 0) {
		return Detection{Language: types.Mixed}
	}
	d := Detection{
		JapaneseRatio: float64(c.Japanese) / float64(c.Total),
		EnglishRatio:  float64(c.Latin) / float64(c.Total),
	}
	switch {
	case d.JapaneseRatio > JapaneseThreshold:
		d.Language = types.Japanese
		d.Confidence = d.JapaneseRatio
	case d.EnglishRatio > EnglishThreshold:
		d.Language = types.English
		d.Confidence = d.EnglishRatio
	default:
		d.Language = types.Mixed
		d.Confidence = max(d.JapaneseRatio, d.EnglishRatio)
	}
	return d
}

// Segment is a sentence-level slice of a transcript with its own detection.
type Segment struct {
	Text      string
	Span      types.Span
	Detection Detection
	Counts    Counts
}

// Segments splits text at sentence terminators (Japanese and Latin) and line
// breaks, and classifies each piece. Segments that hold no characters other
// than whitespace are dropped. Offsets are byte offsets into text.
func Segments(text string) []Segment {
	var out []Segment
	start := 0
	flush := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			c := Count(trimmed)
			out = append(out, Segment{
				Text:      trimmed,
				Span:      types.Span{Start: start + lead, End: start + lead + len(trimmed)},
				Detection: Classify(c),
				Counts:    c,
			})
		}
		start = end
	}
	for i, r := range text {
		if isTerminator(r) {
			flush(i + len(string(r)))
		}
	}
	if start < len(text) {
		flush(len(text))
	}
	return out
}

func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '.', '\n':
		return true
	}
	return false
}

// maxContextRunes bounds the context snippet returned by [SentenceAt].
const maxContextRunes = 160

// Sentences indexes the sentence terminators of one text so that the
// sentence around any span can be found in logarithmic time. Build it once
// per text with [IndexSentences] when looking up many spans.
type Sentences struct {
	text string
	// starts and ends hold the byte range of every terminator, in order.
	starts []int
	ends   []int
}

// IndexSentences scans text once for sentence terminators.
func IndexSentences(text string) *Sentences {
	s := &Sentences{text: text}
	for i, r := range text {
		if isTerminator(r) {
			s.starts = append(s.starts, i)
			s.ends = append(s.ends, i+utf8.RuneLen(r))
		}
	}
	return s
}

// SentenceAt returns the trimmed sentence of text that contains sp. Very long
// sentences are cut to a window around the span.
func SentenceAt(text string, sp types.Span) string {
	return IndexSentences(text).At(sp)
}

// At returns the trimmed sentence containing sp, windowed to
// maxContextRunes around the span when the sentence is longer. An invalid
// span yields "".
func (s *Sentences) At(sp types.Span) string {
	text := s.text
	if sp.Start < 0 || sp.End > len(text) || sp.Start > sp.End {
		return ""
	}

	// The sentence opens after the last terminator ending at or before the
	// span and closes with the first terminator at or after its end.
	start := 0
	if k := sort.SearchInts(s.ends, sp.Start+1); k > 0 {
		start = s.ends[k-1]
	}
	end := len(text)
	if k := sort.SearchInts(s.starts, sp.End); k < len(s.starts) {
		end = s.ends[k]
		if text[s.starts[k]] == '\n' {
			end--
		}
	}
	raw := text[start:end]
	lo := start + len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	hi := start + len(strings.TrimRightFunc(raw, unicode.IsSpace))
	if lo >= hi {
		return ""
	}
	if !longerThan(text[lo:hi], maxContextRunes) {
		return text[lo:hi]
	}

	// Window the long sentence around the span start, measured in runes.
	center := min(max(sp.Start, lo), hi)
	a := center
	for n := 0; n < maxContextRunes/2 && a > lo; n++ {
		_, size := utf8.DecodeLastRuneInString(text[lo:a])
		a -= size
	}
	b, n := a, 0
	for ; n < maxContextRunes && b < hi; n++ {
		_, size := utf8.DecodeRuneInString(text[b:hi])
		b += size
	}
	for ; n < maxContextRunes && a > lo; n++ {
		_, size := utf8.DecodeLastRuneInString(text[lo:a])
		a -= size
	}
	return strings.TrimSpace(text[a:b])
}

// longerThan reports whether s holds more than n runes, without counting
// further.
func longerThan(s string, n int) bool {
	for range s {
		if n == 0 {
			return true
		}
		n--
	}
	return false
}
