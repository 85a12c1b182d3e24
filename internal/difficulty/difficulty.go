// Package difficulty assigns JLPT levels to Japanese and CEFR levels to
// English vocabulary.
//
// A [Classifier] consults, in order: custom datasets, the built-in core
// lists, English stem and fuzzy lookups, an English frequency ranking, and
// finally script/length heuristics. Each step reports the source and a fixed
// confidence so callers can tell a curated level from a guess. When nothing
// applies the level defaults to B1 (English) or N3 (Japanese).
package difficulty

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/width"

	"github.com/MrWong99/lexora/internal/langdetect"
	"github.com/MrWong99/lexora/pkg/types"
)

// Assessment sources.
const (
	SourceRule      = "rule"
	SourceCustom    = "custom"
	SourceCore      = "core"
	SourceStem      = "stem"
	SourceFuzzy     = "fuzzy"
	SourceFrequency = "frequency"
	SourceHeuristic = "heuristic"
	SourceDefault   = "default"
)

var confidence = map[string]float64{
	SourceRule:      1.0,
	SourceCustom:    0.95,
	SourceCore:      0.90,
	SourceStem:      0.85,
	SourceFuzzy:     0.80,
	SourceFrequency: 0.70,
	SourceHeuristic: 0.60,
	SourceDefault:   0.50,
}

// Frequency rank cut points for English. A rank at or below the first value
// maps to A1, the next to A2, and so on; anything beyond the last is C2.
var rankCutPoints = []int{500, 1200, 2000, 3000, 5000}

// Assessment is the outcome of classifying one expression.
type Assessment struct {
	Level      types.Level
	Label      string
	Source     string
	Confidence float64
}

func assessed(lvl types.Level, lang types.Language, source string) Assessment {
	return Assessment{Level: lvl, Label: lvl.Label(lang), Source: source, Confidence: confidence[source]}
}

// Classifier is read-only after construction and safe for concurrent use.
type Classifier struct {
	custom map[types.Language]map[string]types.Level
	core   map[types.Language]map[string]types.Level
	stems  map[string]types.Level
	ranks  map[string]int

	fuzzyThreshold float64
	fuzzy          *fuzzyIndex
}

// Option configures a [Classifier].
type Option func(*Classifier)

// WithDataset adds custom entries that take precedence over every built-in
// source. Later datasets override earlier ones.
func WithDataset(d *Dataset) Option {
	return func(c *Classifier) {
		if d == nil {
			return
		}
		m := c.custom[d.Language]
		if m == nil {
			m = make(map[string]types.Level, len(d.Entries))
			c.custom[d.Language] = m
		}
		for k, v := range d.Entries {
			m[normalize(k)] = v
		}
	}
}

// WithFrequency merges an English frequency ranking (word → rank, 1 is the
// most frequent) into the built-in one. Supplied ranks win.
func WithFrequency(ranks map[string]int) Option {
	return func(c *Classifier) {
		for w, r := range ranks {
			c.ranks[normalize(w)] = r
		}
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler similarity for fuzzy
// matches. Default: 0.90.
func WithFuzzyThreshold(v float64) Option {
	return func(c *Classifier) { c.fuzzyThreshold = v }
}

// New builds a Classifier over the built-in reference data.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		custom: make(map[types.Language]map[string]types.Level),
		core: map[types.Language]map[string]types.Level{
			types.English:  make(map[string]types.Level, len(coreEnglish)),
			types.Japanese: make(map[string]types.Level, len(coreJapanese)*2),
		},
		stems:          make(map[string]types.Level, len(coreEnglish)),
		ranks:          make(map[string]int, len(frequencyRanked)),
		fuzzyThreshold: defaultFuzzyThreshold,
	}
	for k, v := range coreEnglish {
		c.core[types.English][k] = v
		st := stemPhrase(k)
		if prev, ok := c.stems[st]; !ok || v < prev {
			c.stems[st] = v
		}
	}
	for _, e := range coreJapanese {
		c.core[types.Japanese][e.surface] = e.level
		if e.reading != "" {
			if _, taken := c.core[types.Japanese][e.reading]; !taken {
				c.core[types.Japanese][e.reading] = e.level
			}
		}
	}
	for i, w := range frequencyRanked {
		if _, dup := c.ranks[w]; !dup {
			c.ranks[w] = i + 1
		}
	}
	for _, o := range opts {
		o(c)
	}
	c.fuzzy = newFuzzyIndex(c.fuzzyThreshold, c.core[types.English])
	return c
}

// Assess returns the candidate's own level when it already carries a valid
// one and classifies its text otherwise.
func (c *Classifier) Assess(cand types.Candidate) Assessment {
	if cand.Level.Valid(cand.Language) {
		return assessed(cand.Level, cand.Language, SourceRule)
	}
	return c.Classify(cand.Text, cand.Language)
}

// Classify assigns a level to text in lang. Mixed or unknown languages are
// resolved by script detection.
func (c *Classifier) Classify(text string, lang types.Language) Assessment {
	if lang != types.English && lang != types.Japanese {
		d := langdetect.Detect(text)
		switch {
		case d.Language == types.English || d.Language == types.Japanese:
			lang = d.Language
		case d.JapaneseRatio > 0:
			lang = types.Japanese
		default:
			lang = types.English
		}
	}

	key := normalize(text)
	if key == "" {
		return assessed(defaultLevel(lang), lang, SourceDefault)
	}
	if lvl, ok := c.custom[lang][key]; ok && lvl.Valid(lang) {
		return assessed(lvl, lang, SourceCustom)
	}
	if lvl, ok := c.lookupCore(lang, key); ok {
		return assessed(lvl, lang, SourceCore)
	}

	if lang == types.Japanese {
		if lvl, ok := japaneseHeuristic(key); ok {
			return assessed(lvl, lang, SourceHeuristic)
		}
		return assessed(defaultLevel(lang), lang, SourceDefault)
	}

	if lvl, ok := c.stems[stemPhrase(key)]; ok {
		return assessed(lvl, lang, SourceStem)
	}
	if lvl, _, ok := c.fuzzy.match(key); ok {
		return assessed(lvl, lang, SourceFuzzy)
	}
	if lvl, ok := c.frequencyLevel(key); ok {
		return assessed(lvl, lang, SourceFrequency)
	}
	if lvl, ok := c.englishHeuristic(key); ok {
		return assessed(lvl, lang, SourceHeuristic)
	}
	return assessed(defaultLevel(lang), lang, SourceDefault)
}

func defaultLevel(lang types.Language) types.Level {
	if lang == types.Japanese {
		return types.N3
	}
	return types.B1
}

func (c *Classifier) lookupCore(lang types.Language, key string) (types.Level, bool) {
	core := c.core[lang]
	if lvl, ok := core[key]; ok {
		return lvl, true
	}
	if lang == types.Japanese {
		if lvl, ok := core[langdetect.ToHiragana(key)]; ok {
			return lvl, true
		}
	}
	return types.LevelUnknown, false
}

func (c *Classifier) frequencyLevel(word string) (types.Level, bool) {
	rank, ok := c.ranks[word]
	if !ok || rank <= 0 {
		return types.LevelUnknown, false
	}
	for i, cut := range rankCutPoints {
		if rank <= cut {
			return types.Level(i + 1), true
		}
	}
	return types.C2, true
}

// englishHeuristic rates a multi-word expression by its hardest known word
// and an unknown word by its length.
func (c *Classifier) englishHeuristic(key string) (types.Level, bool) {
	words := strings.Fields(key)
	var (
		hardest types.Level
		longest int
	)
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if w == "" {
			continue
		}
		longest = max(longest, len([]rune(w)))
		if len(words) == 1 {
			continue
		}
		if lvl, ok := c.wordLevel(w); ok && lvl > hardest {
			hardest = lvl
		}
	}
	if hardest != types.LevelUnknown {
		return hardest, true
	}
	switch {
	case longest == 0:
		return types.LevelUnknown, false
	case longest <= 4:
		return types.A2, true
	case longest <= 6:
		return types.B1, true
	case longest <= 9:
		return types.B2, true
	}
	return types.C1, true
}

func (c *Classifier) wordLevel(w string) (types.Level, bool) {
	if lvl, ok := c.custom[types.English][w]; ok {
		return lvl, true
	}
	if lvl, ok := c.core[types.English][w]; ok {
		return lvl, true
	}
	if lvl, ok := c.stems[stemPhrase(w)]; ok {
		return lvl, true
	}
	return c.frequencyLevel(w)
}

// japaneseHeuristic rates by script: kana-only words are usually basic,
// katakana loanwords intermediate, and the more kanji the harder.
func japaneseHeuristic(key string) (types.Level, bool) {
	var kanji, hira, kata int
	for _, r := range key {
		switch {
		case langdetect.IsKanji(r):
			kanji++
		case unicode.Is(unicode.Hiragana, r):
			hira++
		case unicode.Is(unicode.Katakana, r):
			kata++
		}
	}
	switch {
	case kanji+hira+kata == 0:
		return types.LevelUnknown, false
	case kanji == 0 && kata == 0:
		return types.N4, true
	case kanji == 0:
		return types.N3, true
	case kanji <= 2:
		return types.N3, true
	case kanji <= 4:
		return types.N2, true
	}
	return types.N1, true
}

// normalize folds full-width Latin to ASCII and half-width kana to full
// width, lower-cases, and collapses whitespace.
func normalize(s string) string {
	s = width.Fold.String(s)
	s = strings.ReplaceAll(s, "’", "'")
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func stemPhrase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if st, err := snowball.Stem(w, "english", true); err == nil && st != "" {
			words[i] = st
		}
	}
	return strings.Join(words, " ")
}
