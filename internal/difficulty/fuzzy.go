package difficulty

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/lexora/pkg/types"
)

const defaultFuzzyThreshold = 0.90

// fuzzyIndex finds the closest known English expression for misspelled or
// transcribed-by-ear input ("frend", "definately").
//
// Candidates are first filtered by Double Metaphone overlap, then ranked by
// Jaro-Winkler similarity. Entries must have the same number of words as the
// input. The index is read-only after construction.
type fuzzyIndex struct {
	threshold float64
	entries   []fuzzyEntry
}

type fuzzyEntry struct {
	key    string
	tokens []string
	codes  map[string]struct{}
	level  types.Level
}

func newFuzzyIndex(threshold float64, levels map[string]types.Level) *fuzzyIndex {
	idx := &fuzzyIndex{threshold: threshold, entries: make([]fuzzyEntry, 0, len(levels))}
	for key, lvl := range levels {
		toks := strings.Fields(key)
		idx.entries = append(idx.entries, fuzzyEntry{
			key:    key,
			tokens: toks,
			codes:  codesForTokens(toks),
			level:  lvl,
		})
	}
	return idx
}

// match returns the level of the most similar entry. Ties are broken by key
// so results do not depend on map iteration order.
func (idx *fuzzyIndex) match(key string) (types.Level, string, bool) {
	toks := strings.Fields(key)
	if len(toks) == 0 || len([]rune(key)) < 4 {
		return types.LevelUnknown, "", false
	}
	codes := codesForTokens(toks)

	var (
		best      fuzzyEntry
		bestScore float64
	)
	for _, e := range idx.entries {
		if len(e.tokens) != len(toks) || !codesOverlap(codes, e.codes) {
			continue
		}
		score := bestJWScore(toks, e.tokens, key, e.key)
		if score < idx.threshold {
			continue
		}
		if score > bestScore || (score == bestScore && e.key < best.key) {
			best, bestScore = e, score
		}
	}
	if bestScore == 0 {
		return types.LevelUnknown, "", false
	}
	return best.level, best.key, true
}

// codesForTokens returns the union of the Double Metaphone codes of tokens.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore is the higher of the full-string and space-stripped
// Jaro-Winkler similarities. Word pairs are not compared individually.
func bestJWScore(inputTokens, entryTokens []string, inputFull, entryFull string) float64 {
	score := matchr.JaroWinkler(inputFull, entryFull, false)
	if len(inputTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(entryTokens, ""), false); s > score {
			score = s
		}
	}
	return score
}
