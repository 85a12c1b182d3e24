package types

import (
	"fmt"
	"strings"
)

// Level is an ordinal difficulty within the scale of an item's language.
// English uses CEFR (A1..C2 map to 1..6) and Japanese uses JLPT (N5..N1 map
// to 1..5). Higher is harder. The zero value means "not yet classified" and
// never leaves the pipeline.
type Level int

const (
	LevelUnknown Level = 0

	A1 Level = 1
	A2 Level = 2
	B1 Level = 3
	B2 Level = 4
	C1 Level = 5
	C2 Level = 6

	N5 Level = 1
	N4 Level = 2
	N3 Level = 3
	N2 Level = 4
	N1 Level = 5
)

var (
	cefrLabels = []string{"", "A1", "A2", "B1", "B2", "C1", "C2"}
	jlptLabels = []string{"", "N5", "N4", "N3", "N2", "N1"}
)

// MaxLevel returns the hardest level of the scale used by lang.
func MaxLevel(lang Language) Level {
	if lang == Japanese {
		return N1
	}
	return C2
}

// Valid reports whether l is a classified level within lang's scale.
func (l Level) Valid(lang Language) bool {
	return l >= 1 && l <= MaxLevel(lang)
}

// Label renders l in the notation of lang's scale, e.g. "B1" or "N3".
func (l Level) Label(lang Language) string {
	if !l.Valid(lang) {
		return ""
	}
	if lang == Japanese {
		return jlptLabels[l]
	}
	return cefrLabels[l]
}

// ParseLevel parses a CEFR ("A1".."C2") or JLPT ("N5".."N1") label. The
// returned language is the scale the label belongs to.
func ParseLevel(label string) (Level, Language, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for i, s := range cefrLabels {
		if i > 0 && s == label {
			return Level(i), English, nil
		}
	}
	for i, s := range jlptLabels {
		if i > 0 && s == label {
			return Level(i), Japanese, nil
		}
	}
	return LevelUnknown, "", fmt.Errorf("types: unknown difficulty label %q", label)
}
