// Package langmix derives the response-language mix for the conversational
// assistant. The primary language is the detected input language and the
// assistant is asked to keep at least [PrimaryShare] of its reply in it.
package langmix

import (
	"fmt"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"github.com/MrWong99/lexora/internal/langdetect"
	"github.com/MrWong99/lexora/pkg/types"
)

// PrimaryShare is the minimum fraction of a reply written in the primary
// language.
const PrimaryShare = 0.7

// minHintConfidence is the whatlanggo confidence required before its guess
// overrides the default for mixed input.
const minHintConfidence = 0.5

// Plan tells the external response generator how to mix languages.
type Plan struct {
	Primary      types.Language       `json:"primary"`
	Secondary    types.Language       `json:"secondary"`
	PrimaryShare float64              `json:"primary_share"`
	Detection    langdetect.Detection `json:"detection"`

	// TieBreak is set when the input was mixed and the primary language was
	// chosen by statistical identification instead of the ratio rule.
	TieBreak string `json:"tie_break,omitempty"`

	Instruction string `json:"instruction"`
}

// PlanFor builds the mixing plan for a user utterance.
func PlanFor(text string) Plan {
	det := langdetect.Detect(text)
	primary := det.Language
	var tieBreak string
	if primary == types.Mixed {
		primary, tieBreak = breakTie(text)
	}

	p := Plan{
		Primary:      primary,
		Secondary:    primary.Counterpart(),
		PrimaryShare: PrimaryShare,
		Detection:    det,
		TieBreak:     tieBreak,
	}
	p.Instruction = instruction(p)
	return p
}

// breakTie picks a primary language for input the ratio rule calls mixed.
// Japanese is the default.
func breakTie(text string) (types.Language, string) {
	info := whatlanggo.Detect(text)
	switch {
	case info.Lang == whatlanggo.Jpn || isJapaneseScript(info.Script):
		return types.Japanese, "whatlanggo:" + info.Lang.String()
	case info.Lang == whatlanggo.Eng && info.Confidence >= minHintConfidence:
		return types.English, "whatlanggo:" + info.Lang.String()
	}
	return types.Japanese, "default"
}

func isJapaneseScript(script *unicode.RangeTable) bool {
	return script == unicode.Hiragana || script == unicode.Katakana
}

func instruction(p Plan) string {
	pct := int(p.PrimaryShare * 100)
	switch p.Primary {
	case types.English:
		return fmt.Sprintf("The user is speaking English. Respond primarily in English (%d%%) and teach Japanese vocabulary in the remaining %d%%.", pct, 100-pct)
	default:
		return fmt.Sprintf("The user is speaking Japanese. Respond primarily in Japanese (%d%%) with English explanations in the remaining %d%%. Use Japanese script, not romaji.", pct, 100-pct)
	}
}
