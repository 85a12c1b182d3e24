package extract

import (
	"slices"

	"github.com/google/uuid"

	"github.com/MrWong99/lexora/internal/difficulty"
	"github.com/MrWong99/lexora/internal/rank"
	"github.com/MrWong99/lexora/pkg/types"
)

// itemNamespace scopes item IDs so that they never collide with UUIDv5 values
// minted by other systems for the same strings.
var itemNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/MrWong99/lexora/vocabulary-item"))

// ItemID derives the stable identifier of a vocabulary item from its source
// and translation texts.
func ItemID(source, translation string) string {
	return uuid.NewSHA1(itemNamespace, []byte(source+":"+translation)).String()
}

func newItem(r rank.Ranked, a difficulty.Assessment) types.VocabularyItem {
	c := r.Candidate
	tags := slices.Clone(c.Tags)
	if tags == nil {
		tags = []string{}
	}
	notes := slices.Clone(c.Notes)
	if n := levelNote(c.Language, a.Label); n != "" {
		notes = append(notes, n)
	}
	return types.VocabularyItem{
		ID:                   ItemID(c.Text, c.Meaning),
		SourceText:           c.Text,
		TranslationText:      c.Meaning,
		Reading:              c.Reading,
		Difficulty:           a.Level,
		DifficultyLabel:      a.Label,
		DifficultySource:     a.Source,
		DifficultyConfidence: a.Confidence,
		Category:             c.Category,
		Tags:                 tags,
		Context:              c.Context,
		SourceLanguage:       c.Language,
		PriorityScore:        r.Score,
		ExtractionMethod:     c.Method,
		LearningNotes:        notes,
		Span:                 c.Span,
	}
}

func levelNote(lang types.Language, label string) string {
	switch {
	case label == "":
		return ""
	case lang == types.Japanese:
		return "JLPT level: " + label
	}
	return "CEFR level: " + label
}
