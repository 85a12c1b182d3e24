// Package types defines the shared types used across all Lexora packages.
//
// These types form the lingua franca between the pattern matcher, the NLP
// extractor, the difficulty classifier, the ranker, the cache and the
// transports. Each package defines its own internal types, but cross-cutting
// data structures live here to avoid circular imports.
package types

// Language identifies the language of a transcript, segment or vocabulary item.
type Language string

const (
	Japanese Language = "japanese"
	English  Language = "english"

	// Mixed is only ever produced by language detection. Vocabulary items are
	// always attributed to a concrete language.
	Mixed Language = "mixed"
)

// IsValid reports whether l is a recognised language.
func (l Language) IsValid() bool {
	switch l {
	case Japanese, English, Mixed:
		return true
	}
	return false
}

// Counterpart returns the language a learner of l translates into.
func (l Language) Counterpart() Language {
	switch l {
	case Japanese:
		return English
	case English:
		return Japanese
	}
	return Mixed
}

// Category groups vocabulary by learning purpose.
type Category string

const (
	CategoryEssentialDaily    Category = "essential_daily"
	CategoryCommonGrammar     Category = "common_grammar"
	CategoryPoliteExpressions Category = "polite_expressions"
	CategoryGamingExpressions Category = "gaming_expressions"
	CategoryInternetSlang     Category = "internet_slang"
	CategoryVTuberCulture     Category = "vtuber_culture"
	CategoryPhrasalVerbs      Category = "phrasal_verbs"
	CategoryOther             Category = "other"
)

// Categories lists every category in canonical order.
func Categories() []Category {
	return []Category{
		CategoryEssentialDaily,
		CategoryCommonGrammar,
		CategoryPoliteExpressions,
		CategoryGamingExpressions,
		CategoryInternetSlang,
		CategoryVTuberCulture,
		CategoryPhrasalVerbs,
		CategoryOther,
	}
}

// IsValid reports whether c is a recognised category.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Method records which extraction stage produced an item, or which stages
// contributed to a result.
type Method string

const (
	MethodPattern Method = "pattern"
	MethodNLP     Method = "nlp"
	MethodHybrid  Method = "hybrid"
)

// IsValid reports whether m is a recognised method.
func (m Method) IsValid() bool {
	return m == MethodPattern || m == MethodNLP || m == MethodHybrid
}

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Len returns the length of the span in bytes.
func (s Span) Len() int { return s.End - s.Start }

// VocabularyItem is the unit of output of an extraction run.
type VocabularyItem struct {
	// ID is a deterministic identifier derived from the source and translation
	// texts, stable across runs and processes.
	ID string `json:"id"`

	// SourceText is the matched expression as it appears in the transcript.
	SourceText string `json:"source_text"`

	// TranslationText is the rendering in the counterpart language. May be
	// empty for NLP candidates that were not enriched.
	TranslationText string `json:"translation_text"`

	// Reading is the kana reading of Japanese items.
	Reading string `json:"reading,omitempty"`

	Difficulty           Level   `json:"difficulty"`
	DifficultyLabel      string  `json:"difficulty_label"`
	DifficultySource     string  `json:"difficulty_source"`
	DifficultyConfidence float64 `json:"difficulty_confidence"`

	Category Category `json:"category"`
	Tags     []string `json:"tags"`

	// Context is the sentence the expression was used in.
	Context string `json:"context"`

	SourceLanguage   Language `json:"source_language"`
	PriorityScore    float64  `json:"priority_score"`
	ExtractionMethod Method   `json:"extraction_method"`
	LearningNotes    []string `json:"learning_notes,omitempty"`

	// Span locates the expression in the source text. It is only meaningful
	// inside a single extraction run and is never serialised.
	Span Span `json:"-"`
}

// Stats summarises an extraction run.
type Stats struct {
	TotalExtracted   int     `json:"total_extracted"`
	JapaneseRatio    float64 `json:"japanese_ratio"`
	EnglishRatio     float64 `json:"english_ratio"`
	ExtractionMethod Method  `json:"extraction_method"`
}

// Result is the payload returned by an extraction and stored in the cache.
type Result struct {
	Items       []VocabularyItem `json:"items"`
	Stats       Stats            `json:"stats"`
	RuleVersion string           `json:"rule_version"`
	Enriched    bool             `json:"enriched"`
}

// Candidate is a raw match produced by the pattern matcher or the NLP
// extractor before classification, deduplication and ranking.
type Candidate struct {
	Text     string
	Meaning  string
	Reading  string
	Language Language
	Category Category
	Tags     []string

	// Level is zero when the producer does not know the difficulty.
	Level Level

	// PriorityWeight decides span conflicts. Higher wins.
	PriorityWeight int

	Span    Span
	Context string
	Method  Method
	Notes   []string

	// Source names the rule or heuristic that produced the candidate.
	Source string
}
