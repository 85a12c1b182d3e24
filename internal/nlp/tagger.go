// Package nlp discovers multi-word vocabulary (phrasal verbs, collocations and
// idiomatic expressions) that the curated pattern table does not cover.
//
// Linguistic analysis is delegated to a [Tagger]. Concrete backends live in
// sub-packages (kagome for Japanese, prose for English); [Null] stands in when
// no backend is configured, in which case the [Extractor] reports
// [ErrUnavailable] and the pipeline continues with pattern matching only.
package nlp

import (
	"context"
	"errors"

	"github.com/MrWong99/lexora/pkg/types"
)

// ErrUnavailable is returned when no analysis backend can serve a language.
// It signals degradation, not failure.
var ErrUnavailable = errors.New("nlp: backend unavailable")

// Capability is a bit set describing what a [Tagger] can produce.
type Capability uint8

const (
	CapTokenize Capability = 1 << iota
	CapPOS
	CapDependency
)

// Has reports whether c includes all of want.
func (c Capability) Has(want Capability) bool { return c&want == want }

// POS is a coarse, backend-independent part-of-speech tag modelled on the
// Universal Dependencies tag set.
type POS string

const (
	Noun         POS = "NOUN"
	ProperNoun   POS = "PROPN"
	Verb         POS = "VERB"
	Adjective    POS = "ADJ"
	Adverb       POS = "ADV"
	Adposition   POS = "ADP"
	Particle     POS = "PART"
	Determiner   POS = "DET"
	Pronoun      POS = "PRON"
	Auxiliary    POS = "AUX"
	Conjunction  POS = "CCONJ"
	Numeral      POS = "NUM"
	Interjection POS = "INTJ"
	Punctuation  POS = "PUNCT"
	Symbol       POS = "SYM"
	OtherPOS     POS = "X"
)

// IsContent reports whether p is an open-class, meaning-carrying tag.
func (p POS) IsContent() bool {
	switch p {
	case Noun, ProperNoun, Verb, Adjective, Adverb:
		return true
	}
	return false
}

// Token is a single analysed word.
type Token struct {
	Text string

	// Lemma is the dictionary form. Backends that cannot lemmatise return the
	// lower-cased surface.
	Lemma string

	// Reading is the kana reading of Japanese tokens.
	Reading string

	POS POS

	// Tag is the backend's native tag (Penn Treebank, IPA feature string...).
	Tag string

	// Span is the byte range of the token in the text passed to Analyze.
	// Start == End marks a token the backend normalised beyond recognition.
	Span types.Span

	// Head is the index within the sentence of the syntactic head, or -1.
	// Only meaningful when the tagger reports [CapDependency].
	Head int

	// Dep is the dependency relation to Head ("obj", "compound"...).
	Dep string
}

// Sentence is a run of tokens with its source text.
type Sentence struct {
	Text   string
	Span   types.Span
	Tokens []Token
}

// Tagger analyses text of a single language. Implementations must be safe
// for concurrent use.
type Tagger interface {
	// Language is the language this tagger analyses.
	Language() types.Language

	// Capabilities reports which fields of [Token] are populated.
	Capabilities() Capability

	// Analyze splits text into sentences and tokens. Returns [ErrUnavailable]
	// when the backend cannot run.
	Analyze(ctx context.Context, text string) ([]Sentence, error)
}

// Null is a [Tagger] that is never available.
type Null struct {
	Lang types.Language
}

var _ Tagger = Null{}

// Language implements [Tagger].
func (n Null) Language() types.Language { return n.Lang }

// Capabilities implements [Tagger].
func (Null) Capabilities() Capability { return 0 }

// Analyze implements [Tagger]. It always returns [ErrUnavailable].
func (Null) Analyze(context.Context, string) ([]Sentence, error) {
	return nil, ErrUnavailable
}
