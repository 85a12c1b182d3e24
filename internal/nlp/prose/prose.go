// Package prose implements an English nlp.Tagger on top of the prose
// tokenizer, sentence segmenter and averaged-perceptron POS tagger.
package prose

import (
	"context"
	"fmt"
	"strings"

	proselib "github.com/jdkato/prose/v2"

	"github.com/MrWong99/lexora/internal/nlp"
	"github.com/MrWong99/lexora/pkg/types"
)

// Tagger analyses English text. It holds no state and is safe for concurrent
// use.
type Tagger struct{}

var _ nlp.Tagger = Tagger{}

// New returns a Tagger.
func New() Tagger { return Tagger{} }

// Language implements nlp.Tagger.
func (Tagger) Language() types.Language { return types.English }

// Capabilities implements nlp.Tagger.
func (Tagger) Capabilities() nlp.Capability { return nlp.CapTokenize | nlp.CapPOS }

// Analyze implements nlp.Tagger. prose reports no offsets, so sentence and
// token surfaces are located left to right in text.
func (Tagger) Analyze(ctx context.Context, text string) ([]nlp.Sentence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := proselib.NewDocument(text, proselib.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("prose: analyze: %w", err)
	}

	var sents []nlp.Sentence
	pos := 0
	for _, ps := range doc.Sentences() {
		s := nlp.Sentence{Text: ps.Text}
		if i := strings.Index(text[pos:], ps.Text); i >= 0 {
			s.Span = types.Span{Start: pos + i, End: pos + i + len(ps.Text)}
			pos = s.Span.End
		}
		sents = append(sents, s)
	}
	if len(sents) == 0 {
		sents = []nlp.Sentence{{Text: text, Span: types.Span{Start: 0, End: len(text)}}}
	}

	pos, si := 0, 0
	for _, pt := range doc.Tokens() {
		tok := nlp.Token{
			Text:  pt.Text,
			Lemma: strings.ToLower(pt.Text),
			POS:   mapTag(pt.Tag),
			Tag:   pt.Tag,
			Head:  -1,
		}
		if i := strings.Index(text[pos:], pt.Text); i >= 0 {
			tok.Span = types.Span{Start: pos + i, End: pos + i + len(pt.Text)}
			pos = tok.Span.End
		}
		for si < len(sents)-1 && sents[si].Span.Len() > 0 && tok.Span.Start >= sents[si].Span.End {
			si++
		}
		sents[si].Tokens = append(sents[si].Tokens, tok)
	}
	return sents, nil
}

// mapTag folds Penn Treebank tags onto the universal tag set.
func mapTag(tag string) nlp.POS {
	switch tag {
	case "NN", "NNS":
		return nlp.Noun
	case "NNP", "NNPS":
		return nlp.ProperNoun
	case "MD":
		return nlp.Auxiliary
	case "RP", "TO", "POS":
		return nlp.Particle
	case "IN":
		return nlp.Adposition
	case "DT", "PDT", "WDT":
		return nlp.Determiner
	case "PRP", "PRP$", "WP", "WP$", "EX":
		return nlp.Pronoun
	case "CC":
		return nlp.Conjunction
	case "CD":
		return nlp.Numeral
	case "UH":
		return nlp.Interjection
	case "SYM", "$", "#":
		return nlp.Symbol
	case ".", ",", ":", "``", "''", "(", ")", "-LRB-", "-RRB-", "HYPH", "NFP":
		return nlp.Punctuation
	}
	switch {
	case strings.HasPrefix(tag, "VB"):
		return nlp.Verb
	case strings.HasPrefix(tag, "JJ"):
		return nlp.Adjective
	case strings.HasPrefix(tag, "RB"):
		return nlp.Adverb
	}
	return nlp.OtherPOS
}
